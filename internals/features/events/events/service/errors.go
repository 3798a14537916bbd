// file: internals/features/events/events/service/errors.go
package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/features/events/events/store"
	"komunitas_backend/internals/features/events/recurrence"
)

// ErrNotFound juga dipakai untuk "tidak berhak melihat": caller tidak boleh
// bisa membedakan keduanya.
var ErrNotFound = errors.New("event not found")

// ErrInternal dikembalikan ke caller untuk masalah integritas data.
var ErrInternal = errors.New("internal error")

type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Reason + ": " + e.Message }

func invalid(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

const (
	ReasonInvalidCursor     = "invalid_cursor"
	ReasonInvalidLimit      = "invalid_limit"
	ReasonInvalidWindow     = recurrence.ReasonInvalidWindow
	ReasonInvalidOverride   = "invalid_override"
	ReasonNotAnOccurrence   = "not_an_occurrence"
	ReasonInvalidTarget     = "invalid_target"
	ReasonUnknownOrg        = "unknown_organization"
	ReasonInvalidKindFilter = "invalid_kind"
)

// IntegrityError: baris yang seharusnya ada (template induk, organisasi) hilang.
type IntegrityError struct {
	Entity string
	ID     uuid.UUID
	Ref    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s %s missing (%s)", e.Entity, e.ID, e.Ref)
}

func (e *IntegrityError) Unwrap() error { return ErrInternal }

// integrity mencatat error di level error lalu mengembalikannya.
func integrity(entity string, id uuid.UUID, ref string) error {
	err := &IntegrityError{Entity: entity, ID: id, Ref: ref}
	log.Error().
		Str("entity", entity).
		Str("id", id.String()).
		Str("ref", ref).
		Msg("data integrity violation")
	return err
}

// fromRule: RuleError dari evaluator -> ValidationError dengan reason yang sama.
func fromRule(err error) error {
	var re *recurrence.RuleError
	if errors.As(err, &re) {
		return &ValidationError{Reason: re.Reason, Message: re.Message}
	}
	return err
}

// notFoundOr: store.ErrNotFound -> ErrNotFound, selain itu dibungkus.
func notFoundOr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
