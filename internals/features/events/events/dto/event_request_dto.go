// file: internals/features/events/events/dto/event_request_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"komunitas_backend/internals/features/events/events/model"
)

//
// ========= Template =========
//

// Catatan: creator diisi di controller dari token.
type CreateTemplateRequest struct {
	OrganizationID uuid.UUID  `json:"organization_id" validate:"required"`
	Name           string     `json:"name" validate:"required,max=255"`
	Description    string     `json:"description"`
	Location       string     `json:"location" validate:"max=255"`
	StartAt        time.Time  `json:"start_at" validate:"required"`
	EndAt          time.Time  `json:"end_at" validate:"required,gtfield=StartAt"`
	Timezone       string     `json:"timezone" validate:"omitempty,max=64"`
	AllDay         bool       `json:"all_day"`
	IsPublic       bool       `json:"is_public"`
	IsRegisterable bool       `json:"is_registerable"`
	IsInviteOnly   bool       `json:"is_invite_only"`
	Frequency      string     `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	Interval       int        `json:"interval" validate:"omitempty,min=1"`
	Count          *int       `json:"count" validate:"omitempty,min=1"`
	Until          *time.Time `json:"until"`
	Attachments    []string   `json:"attachments" validate:"omitempty,dive,url"`
}

func (r *CreateTemplateRequest) ToModel(creator uuid.UUID) *model.EventTemplateModel {
	interval := r.Interval
	if interval == 0 {
		interval = 1
	}
	m := &model.EventTemplateModel{
		EventTemplateOrganizationID: r.OrganizationID,
		EventTemplateName:           strings.TrimSpace(r.Name),
		EventTemplateDescription:    r.Description,
		EventTemplateLocation:       strings.TrimSpace(r.Location),
		// rrule bekerja di presisi detik
		EventTemplateStartAt:        r.StartAt.UTC().Truncate(time.Second),
		EventTemplateEndAt:          r.EndAt.UTC().Truncate(time.Second),
		EventTemplateTimezone:       strings.TrimSpace(r.Timezone),
		EventTemplateAllDay:         r.AllDay,
		EventTemplateIsPublic:       r.IsPublic,
		EventTemplateIsRegisterable: r.IsRegisterable,
		EventTemplateIsInviteOnly:   r.IsInviteOnly,
		EventTemplateFrequency:      strings.ToLower(r.Frequency),
		EventTemplateInterval:       interval,
		EventTemplateCount:          r.Count,
		EventTemplateUntil:          r.Until,
		EventTemplateAttachments:    datatypes.NewJSONSlice(r.Attachments),
	}
	if creator != uuid.Nil {
		m.EventTemplateCreatorID = &creator
	}
	return m
}

//
// ========= Standalone =========
//

type CreateStandaloneRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" validate:"required"`
	Name           string    `json:"name" validate:"required,max=255"`
	Description    string    `json:"description"`
	Location       string    `json:"location" validate:"max=255"`
	StartAt        time.Time `json:"start_at" validate:"required"`
	EndAt          time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
	AllDay         bool      `json:"all_day"`
	IsPublic       bool      `json:"is_public"`
	IsRegisterable bool      `json:"is_registerable"`
	IsInviteOnly   bool      `json:"is_invite_only"`
	Attachments    []string  `json:"attachments" validate:"omitempty,dive,url"`
}

func (r *CreateStandaloneRequest) ToModel(creator uuid.UUID) *model.StandaloneEventModel {
	m := &model.StandaloneEventModel{
		StandaloneEventOrganizationID: r.OrganizationID,
		StandaloneEventName:           strings.TrimSpace(r.Name),
		StandaloneEventDescription:    r.Description,
		StandaloneEventLocation:       strings.TrimSpace(r.Location),
		StandaloneEventStartAt:        r.StartAt.UTC(),
		StandaloneEventEndAt:          r.EndAt.UTC(),
		StandaloneEventAllDay:         r.AllDay,
		StandaloneEventIsPublic:       r.IsPublic,
		StandaloneEventIsRegisterable: r.IsRegisterable,
		StandaloneEventIsInviteOnly:   r.IsInviteOnly,
		StandaloneEventAttachments:    datatypes.NewJSONSlice(r.Attachments),
	}
	if creator != uuid.Nil {
		m.StandaloneEventCreatorID = &creator
	}
	return m
}

// PATCH: pointer = opsional
type UpdateStandaloneRequest struct {
	Name           *string    `json:"name" validate:"omitempty,max=255"`
	Description    *string    `json:"description"`
	Location       *string    `json:"location" validate:"omitempty,max=255"`
	StartAt        *time.Time `json:"start_at"`
	EndAt          *time.Time `json:"end_at"`
	AllDay         *bool      `json:"all_day"`
	IsPublic       *bool      `json:"is_public"`
	IsRegisterable *bool      `json:"is_registerable"`
	IsInviteOnly   *bool      `json:"is_invite_only"`
}

func (r *UpdateStandaloneRequest) Apply(m *model.StandaloneEventModel) {
	if r.Name != nil {
		m.StandaloneEventName = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		m.StandaloneEventDescription = *r.Description
	}
	if r.Location != nil {
		m.StandaloneEventLocation = strings.TrimSpace(*r.Location)
	}
	if r.StartAt != nil {
		m.StandaloneEventStartAt = r.StartAt.UTC()
	}
	if r.EndAt != nil {
		m.StandaloneEventEndAt = r.EndAt.UTC()
	}
	if r.AllDay != nil {
		m.StandaloneEventAllDay = *r.AllDay
	}
	if r.IsPublic != nil {
		m.StandaloneEventIsPublic = *r.IsPublic
	}
	if r.IsRegisterable != nil {
		m.StandaloneEventIsRegisterable = *r.IsRegisterable
	}
	if r.IsInviteOnly != nil {
		m.StandaloneEventIsInviteOnly = *r.IsInviteOnly
	}
}

//
// ========= Instance =========
//

// InstanceOverrides: field yang boleh dioverride per occurrence.
type InstanceOverrides struct {
	Name           *string    `json:"name" validate:"omitempty,max=255"`
	Description    *string    `json:"description"`
	Location       *string    `json:"location" validate:"omitempty,max=255"`
	StartAt        *time.Time `json:"start_at"`
	EndAt          *time.Time `json:"end_at"`
	IsPublic       *bool      `json:"is_public"`
	IsRegisterable *bool      `json:"is_registerable"`
	IsInviteOnly   *bool      `json:"is_invite_only"`
}

func (o InstanceOverrides) Empty() bool {
	return o.Name == nil && o.Description == nil && o.Location == nil &&
		o.StartAt == nil && o.EndAt == nil &&
		o.IsPublic == nil && o.IsRegisterable == nil && o.IsInviteOnly == nil
}

type CancelOccurrenceRequest struct {
	OriginalStartAt time.Time `json:"original_start_at" validate:"required"`
}

type ListByIDsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=200"`
}

//
// ========= Participants =========
//

type AttendeeRequest struct {
	UserID     uuid.UUID            `json:"user_id" validate:"required"`
	EventID    *uuid.UUID           `json:"event_id"`
	InstanceID *uuid.UUID           `json:"instance_id"`
	Status     model.AttendeeStatus `json:"status" validate:"required,oneof=invited registered declined"`
}

type VolunteerGroupRequest struct {
	EventID       *uuid.UUID `json:"event_id"`
	InstanceID    *uuid.UUID `json:"instance_id"`
	Name          string     `json:"name" validate:"required,max=255"`
	Description   string     `json:"description"`
	MaxVolunteers *int       `json:"max_volunteers" validate:"omitempty,min=1"`
	LeaderID      *uuid.UUID `json:"leader_id"`
}

type VolunteerRequest struct {
	UserID     uuid.UUID  `json:"user_id" validate:"required"`
	EventID    *uuid.UUID `json:"event_id"`
	InstanceID *uuid.UUID `json:"instance_id"`
	GroupID    *uuid.UUID `json:"group_id"`
}
