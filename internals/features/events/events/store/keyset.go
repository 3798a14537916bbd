// file: internals/features/events/events/store/keyset.go
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Keyset: posisi dalam urutan (created_at, id). Keduanya immutable.
type Keyset struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type PageQuery struct {
	OrganizationID   uuid.UUID
	After            *Keyset
	Limit            int
	From             *time.Time // start >= From
	To               *time.Time // start < To
	IncludeCancelled bool
}

// applyKeyset: (created_at > ?) OR (created_at = ? AND id > ?), ditulis tanpa
// row-value comparison supaya jalan juga di sqlite.
func applyKeyset(db *gorm.DB, createdCol, idCol string, after *Keyset) *gorm.DB {
	if after == nil {
		return db
	}
	return db.Where(
		"("+createdCol+" > ? OR ("+createdCol+" = ? AND "+idCol+" > ?))",
		after.CreatedAt, after.CreatedAt, after.ID,
	)
}

func applyWindow(db *gorm.DB, col string, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where(col+" >= ?", from.UTC())
	}
	if to != nil {
		db = db.Where(col+" < ?", to.UTC())
	}
	return db
}
