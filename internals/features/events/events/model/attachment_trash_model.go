// file: internals/features/events/events/model/attachment_trash_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Antrian URL lampiran yang harus dihapus dari object storage
// setelah event/template-nya dihapus.
type AttachmentTrashModel struct {
	AttachmentTrashID          uuid.UUID  `gorm:"type:uuid;primaryKey;column:attachment_trash_id"`
	AttachmentTrashURL         string     `gorm:"column:attachment_trash_url;type:text;not null"`
	AttachmentTrashSource      string     `gorm:"column:attachment_trash_source;type:varchar(64)"`
	AttachmentTrashAttempts    int        `gorm:"column:attachment_trash_attempts;not null;default:0"`
	AttachmentTrashLastError   *string    `gorm:"column:attachment_trash_last_error;type:text"`
	AttachmentTrashProcessedAt *time.Time `gorm:"column:attachment_trash_processed_at;index"`
	AttachmentTrashCreatedAt   time.Time  `gorm:"column:attachment_trash_created_at;autoCreateTime"`
}

func (AttachmentTrashModel) TableName() string { return "event_attachment_trash" }

func (m *AttachmentTrashModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttachmentTrashID == uuid.Nil {
		m.AttachmentTrashID = newID()
	}
	return nil
}

func TrashRowsFor(source string, urls []string) []AttachmentTrashModel {
	out := make([]AttachmentTrashModel, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, AttachmentTrashModel{AttachmentTrashURL: u, AttachmentTrashSource: source})
	}
	return out
}

// All dipakai test untuk AutoMigrate (schema produksi lewat SQL migration).
func All() []any {
	return []any{
		&OrganizationModel{},
		&OrganizationMembershipModel{},
		&EventTemplateModel{},
		&RecurringEventInstanceModel{},
		&StandaloneEventModel{},
		&EventAttendeeModel{},
		&VolunteerGroupModel{},
		&EventVolunteerModel{},
		&AttachmentTrashModel{},
	}
}
