// file: internals/features/events/events/model/event_template_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"komunitas_backend/internals/features/events/recurrence"
)

/* =========================
   Model: EventTemplateModel
   (master event berulang)
========================= */

type EventTemplateModel struct {
	EventTemplateID             uuid.UUID  `gorm:"type:uuid;primaryKey;column:event_template_id" json:"event_template_id"`
	EventTemplateOrganizationID uuid.UUID  `gorm:"type:uuid;not null;column:event_template_organization_id;index" json:"event_template_organization_id"`
	EventTemplateCreatorID      *uuid.UUID `gorm:"type:uuid;column:event_template_creator_id" json:"event_template_creator_id,omitempty"`

	EventTemplateName        string `gorm:"column:event_template_name;type:varchar(255);not null" json:"event_template_name"`
	EventTemplateDescription string `gorm:"column:event_template_description;type:text" json:"event_template_description"`
	EventTemplateLocation    string `gorm:"column:event_template_location;type:varchar(255)" json:"event_template_location"`

	// Occurrence pertama; durasi = end - start
	EventTemplateStartAt  time.Time `gorm:"column:event_template_start_at;not null" json:"event_template_start_at"`
	EventTemplateEndAt    time.Time `gorm:"column:event_template_end_at;not null" json:"event_template_end_at"`
	EventTemplateTimezone string    `gorm:"column:event_template_timezone;type:varchar(64);not null" json:"event_template_timezone"`

	// Flags
	EventTemplateAllDay         bool `gorm:"column:event_template_all_day;not null;default:false" json:"event_template_all_day"`
	EventTemplateIsPublic       bool `gorm:"column:event_template_is_public;not null;default:false" json:"event_template_is_public"`
	EventTemplateIsRegisterable bool `gorm:"column:event_template_is_registerable;not null;default:false" json:"event_template_is_registerable"`
	EventTemplateIsInviteOnly   bool `gorm:"column:event_template_is_invite_only;not null;default:false" json:"event_template_is_invite_only"`

	// Aturan berulang
	EventTemplateFrequency string     `gorm:"column:event_template_frequency;type:varchar(16);not null" json:"event_template_frequency"`
	EventTemplateInterval  int        `gorm:"column:event_template_interval;not null;default:1" json:"event_template_interval"`
	EventTemplateCount     *int       `gorm:"column:event_template_count" json:"event_template_count,omitempty"`
	EventTemplateUntil     *time.Time `gorm:"column:event_template_until" json:"event_template_until,omitempty"`

	EventTemplateAttachments datatypes.JSONSlice[string] `gorm:"column:event_template_attachments" json:"event_template_attachments"`

	EventTemplateCreatedAt time.Time `gorm:"column:event_template_created_at;autoCreateTime" json:"event_template_created_at"`
	EventTemplateUpdatedAt time.Time `gorm:"column:event_template_updated_at;autoUpdateTime" json:"event_template_updated_at"`
}

func (EventTemplateModel) TableName() string { return "event_templates" }

func (m *EventTemplateModel) BeforeCreate(tx *gorm.DB) error {
	if m.EventTemplateID == uuid.Nil {
		m.EventTemplateID = newID()
	}
	if m.EventTemplateCreatedAt.IsZero() {
		m.EventTemplateCreatedAt = nowMicro()
	}
	return nil
}

func (m *EventTemplateModel) Rule() recurrence.Rule {
	return recurrence.Rule{
		Frequency: recurrence.Frequency(m.EventTemplateFrequency),
		Interval:  m.EventTemplateInterval,
		Count:     m.EventTemplateCount,
		Until:     m.EventTemplateUntil,
	}
}

func (m *EventTemplateModel) Duration() time.Duration {
	d := m.EventTemplateEndAt.Sub(m.EventTemplateStartAt)
	if d < 0 {
		return 0
	}
	return d
}

// DTStart mengembalikan start pertama dalam zona waktu template.
func (m *EventTemplateModel) DTStart(defaultTZ string) (time.Time, error) {
	loc, err := recurrence.LoadLocation(m.EventTemplateTimezone, defaultTZ)
	if err != nil {
		return time.Time{}, err
	}
	return m.EventTemplateStartAt.In(loc), nil
}

/* =========================
   Helpers (shared by models)
========================= */

func newID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}

func nowMicro() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
