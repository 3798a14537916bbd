// file: internals/features/events/events/model/standalone_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StandaloneEventModel struct {
	StandaloneEventID             uuid.UUID  `gorm:"type:uuid;primaryKey;column:standalone_event_id" json:"standalone_event_id"`
	StandaloneEventOrganizationID uuid.UUID  `gorm:"type:uuid;not null;column:standalone_event_organization_id;index" json:"standalone_event_organization_id"`
	StandaloneEventCreatorID      *uuid.UUID `gorm:"type:uuid;column:standalone_event_creator_id" json:"standalone_event_creator_id,omitempty"`

	StandaloneEventName        string `gorm:"column:standalone_event_name;type:varchar(255);not null" json:"standalone_event_name"`
	StandaloneEventDescription string `gorm:"column:standalone_event_description;type:text" json:"standalone_event_description"`
	StandaloneEventLocation    string `gorm:"column:standalone_event_location;type:varchar(255)" json:"standalone_event_location"`

	StandaloneEventStartAt time.Time `gorm:"column:standalone_event_start_at;not null" json:"standalone_event_start_at"`
	StandaloneEventEndAt   time.Time `gorm:"column:standalone_event_end_at;not null" json:"standalone_event_end_at"`

	StandaloneEventAllDay         bool `gorm:"column:standalone_event_all_day;not null;default:false" json:"standalone_event_all_day"`
	StandaloneEventIsPublic       bool `gorm:"column:standalone_event_is_public;not null;default:false" json:"standalone_event_is_public"`
	StandaloneEventIsRegisterable bool `gorm:"column:standalone_event_is_registerable;not null;default:false" json:"standalone_event_is_registerable"`
	StandaloneEventIsInviteOnly   bool `gorm:"column:standalone_event_is_invite_only;not null;default:false" json:"standalone_event_is_invite_only"`

	StandaloneEventAttachments datatypes.JSONSlice[string] `gorm:"column:standalone_event_attachments" json:"standalone_event_attachments"`

	StandaloneEventCreatedAt time.Time `gorm:"column:standalone_event_created_at;autoCreateTime;index:idx_standalone_keyset,priority:1" json:"standalone_event_created_at"`
	StandaloneEventUpdatedAt time.Time `gorm:"column:standalone_event_updated_at;autoUpdateTime" json:"standalone_event_updated_at"`
}

func (StandaloneEventModel) TableName() string { return "standalone_events" }

func (m *StandaloneEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.StandaloneEventID == uuid.Nil {
		m.StandaloneEventID = newID()
	}
	if m.StandaloneEventCreatedAt.IsZero() {
		m.StandaloneEventCreatedAt = nowMicro()
	}
	return nil
}
