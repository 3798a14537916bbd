// file: internals/features/events/events/model/recurring_event_instance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Enum
========================= */

type InstanceStatus string

const (
	InstanceActive    InstanceStatus = "active"
	InstanceCancelled InstanceStatus = "cancelled"
	InstanceModified  InstanceStatus = "modified"
)

/* =========================
   Model: RecurringEventInstanceModel
========================= */

// Satu baris per occurrence konkret. Kunci alami: (template, original start).
type RecurringEventInstanceModel struct {
	InstanceID             uuid.UUID `gorm:"type:uuid;primaryKey;column:instance_id" json:"instance_id"`
	InstanceTemplateID     uuid.UUID `gorm:"type:uuid;not null;column:instance_template_id;uniqueIndex:ux_rei_template_original_start,priority:1" json:"instance_template_id"`
	InstanceOrganizationID uuid.UUID `gorm:"type:uuid;not null;column:instance_organization_id;index" json:"instance_organization_id"`

	InstanceOriginalStartAt time.Time `gorm:"column:instance_original_start_at;not null;uniqueIndex:ux_rei_template_original_start,priority:2" json:"instance_original_start_at"`
	InstanceStartAt         time.Time `gorm:"column:instance_start_at;not null" json:"instance_start_at"`
	InstanceEndAt           time.Time `gorm:"column:instance_end_at;not null" json:"instance_end_at"`

	InstanceStatus InstanceStatus `gorm:"column:instance_status;type:varchar(16);not null;default:'active'" json:"instance_status"`

	// Override (null = warisi dari template)
	InstanceOverrideName           *string `gorm:"column:instance_override_name;type:varchar(255)" json:"instance_override_name,omitempty"`
	InstanceOverrideDescription    *string `gorm:"column:instance_override_description;type:text" json:"instance_override_description,omitempty"`
	InstanceOverrideLocation       *string `gorm:"column:instance_override_location;type:varchar(255)" json:"instance_override_location,omitempty"`
	InstanceOverrideIsPublic       *bool   `gorm:"column:instance_override_is_public" json:"instance_override_is_public,omitempty"`
	InstanceOverrideIsRegisterable *bool   `gorm:"column:instance_override_is_registerable" json:"instance_override_is_registerable,omitempty"`
	InstanceOverrideIsInviteOnly   *bool   `gorm:"column:instance_override_is_invite_only" json:"instance_override_is_invite_only,omitempty"`

	InstanceSequence     int               `gorm:"column:instance_sequence;not null" json:"instance_sequence"`
	InstanceTotalCount   *int              `gorm:"column:instance_total_count" json:"instance_total_count,omitempty"`
	InstanceRuleSnapshot datatypes.JSONMap `gorm:"column:instance_rule_snapshot" json:"instance_rule_snapshot,omitempty"`

	InstanceGeneratedAt time.Time `gorm:"column:instance_generated_at;not null" json:"instance_generated_at"`
	InstanceVersion     int       `gorm:"column:instance_version;not null;default:1" json:"instance_version"`

	InstanceCreatedAt time.Time `gorm:"column:instance_created_at;autoCreateTime;index:idx_rei_keyset,priority:1" json:"instance_created_at"`
	InstanceUpdatedAt time.Time `gorm:"column:instance_updated_at;autoUpdateTime" json:"instance_updated_at"`
}

func (RecurringEventInstanceModel) TableName() string { return "recurring_event_instances" }

func (m *RecurringEventInstanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.InstanceID == uuid.Nil {
		m.InstanceID = newID()
	}
	if m.InstanceCreatedAt.IsZero() {
		m.InstanceCreatedAt = nowMicro()
	}
	if m.InstanceGeneratedAt.IsZero() {
		m.InstanceGeneratedAt = m.InstanceCreatedAt
	}
	if m.InstanceStatus == "" {
		m.InstanceStatus = InstanceActive
	}
	if m.InstanceVersion == 0 {
		m.InstanceVersion = 1
	}
	return nil
}
