// file: internals/features/events/events/model/participant_model.go
package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Enum
========================= */

type AttendeeStatus string

const (
	AttendeeInvited    AttendeeStatus = "invited"
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeeDeclined   AttendeeStatus = "declined"
)

type VolunteerStatus string

const (
	VolunteerPending  VolunteerStatus = "pending"
	VolunteerAccepted VolunteerStatus = "accepted"
	VolunteerRejected VolunteerStatus = "rejected"
)

// ErrTargetNotExclusive: tepat satu dari event_id / instance_id wajib diisi.
var ErrTargetNotExclusive = errors.New("exactly one of event_id or instance_id must be set")

func exactlyOne(eventID, instanceID *uuid.UUID) error {
	hasEvent := eventID != nil && *eventID != uuid.Nil
	hasInstance := instanceID != nil && *instanceID != uuid.Nil
	if hasEvent == hasInstance {
		return ErrTargetNotExclusive
	}
	return nil
}

/* =========================
   EventAttendeeModel
========================= */

// EventID selalu standalone event; occurrence seri memakai InstanceID.
type EventAttendeeModel struct {
	EventAttendeeID         uuid.UUID      `gorm:"type:uuid;primaryKey;column:event_attendee_id" json:"event_attendee_id"`
	EventAttendeeUserID     uuid.UUID      `gorm:"type:uuid;not null;column:event_attendee_user_id;index" json:"event_attendee_user_id"`
	EventAttendeeEventID    *uuid.UUID     `gorm:"type:uuid;column:event_attendee_event_id;index" json:"event_attendee_event_id,omitempty"`
	EventAttendeeInstanceID *uuid.UUID     `gorm:"type:uuid;column:event_attendee_instance_id;index" json:"event_attendee_instance_id,omitempty"`
	EventAttendeeStatus     AttendeeStatus `gorm:"column:event_attendee_status;type:varchar(16);not null" json:"event_attendee_status"`
	EventAttendeeCreatedAt  time.Time      `gorm:"column:event_attendee_created_at;autoCreateTime" json:"event_attendee_created_at"`
	EventAttendeeUpdatedAt  time.Time      `gorm:"column:event_attendee_updated_at;autoUpdateTime" json:"event_attendee_updated_at"`
}

func (EventAttendeeModel) TableName() string { return "event_attendees" }

func (m *EventAttendeeModel) BeforeCreate(tx *gorm.DB) error {
	if err := exactlyOne(m.EventAttendeeEventID, m.EventAttendeeInstanceID); err != nil {
		return err
	}
	if m.EventAttendeeID == uuid.Nil {
		m.EventAttendeeID = newID()
	}
	return nil
}

/* =========================
   VolunteerGroupModel
========================= */

type VolunteerGroupModel struct {
	VolunteerGroupID            uuid.UUID  `gorm:"type:uuid;primaryKey;column:volunteer_group_id" json:"volunteer_group_id"`
	VolunteerGroupEventID       *uuid.UUID `gorm:"type:uuid;column:volunteer_group_event_id;index" json:"volunteer_group_event_id,omitempty"`
	VolunteerGroupInstanceID    *uuid.UUID `gorm:"type:uuid;column:volunteer_group_instance_id;index" json:"volunteer_group_instance_id,omitempty"`
	VolunteerGroupName          string     `gorm:"column:volunteer_group_name;type:varchar(255);not null" json:"volunteer_group_name"`
	VolunteerGroupDescription   string     `gorm:"column:volunteer_group_description;type:text" json:"volunteer_group_description"`
	VolunteerGroupMaxVolunteers *int       `gorm:"column:volunteer_group_max_volunteers" json:"volunteer_group_max_volunteers,omitempty"`
	VolunteerGroupLeaderID      *uuid.UUID `gorm:"type:uuid;column:volunteer_group_leader_id" json:"volunteer_group_leader_id,omitempty"`
	VolunteerGroupCreatorID     *uuid.UUID `gorm:"type:uuid;column:volunteer_group_creator_id" json:"volunteer_group_creator_id,omitempty"`
	VolunteerGroupCreatedAt     time.Time  `gorm:"column:volunteer_group_created_at;autoCreateTime" json:"volunteer_group_created_at"`
	VolunteerGroupUpdatedAt     time.Time  `gorm:"column:volunteer_group_updated_at;autoUpdateTime" json:"volunteer_group_updated_at"`
}

func (VolunteerGroupModel) TableName() string { return "volunteer_groups" }

func (m *VolunteerGroupModel) BeforeCreate(tx *gorm.DB) error {
	if err := exactlyOne(m.VolunteerGroupEventID, m.VolunteerGroupInstanceID); err != nil {
		return err
	}
	if m.VolunteerGroupID == uuid.Nil {
		m.VolunteerGroupID = newID()
	}
	return nil
}

/* =========================
   EventVolunteerModel
========================= */

type EventVolunteerModel struct {
	EventVolunteerID         uuid.UUID       `gorm:"type:uuid;primaryKey;column:event_volunteer_id" json:"event_volunteer_id"`
	EventVolunteerUserID     uuid.UUID       `gorm:"type:uuid;not null;column:event_volunteer_user_id;index" json:"event_volunteer_user_id"`
	EventVolunteerEventID    *uuid.UUID      `gorm:"type:uuid;column:event_volunteer_event_id;index" json:"event_volunteer_event_id,omitempty"`
	EventVolunteerInstanceID *uuid.UUID      `gorm:"type:uuid;column:event_volunteer_instance_id;index" json:"event_volunteer_instance_id,omitempty"`
	EventVolunteerGroupID    *uuid.UUID      `gorm:"type:uuid;column:event_volunteer_group_id" json:"event_volunteer_group_id,omitempty"`
	EventVolunteerStatus     VolunteerStatus `gorm:"column:event_volunteer_status;type:varchar(16);not null" json:"event_volunteer_status"`
	EventVolunteerHours      *float64        `gorm:"column:event_volunteer_hours" json:"event_volunteer_hours,omitempty"`
	EventVolunteerCreatedAt  time.Time       `gorm:"column:event_volunteer_created_at;autoCreateTime" json:"event_volunteer_created_at"`
	EventVolunteerUpdatedAt  time.Time       `gorm:"column:event_volunteer_updated_at;autoUpdateTime" json:"event_volunteer_updated_at"`
}

func (EventVolunteerModel) TableName() string { return "event_volunteers" }

func (m *EventVolunteerModel) BeforeCreate(tx *gorm.DB) error {
	if err := exactlyOne(m.EventVolunteerEventID, m.EventVolunteerInstanceID); err != nil {
		return err
	}
	if m.EventVolunteerID == uuid.Nil {
		m.EventVolunteerID = newID()
	}
	if m.EventVolunteerStatus == "" {
		m.EventVolunteerStatus = VolunteerPending
	}
	return nil
}
