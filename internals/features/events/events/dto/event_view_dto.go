// file: internals/features/events/events/dto/event_view_dto.go
package dto

import (
	"bytes"
	"time"

	"github.com/google/uuid"

	"komunitas_backend/internals/features/events/events/model"
)

type EventKind string

const (
	KindStandalone        EventKind = "standalone"
	KindRecurringInstance EventKind = "recurring_instance"
)

// EventView adalah tagged union: Kind menentukan bagian mana yang terisi.
// Instance hanya terisi untuk KindRecurringInstance.
type EventView struct {
	Kind           EventKind  `json:"kind"`
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`

	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`

	AllDay         bool `json:"all_day"`
	IsPublic       bool `json:"is_public"`
	IsRegisterable bool `json:"is_registerable"`
	IsInviteOnly   bool `json:"is_invite_only"`

	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Instance *InstanceDetail `json:"instance,omitempty"`
}

type InstanceDetail struct {
	TemplateID      uuid.UUID            `json:"template_id"`
	OriginalStartAt time.Time            `json:"original_start_at"`
	Status          model.InstanceStatus `json:"status"`
	Sequence        int                  `json:"sequence"`
	TotalCount      *int                 `json:"total_count,omitempty"`
	GeneratedAt     time.Time            `json:"generated_at"`
	Version         int                  `json:"version"`
}

// Less: urutan keyset (created_at, id).
func (v EventView) Less(o EventView) bool {
	if !v.CreatedAt.Equal(o.CreatedAt) {
		return v.CreatedAt.Before(o.CreatedAt)
	}
	return bytes.Compare(v.ID[:], o.ID[:]) < 0
}

/* =========================
   Builders
========================= */

func FromStandalone(m *model.StandaloneEventModel) EventView {
	return EventView{
		Kind:           KindStandalone,
		ID:             m.StandaloneEventID,
		OrganizationID: m.StandaloneEventOrganizationID,
		CreatorID:      m.StandaloneEventCreatorID,
		Name:           m.StandaloneEventName,
		Description:    m.StandaloneEventDescription,
		Location:       m.StandaloneEventLocation,
		StartAt:        m.StandaloneEventStartAt.UTC(),
		EndAt:          m.StandaloneEventEndAt.UTC(),
		AllDay:         m.StandaloneEventAllDay,
		IsPublic:       m.StandaloneEventIsPublic,
		IsRegisterable: m.StandaloneEventIsRegisterable,
		IsInviteOnly:   m.StandaloneEventIsInviteOnly,
		Attachments:    []string(m.StandaloneEventAttachments),
		CreatedAt:      m.StandaloneEventCreatedAt.UTC(),
	}
}

// FromInstance: nilai dasar dari template, lalu override milik instance.
func FromInstance(inst *model.RecurringEventInstanceModel, tpl *model.EventTemplateModel) EventView {
	v := EventView{
		Kind:           KindRecurringInstance,
		ID:             inst.InstanceID,
		OrganizationID: inst.InstanceOrganizationID,
		CreatorID:      tpl.EventTemplateCreatorID,
		Name:           tpl.EventTemplateName,
		Description:    tpl.EventTemplateDescription,
		Location:       tpl.EventTemplateLocation,
		StartAt:        inst.InstanceStartAt.UTC(),
		EndAt:          inst.InstanceEndAt.UTC(),
		AllDay:         tpl.EventTemplateAllDay,
		IsPublic:       tpl.EventTemplateIsPublic,
		IsRegisterable: tpl.EventTemplateIsRegisterable,
		IsInviteOnly:   tpl.EventTemplateIsInviteOnly,
		Attachments:    []string(tpl.EventTemplateAttachments),
		CreatedAt:      inst.InstanceCreatedAt.UTC(),
		Instance: &InstanceDetail{
			TemplateID:      inst.InstanceTemplateID,
			OriginalStartAt: inst.InstanceOriginalStartAt.UTC(),
			Status:          inst.InstanceStatus,
			Sequence:        inst.InstanceSequence,
			TotalCount:      inst.InstanceTotalCount,
			GeneratedAt:     inst.InstanceGeneratedAt.UTC(),
			Version:         inst.InstanceVersion,
		},
	}
	if inst.InstanceOverrideName != nil {
		v.Name = *inst.InstanceOverrideName
	}
	if inst.InstanceOverrideDescription != nil {
		v.Description = *inst.InstanceOverrideDescription
	}
	if inst.InstanceOverrideLocation != nil {
		v.Location = *inst.InstanceOverrideLocation
	}
	if inst.InstanceOverrideIsPublic != nil {
		v.IsPublic = *inst.InstanceOverrideIsPublic
	}
	if inst.InstanceOverrideIsRegisterable != nil {
		v.IsRegisterable = *inst.InstanceOverrideIsRegisterable
	}
	if inst.InstanceOverrideIsInviteOnly != nil {
		v.IsInviteOnly = *inst.InstanceOverrideIsInviteOnly
	}
	return v
}
