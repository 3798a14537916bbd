// file: internals/features/events/events/service/catalog.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
	"komunitas_backend/internals/features/events/recurrence"
)

// CatalogService: CRUD template/standalone + peserta.
type CatalogService struct {
	Query        *QueryService
	Participants store.ParticipantStore
}

func NewCatalogService(q *QueryService, participants store.ParticipantStore) *CatalogService {
	return &CatalogService{Query: q, Participants: participants}
}

func (s *CatalogService) requireManager(ctx context.Context, caller Caller, orgID uuid.UUID, creator *uuid.UUID) error {
	exists, err := s.Query.Orgs.OrganizationExists(ctx, orgID)
	if err != nil {
		return err
	}
	if !exists {
		return invalid(ReasonUnknownOrg, "organization %s does not exist", orgID)
	}
	ok, err := s.Query.Gate.CanManage(ctx, caller, orgID, creator)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

/* =========================
   Templates
========================= */

func (s *CatalogService) CreateTemplate(ctx context.Context, caller Caller, req dto.CreateTemplateRequest) (*model.EventTemplateModel, error) {
	// pembuat template harus admin organisasi (creator belum ada)
	if err := s.requireManager(ctx, caller, req.OrganizationID, nil); err != nil {
		return nil, err
	}

	m := req.ToModel(caller.UserID)
	if m.EventTemplateTimezone == "" {
		m.EventTemplateTimezone = s.Query.Opts.DefaultTimezone
	}
	if _, err := recurrence.LoadLocation(m.EventTemplateTimezone, "UTC"); err != nil {
		return nil, fromRule(err)
	}
	if err := m.Rule().Validate(); err != nil {
		return nil, fromRule(err)
	}
	if m.EventTemplateUntil != nil && m.EventTemplateUntil.Before(m.EventTemplateStartAt) {
		return nil, invalid(recurrence.ReasonConflictingEnd, "until must not be before the first occurrence")
	}

	if err := s.Query.Templates.CreateTemplate(ctx, m); err != nil {
		return nil, err
	}
	log.Info().Str("template_id", m.EventTemplateID.String()).Str("frequency", m.EventTemplateFrequency).Msg("template created")
	return m, nil
}

func (s *CatalogService) DeleteTemplate(ctx context.Context, caller Caller, id uuid.UUID) error {
	tpl, err := s.Query.Templates.GetTemplate(ctx, id)
	if err != nil {
		return notFoundOr(err, "load template")
	}
	if err := s.requireManager(ctx, caller, tpl.EventTemplateOrganizationID, tpl.EventTemplateCreatorID); err != nil {
		return err
	}

	instanceIDs, err := s.Query.Instances.IDsByTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Query.Templates.DeleteTemplate(ctx, id); err != nil {
		return notFoundOr(err, "delete template")
	}
	s.Query.Cache.Invalidate(dto.KindRecurringInstance, instanceIDs...)
	return nil
}

/* =========================
   Standalone
========================= */

func (s *CatalogService) CreateStandalone(ctx context.Context, caller Caller, req dto.CreateStandaloneRequest) (dto.EventView, error) {
	if err := s.requireManager(ctx, caller, req.OrganizationID, nil); err != nil {
		return dto.EventView{}, err
	}
	m := req.ToModel(caller.UserID)
	if err := s.Query.Standalone.CreateStandalone(ctx, m); err != nil {
		return dto.EventView{}, err
	}
	s.Query.Cache.Invalidate(dto.KindStandalone, m.StandaloneEventID)
	return dto.FromStandalone(m), nil
}

func (s *CatalogService) UpdateStandalone(ctx context.Context, caller Caller, id uuid.UUID, req dto.UpdateStandaloneRequest) (dto.EventView, error) {
	m, err := s.Query.Standalone.GetStandalone(ctx, id)
	if err != nil {
		return dto.EventView{}, notFoundOr(err, "load standalone event")
	}
	if err := s.requireManager(ctx, caller, m.StandaloneEventOrganizationID, m.StandaloneEventCreatorID); err != nil {
		return dto.EventView{}, err
	}

	req.Apply(m)
	if !m.StandaloneEventEndAt.After(m.StandaloneEventStartAt) {
		return dto.EventView{}, invalid(ReasonInvalidOverride, "end must be after start")
	}
	if err := s.Query.Standalone.SaveStandalone(ctx, m); err != nil {
		return dto.EventView{}, err
	}
	s.Query.Cache.Invalidate(dto.KindStandalone, id)
	return dto.FromStandalone(m), nil
}

func (s *CatalogService) DeleteStandalone(ctx context.Context, caller Caller, id uuid.UUID) error {
	m, err := s.Query.Standalone.GetStandalone(ctx, id)
	if err != nil {
		return notFoundOr(err, "load standalone event")
	}
	if err := s.requireManager(ctx, caller, m.StandaloneEventOrganizationID, m.StandaloneEventCreatorID); err != nil {
		return err
	}
	if err := s.Query.Standalone.DeleteStandalone(ctx, id); err != nil {
		return notFoundOr(err, "delete standalone event")
	}
	s.Query.Cache.Invalidate(dto.KindStandalone, id)
	return nil
}

/* =========================
   Participants
========================= */

// target: organisasi + creator dari event_id (standalone) atau instance_id.
type target struct {
	orgID      uuid.UUID
	creator    *uuid.UUID
	registable bool
}

func (s *CatalogService) resolveTarget(ctx context.Context, caller Caller, eventID, instanceID *uuid.UUID) (target, error) {
	hasEvent := eventID != nil && *eventID != uuid.Nil
	hasInstance := instanceID != nil && *instanceID != uuid.Nil
	if hasEvent == hasInstance {
		return target{}, invalid(ReasonInvalidTarget, "exactly one of event_id or instance_id must be set")
	}

	if hasInstance {
		v, err := s.Query.GetEvent(ctx, caller, *instanceID)
		if err != nil {
			return target{}, err
		}
		if v.Kind != dto.KindRecurringInstance {
			return target{}, ErrNotFound
		}
		return target{orgID: v.OrganizationID, creator: v.CreatorID, registable: v.IsRegisterable}, nil
	}

	// event_id hanya untuk standalone; seri didaftarkan per instance
	if _, err := s.Query.Standalone.GetStandalone(ctx, *eventID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return target{}, err
		}
		if _, terr := s.visibleTemplate(ctx, caller, *eventID); terr == nil {
			return target{}, invalid(ReasonInvalidTarget, "event_id must reference a standalone event, use instance_id for a series occurrence")
		}
		return target{}, ErrNotFound
	}
	v, err := s.Query.GetEvent(ctx, caller, *eventID)
	if err != nil {
		return target{}, err
	}
	return target{orgID: v.OrganizationID, creator: v.CreatorID, registable: v.IsRegisterable}, nil
}

// visibleTemplate: satu seri diperiksa gate seperti satu event dengan id template.
func (s *CatalogService) visibleTemplate(ctx context.Context, caller Caller, id uuid.UUID) (*model.EventTemplateModel, error) {
	tpl, err := s.Query.Templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load template")
	}
	visible, err := s.Query.Gate.CanSee(ctx, caller, dto.EventView{
		Kind:           dto.KindStandalone,
		ID:             tpl.EventTemplateID,
		OrganizationID: tpl.EventTemplateOrganizationID,
		CreatorID:      tpl.EventTemplateCreatorID,
		IsRegisterable: tpl.EventTemplateIsRegisterable,
		IsInviteOnly:   tpl.EventTemplateIsInviteOnly,
	})
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotFound
	}
	return tpl, nil
}

// GetTemplate: definisi seri (rule + default) untuk caller yang boleh melihatnya.
func (s *CatalogService) GetTemplate(ctx context.Context, caller Caller, id uuid.UUID) (*model.EventTemplateModel, error) {
	return s.visibleTemplate(ctx, caller, id)
}

// AddAttendee: pengelola boleh mengundang siapa pun; anggota biasa hanya
// boleh mendaftarkan / menolak dirinya sendiri.
func (s *CatalogService) AddAttendee(ctx context.Context, caller Caller, req dto.AttendeeRequest) (*model.EventAttendeeModel, error) {
	t, err := s.resolveTarget(ctx, caller, req.EventID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	manager, err := s.Query.Gate.CanManage(ctx, caller, t.orgID, t.creator)
	if err != nil {
		return nil, err
	}
	if !manager {
		if req.UserID != caller.UserID || req.Status == model.AttendeeInvited {
			return nil, ErrNotFound
		}
		if req.Status == model.AttendeeRegistered && !t.registable {
			return nil, invalid(ReasonInvalidTarget, "event is not open for registration")
		}
	}

	m := &model.EventAttendeeModel{
		EventAttendeeUserID:     req.UserID,
		EventAttendeeEventID:    req.EventID,
		EventAttendeeInstanceID: req.InstanceID,
		EventAttendeeStatus:     req.Status,
	}
	if err := s.Participants.CreateAttendee(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CatalogService) CreateVolunteerGroup(ctx context.Context, caller Caller, req dto.VolunteerGroupRequest) (*model.VolunteerGroupModel, error) {
	t, err := s.resolveTarget(ctx, caller, req.EventID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, t.orgID, t.creator); err != nil {
		return nil, err
	}
	m := &model.VolunteerGroupModel{
		VolunteerGroupEventID:       req.EventID,
		VolunteerGroupInstanceID:    req.InstanceID,
		VolunteerGroupName:          req.Name,
		VolunteerGroupDescription:   req.Description,
		VolunteerGroupMaxVolunteers: req.MaxVolunteers,
		VolunteerGroupLeaderID:      req.LeaderID,
	}
	if caller.UserID != uuid.Nil {
		uid := caller.UserID
		m.VolunteerGroupCreatorID = &uid
	}
	if err := s.Participants.CreateVolunteerGroup(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CatalogService) AddVolunteer(ctx context.Context, caller Caller, req dto.VolunteerRequest) (*model.EventVolunteerModel, error) {
	t, err := s.resolveTarget(ctx, caller, req.EventID, req.InstanceID)
	if err != nil {
		return nil, err
	}
	manager, err := s.Query.Gate.CanManage(ctx, caller, t.orgID, t.creator)
	if err != nil {
		return nil, err
	}
	status := model.VolunteerPending
	switch {
	case manager:
		status = model.VolunteerAccepted
	case req.UserID != caller.UserID:
		return nil, ErrNotFound
	}

	m := &model.EventVolunteerModel{
		EventVolunteerUserID:     req.UserID,
		EventVolunteerEventID:    req.EventID,
		EventVolunteerInstanceID: req.InstanceID,
		EventVolunteerGroupID:    req.GroupID,
		EventVolunteerStatus:     status,
	}
	if err := s.Participants.CreateVolunteer(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
