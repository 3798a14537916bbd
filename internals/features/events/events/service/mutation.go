// file: internals/features/events/events/service/mutation.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
)

// InstanceService: mutasi per-occurrence (cancel / modify). Hanya baris
// target yang disentuh; template dan instance lain tidak berubah.
type InstanceService struct {
	Templates    store.TemplateStore
	Instances    store.InstanceStore
	Materializer *Materializer
	Gate         *Gate
	Cache        ViewCache
}

func NewInstanceService(q *QueryService) *InstanceService {
	return &InstanceService{
		Templates:    q.Templates,
		Instances:    q.Instances,
		Materializer: q.Materializer,
		Gate:         q.Gate,
		Cache:        q.Cache,
	}
}

// loadForMutation: instance + template + cek hak kelola. Tidak berhak -> ErrNotFound.
func (s *InstanceService) loadForMutation(ctx context.Context, caller Caller, id uuid.UUID) (*model.RecurringEventInstanceModel, *model.EventTemplateModel, error) {
	inst, err := s.Instances.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "load instance")
	}
	tpl, err := s.Templates.GetTemplate(ctx, inst.InstanceTemplateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, integrity("event_template", inst.InstanceTemplateID, "instance "+inst.InstanceID.String())
		}
		return nil, nil, err
	}
	ok, err := s.Gate.CanManage(ctx, caller, tpl.EventTemplateOrganizationID, tpl.EventTemplateCreatorID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotFound
	}
	return inst, tpl, nil
}

func (s *InstanceService) CancelInstance(ctx context.Context, caller Caller, id uuid.UUID) (dto.EventView, error) {
	inst, tpl, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return dto.EventView{}, err
	}
	updated, err := s.Instances.Update(ctx, id, cancelUpdate(tpl, inst.InstanceOriginalStartAt))
	if err != nil {
		return dto.EventView{}, notFoundOr(err, "cancel instance")
	}
	s.Cache.Invalidate(dto.KindRecurringInstance, id)

	log.Info().Str("instance_id", id.String()).Msg("instance cancelled")
	return dto.FromInstance(updated, tpl), nil
}

// cancelUpdate: override hanya berlaku untuk status modified; occurrence yang
// dibatalkan kembali ke jadwal dan nilai default seri.
func cancelUpdate(tpl *model.EventTemplateModel, originalStart time.Time) store.InstanceUpdate {
	start := originalStart.UTC()
	end := start.Add(tpl.Duration())
	return store.InstanceUpdate{
		Status:         model.InstanceCancelled,
		ClearOverrides: true,
		StartAt:        &start,
		EndAt:          &end,
	}
}

func validateOverrides(o dto.InstanceOverrides, current *model.RecurringEventInstanceModel) error {
	if o.Empty() {
		return invalid(ReasonInvalidOverride, "at least one override field is required")
	}
	if o.Name != nil && strings.TrimSpace(*o.Name) == "" {
		return invalid(ReasonInvalidOverride, "name must not be empty")
	}
	start, end := current.InstanceStartAt, current.InstanceEndAt
	if o.StartAt != nil {
		start = *o.StartAt
	}
	if o.EndAt != nil {
		end = *o.EndAt
	}
	if !end.After(start) {
		return invalid(ReasonInvalidOverride, "end must be after start")
	}
	return nil
}

func overridesToUpdate(status model.InstanceStatus, o dto.InstanceOverrides) store.InstanceUpdate {
	upd := store.InstanceUpdate{
		Status:              status,
		StartAt:             o.StartAt,
		EndAt:               o.EndAt,
		OverrideDescription: o.Description,
		OverrideLocation:    o.Location,
		OverridePublic:      o.IsPublic,
		OverrideRegister:    o.IsRegisterable,
		OverrideInviteOnly:  o.IsInviteOnly,
	}
	if o.Name != nil {
		n := strings.TrimSpace(*o.Name)
		upd.OverrideName = &n
	}
	return upd
}

// ModifyInstance: status -> modified + kolom override. Materialisasi ulang
// tidak akan menimpa perubahan ini (insert-if-absent).
func (s *InstanceService) ModifyInstance(ctx context.Context, caller Caller, id uuid.UUID, o dto.InstanceOverrides) (dto.EventView, error) {
	inst, tpl, err := s.loadForMutation(ctx, caller, id)
	if err != nil {
		return dto.EventView{}, err
	}
	if err := validateOverrides(o, inst); err != nil {
		return dto.EventView{}, err
	}

	updated, err := s.Instances.Update(ctx, id, overridesToUpdate(model.InstanceModified, o))
	if err != nil {
		return dto.EventView{}, notFoundOr(err, "modify instance")
	}
	s.Cache.Invalidate(dto.KindRecurringInstance, id)

	log.Info().Str("instance_id", id.String()).Int("version", updated.InstanceVersion).Msg("instance modified")
	return dto.FromInstance(updated, tpl), nil
}

// CancelOccurrence: cancel berdasarkan (template, original start), aman walau
// baris instance-nya belum pernah dimaterialisasi atau sedang dibuat
// bersamaan (upsert di level baris).
func (s *InstanceService) CancelOccurrence(ctx context.Context, caller Caller, templateID uuid.UUID, originalStart time.Time) (dto.EventView, error) {
	tpl, err := s.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return dto.EventView{}, notFoundOr(err, "load template")
	}
	ok, err := s.Gate.CanManage(ctx, caller, tpl.EventTemplateOrganizationID, tpl.EventTemplateCreatorID)
	if err != nil {
		return dto.EventView{}, err
	}
	if !ok {
		return dto.EventView{}, ErrNotFound
	}

	row, err := s.Materializer.DefaultRow(tpl, originalStart)
	if err != nil {
		return dto.EventView{}, err
	}
	saved, err := s.Instances.UpsertOccurrence(ctx, row, cancelUpdate(tpl, row.InstanceOriginalStartAt))
	if err != nil {
		return dto.EventView{}, err
	}
	s.Cache.Invalidate(dto.KindRecurringInstance, saved.InstanceID)
	return dto.FromInstance(saved, tpl), nil
}
