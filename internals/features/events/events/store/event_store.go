// file: internals/features/events/events/store/event_store.go
package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"komunitas_backend/internals/features/events/events/model"
)

type TemplateStore interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*model.EventTemplateModel, error)
	GetTemplates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.EventTemplateModel, error)
	ListTemplatesByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.EventTemplateModel, error)
	CreateTemplate(ctx context.Context, m *model.EventTemplateModel) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

type StandaloneStore interface {
	GetStandalone(ctx context.Context, id uuid.UUID) (*model.StandaloneEventModel, error)
	GetStandaloneByIDs(ctx context.Context, ids []uuid.UUID) ([]model.StandaloneEventModel, error)
	CreateStandalone(ctx context.Context, m *model.StandaloneEventModel) error
	SaveStandalone(ctx context.Context, m *model.StandaloneEventModel) error
	DeleteStandalone(ctx context.Context, id uuid.UUID) error
	PageStandalone(ctx context.Context, q PageQuery) ([]model.StandaloneEventModel, error)
}

type GormEventStore struct {
	DB *gorm.DB
}

func NewEventStore(db *gorm.DB) *GormEventStore { return &GormEventStore{DB: db} }

/* =========================
   Organizations
========================= */

func (s *GormEventStore) OrganizationExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&model.OrganizationModel{}).
		Where("organization_id = ?", id).Count(&n).Error
	return n > 0, classify(err)
}

/* =========================
   Templates
========================= */

func (s *GormEventStore) GetTemplate(ctx context.Context, id uuid.UUID) (*model.EventTemplateModel, error) {
	var m model.EventTemplateModel
	if err := s.DB.WithContext(ctx).Where("event_template_id = ?", id).Take(&m).Error; err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

// GetTemplates: batch lookup; id yang tidak ada cukup tidak muncul di map.
func (s *GormEventStore) GetTemplates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.EventTemplateModel, error) {
	out := make(map[uuid.UUID]*model.EventTemplateModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.EventTemplateModel
	if err := s.DB.WithContext(ctx).Where("event_template_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	for i := range rows {
		out[rows[i].EventTemplateID] = &rows[i]
	}
	return out, nil
}

func (s *GormEventStore) ListTemplatesByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.EventTemplateModel, error) {
	var rows []model.EventTemplateModel
	err := s.DB.WithContext(ctx).
		Where("event_template_organization_id = ?", orgID).
		Order("event_template_created_at ASC").
		Find(&rows).Error
	return rows, classify(err)
}

func (s *GormEventStore) CreateTemplate(ctx context.Context, m *model.EventTemplateModel) error {
	return classify(s.DB.WithContext(ctx).Create(m).Error)
}

// DeleteTemplate: hapus template + instance + peserta dalam satu transaksi,
// lampiran masuk antrian trash.
func (s *GormEventStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return classify(s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tpl model.EventTemplateModel
		if err := tx.Where("event_template_id = ?", id).Take(&tpl).Error; err != nil {
			return err
		}

		instanceIDs := tx.Model(&model.RecurringEventInstanceModel{}).
			Select("instance_id").
			Where("instance_template_id = ?", id)
		if err := deleteParticipants(tx, nil, instanceIDs); err != nil {
			return err
		}
		if err := tx.Where("instance_template_id = ?", id).Delete(&model.RecurringEventInstanceModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&tpl).Error; err != nil {
			return err
		}
		if trash := model.TrashRowsFor("event_template", tpl.EventTemplateAttachments); len(trash) > 0 {
			return tx.Create(&trash).Error
		}
		return nil
	}))
}

/* =========================
   Standalone
========================= */

func (s *GormEventStore) GetStandalone(ctx context.Context, id uuid.UUID) (*model.StandaloneEventModel, error) {
	var m model.StandaloneEventModel
	if err := s.DB.WithContext(ctx).Where("standalone_event_id = ?", id).Take(&m).Error; err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

func (s *GormEventStore) GetStandaloneByIDs(ctx context.Context, ids []uuid.UUID) ([]model.StandaloneEventModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.StandaloneEventModel
	err := s.DB.WithContext(ctx).Where("standalone_event_id IN ?", ids).Find(&rows).Error
	return rows, classify(err)
}

func (s *GormEventStore) CreateStandalone(ctx context.Context, m *model.StandaloneEventModel) error {
	return classify(s.DB.WithContext(ctx).Create(m).Error)
}

func (s *GormEventStore) SaveStandalone(ctx context.Context, m *model.StandaloneEventModel) error {
	return classify(s.DB.WithContext(ctx).Save(m).Error)
}

func (s *GormEventStore) DeleteStandalone(ctx context.Context, id uuid.UUID) error {
	return classify(s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.StandaloneEventModel
		if err := tx.Where("standalone_event_id = ?", id).Take(&ev).Error; err != nil {
			return err
		}
		if err := deleteParticipants(tx, []uuid.UUID{id}, nil); err != nil {
			return err
		}
		if err := tx.Delete(&ev).Error; err != nil {
			return err
		}
		if trash := model.TrashRowsFor("standalone_event", ev.StandaloneEventAttachments); len(trash) > 0 {
			return tx.Create(&trash).Error
		}
		return nil
	}))
}

func (s *GormEventStore) PageStandalone(ctx context.Context, q PageQuery) ([]model.StandaloneEventModel, error) {
	db := s.DB.WithContext(ctx).
		Model(&model.StandaloneEventModel{}).
		Where("standalone_event_organization_id = ?", q.OrganizationID)
	db = applyWindow(db, "standalone_event_start_at", q.From, q.To)
	db = applyKeyset(db, "standalone_event_created_at", "standalone_event_id", q.After)

	var rows []model.StandaloneEventModel
	err := db.Order("standalone_event_created_at ASC").Order("standalone_event_id ASC").
		Limit(q.Limit).
		Find(&rows).Error
	return rows, classify(err)
}

// deleteParticipants: attendee/volunteer/group milik standalone event dan/atau instance.
// instanceIDs boleh subquery gorm; nil = tidak ada instance.
func deleteParticipants(tx *gorm.DB, eventIDs []uuid.UUID, instanceIDs *gorm.DB) error {
	type target struct {
		model       any
		eventCol    string
		instanceCol string
	}
	targets := []target{
		{&model.EventAttendeeModel{}, "event_attendee_event_id", "event_attendee_instance_id"},
		{&model.EventVolunteerModel{}, "event_volunteer_event_id", "event_volunteer_instance_id"},
		{&model.VolunteerGroupModel{}, "volunteer_group_event_id", "volunteer_group_instance_id"},
	}
	for _, t := range targets {
		if len(eventIDs) > 0 {
			if err := tx.Where(t.eventCol+" IN ?", eventIDs).Delete(t.model).Error; err != nil {
				return err
			}
		}
		if instanceIDs != nil {
			if err := tx.Where(t.instanceCol+" IN (?)", instanceIDs).Delete(t.model).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
