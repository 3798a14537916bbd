// file: internals/features/events/events/store/instance_store.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"komunitas_backend/internals/features/events/events/model"
)

const defaultBatchSize = 200

// InstanceUpdate: kolom status/override yang diubah oleh mutasi per-occurrence.
// Field nil tidak disentuh. ClearOverrides mengosongkan semua kolom override
// (dipakai saat cancel); field override yang diisi tetap ditulis sesudahnya.
type InstanceUpdate struct {
	Status              model.InstanceStatus
	ClearOverrides      bool
	StartAt             *time.Time
	EndAt               *time.Time
	OverrideName        *string
	OverrideDescription *string
	OverrideLocation    *string
	OverridePublic      *bool
	OverrideRegister    *bool
	OverrideInviteOnly  *bool
}

type InstanceStore interface {
	ListByTemplate(ctx context.Context, templateID uuid.UUID, from, to time.Time) ([]model.RecurringEventInstanceModel, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringEventInstanceModel, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecurringEventInstanceModel, error)
	InsertIfAbsent(ctx context.Context, rows []model.RecurringEventInstanceModel) (int64, error)
	Update(ctx context.Context, id uuid.UUID, upd InstanceUpdate) (*model.RecurringEventInstanceModel, error)
	UpsertOccurrence(ctx context.Context, row *model.RecurringEventInstanceModel, upd InstanceUpdate) (*model.RecurringEventInstanceModel, error)
	Page(ctx context.Context, q PageQuery) ([]model.RecurringEventInstanceModel, error)
	IDsByTemplate(ctx context.Context, templateID uuid.UUID) ([]uuid.UUID, error)
}

type GormInstanceStore struct {
	DB        *gorm.DB
	BatchSize int
}

func NewInstanceStore(db *gorm.DB, batchSize int) *GormInstanceStore {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &GormInstanceStore{DB: db, BatchSize: batchSize}
}

func (s *GormInstanceStore) ListByTemplate(ctx context.Context, templateID uuid.UUID, from, to time.Time) ([]model.RecurringEventInstanceModel, error) {
	var rows []model.RecurringEventInstanceModel
	err := s.DB.WithContext(ctx).
		Where("instance_template_id = ?", templateID).
		Where("instance_original_start_at >= ? AND instance_original_start_at < ?", from.UTC(), to.UTC()).
		Order("instance_original_start_at ASC").
		Find(&rows).Error
	return rows, classify(err)
}

func (s *GormInstanceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringEventInstanceModel, error) {
	var row model.RecurringEventInstanceModel
	if err := s.DB.WithContext(ctx).Where("instance_id = ?", id).Take(&row).Error; err != nil {
		return nil, classify(err)
	}
	return &row, nil
}

func (s *GormInstanceStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecurringEventInstanceModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.RecurringEventInstanceModel
	err := s.DB.WithContext(ctx).Where("instance_id IN ?", ids).Find(&rows).Error
	return rows, classify(err)
}

// InsertIfAbsent: idempotent batch insert. Baris yang sudah ada (template,
// original start) dilewati, tidak pernah ditimpa.
func (s *GormInstanceStore) InsertIfAbsent(ctx context.Context, rows []model.RecurringEventInstanceModel) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_template_id"}, {Name: "instance_original_start_at"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, s.BatchSize)
	if tx.Error != nil {
		return 0, classify(tx.Error)
	}
	return tx.RowsAffected, nil
}

func (u InstanceUpdate) columns() map[string]any {
	cols := map[string]any{
		"instance_status":     u.Status,
		"instance_version":    gorm.Expr("instance_version + 1"),
		"instance_updated_at": time.Now().UTC(),
	}
	if u.ClearOverrides {
		for _, col := range overrideColumns {
			cols[col] = nil
		}
	}
	if u.StartAt != nil {
		cols["instance_start_at"] = u.StartAt.UTC()
	}
	if u.EndAt != nil {
		cols["instance_end_at"] = u.EndAt.UTC()
	}
	if u.OverrideName != nil {
		cols["instance_override_name"] = *u.OverrideName
	}
	if u.OverrideDescription != nil {
		cols["instance_override_description"] = *u.OverrideDescription
	}
	if u.OverrideLocation != nil {
		cols["instance_override_location"] = *u.OverrideLocation
	}
	if u.OverridePublic != nil {
		cols["instance_override_is_public"] = *u.OverridePublic
	}
	if u.OverrideRegister != nil {
		cols["instance_override_is_registerable"] = *u.OverrideRegister
	}
	if u.OverrideInviteOnly != nil {
		cols["instance_override_is_invite_only"] = *u.OverrideInviteOnly
	}
	return cols
}

// Update menulis hanya kolom status/override satu baris lalu membaca ulang.
func (s *GormInstanceStore) Update(ctx context.Context, id uuid.UUID, upd InstanceUpdate) (*model.RecurringEventInstanceModel, error) {
	res := s.DB.WithContext(ctx).
		Model(&model.RecurringEventInstanceModel{}).
		Where("instance_id = ?", id).
		Updates(upd.columns())
	if res.Error != nil {
		return nil, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

var overrideColumns = []string{
	"instance_override_name",
	"instance_override_description",
	"instance_override_location",
	"instance_override_is_public",
	"instance_override_is_registerable",
	"instance_override_is_invite_only",
}

// changedColumns: kolom yang ditulis ulang saat konflik pada UpsertOccurrence.
func (u InstanceUpdate) changedColumns() []string {
	cols := []string{"instance_status", "instance_updated_at"}
	if u.StartAt != nil {
		cols = append(cols, "instance_start_at")
	}
	if u.EndAt != nil {
		cols = append(cols, "instance_end_at")
	}
	if u.ClearOverrides {
		return append(cols, overrideColumns...)
	}
	if u.OverrideName != nil {
		cols = append(cols, "instance_override_name")
	}
	if u.OverrideDescription != nil {
		cols = append(cols, "instance_override_description")
	}
	if u.OverrideLocation != nil {
		cols = append(cols, "instance_override_location")
	}
	if u.OverridePublic != nil {
		cols = append(cols, "instance_override_is_public")
	}
	if u.OverrideRegister != nil {
		cols = append(cols, "instance_override_is_registerable")
	}
	if u.OverrideInviteOnly != nil {
		cols = append(cols, "instance_override_is_invite_only")
	}
	return cols
}

// UpsertOccurrence: varian mutasi yang aman walau berbalapan dengan
// materialisasi pertama occurrence yang sama. row adalah baris default
// (seperti hasil generator); upd diterapkan ke row untuk insert, dan saat
// konflik hanya kolom yang disebut upd yang ditimpa.
func (s *GormInstanceStore) UpsertOccurrence(ctx context.Context, row *model.RecurringEventInstanceModel, upd InstanceUpdate) (*model.RecurringEventInstanceModel, error) {
	upd.applyTo(row)

	assignments := clause.AssignmentColumns(upd.changedColumns())
	assignments = append(assignments, clause.Assignment{
		Column: clause.Column{Name: "instance_version"},
		Value:  gorm.Expr("recurring_event_instances.instance_version + 1"),
	})

	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_template_id"}, {Name: "instance_original_start_at"}},
			DoUpdates: assignments,
		}).
		Create(row).Error
	if err != nil {
		return nil, classify(err)
	}

	var out model.RecurringEventInstanceModel
	err = s.DB.WithContext(ctx).
		Where("instance_template_id = ? AND instance_original_start_at = ?", row.InstanceTemplateID, row.InstanceOriginalStartAt.UTC()).
		Take(&out).Error
	if err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

func (u InstanceUpdate) applyTo(m *model.RecurringEventInstanceModel) {
	m.InstanceStatus = u.Status
	m.InstanceUpdatedAt = time.Now().UTC()
	if u.ClearOverrides {
		m.InstanceOverrideName = nil
		m.InstanceOverrideDescription = nil
		m.InstanceOverrideLocation = nil
		m.InstanceOverrideIsPublic = nil
		m.InstanceOverrideIsRegisterable = nil
		m.InstanceOverrideIsInviteOnly = nil
	}
	if u.StartAt != nil {
		m.InstanceStartAt = u.StartAt.UTC()
	}
	if u.EndAt != nil {
		m.InstanceEndAt = u.EndAt.UTC()
	}
	if u.OverrideName != nil {
		m.InstanceOverrideName = u.OverrideName
	}
	if u.OverrideDescription != nil {
		m.InstanceOverrideDescription = u.OverrideDescription
	}
	if u.OverrideLocation != nil {
		m.InstanceOverrideLocation = u.OverrideLocation
	}
	if u.OverridePublic != nil {
		m.InstanceOverrideIsPublic = u.OverridePublic
	}
	if u.OverrideRegister != nil {
		m.InstanceOverrideIsRegisterable = u.OverrideRegister
	}
	if u.OverrideInviteOnly != nil {
		m.InstanceOverrideIsInviteOnly = u.OverrideInviteOnly
	}
}

func (s *GormInstanceStore) Page(ctx context.Context, q PageQuery) ([]model.RecurringEventInstanceModel, error) {
	db := s.DB.WithContext(ctx).
		Model(&model.RecurringEventInstanceModel{}).
		Where("instance_organization_id = ?", q.OrganizationID)
	if !q.IncludeCancelled {
		db = db.Where("instance_status <> ?", model.InstanceCancelled)
	}
	db = applyWindow(db, "instance_start_at", q.From, q.To)
	db = applyKeyset(db, "instance_created_at", "instance_id", q.After)

	var rows []model.RecurringEventInstanceModel
	err := db.Order("instance_created_at ASC").Order("instance_id ASC").
		Limit(q.Limit).
		Find(&rows).Error
	return rows, classify(err)
}

func (s *GormInstanceStore) IDsByTemplate(ctx context.Context, templateID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).
		Model(&model.RecurringEventInstanceModel{}).
		Where("instance_template_id = ?", templateID).
		Pluck("instance_id", &ids).Error
	return ids, classify(err)
}
