// file: internals/features/events/events/store/access_store.go
package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"komunitas_backend/internals/features/events/events/model"
)

// AccessStore: data yang dibutuhkan authorization gate.
type AccessStore interface {
	// Memberships: role caller per organisasi (hanya org yang diminta).
	Memberships(ctx context.Context, userID uuid.UUID, orgIDs []uuid.UUID) (map[uuid.UUID]string, error)
	// InvitedTargets: id standalone event / instance di mana user punya
	// record attendee berstatus invited atau registered.
	InvitedTargets(ctx context.Context, userID uuid.UUID, eventIDs, instanceIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type ParticipantStore interface {
	CreateAttendee(ctx context.Context, m *model.EventAttendeeModel) error
	CreateVolunteerGroup(ctx context.Context, m *model.VolunteerGroupModel) error
	CreateVolunteer(ctx context.Context, m *model.EventVolunteerModel) error
}

type GormAccessStore struct {
	DB *gorm.DB
}

func NewAccessStore(db *gorm.DB) *GormAccessStore { return &GormAccessStore{DB: db} }

func (s *GormAccessStore) Memberships(ctx context.Context, userID uuid.UUID, orgIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(orgIDs))
	if userID == uuid.Nil || len(orgIDs) == 0 {
		return out, nil
	}
	var rows []model.OrganizationMembershipModel
	err := s.DB.WithContext(ctx).
		Where("membership_user_id = ? AND membership_organization_id IN ?", userID, orgIDs).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	for _, r := range rows {
		out[r.MembershipOrganizationID] = r.MembershipRole
	}
	return out, nil
}

func (s *GormAccessStore) InvitedTargets(ctx context.Context, userID uuid.UUID, eventIDs, instanceIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if userID == uuid.Nil || (len(eventIDs) == 0 && len(instanceIDs) == 0) {
		return out, nil
	}

	db := s.DB.WithContext(ctx).
		Model(&model.EventAttendeeModel{}).
		Where("event_attendee_user_id = ?", userID).
		Where("event_attendee_status IN ?", []model.AttendeeStatus{model.AttendeeInvited, model.AttendeeRegistered})

	switch {
	case len(eventIDs) > 0 && len(instanceIDs) > 0:
		db = db.Where("(event_attendee_event_id IN ? OR event_attendee_instance_id IN ?)", eventIDs, instanceIDs)
	case len(eventIDs) > 0:
		db = db.Where("event_attendee_event_id IN ?", eventIDs)
	default:
		db = db.Where("event_attendee_instance_id IN ?", instanceIDs)
	}

	var rows []model.EventAttendeeModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	for _, r := range rows {
		if r.EventAttendeeEventID != nil {
			out[*r.EventAttendeeEventID] = true
		}
		if r.EventAttendeeInstanceID != nil {
			out[*r.EventAttendeeInstanceID] = true
		}
	}
	return out, nil
}

/* =========================
   Participants
========================= */

func (s *GormAccessStore) CreateAttendee(ctx context.Context, m *model.EventAttendeeModel) error {
	return classify(s.DB.WithContext(ctx).Create(m).Error)
}

func (s *GormAccessStore) CreateVolunteerGroup(ctx context.Context, m *model.VolunteerGroupModel) error {
	return classify(s.DB.WithContext(ctx).Create(m).Error)
}

func (s *GormAccessStore) CreateVolunteer(ctx context.Context, m *model.EventVolunteerModel) error {
	return classify(s.DB.WithContext(ctx).Create(m).Error)
}
