package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"komunitas_backend/internals/databases/testdb"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
)

var fixedNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	events *store.GormEventStore
	inst   *store.GormInstanceStore
	query  *QueryService
	muts   *InstanceService
	cat    *CatalogService

	org     uuid.UUID
	admin   uuid.UUID // admin organisasi
	member  uuid.UUID // anggota biasa
	outside uuid.UUID // bukan anggota
}

func newFixture(t *testing.T, cache ViewCache) *fixture {
	t.Helper()
	return newFixtureOn(t, testdb.Open(t, model.All()...), cache)
}

func newFixtureOn(t *testing.T, db *gorm.DB, cache ViewCache) *fixture {
	t.Helper()

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		db:      db,
		events:  store.NewEventStore(db),
		inst:    store.NewInstanceStore(db, 50),
		org:     uuid.New(),
		admin:   uuid.New(),
		member:  uuid.New(),
		outside: uuid.New(),
	}
	access := store.NewAccessStore(db)
	f.query = NewQueryService(QueryDeps{
		Templates:  f.events,
		Standalone: f.events,
		Instances:  f.inst,
		Orgs:       f.events,
		Access:     access,
		Cache:      cache,
	}, Options{DefaultTimezone: "UTC", Horizon: 365 * 24 * time.Hour})
	f.query.Now = func() time.Time { return fixedNow }
	f.query.Materializer.Now = f.query.Now
	f.muts = NewInstanceService(f.query)
	f.cat = NewCatalogService(f.query, access)

	require.NoError(t, db.Create(&model.OrganizationModel{OrganizationID: f.org, OrganizationName: "Komunitas Lari"}).Error)
	f.addMember(f.admin, string(model.MembershipAdministrator))
	f.addMember(f.member, string(model.MembershipRegular))
	return f
}

func (f *fixture) addMember(user uuid.UUID, role string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&model.OrganizationMembershipModel{
		MembershipUserID:         user,
		MembershipOrganizationID: f.org,
		MembershipRole:           role,
	}).Error)
}

func (f *fixture) caller(user uuid.UUID) Caller { return Caller{UserID: user} }

type tplOpt func(*model.EventTemplateModel)

func withCount(n int) tplOpt {
	return func(m *model.EventTemplateModel) { m.EventTemplateCount = &n }
}

func inviteOnly() tplOpt {
	return func(m *model.EventTemplateModel) { m.EventTemplateIsInviteOnly = true }
}

func createdBy(user uuid.UUID) tplOpt {
	return func(m *model.EventTemplateModel) { m.EventTemplateCreatorID = &user }
}

// template mingguan Senin 10:00 UTC mulai 4 Maret 2024.
func (f *fixture) weeklyTemplate(opts ...tplOpt) *model.EventTemplateModel {
	f.t.Helper()
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	m := &model.EventTemplateModel{
		EventTemplateOrganizationID: f.org,
		EventTemplateName:           "Lari pagi",
		EventTemplateLocation:       "GBK",
		EventTemplateStartAt:        start,
		EventTemplateEndAt:          start.Add(time.Hour),
		EventTemplateTimezone:       "UTC",
		EventTemplateFrequency:      "weekly",
		EventTemplateInterval:       1,
	}
	for _, o := range opts {
		o(m)
	}
	require.NoError(f.t, f.events.CreateTemplate(f.ctx, m))
	return m
}

func (f *fixture) standalone(name string, start time.Time, createdSec int, inviteOnly bool) *model.StandaloneEventModel {
	f.t.Helper()
	m := &model.StandaloneEventModel{
		StandaloneEventOrganizationID: f.org,
		StandaloneEventName:           name,
		StandaloneEventStartAt:        start,
		StandaloneEventEndAt:          start.Add(2 * time.Hour),
		StandaloneEventIsInviteOnly:   inviteOnly,
		StandaloneEventCreatedAt:      time.Date(2024, 1, 1, 0, 0, createdSec, 0, time.UTC),
	}
	require.NoError(f.t, f.events.CreateStandalone(f.ctx, m))
	return m
}

func (f *fixture) invite(user uuid.UUID, eventID, instanceID *uuid.UUID, status model.AttendeeStatus) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&model.EventAttendeeModel{
		EventAttendeeUserID:     user,
		EventAttendeeEventID:    eventID,
		EventAttendeeInstanceID: instanceID,
		EventAttendeeStatus:     status,
	}).Error)
}

func march() (*time.Time, *time.Time) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return &from, &to
}

func ptr[T any](v T) *T { return &v }
