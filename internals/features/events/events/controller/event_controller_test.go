package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"komunitas_backend/internals/constants"
	"komunitas_backend/internals/databases/testdb"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/service"
	"komunitas_backend/internals/features/events/events/store"
)

var testNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	app    *fiber.App
	db     *gorm.DB
	events *store.GormEventStore
	org    uuid.UUID
	admin  uuid.UUID
	member uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t, model.All()...)
	events := store.NewEventStore(db)
	access := store.NewAccessStore(db)

	q := service.NewQueryService(service.QueryDeps{
		Templates:  events,
		Standalone: events,
		Instances:  store.NewInstanceStore(db, 50),
		Orgs:       events,
		Access:     access,
	}, service.Options{DefaultTimezone: "UTC"})
	q.Now = func() time.Time { return testNow }
	q.Materializer.Now = q.Now
	ctl := NewEventController(q, service.NewInstanceService(q), service.NewCatalogService(q, access), nil)

	h := &harness{db: db, events: events, org: uuid.New(), admin: uuid.New(), member: uuid.New()}
	require.NoError(t, db.Create(&model.OrganizationModel{OrganizationID: h.org, OrganizationName: "Komunitas Lari"}).Error)
	for user, role := range map[uuid.UUID]model.MembershipRole{h.admin: model.MembershipAdministrator, h.member: model.MembershipRegular} {
		require.NoError(t, db.Create(&model.OrganizationMembershipModel{
			MembershipUserID:         user,
			MembershipOrganizationID: h.org,
			MembershipRole:           string(role),
		}).Error)
	}

	app := fiber.New(fiber.Config{JSONEncoder: sonic.Marshal, JSONDecoder: sonic.Unmarshal})
	// pengganti AuthMiddleware: user id diambil dari header
	app.Use(func(c *fiber.Ctx) error {
		if uid := c.Get("X-Test-User"); uid != "" {
			c.Locals(constants.LocUserID, uid)
		}
		return c.Next()
	})
	app.Get("/events/:id", ctl.GetByID)
	app.Post("/events/by-ids", ctl.ListByIDs)
	app.Get("/organizations/:id/events", ctl.QueryOrganization)
	app.Get("/organizations/:id/calendar.ics", ctl.ExportCalendar)
	app.Post("/organizations/:id/materialize", ctl.MaterializeOrganization)
	app.Post("/templates", ctl.CreateTemplate)
	app.Post("/attendees", ctl.AddAttendee)
	h.app = app
	return h
}

func (h *harness) standalone(t *testing.T, name string, inviteOnly bool) *model.StandaloneEventModel {
	t.Helper()
	start := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	m := &model.StandaloneEventModel{
		StandaloneEventOrganizationID: h.org,
		StandaloneEventName:           name,
		StandaloneEventStartAt:        start,
		StandaloneEventEndAt:          start.Add(2 * time.Hour),
		StandaloneEventIsInviteOnly:   inviteOnly,
	}
	require.NoError(t, h.events.CreateStandalone(context.Background(), m))
	return m
}

func (h *harness) do(t *testing.T, method, target string, user uuid.UUID, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

type envelope struct {
	Success   bool                `json:"success"`
	ErrorCode string              `json:"error_code"`
	Reason    string              `json:"reason"`
	Errors    map[string][]string `json:"errors"`
}

func decode(t *testing.T, raw []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, sonic.Unmarshal(raw, &env))
	return env
}

func TestGetByID(t *testing.T) {
	h := newHarness(t)
	hidden := h.standalone(t, "Rapat pengurus", true)
	open := h.standalone(t, "Tabligh akbar", false)

	tests := []struct {
		name   string
		id     string
		user   uuid.UUID
		status int
	}{
		{"visible to member", open.StandaloneEventID.String(), h.member, http.StatusOK},
		{"invite only hidden from member", hidden.StandaloneEventID.String(), h.member, http.StatusNotFound},
		{"org admin bypasses invite", hidden.StandaloneEventID.String(), h.admin, http.StatusOK},
		{"outsider", open.StandaloneEventID.String(), uuid.New(), http.StatusNotFound},
		{"unknown id", uuid.NewString(), h.member, http.StatusNotFound},
		{"malformed id", "bukan-uuid", h.member, http.StatusBadRequest},
		{"anonymous", open.StandaloneEventID.String(), uuid.Nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := h.do(t, http.MethodGet, "/events/"+tt.id, tt.user, "")
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestListByIDs_ValidationIs422(t *testing.T) {
	h := newHarness(t)

	resp, raw := h.do(t, http.MethodPost, "/events/by-ids", h.member, `{"ids":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	env := decode(t, raw)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
	assert.Contains(t, env.Errors, "IDs")

	resp, _ = h.do(t, http.MethodPost, "/events/by-ids", h.member, `{"ids":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidBodyStopsHandler(t *testing.T) {
	h := newHarness(t)
	ev := h.standalone(t, "Tabligh akbar", false)

	tests := []struct {
		name   string
		target string
		user   uuid.UUID
		body   string
		status int
	}{
		{"template missing fields", "/templates", h.admin, `{"organization_id":"` + h.org.String() + `","frequency":"hourly"}`, http.StatusUnprocessableEntity},
		{"template bad json", "/templates", h.admin, `{"organization_id":`, http.StatusBadRequest},
		{"attendee bad status", "/attendees", h.member, `{"user_id":"` + h.member.String() + `","event_id":"` + ev.StandaloneEventID.String() + `","status":"maybe"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := h.do(t, http.MethodPost, tt.target, tt.user, tt.body)
			require.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, decode(t, raw).Success)
		})
	}

	var n int64
	require.NoError(t, h.db.Model(&model.EventTemplateModel{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, h.db.Model(&model.EventAttendeeModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestQueryOrganization_Reasons(t *testing.T) {
	h := newHarness(t)
	h.standalone(t, "Tabligh akbar", false)
	base := "/organizations/" + h.org.String() + "/events"

	tests := map[string]string{
		"?cursor=bm90LWpzb24":            service.ReasonInvalidCursor,
		"?limit=abc":                     service.ReasonInvalidLimit,
		"?limit=-1":                      service.ReasonInvalidLimit,
		"?kind=party":                    service.ReasonInvalidKindFilter,
		"?from=kemarin":                  service.ReasonInvalidWindow,
		"?from=2024-03-10&to=2024-03-01": service.ReasonInvalidWindow,
		"?include_cancelled=kadang":      "invalid_filter",
	}
	for query, want := range tests {
		t.Run(query, func(t *testing.T) {
			resp, raw := h.do(t, http.MethodGet, base+query, h.member, "")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, want, decode(t, raw).Reason)
		})
	}

	resp, raw := h.do(t, http.MethodGet, base+"?limit=1000", h.member, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Limit   int        `json:"limit"`
			HasMore bool       `json:"has_more"`
			From    *time.Time `json:"from"`
			To      *time.Time `json:"to"`
		} `json:"pagination"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 200, page.Pagination.Limit, "limit clamped to max page size")
	assert.False(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.From, "effective window echoed back")
	require.NotNil(t, page.Pagination.To)
	assert.True(t, testNow.Equal(*page.Pagination.From))
}

func TestExportCalendar(t *testing.T) {
	h := newHarness(t)
	h.standalone(t, "Tabligh akbar", false)
	h.standalone(t, "Rapat pengurus", true)

	resp, raw := h.do(t, http.MethodGet, "/organizations/"+h.org.String()+"/calendar.ics", h.member, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/calendar"))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "calendar.ics")

	body := string(raw)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "Tabligh akbar")
	assert.NotContains(t, body, "Rapat pengurus")

	// non-anggota mendapat kalender kosong
	resp, raw = h.do(t, http.MethodGet, "/organizations/"+h.org.String()+"/calendar.ics", uuid.New(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(raw), "Tabligh akbar")
}

func TestMaterializeOrganization_RequiresManager(t *testing.T) {
	h := newHarness(t)
	target := "/organizations/" + h.org.String() + "/materialize?from=2024-03-01&to=2024-04-01"

	resp, _ := h.do(t, http.MethodPost, target, h.member, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw := h.do(t, http.MethodPost, target, h.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode(t, raw).Success)
}
