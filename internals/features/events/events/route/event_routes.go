// file: internals/features/events/events/route/event_routes.go
package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	evCtl "komunitas_backend/internals/features/events/events/controller"
	"komunitas_backend/internals/features/events/events/service"
	"komunitas_backend/internals/features/events/events/store"
	"komunitas_backend/internals/middlewares"
)

type Deps struct {
	DB              *gorm.DB
	Cache           service.ViewCache // nil = tanpa cache
	Options         service.Options
	InsertBatchSize int
}

// NewEventController merakit store → service → controller.
func NewEventController(d Deps) *evCtl.EventController {
	events := store.NewEventStore(d.DB)
	access := store.NewAccessStore(d.DB)
	q := service.NewQueryService(service.QueryDeps{
		Templates:  events,
		Standalone: events,
		Instances:  store.NewInstanceStore(d.DB, d.InsertBatchSize),
		Orgs:       events,
		Access:     access,
		Cache:      d.Cache,
	}, d.Options)
	return evCtl.NewEventController(q, service.NewInstanceService(q), service.NewCatalogService(q, access), validator.New())
}

// =========================
// USER routes (/api/u), JWT wajib
// =========================
func EventUserRoutes(r fiber.Router, ctl *evCtl.EventController) {
	ev := r.Group("/events")
	ev.Post("/by-ids", ctl.ListByIDs)
	ev.Get("/:id", ctl.GetByID)

	tpl := r.Group("/templates")
	tpl.Get("/:id", ctl.GetTemplate)
	tpl.Get("/:id/instances", ctl.ListInstances)

	org := r.Group("/organizations/:id")
	org.Get("/events", ctl.QueryOrganization)
	org.Get("/calendar.ics", middlewares.ExportRateLimiter(), ctl.ExportCalendar)

	r.Post("/attendees", ctl.AddAttendee)
	r.Post("/volunteers", ctl.AddVolunteer)
}

// =========================
// ADMIN routes (/api/a), hak kelola dicek di service per organisasi
// =========================
func EventAdminRoutes(r fiber.Router, ctl *evCtl.EventController) {
	tpl := r.Group("/templates")
	tpl.Post("/", ctl.CreateTemplate)
	tpl.Delete("/:id", ctl.DeleteTemplate)
	tpl.Post("/:id/occurrences/cancel", ctl.CancelOccurrence)

	inst := r.Group("/instances")
	inst.Post("/:id/cancel", ctl.CancelInstance)
	inst.Patch("/:id", ctl.ModifyInstance)

	sa := r.Group("/standalone-events")
	sa.Post("/", ctl.CreateStandalone)
	sa.Patch("/:id", ctl.UpdateStandalone)
	sa.Delete("/:id", ctl.DeleteStandalone)

	r.Post("/attendees", ctl.AddAttendee)
	r.Post("/volunteer-groups", ctl.CreateVolunteerGroup)
	r.Post("/volunteers", ctl.AddVolunteer)
}

// =========================
// OWNER routes (/api/o), platform administrator saja
// =========================
func EventOwnerRoutes(r fiber.Router, ctl *evCtl.EventController) {
	r.Post("/organizations/:id/materialize", ctl.MaterializeOrganization)
}
