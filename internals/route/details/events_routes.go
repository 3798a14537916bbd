// internals/route/details/events_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	EventController "komunitas_backend/internals/features/events/events/controller"
	EventRoutes "komunitas_backend/internals/features/events/events/route"
)

/* ===================== USER (PRIVATE) ===================== */
// Endpoint baca event + pendaftaran peserta/relawan (token user)
func EventsUserRoutes(r fiber.Router, ctl *EventController.EventController) {
	EventRoutes.EventUserRoutes(r, ctl)
}

/* ===================== ADMIN ===================== */
// Hak kelola per organisasi dicek di service, bukan di group
func EventsAdminRoutes(r fiber.Router, ctl *EventController.EventController) {
	EventRoutes.EventAdminRoutes(r, ctl)
}

/* ===================== SUPER ADMIN ===================== */
func EventsOwnerRoutes(r fiber.Router, ctl *EventController.EventController) {
	EventRoutes.EventOwnerRoutes(r, ctl)
}
