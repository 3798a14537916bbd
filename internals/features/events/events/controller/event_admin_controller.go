// file: internals/features/events/events/controller/event_admin_controller.go
package controller

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"komunitas_backend/internals/features/events/events/dto"
	helper "komunitas_backend/internals/helpers"
)

/* =========================
   Templates
   ========================= */

// POST /templates
func (ctl *EventController) CreateTemplate(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.CreateTemplateRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	tpl, err := ctl.Catalog.CreateTemplate(c.UserContext(), caller, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonCreated(c, "Template event dibuat", tpl)
}

// DELETE /templates/:id
func (ctl *EventController) DeleteTemplate(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	if err := ctl.Catalog.DeleteTemplate(c.UserContext(), caller, id); err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonDeleted(c, "Template event dihapus", fiber.Map{"id": id})
}

// POST /templates/:id/occurrences/cancel {original_start_at}
func (ctl *EventController) CancelOccurrence(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	var req dto.CancelOccurrenceRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	v, err := ctl.Instances.CancelOccurrence(c.UserContext(), caller, id, req.OriginalStartAt)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Occurrence dibatalkan", v)
}

/* =========================
   Instances
   ========================= */

// POST /instances/:id/cancel
func (ctl *EventController) CancelInstance(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	v, err := ctl.Instances.CancelInstance(c.UserContext(), caller, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Instance dibatalkan", v)
}

// PATCH /instances/:id
func (ctl *EventController) ModifyInstance(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	var req dto.InstanceOverrides
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	v, err := ctl.Instances.ModifyInstance(c.UserContext(), caller, id, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Instance diperbarui", v)
}

/* =========================
   Standalone
   ========================= */

// POST /standalone-events
func (ctl *EventController) CreateStandalone(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.CreateStandaloneRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	v, err := ctl.Catalog.CreateStandalone(c.UserContext(), caller, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonCreated(c, "Event dibuat", v)
}

// PATCH /standalone-events/:id
func (ctl *EventController) UpdateStandalone(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	var req dto.UpdateStandaloneRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	v, err := ctl.Catalog.UpdateStandalone(c.UserContext(), caller, id, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Event diperbarui", v)
}

// DELETE /standalone-events/:id
func (ctl *EventController) DeleteStandalone(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	if err := ctl.Catalog.DeleteStandalone(c.UserContext(), caller, id); err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonDeleted(c, "Event dihapus", fiber.Map{"id": id})
}

/* =========================
   Participants
   ========================= */

// POST /attendees
func (ctl *EventController) AddAttendee(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.AttendeeRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	a, err := ctl.Catalog.AddAttendee(c.UserContext(), caller, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonCreated(c, "Peserta ditambahkan", a)
}

// POST /volunteer-groups
func (ctl *EventController) CreateVolunteerGroup(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.VolunteerGroupRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	g, err := ctl.Catalog.CreateVolunteerGroup(c.UserContext(), caller, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonCreated(c, "Grup relawan dibuat", g)
}

// POST /volunteers
func (ctl *EventController) AddVolunteer(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.VolunteerRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	v, err := ctl.Catalog.AddVolunteer(c.UserContext(), caller, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonCreated(c, "Relawan ditambahkan", v)
}

/* =========================
   Maintenance
   ========================= */

// POST /organizations/:id/materialize?from&to
func (ctl *EventController) MaterializeOrganization(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	orgID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "organization id tidak valid")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	n, err := ctl.Query.MaterializeOrganization(c.UserContext(), caller, orgID, from, to)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "Materialisasi selesai", fiber.Map{"organization_id": orgID, "created": n})
}
