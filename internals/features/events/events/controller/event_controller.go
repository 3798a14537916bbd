// file: internals/features/events/events/controller/event_controller.go
package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/constants"
	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/service"
	"komunitas_backend/internals/features/events/events/store"
	helper "komunitas_backend/internals/helpers"
)

/* =========================
   Controller & Constructor
   ========================= */

type EventController struct {
	Query     *service.QueryService
	Instances *service.InstanceService
	Catalog   *service.CatalogService
	Validate  *validator.Validate
}

func NewEventController(q *service.QueryService, inst *service.InstanceService, cat *service.CatalogService, v *validator.Validate) *EventController {
	if v == nil {
		v = validator.New()
	}
	return &EventController{Query: q, Instances: inst, Catalog: cat, Validate: v}
}

/* =========================
   Small helpers
   ========================= */

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	idStr := strings.TrimSpace(c.Params(name))
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	return uuid.Parse(idStr)
}

// parseTimeQuery: RFC3339 atau YYYY-MM-DD (UTC midnight). Kosong = nil.
func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", name)
}

// callerFrom: identitas dari locals yang diisi AuthMiddleware.
func callerFrom(c *fiber.Ctx) (service.Caller, error) {
	id, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return service.Caller{}, err
	}
	return service.Caller{
		UserID:        id,
		PlatformAdmin: constants.IsPlatformAdmin(helper.GetRoleFromToken(c)),
	}, nil
}

// parseBody: ok=false berarti response error sudah ditulis, handler harus
// langsung return err (nil kalau penulisan berhasil).
func (ctl *EventController) parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, http.StatusBadRequest, "Body tidak valid: "+err.Error())
	}
	if err := ctl.Validate.Struct(out); err != nil {
		if fields, ok := helper.FieldErrors(err); ok {
			return false, helper.JsonValidationError(c, fields)
		}
		return false, helper.JsonError(c, http.StatusBadRequest, err.Error())
	}
	return true, nil
}

// writeServiceError memetakan error service/store ke envelope JSON.
func writeServiceError(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ve):
		return helper.JsonErrorReason(c, http.StatusBadRequest, ve.Reason, ve.Message)
	case errors.Is(err, service.ErrNotFound):
		return helper.JsonError(c, http.StatusNotFound, "Event tidak ditemukan")
	case errors.Is(err, service.ErrInternal):
		return helper.JsonError(c, http.StatusInternalServerError, "Terjadi kesalahan data")
	case errors.Is(err, store.ErrDuplicate):
		return helper.JsonError(c, http.StatusConflict, "Data duplikat (unique violation).")
	case errors.Is(err, store.ErrForeignKey):
		return helper.JsonError(c, http.StatusBadRequest, "Referensi tidak ditemukan (FK violation).")
	case errors.Is(err, store.ErrCheck):
		return helper.JsonError(c, http.StatusBadRequest, "Data melanggar constraint.")
	case errors.As(err, &fe):
		return helper.JsonError(c, fe.Code, fe.Message)
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
		return helper.JsonError(c, http.StatusInternalServerError, "")
	}
}

/* =========================
   Reads
   ========================= */

// POST /events/by-ids
func (ctl *EventController) ListByIDs(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req dto.ListByIDsRequest
	if ok, err := ctl.parseBody(c, &req); !ok {
		return err
	}
	views, err := ctl.Query.ListEvents(c.UserContext(), caller, req.IDs)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", views)
}

// GET /events/:id
func (ctl *EventController) GetByID(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	v, err := ctl.Query.GetEvent(c.UserContext(), caller, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", v)
}

// GET /templates/:id
func (ctl *EventController) GetTemplate(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	tpl, err := ctl.Catalog.GetTemplate(c.UserContext(), caller, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", tpl)
}

// GET /templates/:id/instances?from&to
func (ctl *EventController) ListInstances(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "id tidak valid")
	}
	from, to, err := windowQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	views, err := ctl.Query.ListRecurringInstances(c.UserContext(), caller, id, from, to)
	if err != nil {
		return writeServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", views)
}

func windowQuery(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return nil, nil, &service.ValidationError{Reason: service.ReasonInvalidWindow, Message: err.Error()}
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return nil, nil, &service.ValidationError{Reason: service.ReasonInvalidWindow, Message: err.Error()}
	}
	return from, to, nil
}

func filterQuery(c *fiber.Ctx) (service.QueryFilter, error) {
	from, to, err := windowQuery(c)
	if err != nil {
		return service.QueryFilter{}, err
	}
	f := service.QueryFilter{
		Kind: dto.EventKind(strings.TrimSpace(c.Query("kind"))),
		From: from,
		To:   to,
	}
	if raw := strings.TrimSpace(c.Query("include_cancelled")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, &service.ValidationError{Reason: "invalid_filter", Message: "include_cancelled must be a boolean"}
		}
		f.IncludeCancelled = b
	}
	return f, nil
}

// GET /organizations/:id/events?cursor&limit&kind&from&to&include_cancelled
func (ctl *EventController) QueryOrganization(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	orgID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "organization id tidak valid")
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return helper.JsonErrorReason(c, http.StatusBadRequest, service.ReasonInvalidLimit, "limit must be an integer")
		}
		limit = n
	}
	f, err := filterQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}

	page, err := ctl.Query.QueryEvents(c.UserContext(), caller, orgID, strings.TrimSpace(c.Query("cursor")), limit, f)
	if err != nil {
		return writeServiceError(c, err)
	}
	// limit efektif sama dengan yang dipakai service
	if limit == 0 {
		limit = ctl.Query.Opts.DefaultPageSize
	}
	if limit > ctl.Query.Opts.MaxPageSize {
		limit = ctl.Query.Opts.MaxPageSize
	}
	p := helper.BuildCursorPagination(limit, len(page.Items), page.NextCursor).WithWindow(page.From, page.To)
	return helper.JsonCursorList(c, "ok", page.Items, p)
}

// GET /organizations/:id/calendar.ics?from&to&kind
func (ctl *EventController) ExportCalendar(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	orgID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, http.StatusBadRequest, "organization id tidak valid")
	}
	f, err := filterQuery(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	body, err := ctl.Query.ExportCalendar(c.UserContext(), caller, orgID, f)
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="calendar.ics"`)
	return c.Status(fiber.StatusOK).SendString(body)
}
