// file: internals/features/events/events/service/ics_export.go
package service

import (
	"context"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
)

const icsProductID = "-//komunitas//events//ID"

// ExportCalendar: semua event organisasi yang boleh dilihat caller di window
// tsb sebagai VCALENDAR. Dibatasi Opts.ExportMaxItems.
func (s *QueryService) ExportCalendar(ctx context.Context, caller Caller, orgID uuid.UUID, f QueryFilter) (string, error) {
	f.IncludeCancelled = true

	var (
		items  []dto.EventView
		cursor string
	)
	for len(items) < s.Opts.ExportMaxItems {
		page, err := s.QueryEvents(ctx, caller, orgID, cursor, s.Opts.MaxPageSize, f)
		if err != nil {
			return "", err
		}
		items = append(items, page.Items...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(items) > s.Opts.ExportMaxItems {
		log.Warn().Str("organization_id", orgID.String()).Int("limit", s.Opts.ExportMaxItems).Msg("calendar export truncated")
		items = items[:s.Opts.ExportMaxItems]
	}

	return buildCalendar(items, s.Now().UTC()).Serialize(), nil
}

func buildCalendar(items []dto.EventView, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, v := range items {
		ev := cal.AddEvent(v.ID.String() + "@komunitas")
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(v.CreatedAt)
		if v.AllDay {
			ev.SetAllDayStartAt(v.StartAt)
			ev.SetAllDayEndAt(v.EndAt)
		} else {
			ev.SetStartAt(v.StartAt)
			ev.SetEndAt(v.EndAt)
		}
		ev.SetSummary(v.Name)
		if v.Description != "" {
			ev.SetDescription(v.Description)
		}
		if v.Location != "" {
			ev.SetLocation(v.Location)
		}

		if v.Instance != nil {
			ev.SetProperty(ical.ComponentPropertySequence, strconv.Itoa(v.Instance.Version))
			if v.Instance.Status == model.InstanceCancelled {
				ev.SetStatus(ical.ObjectStatusCancelled)
			} else {
				ev.SetStatus(ical.ObjectStatusConfirmed)
			}
		}
	}
	return cal
}
