// file: internals/features/events/events/service/materializer.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
	"komunitas_backend/internals/features/events/recurrence"
)

/* =========================
   Materializer
========================= */

// Materializer membuat baris instance untuk occurrence yang belum ada.
// Tidak ada lock di level aplikasi: keunikan dijaga unique index
// (template, original start) + ON CONFLICT DO NOTHING, jadi pemanggilan
// paralel untuk window yang tumpang tindih tetap menghasilkan satu baris per
// occurrence.
type Materializer struct {
	Templates store.TemplateStore
	Instances store.InstanceStore
	Opts      Options
	Now       func() time.Time
}

func NewMaterializer(templates store.TemplateStore, instances store.InstanceStore, opts Options) *Materializer {
	return &Materializer{
		Templates: templates,
		Instances: instances,
		Opts:      opts.withDefaults(),
		Now:       time.Now,
	}
}

// ClampWindow memotong ujung window ke horizon (now + Horizon).
// ok=false bila window kosong setelah dipotong.
func (m *Materializer) ClampWindow(from, to time.Time) (time.Time, time.Time, bool) {
	limit := m.Now().UTC().Add(m.Opts.Horizon)
	if to.After(limit) {
		to = limit
	}
	return from, to, to.After(from)
}

// EnsureMaterialized: idempotent; baris yang sudah ada tidak pernah diubah.
func (m *Materializer) EnsureMaterialized(ctx context.Context, templateID uuid.UUID, from, to time.Time) (int, error) {
	if !to.After(from) {
		return 0, invalid(ReasonInvalidWindow, "window end must be after window start")
	}
	tpl, err := m.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return 0, notFoundOr(err, "load template")
	}
	return m.ensureForTemplate(ctx, tpl, from, to)
}

func (m *Materializer) ensureForTemplate(ctx context.Context, tpl *model.EventTemplateModel, from, to time.Time) (int, error) {
	if !to.After(from) {
		return 0, invalid(ReasonInvalidWindow, "window end must be after window start")
	}
	from, to, ok := m.ClampWindow(from, to)
	if !ok {
		return 0, nil
	}

	created := 0
	for {
		rows, resume, err := m.buildRows(tpl, from, to)
		if err != nil {
			return created, err
		}
		if len(rows) > 0 {
			n, err := m.Instances.InsertIfAbsent(ctx, rows)
			if err != nil {
				return created, err
			}
			created += int(n)
		}
		// ekspansi kena batas per-panggilan: lanjutkan sisa window
		if resume == nil || !to.After(*resume) {
			break
		}
		from = *resume
	}

	if created > 0 {
		log.Debug().
			Str("template_id", tpl.EventTemplateID.String()).
			Int("created", created).
			Msg("materialized instances")
	}
	return created, nil
}

// buildRows: kandidat baris untuk [from, to) dengan nilai default template.
// resume != nil bila ekspansi berhenti di MaxOccurrencesPerExpansion; sisa
// window mulai dari situ.
func (m *Materializer) buildRows(tpl *model.EventTemplateModel, from, to time.Time) ([]model.RecurringEventInstanceModel, *time.Time, error) {
	rule := tpl.Rule()
	dtstart, err := tpl.DTStart(m.Opts.DefaultTimezone)
	if err != nil {
		return nil, nil, fromRule(err)
	}

	exp, err := recurrence.Expand(rule, dtstart, from, to)
	if err != nil {
		return nil, nil, fromRule(err)
	}
	var resume *time.Time
	if exp.Truncated {
		if n := len(exp.Occurrences); n >= recurrence.MaxOccurrencesPerExpansion {
			next := exp.Occurrences[n-1].Start.Add(time.Microsecond)
			resume = &next
		} else {
			log.Warn().
				Str("template_id", tpl.EventTemplateID.String()).
				Int("occurrences", n).
				Msg("recurrence expansion truncated")
		}
	}
	if len(exp.Occurrences) == 0 {
		return nil, nil, nil
	}

	total, err := recurrence.TotalCount(rule, dtstart)
	if err != nil {
		return nil, nil, fromRule(err)
	}

	now := m.Now().UTC().Truncate(time.Microsecond)
	dur := tpl.Duration()
	snap := datatypes.JSONMap(rule.Snapshot())

	rows := make([]model.RecurringEventInstanceModel, 0, len(exp.Occurrences))
	for _, occ := range exp.Occurrences {
		rows = append(rows, m.newRow(tpl, occ, total, snap, dur, now))
	}
	return rows, resume, nil
}

func (m *Materializer) newRow(
	tpl *model.EventTemplateModel,
	occ recurrence.Occurrence,
	total *int,
	snap datatypes.JSONMap,
	dur time.Duration,
	now time.Time,
) model.RecurringEventInstanceModel {
	return model.RecurringEventInstanceModel{
		InstanceTemplateID:      tpl.EventTemplateID,
		InstanceOrganizationID:  tpl.EventTemplateOrganizationID,
		InstanceOriginalStartAt: occ.Start,
		InstanceStartAt:         occ.Start,
		InstanceEndAt:           occ.Start.Add(dur),
		InstanceStatus:          model.InstanceActive,
		InstanceSequence:        occ.Sequence,
		InstanceTotalCount:      total,
		InstanceRuleSnapshot:    snap,
		InstanceGeneratedAt:     now,
		InstanceVersion:         1,
	}
}

// DefaultRow: baris default untuk satu occurrence (dipakai jalur upsert mutasi).
func (m *Materializer) DefaultRow(tpl *model.EventTemplateModel, originalStart time.Time) (*model.RecurringEventInstanceModel, error) {
	dtstart, err := tpl.DTStart(m.Opts.DefaultTimezone)
	if err != nil {
		return nil, fromRule(err)
	}
	occ, ok, err := recurrence.IsOccurrence(tpl.Rule(), dtstart, originalStart)
	if err != nil {
		return nil, fromRule(err)
	}
	if !ok {
		return nil, invalid(ReasonNotAnOccurrence, "%s is not an occurrence of template %s",
			originalStart.UTC().Format(time.RFC3339), tpl.EventTemplateID)
	}
	total, err := recurrence.TotalCount(tpl.Rule(), dtstart)
	if err != nil {
		return nil, fromRule(err)
	}
	row := m.newRow(tpl, occ, total, datatypes.JSONMap(tpl.Rule().Snapshot()), tpl.Duration(),
		m.Now().UTC().Truncate(time.Microsecond))
	return &row, nil
}

// EnsureMaterializedForOrganization: fan-out per template; satu template
// gagal = seluruh panggilan gagal.
func (m *Materializer) EnsureMaterializedForOrganization(ctx context.Context, orgID uuid.UUID, from, to time.Time) (int, error) {
	if !to.After(from) {
		return 0, invalid(ReasonInvalidWindow, "window end must be after window start")
	}
	templates, err := m.Templates.ListTemplatesByOrganization(ctx, orgID)
	if err != nil {
		return 0, err
	}
	if len(templates) == 0 {
		return 0, nil
	}

	counts := make([]int, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Opts.OrgConcurrency)
	for i := range templates {
		i := i
		g.Go(func() error {
			n, err := m.ensureForTemplate(gctx, &templates[i], from, to)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
