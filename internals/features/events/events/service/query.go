// file: internals/features/events/events/service/query.go
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
	helper "komunitas_backend/internals/helpers"
)

type OrganizationLookup interface {
	OrganizationExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type QueryFilter struct {
	Kind             dto.EventKind // kosong = semua
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

type Page struct {
	Items      []dto.EventView `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	// window efektif; ikut tersimpan di NextCursor
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// QueryService: satu pintu baca untuk standalone event + recurring instance.
type QueryService struct {
	Templates    store.TemplateStore
	Standalone   store.StandaloneStore
	Instances    store.InstanceStore
	Orgs         OrganizationLookup
	Materializer *Materializer
	Gate         *Gate
	Cache        ViewCache
	Opts         Options
	Now          func() time.Time
}

type QueryDeps struct {
	Templates  store.TemplateStore
	Standalone store.StandaloneStore
	Instances  store.InstanceStore
	Orgs       OrganizationLookup
	Access     store.AccessStore
	Cache      ViewCache
}

func NewQueryService(d QueryDeps, opts Options) *QueryService {
	opts = opts.withDefaults()
	c := d.Cache
	if c == nil {
		c = noopCache{}
	}
	return &QueryService{
		Templates:    d.Templates,
		Standalone:   d.Standalone,
		Instances:    d.Instances,
		Orgs:         d.Orgs,
		Materializer: NewMaterializer(d.Templates, d.Instances, opts),
		Gate:         NewGate(d.Access),
		Cache:        c,
		Opts:         opts,
		Now:          time.Now,
	}
}

/* =========================
   Resolve (row -> view)
========================= */

// resolveInstances: template di-load sekali per batch. Instance tanpa
// template = pelanggaran integritas (bukan "not found").
func (s *QueryService) resolveInstances(ctx context.Context, rows []model.RecurringEventInstanceModel) ([]dto.EventView, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, r := range rows {
		if _, ok := seen[r.InstanceTemplateID]; !ok {
			seen[r.InstanceTemplateID] = struct{}{}
			ids = append(ids, r.InstanceTemplateID)
		}
	}
	tpls, err := s.Templates.GetTemplates(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.EventView, 0, len(rows))
	for i := range rows {
		tpl, ok := tpls[rows[i].InstanceTemplateID]
		if !ok {
			return nil, integrity("event_template", rows[i].InstanceTemplateID, "instance "+rows[i].InstanceID.String())
		}
		out = append(out, dto.FromInstance(&rows[i], tpl))
	}
	return out, nil
}

func standaloneViews(rows []model.StandaloneEventModel) []dto.EventView {
	out := make([]dto.EventView, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromStandalone(&rows[i]))
	}
	return out
}

func sortViews(views []dto.EventView) {
	sort.Slice(views, func(i, j int) bool { return views[i].Less(views[j]) })
}

/* =========================
   listEvents(ids)
========================= */

// ListEvents: lookup batch by id. Hasil parsial normal; id yang tidak ada
// atau tidak boleh dilihat cukup tidak muncul.
func (s *QueryService) ListEvents(ctx context.Context, caller Caller, ids []uuid.UUID) ([]dto.EventView, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []dto.EventView{}, nil
	}

	views := make([]dto.EventView, 0, len(ids))
	var misses []uuid.UUID
	leases := map[uuid.UUID]CacheLease{}
	for _, id := range ids {
		v, lease, ok := s.Cache.GetView(id)
		if ok {
			views = append(views, v)
			continue
		}
		leases[id] = lease
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		var (
			sRows []model.StandaloneEventModel
			iRows []model.RecurringEventInstanceModel
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			sRows, err = s.Standalone.GetStandaloneByIDs(gctx, misses)
			return err
		})
		g.Go(func() (err error) {
			iRows, err = s.Instances.GetByIDs(gctx, misses)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		iViews, err := s.resolveInstances(ctx, iRows)
		if err != nil {
			return nil, err
		}
		loaded := append(standaloneViews(sRows), iViews...)
		for _, v := range loaded {
			s.Cache.SetView(leases[v.ID], v)
		}
		views = append(views, loaded...)
	}

	allowed, err := s.Gate.Filter(ctx, caller, views)
	if err != nil {
		return nil, err
	}
	sortViews(allowed)

	log.Info().
		Int("requested", len(ids)).
		Int("found", len(views)).
		Int("authorized", len(allowed)).
		Msg("listEvents")
	return allowed, nil
}

// GetEvent: lookup satu id; tidak ada / tidak berhak -> ErrNotFound.
func (s *QueryService) GetEvent(ctx context.Context, caller Caller, id uuid.UUID) (dto.EventView, error) {
	views, err := s.ListEvents(ctx, caller, []uuid.UUID{id})
	if err != nil {
		return dto.EventView{}, err
	}
	if len(views) == 0 {
		return dto.EventView{}, ErrNotFound
	}
	return views[0], nil
}

/* =========================
   listRecurringInstances(templateId, window?)
========================= */

// defaultWindow: tanpa from, window mulai awal hari UTC ini (bukan "now")
// sehingga hasilnya stabil sepanjang hari.
func (s *QueryService) defaultWindow(from, to *time.Time) (time.Time, time.Time, error) {
	today := s.Now().UTC().Truncate(24 * time.Hour)
	start, end := today, today.Add(s.Opts.Horizon)
	if from != nil {
		start = from.UTC()
	}
	if to != nil {
		end = to.UTC()
	} else if from != nil && !end.After(start) {
		end = start.Add(s.Opts.Horizon)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, invalid(ReasonInvalidWindow, "window end must be after window start")
	}
	return start, end, nil
}

// ListRecurringInstances: materialisasi window lalu kembalikan instance
// urut original start. Instance yang dibatalkan tetap ikut (status cancelled).
func (s *QueryService) ListRecurringInstances(ctx context.Context, caller Caller, templateID uuid.UUID, from, to *time.Time) ([]dto.EventView, error) {
	start, end, err := s.defaultWindow(from, to)
	if err != nil {
		return nil, err
	}

	tpl, err := s.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, notFoundOr(err, "load template")
	}
	member, err := s.Gate.IsMember(ctx, caller, tpl.EventTemplateOrganizationID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotFound
	}

	views, lease, ok := s.Cache.GetInstanceList(templateID, start, end)
	if !ok {
		if _, err := s.Materializer.ensureForTemplate(ctx, tpl, start, end); err != nil {
			return nil, err
		}
		rows, err := s.Instances.ListByTemplate(ctx, templateID, start, end)
		if err != nil {
			return nil, err
		}
		views = make([]dto.EventView, 0, len(rows))
		for i := range rows {
			views = append(views, dto.FromInstance(&rows[i], tpl))
		}
		s.Cache.SetInstanceList(lease, views)
	}

	allowed, err := s.Gate.Filter(ctx, caller, views)
	if err != nil {
		return nil, err
	}
	if allowed == nil {
		allowed = []dto.EventView{}
	}
	return allowed, nil
}

// MaterializeOrganization: pre-materialisasi semua seri milik organisasi
// untuk window tertentu. Hanya untuk pengelola organisasi.
func (s *QueryService) MaterializeOrganization(ctx context.Context, caller Caller, orgID uuid.UUID, from, to *time.Time) (int, error) {
	start, end, err := s.defaultWindow(from, to)
	if err != nil {
		return 0, err
	}
	ok, err := s.Gate.CanManage(ctx, caller, orgID, nil)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	// platform admin lolos gate tanpa membership, cek org-nya tetap perlu
	exists, err := s.Orgs.OrganizationExists(ctx, orgID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, invalid(ReasonUnknownOrg, "organization %s does not exist", orgID)
	}

	n, err := s.Materializer.EnsureMaterializedForOrganization(ctx, orgID, start, end)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Cache.Invalidate(dto.KindRecurringInstance)
	}
	log.Info().Str("organization", orgID.String()).Int("created", n).Msg("organization materialized")
	return n, nil
}

/* =========================
   queryEvents(org, cursor, limit, filter)
========================= */

func (s *QueryService) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, invalid(ReasonInvalidLimit, "limit must not be negative")
	case limit == 0:
		return s.Opts.DefaultPageSize, nil
	case limit > s.Opts.MaxPageSize:
		return s.Opts.MaxPageSize, nil
	default:
		return limit, nil
	}
}

// QueryEvents: halaman campuran standalone + instance milik organisasi,
// urut (created_at, id). Baris yang tidak boleh dilihat dilewati dan
// pengambilan diulang sampai halaman penuh atau sumber habis.
func (s *QueryService) QueryEvents(ctx context.Context, caller Caller, orgID uuid.UUID, cursor string, limit int, f QueryFilter) (Page, error) {
	limit, err := s.resolveLimit(limit)
	if err != nil {
		return Page{}, err
	}

	var after *store.Keyset
	if cursor != "" {
		c, err := helper.DecodeCursor(cursor)
		if err != nil {
			return Page{}, invalid(ReasonInvalidCursor, "cursor is malformed")
		}
		after = &store.Keyset{CreatedAt: c.CreatedAt, ID: c.ID}
		// halaman lanjutan memakai window halaman pertama kecuali client
		// mengirim window sendiri
		if f.From == nil && f.To == nil {
			f.From, f.To = c.From, c.To
		}
	}

	wantStandalone, wantInstances := true, true
	switch f.Kind {
	case "":
	case dto.KindStandalone:
		wantInstances = false
	case dto.KindRecurringInstance:
		wantStandalone = false
	default:
		return Page{}, invalid(ReasonInvalidKindFilter, "unknown kind %q", f.Kind)
	}

	start, end, err := s.defaultWindow(f.From, f.To)
	if err != nil {
		return Page{}, err
	}

	// membership dulu: non-anggota dapat halaman kosong yang sama untuk org
	// yang ada maupun tidak
	member, err := s.Gate.IsMember(ctx, caller, orgID)
	if err != nil {
		return Page{}, err
	}
	if !member {
		return Page{Items: []dto.EventView{}, From: start, To: end}, nil
	}
	exists, err := s.Orgs.OrganizationExists(ctx, orgID)
	if err != nil {
		return Page{}, err
	}
	if !exists {
		return Page{}, ErrNotFound
	}

	if wantInstances {
		if _, err := s.Materializer.EnsureMaterializedForOrganization(ctx, orgID, start, end); err != nil {
			return Page{}, err
		}
	}

	need := limit + 1
	out := make([]dto.EventView, 0, need)
	pos := after
	for len(out) < need {
		batch := need - len(out)
		if batch < 8 {
			batch = 8
		}
		q := store.PageQuery{
			OrganizationID:   orgID,
			After:            pos,
			Limit:            batch,
			From:             &start,
			To:               &end,
			IncludeCancelled: f.IncludeCancelled,
		}

		views, exhausted, err := s.fetchMerged(ctx, q, wantStandalone, wantInstances)
		if err != nil {
			return Page{}, err
		}
		if len(views) == 0 {
			break
		}

		allowed, err := s.Gate.Filter(ctx, caller, views)
		if err != nil {
			return Page{}, err
		}
		out = append(out, allowed...)

		last := views[len(views)-1]
		pos = &store.Keyset{CreatedAt: last.CreatedAt, ID: last.ID}
		if exhausted {
			break
		}
	}

	page := Page{Items: out, From: start, To: end}
	if len(out) > limit {
		page.Items = out[:limit]
		tail := page.Items[limit-1]
		page.NextCursor = helper.EncodeCursor(helper.Cursor{
			CreatedAt: tail.CreatedAt,
			ID:        tail.ID,
			From:      &start,
			To:        &end,
		})
	}
	return page, nil
}

// fetchMerged: ambil q.Limit baris dari tiap sumber secara paralel, gabung &
// urutkan, lalu potong ke q.Limit. Potongan itu aman: baris yang belum diambil
// dari sumber mana pun pasti berada setelah baris ke-q.Limit hasil gabungan.
func (s *QueryService) fetchMerged(ctx context.Context, q store.PageQuery, wantStandalone, wantInstances bool) ([]dto.EventView, bool, error) {
	var (
		sRows []model.StandaloneEventModel
		iRows []model.RecurringEventInstanceModel
	)
	g, gctx := errgroup.WithContext(ctx)
	if wantStandalone {
		g.Go(func() (err error) {
			sRows, err = s.Standalone.PageStandalone(gctx, q)
			return err
		})
	}
	if wantInstances {
		g.Go(func() (err error) {
			iRows, err = s.Instances.Page(gctx, q)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	iViews, err := s.resolveInstances(ctx, iRows)
	if err != nil {
		return nil, false, err
	}
	views := append(standaloneViews(sRows), iViews...)
	sortViews(views)

	exhausted := len(sRows) < q.Limit && len(iRows) < q.Limit
	if len(views) > q.Limit {
		views = views[:q.Limit]
		exhausted = false
	}
	return views, exhausted, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
