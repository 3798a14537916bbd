package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komunitas_backend/internals/databases/testdb"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/recurrence"
)

func TestListRecurringInstances_WeeklyCountThree(t *testing.T) {
	f := newFixture(t, nil)
	tpl := f.weeklyTemplate(withCount(3))
	from, to := march()

	views, err := f.query.ListRecurringInstances(f.ctx, f.caller(f.member), tpl.EventTemplateID, from, to)
	require.NoError(t, err)
	require.Len(t, views, 3)

	want := []time.Time{
		time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC),
	}
	for i, v := range views {
		require.NotNil(t, v.Instance)
		assert.True(t, want[i].Equal(v.StartAt), "occurrence %d", i)
		assert.True(t, want[i].Add(time.Hour).Equal(v.EndAt))
		assert.Equal(t, i+1, v.Instance.Sequence)
		require.NotNil(t, v.Instance.TotalCount)
		assert.Equal(t, 3, *v.Instance.TotalCount)
		assert.Equal(t, model.InstanceActive, v.Instance.Status)
		assert.Equal(t, "Lari pagi", v.Name)
	}
}

func TestEnsureMaterialized_WideningIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	tpl := f.weeklyTemplate()
	m := f.query.Materializer

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := m.EnsureMaterialized(f.ctx, tpl.EventTemplateID, start, start.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := f.inst.ListByTemplate(f.ctx, tpl.EventTemplateID, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, first, 2)

	n, err = m.EnsureMaterialized(f.ctx, tpl.EventTemplateID, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only occurrences past the first window are new")

	n, err = m.EnsureMaterialized(f.ctx, tpl.EventTemplateID, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := f.inst.ListByTemplate(f.ctx, tpl.EventTemplateID, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, first[0].InstanceID, all[0].InstanceID)
	assert.Equal(t, first[1].InstanceID, all[1].InstanceID)
}

func TestEnsureMaterialized_ConcurrentCallsNeverDuplicate(t *testing.T) {
	// beberapa koneksi: penulis benar-benar bertemu di unique index
	f := newFixtureOn(t, testdb.OpenConcurrent(t, 8, model.All()...), nil)
	tpl := f.weeklyTemplate()
	m := f.query.Materializer

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// window tumpang tindih dengan panjang berbeda
			n, err := m.EnsureMaterialized(f.ctx, tpl.EventTemplateID, from, from.AddDate(0, 0, 14+7*(i%3)))
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	var count int64
	require.NoError(t, f.db.Model(&model.RecurringEventInstanceModel{}).
		Where("instance_template_id = ?", tpl.EventTemplateID).Count(&count).Error)
	assert.EqualValues(t, 4, count)
	assert.Equal(t, 4, total, "each occurrence is created exactly once")
}

func TestEnsureMaterialized_ClampsToHorizon(t *testing.T) {
	f := newFixture(t, nil)
	tpl := f.weeklyTemplate()
	f.query.Materializer.Opts.Horizon = 11 * 24 * time.Hour

	n, err := f.query.Materializer.EnsureMaterialized(f.ctx, tpl.EventTemplateID, fixedNow, fixedNow.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "4 and 11 March fall before now+11d")
}

func TestEnsureMaterialized_WindowBeyondExpansionCap(t *testing.T) {
	f := newFixture(t, nil)
	m := f.query.Materializer
	m.Opts.Horizon = 20 * 365 * 24 * time.Hour
	tpl := f.weeklyTemplate(func(tm *model.EventTemplateModel) { tm.EventTemplateFrequency = "daily" })

	from := tpl.EventTemplateStartAt
	to := from.AddDate(15, 0, 0)
	n, err := m.EnsureMaterialized(f.ctx, tpl.EventTemplateID, from, to)
	require.NoError(t, err)

	days := int(to.Sub(from).Hours() / 24)
	assert.Greater(t, days, recurrence.MaxOccurrencesPerExpansion)
	assert.Equal(t, days, n, "every occurrence in the window is materialized")

	var last model.RecurringEventInstanceModel
	require.NoError(t, f.db.Where("instance_template_id = ?", tpl.EventTemplateID).
		Order("instance_original_start_at DESC").Take(&last).Error)
	assert.True(t, to.AddDate(0, 0, -1).Equal(last.InstanceOriginalStartAt.UTC()))
	assert.Equal(t, days, last.InstanceSequence)
}

func TestEnsureMaterialized_RejectsEmptyWindow(t *testing.T) {
	f := newFixture(t, nil)
	tpl := f.weeklyTemplate()

	_, err := f.query.Materializer.EnsureMaterialized(f.ctx, tpl.EventTemplateID, fixedNow, fixedNow)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonInvalidWindow, ve.Reason)
}

func TestEnsureMaterializedForOrganization_FansOutAcrossTemplates(t *testing.T) {
	f := newFixture(t, nil)
	f.weeklyTemplate(withCount(3))
	f.weeklyTemplate(withCount(2))
	from, to := march()

	n, err := f.query.Materializer.EnsureMaterializedForOrganization(f.ctx, f.org, *from, *to)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.query.Materializer.EnsureMaterializedForOrganization(f.ctx, f.org, *from, *to)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaterializeOrganization(t *testing.T) {
	f := newFixture(t, nil)
	f.weeklyTemplate(withCount(3))
	f.weeklyTemplate(withCount(2))
	from, to := march()

	_, err := f.query.MaterializeOrganization(f.ctx, f.caller(f.member), f.org, from, to)
	assert.ErrorIs(t, err, ErrNotFound, "regular member cannot trigger materialization")

	n, err := f.query.MaterializeOrganization(f.ctx, f.caller(f.admin), f.org, from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.query.MaterializeOrganization(f.ctx, f.caller(f.admin), f.org, from, to)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.query.MaterializeOrganization(f.ctx, Caller{UserID: uuid.New(), PlatformAdmin: true}, uuid.New(), from, to)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonUnknownOrg, ve.Reason)
}
