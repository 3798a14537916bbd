package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/features/events/events/model"
	"komunitas_backend/internals/features/events/events/store"
	"komunitas_backend/internals/helpers/cache"
)

func newViewCache(t *testing.T) *StoreViewCache {
	t.Helper()
	s := cache.New(memory.New(), "test:")
	t.Cleanup(func() { _ = s.Close() })
	return NewStoreViewCache(s, CacheTTL{})
}

func TestStoreViewCache_StaleWriteAfterInvalidateIsUnreachable(t *testing.T) {
	c := newViewCache(t)
	tplID := uuid.New()
	from, to := march()
	stale := dto.EventView{ID: uuid.New(), Kind: dto.KindRecurringInstance, Name: "lama"}

	// miss: lease diambil sebelum "database" dibaca
	_, listLease, ok := c.GetInstanceList(tplID, *from, *to)
	require.False(t, ok)
	_, viewLease, ok := c.GetView(stale.ID)
	require.False(t, ok)

	// mutasi commit di antara baca DB dan tulis cache
	c.Invalidate(dto.KindRecurringInstance, stale.ID)

	c.SetInstanceList(listLease, []dto.EventView{stale})
	c.SetView(viewLease, stale)

	_, _, ok = c.GetInstanceList(tplID, *from, *to)
	assert.False(t, ok, "list written with a pre-invalidation lease must not be served")
	_, _, ok = c.GetView(stale.ID)
	assert.False(t, ok, "view written with a pre-invalidation lease must not be served")
}

func TestStoreViewCache_HitWithinSameGeneration(t *testing.T) {
	c := newViewCache(t)
	v := dto.EventView{ID: uuid.New(), Kind: dto.KindStandalone, Name: "Tabligh akbar"}

	_, lease, ok := c.GetView(v.ID)
	require.False(t, ok)
	c.SetView(lease, v)

	got, _, ok := c.GetView(v.ID)
	require.True(t, ok)
	assert.Equal(t, v.Name, got.Name)

	// invalidasi id lain tidak menyentuh entry ini
	c.Invalidate(dto.KindStandalone, uuid.New())
	_, _, ok = c.GetView(v.ID)
	assert.True(t, ok)

	c.Invalidate(dto.KindStandalone, v.ID)
	_, _, ok = c.GetView(v.ID)
	assert.False(t, ok)
}

// instanceStoreHook menjalankan afterList tepat setelah ListByTemplate
// membaca database, sebelum hasilnya sampai ke cache.
type instanceStoreHook struct {
	store.InstanceStore
	afterList func()
}

func (h *instanceStoreHook) ListByTemplate(ctx context.Context, templateID uuid.UUID, from, to time.Time) ([]model.RecurringEventInstanceModel, error) {
	rows, err := h.InstanceStore.ListByTemplate(ctx, templateID, from, to)
	if fn := h.afterList; fn != nil {
		h.afterList = nil
		fn()
	}
	return rows, err
}

func TestListRecurringInstances_CancelDuringReadIsNotCachedStale(t *testing.T) {
	f := newFixture(t, newViewCache(t))
	tpl := f.weeklyTemplate(withCount(2))
	from, to := march()

	_, err := f.query.Materializer.EnsureMaterialized(f.ctx, tpl.EventTemplateID, *from, *to)
	require.NoError(t, err)
	rows, err := f.inst.ListByTemplate(f.ctx, tpl.EventTemplateID, *from, *to)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	target := rows[0].InstanceID

	hook := &instanceStoreHook{InstanceStore: f.inst}
	hook.afterList = func() {
		_, err := f.muts.CancelInstance(f.ctx, f.caller(f.admin), target)
		require.NoError(t, err)
	}
	f.query.Instances = hook

	first, err := f.query.ListRecurringInstances(f.ctx, f.caller(f.member), tpl.EventTemplateID, from, to)
	require.NoError(t, err)
	require.Len(t, first, 2)

	again, err := f.query.ListRecurringInstances(f.ctx, f.caller(f.member), tpl.EventTemplateID, from, to)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, target, again[0].ID)
	assert.Equal(t, model.InstanceCancelled, again[0].Instance.Status)
}
