// file: internals/features/events/events/service/view_cache.go
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/features/events/events/dto"
	"komunitas_backend/internals/helpers/cache"
)

// ViewCache menyimpan EventView yang sudah di-resolve, SEBELUM authorization
// gate; gate selalu dijalankan ulang per caller. Semua error cache = miss.
//
// Get* mengembalikan CacheLease saat miss: key yang berlaku pada generasi
// SEBELUM database dibaca. Set* menulis ke key lease itu, jadi hasil baca
// yang kalah balapan dengan mutasi hanya tersimpan di key yang sudah mati.
type ViewCache interface {
	GetView(id uuid.UUID) (dto.EventView, CacheLease, bool)
	SetView(lease CacheLease, v dto.EventView)
	GetInstanceList(templateID uuid.UUID, from, to time.Time) ([]dto.EventView, CacheLease, bool)
	SetInstanceList(lease CacheLease, views []dto.EventView)
	Invalidate(kind dto.EventKind, ids ...uuid.UUID)
}

// CacheLease: key kosong = jangan tulis (generasi tidak terbaca).
type CacheLease struct {
	key string
}

type CacheTTL struct {
	Standalone time.Duration
	Instance   time.Duration
	List       time.Duration
}

type StoreViewCache struct {
	Store *cache.Store
	TTL   CacheTTL
}

func NewStoreViewCache(store *cache.Store, ttl CacheTTL) *StoreViewCache {
	if ttl.Standalone <= 0 {
		ttl.Standalone = 5 * time.Minute
	}
	if ttl.Instance <= 0 {
		ttl.Instance = 2 * time.Minute
	}
	if ttl.List <= 0 {
		ttl.List = time.Minute
	}
	return &StoreViewCache{Store: store, TTL: ttl}
}

// generasi per entity; di-bump oleh Invalidate untuk id tsb.
func viewGenKind(id uuid.UUID) string { return "view:" + id.String() }

func viewKey(id uuid.UUID, gen string) string { return "ev:view:" + id.String() + ":" + gen }

func (c *StoreViewCache) generation(kind string) (string, bool) {
	gen, err := c.Store.Generation(kind)
	if err != nil {
		cacheWarn(err, "read generation")
		return "", false
	}
	return gen, true
}

func (c *StoreViewCache) GetView(id uuid.UUID) (dto.EventView, CacheLease, bool) {
	gen, ok := c.generation(viewGenKind(id))
	if !ok {
		return dto.EventView{}, CacheLease{}, false
	}
	lease := CacheLease{key: viewKey(id, gen)}
	var v dto.EventView
	found, err := c.Store.GetJSON(lease.key, &v)
	if err != nil {
		cacheWarn(err, "get view")
		return dto.EventView{}, lease, false
	}
	return v, lease, found
}

func (c *StoreViewCache) SetView(lease CacheLease, v dto.EventView) {
	if lease.key == "" {
		return
	}
	ttl := c.TTL.Standalone
	if v.Kind == dto.KindRecurringInstance {
		ttl = c.TTL.Instance
	}
	if err := c.Store.SetJSON(lease.key, v, ttl); err != nil {
		cacheWarn(err, "set view")
	}
}

func (c *StoreViewCache) listKey(kind dto.EventKind, signature string) (string, bool) {
	gen, ok := c.generation(string(kind))
	if !ok {
		return "", false
	}
	sum := sha256.Sum256([]byte(signature))
	return "ev:list:" + string(kind) + ":" + gen + ":" + hex.EncodeToString(sum[:12]), true
}

func instanceListSignature(templateID uuid.UUID, from, to time.Time) string {
	return templateID.String() + "|" + from.UTC().Format(time.RFC3339Nano) + "|" + to.UTC().Format(time.RFC3339Nano)
}

func (c *StoreViewCache) GetInstanceList(templateID uuid.UUID, from, to time.Time) ([]dto.EventView, CacheLease, bool) {
	key, ok := c.listKey(dto.KindRecurringInstance, instanceListSignature(templateID, from, to))
	if !ok {
		return nil, CacheLease{}, false
	}
	lease := CacheLease{key: key}
	var views []dto.EventView
	found, err := c.Store.GetJSON(key, &views)
	if err != nil {
		cacheWarn(err, "get list")
		return nil, lease, false
	}
	return views, lease, found
}

func (c *StoreViewCache) SetInstanceList(lease CacheLease, views []dto.EventView) {
	if lease.key == "" {
		return
	}
	if err := c.Store.SetJSON(lease.key, views, c.TTL.List); err != nil {
		cacheWarn(err, "set list")
	}
}

// Invalidate: hapus entry entity yang berlaku, bump generasi tiap id dan
// generasi list untuk tipe tsb.
func (c *StoreViewCache) Invalidate(kind dto.EventKind, ids ...uuid.UUID) {
	for _, id := range ids {
		if gen, ok := c.generation(viewGenKind(id)); ok {
			if err := c.Store.Delete(viewKey(id, gen)); err != nil {
				cacheWarn(err, "delete view")
			}
		}
		if err := c.Store.Bump(viewGenKind(id)); err != nil {
			cacheWarn(err, "bump view generation")
		}
	}
	if err := c.Store.Bump(string(kind)); err != nil {
		cacheWarn(err, "bump generation")
	}
}

func cacheWarn(err error, op string) {
	log.Warn().Err(err).Str("op", op).Msg("cache degraded to miss")
}

/* =========================
   noop (cache dimatikan)
========================= */

type noopCache struct{}

func (noopCache) GetView(uuid.UUID) (dto.EventView, CacheLease, bool) {
	return dto.EventView{}, CacheLease{}, false
}
func (noopCache) SetView(CacheLease, dto.EventView) {}
func (noopCache) GetInstanceList(uuid.UUID, time.Time, time.Time) ([]dto.EventView, CacheLease, bool) {
	return nil, CacheLease{}, false
}
func (noopCache) SetInstanceList(CacheLease, []dto.EventView) {}
func (noopCache) Invalidate(dto.EventKind, ...uuid.UUID)      {}
