// file: internals/helpers/cache/cache.go
package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
)

// Store: read-through cache di atas fiber.Storage (memory / redis).
// Nilai disimpan sebagai JSON (sonic).
type Store struct {
	storage fiber.Storage
	prefix  string
}

type Config struct {
	Driver   string // "memory" (default) | "redis"
	RedisURL string
	Prefix   string
}

func New(storage fiber.Storage, prefix string) *Store {
	return &Store{storage: storage, prefix: prefix}
}

// NewFromConfig membuat storage sesuai driver.
func NewFromConfig(cfg Config) (*Store, error) {
	var st fiber.Storage
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		st = memory.New(memory.Config{GCInterval: 30 * time.Second})
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("cache: REDIS_URL is required for the redis driver")
		}
		st = redis.New(redis.Config{URL: cfg.RedisURL})
	default:
		return nil, errors.New("cache: unknown driver " + cfg.Driver)
	}
	return New(st, cfg.Prefix), nil
}

func (s *Store) key(k string) string { return s.prefix + k }

// GetJSON: found=false untuk miss (termasuk nilai kosong).
func (s *Store) GetJSON(key string, out any) (bool, error) {
	b, err := s.storage.Get(s.key(key))
	if err != nil {
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := sonic.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetJSON(key string, v any, ttl time.Duration) error {
	b, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return s.storage.Set(s.key(key), b, ttl)
}

func (s *Store) Delete(keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.storage.Delete(s.key(k)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

/* =========================
   Generation token (invalidasi list)
========================= */

func genKey(kind string) string { return "gen:" + kind }

// Generation: token generasi untuk satu tipe entitas; "0" bila belum ada.
// Key list menyertakan token ini sehingga Bump membuat semua list lama
// tidak terjangkau (lalu kedaluwarsa sendiri lewat TTL).
func (s *Store) Generation(kind string) (string, error) {
	b, err := s.storage.Get(s.key(genKey(kind)))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "0", nil
	}
	return string(b), nil
}

func (s *Store) Bump(kind string) error {
	return s.storage.Set(s.key(genKey(kind)), []byte(uuid.NewString()), 0)
}

func (s *Store) Close() error { return s.storage.Close() }
