package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

/* =========================
   Events tuning
========================= */

// Events: nilai tuning layanan event. Sumber: default -> file YAML
// (EVENTS_CONFIG_FILE) -> ENV. ENV selalu menang.
type Events struct {
	DefaultTimezone string `yaml:"default_timezone"`
	HorizonDays     int    `yaml:"horizon_days"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
	OrgConcurrency  int    `yaml:"org_concurrency"`
	ExportMaxItems  int    `yaml:"export_max_items"`
	InsertBatchSize int    `yaml:"insert_batch_size"`

	Cache  CacheConfig  `yaml:"cache"`
	Reaper ReaperConfig `yaml:"reaper"`
}

type CacheConfig struct {
	Driver        string `yaml:"driver"` // memory | redis | off
	RedisURL      string `yaml:"redis_url"`
	Prefix        string `yaml:"prefix"`
	StandaloneTTL string `yaml:"standalone_ttl"`
	InstanceTTL   string `yaml:"instance_ttl"`
	ListTTL       string `yaml:"list_ttl"`
}

type ReaperConfig struct {
	Schedule    string `yaml:"schedule"`
	BatchSize   int    `yaml:"batch_size"`
	MaxAttempts int    `yaml:"max_attempts"`
	DryRun      bool   `yaml:"dry_run"`
}

func DefaultEvents() Events {
	return Events{
		DefaultTimezone: "Asia/Jakarta",
		HorizonDays:     365,
		DefaultPageSize: 25,
		MaxPageSize:     200,
		OrgConcurrency:  4,
		ExportMaxItems:  2000,
		InsertBatchSize: 200,
		Cache: CacheConfig{
			Driver:        "memory",
			Prefix:        "komunitas:",
			StandaloneTTL: "5m",
			InstanceTTL:   "2m",
			ListTTL:       "1m",
		},
		Reaper: ReaperConfig{
			Schedule:    "*/10 * * * *",
			BatchSize:   100,
			MaxAttempts: 5,
		},
	}
}

// LoadEvents: default, overlay YAML (opsional), lalu ENV.
func LoadEvents() (Events, error) {
	cfg := DefaultEvents()
	if path := GetEnv("EVENTS_CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	overlayEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlayFile(cfg *Events, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("events config %s: %w", path, err)
		}
		return err
	}
	// field yang tidak ada di file tetap memakai nilai sebelumnya
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse events config %s: %w", path, err)
	}
	return nil
}

func overlayEnv(cfg *Events) {
	envString(&cfg.DefaultTimezone, "DEFAULT_TIMEZONE")
	envInt(&cfg.HorizonDays, "MATERIALIZE_HORIZON_DAYS")
	envInt(&cfg.DefaultPageSize, "DEFAULT_PAGE_SIZE")
	envInt(&cfg.MaxPageSize, "MAX_PAGE_SIZE")
	envInt(&cfg.OrgConcurrency, "MATERIALIZE_ORG_CONCURRENCY")
	envInt(&cfg.ExportMaxItems, "EXPORT_MAX_ITEMS")
	envInt(&cfg.InsertBatchSize, "INSERT_BATCH_SIZE")

	envString(&cfg.Cache.Driver, "CACHE_DRIVER")
	envString(&cfg.Cache.RedisURL, "REDIS_URL")
	envString(&cfg.Cache.Prefix, "CACHE_PREFIX")
	envString(&cfg.Cache.StandaloneTTL, "CACHE_TTL_STANDALONE")
	envString(&cfg.Cache.InstanceTTL, "CACHE_TTL_INSTANCE")
	envString(&cfg.Cache.ListTTL, "CACHE_TTL_LIST")

	envString(&cfg.Reaper.Schedule, "REAPER_CRON")
	envInt(&cfg.Reaper.BatchSize, "REAPER_BATCH_SIZE")
	envInt(&cfg.Reaper.MaxAttempts, "REAPER_MAX_ATTEMPTS")
	if v := strings.TrimSpace(os.Getenv("DRY_RUN")); v != "" {
		cfg.Reaper.DryRun = parseBool(v)
	}
}

func (e Events) Validate() error {
	if _, err := time.LoadLocation(e.DefaultTimezone); err != nil {
		return fmt.Errorf("default timezone %q: %w", e.DefaultTimezone, err)
	}
	if e.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive, got %d", e.HorizonDays)
	}
	if e.DefaultPageSize <= 0 || e.MaxPageSize <= 0 || e.DefaultPageSize > e.MaxPageSize {
		return fmt.Errorf("invalid page sizes default=%d max=%d", e.DefaultPageSize, e.MaxPageSize)
	}
	switch e.Cache.Driver {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("unknown cache driver %q", e.Cache.Driver)
	}
	for name, v := range map[string]string{
		"standalone_ttl": e.Cache.StandaloneTTL,
		"instance_ttl":   e.Cache.InstanceTTL,
		"list_ttl":       e.Cache.ListTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("cache %s: %w", name, err)
		}
	}
	return nil
}

func (e Events) Horizon() time.Duration { return time.Duration(e.HorizonDays) * 24 * time.Hour }

// TTL: durasi sudah tervalidasi di Validate.
func (c CacheConfig) TTL(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}

/* =========================
   env helpers
========================= */

func envString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
