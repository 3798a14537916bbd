package helper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deleter: backend object storage. *OSSService memenuhi interface ini.
type Deleter interface {
	DeleteManyByPublicURL(ctx context.Context, publicURLs []string) (deleted []string, failed map[string]error)
}

// trashRow: baris antrian event_attachment_trash (diisi saat event/template dihapus).
type trashRow struct {
	ID       uuid.UUID `gorm:"column:attachment_trash_id"`
	URL      string    `gorm:"column:attachment_trash_url"`
	Attempts int       `gorm:"column:attachment_trash_attempts"`
}

const trashTable = "event_attachment_trash"

type TrashReaper struct {
	DB          *gorm.DB
	Deleter     Deleter
	BatchSize   int
	MaxAttempts int
	Retention   time.Duration // processed rows lebih tua dari ini dihapus
	DryRun      bool
	Retrier     *retry.Retrier
	Now         func() time.Time
}

type ReapResult struct {
	Scanned int
	Deleted int
	Failed  int
	Purged  int64
}

func NewTrashReaper(db *gorm.DB, deleter Deleter, batchSize, maxAttempts int) *TrashReaper {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &TrashReaper{
		DB:          db,
		Deleter:     deleter,
		BatchSize:   batchSize,
		MaxAttempts: maxAttempts,
		Retention:   30 * 24 * time.Hour,
		Retrier:     retry.NewRetrier(3, 100*time.Millisecond, time.Second),
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

var errPartialDelete = errors.New("some attachments were not deleted")

// RunOnce memproses satu batch antrian. URL yang tetap gagal setelah retry
// menaikkan attempts; setelah MaxAttempts baris dibiarkan untuk dicek manual.
func (r *TrashReaper) RunOnce(ctx context.Context) (ReapResult, error) {
	var res ReapResult

	var rows []trashRow
	if err := r.DB.WithContext(ctx).Table(trashTable).
		Select("attachment_trash_id, attachment_trash_url, attachment_trash_attempts").
		Where("attachment_trash_processed_at IS NULL AND attachment_trash_attempts < ?", r.MaxAttempts).
		Order("attachment_trash_created_at ASC").
		Limit(r.BatchSize).
		Find(&rows).Error; err != nil {
		return res, fmt.Errorf("load trash: %w", err)
	}
	res.Scanned = len(rows)
	if len(rows) == 0 {
		return res, r.purge(ctx, &res)
	}

	idsByURL := make(map[string][]uuid.UUID, len(rows))
	for _, row := range rows {
		idsByURL[row.URL] = append(idsByURL[row.URL], row.ID)
	}
	pending := make([]string, 0, len(idsByURL))
	for u := range idsByURL {
		pending = append(pending, u)
	}
	sort.Strings(pending)

	if r.DryRun {
		log.Info().Int("urls", len(pending)).Msg("[TRASH-REAPER] DRY-RUN would delete attachments")
		return res, nil
	}

	var (
		done    []string
		lastErr map[string]error
	)
	runErr := r.Retrier.Run(func() error {
		deleted, failed := r.Deleter.DeleteManyByPublicURL(ctx, pending)
		done = append(done, deleted...)
		lastErr = failed
		pending = pending[:0]
		for u := range failed {
			pending = append(pending, u)
		}
		sort.Strings(pending)
		if len(pending) > 0 {
			return errPartialDelete
		}
		return nil
	})
	if runErr != nil && !errors.Is(runErr, errPartialDelete) {
		return res, runErr
	}

	now := r.Now()
	if ids := collect(idsByURL, done); len(ids) > 0 {
		if err := r.DB.WithContext(ctx).Table(trashTable).
			Where("attachment_trash_id IN ?", ids).
			Updates(map[string]any{"attachment_trash_processed_at": now}).Error; err != nil {
			return res, fmt.Errorf("mark processed: %w", err)
		}
		res.Deleted = len(ids)
	}

	for _, u := range pending {
		msg := "unknown error"
		if e := lastErr[u]; e != nil {
			msg = e.Error()
		}
		ids := idsByURL[u]
		if err := r.DB.WithContext(ctx).Table(trashTable).
			Where("attachment_trash_id IN ?", ids).
			Updates(map[string]any{
				"attachment_trash_attempts":   gorm.Expr("attachment_trash_attempts + 1"),
				"attachment_trash_last_error": msg,
			}).Error; err != nil {
			return res, fmt.Errorf("mark failed: %w", err)
		}
		res.Failed += len(ids)
		log.Warn().Str("url", u).Str("error", msg).Msg("[TRASH-REAPER] delete failed")
	}

	return res, r.purge(ctx, &res)
}

// purge: hard-delete baris yang sudah diproses dan lebih tua dari Retention.
func (r *TrashReaper) purge(ctx context.Context, res *ReapResult) error {
	if r.Retention <= 0 {
		return nil
	}
	cutoff := r.Now().Add(-r.Retention)
	tx := r.DB.WithContext(ctx).Exec(
		`DELETE FROM `+trashTable+` WHERE attachment_trash_processed_at IS NOT NULL AND attachment_trash_processed_at < ?`,
		cutoff,
	)
	if tx.Error != nil {
		return fmt.Errorf("purge trash: %w", tx.Error)
	}
	res.Purged = tx.RowsAffected
	return nil
}

func collect(idsByURL map[string][]uuid.UUID, urls []string) []uuid.UUID {
	var out []uuid.UUID
	for _, u := range urls {
		out = append(out, idsByURL[u]...)
	}
	return out
}

/* =======================================================================
   Cron
======================================================================= */

type ReaperCronConfig struct {
	Schedule    string
	BatchSize   int
	MaxAttempts int
	DryRun      bool
}

// StartTrashReaperCron: panggil dari main.go. Tanpa ENV ALI_OSS_* lengkap reaper tidak dijalankan.
// Caller wajib Stop() cron saat shutdown.
func StartTrashReaperCron(db *gorm.DB, cfg ReaperCronConfig) (*cron.Cron, error) {
	if !OSSConfigured() {
		log.Warn().Msg("[TRASH-REAPER] ENV ALI_OSS_* tidak lengkap, reaper tidak dijalankan")
		return nil, nil
	}
	svc, err := NewOSSServiceFromEnv(getEnv("ALI_OSS_EVENTS_PREFIX"))
	if err != nil {
		return nil, err
	}

	reaper := NewTrashReaper(db, svc, cfg.BatchSize, cfg.MaxAttempts)
	reaper.DryRun = cfg.DryRun

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()

		res, err := reaper.RunOnce(ctx)
		if err != nil {
			log.Error().Err(err).Msg("[TRASH-REAPER] run error")
			return
		}
		if res.Scanned > 0 || res.Purged > 0 {
			log.Info().Int("scanned", res.Scanned).Int("deleted", res.Deleted).
				Int("failed", res.Failed).Int64("purged", res.Purged).Msg("[TRASH-REAPER] batch done")
		}
	}); err != nil {
		return nil, fmt.Errorf("add cron: %w", err)
	}

	log.Info().Str("schedule", cfg.Schedule).Bool("dry_run", cfg.DryRun).Msg("[TRASH-REAPER] started")
	c.Start()
	return c, nil
}
