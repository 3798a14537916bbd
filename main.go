package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/configs"
	database "komunitas_backend/internals/databases"
	EventRoutes "komunitas_backend/internals/features/events/events/route"
	"komunitas_backend/internals/features/events/events/service"
	"komunitas_backend/internals/helpers/cache"
	"komunitas_backend/internals/helpers/logger"
	helperOSS "komunitas_backend/internals/helpers/oss"
	middlewares "komunitas_backend/internals/middlewares"
	routes "komunitas_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	logger.Init(configs.GetEnv("LOG_LEVEL", "info"), configs.GetEnv("LOG_FORMAT", "json"))

	evCfg, err := configs.LoadEvents()
	if err != nil {
		log.Fatal().Err(err).Msg("konfigurasi events tidak valid")
	}

	// 🗄 migrasi dulu (opsional), baru pool GORM
	if configs.GetEnv("RUN_MIGRATIONS") == "true" {
		if err := database.RunMigrations(configs.DatabaseDSN()); err != nil {
			log.Fatal().Err(err).Msg("migrasi gagal")
		}
	}

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	// 🧠 cache view event (memory / redis / off)
	var viewCache service.ViewCache
	var cacheStore *cache.Store
	if evCfg.Cache.Driver != "off" {
		cacheStore, err = cache.NewFromConfig(cache.Config{
			Driver:   evCfg.Cache.Driver,
			RedisURL: evCfg.Cache.RedisURL,
			Prefix:   evCfg.Cache.Prefix,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("cache init gagal")
		}
		viewCache = service.NewStoreViewCache(cacheStore, service.CacheTTL{
			Standalone: evCfg.Cache.TTL(evCfg.Cache.StandaloneTTL),
			Instance:   evCfg.Cache.TTL(evCfg.Cache.InstanceTTL),
			List:       evCfg.Cache.TTL(evCfg.Cache.ListTTL),
		})
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timeout (selaras dengan statement_timeout di DB)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals("reqid", id)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	middlewares.SetupMiddlewares(app)

	// ✅ Routes
	routes.SetupRoutes(app, EventRoutes.Deps{
		DB:    database.DB,
		Cache: viewCache,
		Options: service.Options{
			DefaultTimezone: evCfg.DefaultTimezone,
			Horizon:         evCfg.Horizon(),
			DefaultPageSize: evCfg.DefaultPageSize,
			MaxPageSize:     evCfg.MaxPageSize,
			OrgConcurrency:  evCfg.OrgConcurrency,
			ExportMaxItems:  evCfg.ExportMaxItems,
		},
		InsertBatchSize: evCfg.InsertBatchSize,
	})

	// ⏱ reaper lampiran OSS setelah DB siap
	reaper, err := helperOSS.StartTrashReaperCron(database.DB, helperOSS.ReaperCronConfig{
		Schedule:    evCfg.Reaper.Schedule,
		BatchSize:   evCfg.Reaper.BatchSize,
		MaxAttempts: evCfg.Reaper.MaxAttempts,
		DryRun:      evCfg.Reaper.DryRun,
	})
	if err != nil {
		log.Error().Err(err).Msg("trash reaper tidak jalan")
	}

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	go func() {
		log.Info().Str("port", port).Msg("✅ Listening")
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown: cron, http, cache, pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down...")

	if reaper != nil {
		<-reaper.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if cacheStore != nil {
		_ = cacheStore.Close()
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
