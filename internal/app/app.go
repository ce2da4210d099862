// Package app wires the service together. App is an explicit dependency
// container: every component is constructed once in dependency order and
// passed by reference, with no package-level mutable state.
package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"catalog-cache/internal/cache"
	"catalog-cache/internal/catalog"
	"catalog-cache/internal/common/logging"
	"catalog-cache/internal/config"
	"catalog-cache/internal/memcache"
	"catalog-cache/internal/redis"
	"catalog-cache/internal/server"
	"catalog-cache/internal/store"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Logger      logging.Logger
	Provider    *store.PostgresProvider
	RedisClient *redis.Client
	Engine      *cache.Engine
	Catalog     *catalog.CachedCatalog
	Server      *server.Server

	warmupCron   *cron.Cron
	shutdownOnce sync.Once
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	if err := app.initializeProvider(); err != nil {
		return nil, err
	}

	app.initializeRedis()
	app.initializeCache()
	app.initializeServer()

	if err := app.initializeWarmup(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *App) initializeProvider() error {
	provider, err := store.NewPostgresProvider(context.Background(), app.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database provider: %w", err)
	}
	app.Provider = provider
	app.Logger.Info("Database: Connected")
	return nil
}

// initializeRedis sets up the remote cache tier. Setup failure is contained:
// the service continues on the memory tier alone.
func (app *App) initializeRedis() {
	if !app.Config.RemoteCacheConfigured() {
		app.Logger.Info("Redis: Not configured (remote cache tier disabled)")
		return
	}

	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPoolSize,
		URL:      app.Config.RedisURL,
	})
	if err != nil {
		app.Logger.Warn("Redis setup failed, remote cache tier disabled",
			logging.Err(err))
		return
	}

	app.RedisClient = client
	app.Logger.Info("Redis: Configured",
		logging.String("state", client.State().String()))
}

func (app *App) initializeCache() {
	memory := memcache.New(app.Config.MaxMemoryEntries)

	engineConfig := &cache.Config{
		Enabled: app.Config.CacheEnabled,
		TTLs: map[string]time.Duration{
			catalog.NamespaceCategory:    time.Duration(app.Config.TTLCategoryAddons) * time.Second,
			catalog.NamespaceAddonGroups: time.Duration(app.Config.TTLAddonGroups) * time.Second,
			catalog.NamespaceAddons:      time.Duration(app.Config.TTLAddons) * time.Second,
		},
	}

	app.Engine = cache.New(app.RedisClient, memory, engineConfig)
	app.Catalog = catalog.NewCachedCatalog(app.Engine, app.Provider)

	app.Logger.Info("Cache: Initialized",
		logging.Bool("enabled", app.Config.CacheEnabled),
		logging.Int("max_memory_entries", app.Config.MaxMemoryEntries))
}

func (app *App) initializeServer() {
	app.Server = server.New(app.buildRouter(), app.Config.Port)
}

// initializeWarmup runs an initial warm-up for configured categories and,
// when a schedule is set, re-warms them on that cadence.
func (app *App) initializeWarmup() error {
	ids := app.Config.WarmupIDs()
	if len(ids) == 0 {
		return nil
	}

	go app.Catalog.WarmUp(context.Background(), ids)

	if app.Config.WarmupSchedule == "" {
		return nil
	}

	app.warmupCron = cron.New()
	_, err := app.warmupCron.AddFunc(app.Config.WarmupSchedule, func() {
		app.Catalog.WarmUp(context.Background(), ids)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule warm-up: %w", err)
	}
	app.warmupCron.Start()

	app.Logger.Info("Warm-up: Scheduled",
		logging.String("schedule", app.Config.WarmupSchedule),
		logging.Int("categories", len(ids)))
	return nil
}

// Shutdown stops all components. Safe to call multiple times.
func (app *App) Shutdown(ctx context.Context) {
	app.shutdownOnce.Do(func() {
		if app.warmupCron != nil {
			app.warmupCron.Stop()
		}

		if app.Server != nil {
			if err := app.Server.Shutdown(ctx); err != nil {
				app.Logger.Warn("Server shutdown error", logging.Err(err))
			}
		}

		if app.Catalog != nil {
			if err := app.Catalog.Close(); err != nil {
				app.Logger.Warn("Cache shutdown error", logging.Err(err))
			}
		}

		if app.Provider != nil {
			app.Provider.Close()
		}

		app.Logger.Info("Shutdown complete")
	})
}
