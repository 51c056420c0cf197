package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/skybi/portal-client/internal/config"
	"github.com/skybi/portal-client/internal/gateway"
	"github.com/skybi/portal-client/internal/role"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
	"github.com/skybi/portal-client/internal/storage/cache"
	"github.com/skybi/portal-client/internal/storage/file"
	"github.com/skybi/portal-client/internal/storage/inmem"
	"github.com/skybi/portal-client/internal/storage/postgres"
	redisstorage "github.com/skybi/portal-client/internal/storage/redis"
)

// app bundles the components every command works with
type app struct {
	cfg    *config.Config
	driver storage.Driver
	client *gateway.Client
	store  *session.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	driver, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := gateway.New(cfg.BackendURL, &http.Client{Timeout: cfg.RequestTimeout})
	store, err := session.NewStore(ctx, driver.Session(), client, &role.Resolver{Students: client})
	if err != nil {
		driver.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		driver: driver,
		client: client,
		store:  store,
	}, nil
}

// Close waits for background work of the session store to settle and closes the storage driver
func (app *app) Close() {
	app.store.Wait()
	app.driver.Close()
}

// openStorage creates and initializes the configured storage driver
func openStorage(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	var driver storage.Driver
	switch cfg.StorageDriver {
	case storage.DriverFile:
		driver = file.New(cfg.SessionFile())
	case storage.DriverMemory:
		driver = inmem.New()
	case storage.DriverRedis:
		driver = redisstorage.New(redisstorage.Options{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.StorageNamespace,
		})
	case storage.DriverPostgres:
		driver = postgres.New(cfg.PostgresDSN, cfg.StorageNamespace)
	default:
		return nil, &storage.UnknownDriverError{Name: cfg.StorageDriver}
	}
	if cfg.CacheLifetime > 0 {
		driver = cache.New(driver, cfg.CacheLifetime)
	}

	log.Debug().Str("driver", cfg.StorageDriver).Dur("cache_lifetime", cfg.CacheLifetime).Msg("initializing session storage...")
	if err := driver.Initialize(ctx); err != nil {
		return nil, err
	}
	return driver, nil
}
