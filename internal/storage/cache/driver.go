package cache

import (
	"context"
	"errors"
	"time"

	"github.com/skybi/portal-client/internal/hashmap"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
)

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	lifetime   time.Duration
	repo       *Repository
}

var _ storage.Driver = (*Driver)(nil)

// ErrInvalidLifetime is returned if the cache lifetime is not positive
var ErrInvalidLifetime = errors.New("the cache lifetime has to be positive")

// New returns a new caching storage driver keeping values for lifetime
func New(underlying storage.Driver, lifetime time.Duration) *Driver {
	return &Driver{
		underlying: underlying,
		lifetime:   lifetime,
	}
}

// Initialize initializes the underlying driver and the caching repository
func (driver *Driver) Initialize(ctx context.Context) error {
	if driver.lifetime <= 0 {
		return ErrInvalidLifetime
	}
	if err := driver.underlying.Initialize(ctx); err != nil {
		return err
	}

	entryCache := hashmap.NewExpiring[string, string](driver.lifetime)
	entryCache.ScheduleCleanupTask(driver.lifetime)
	driver.repo = &Repository{
		repo:  driver.underlying.Session(),
		cache: entryCache,
	}
	return nil
}

// Session provides the caching session repository implementation
func (driver *Driver) Session() session.Repository {
	if driver.repo == nil {
		return storage.Unavailable{}
	}
	return driver.repo
}

// Close stops the cache cleanup and closes the underlying driver
func (driver *Driver) Close() {
	if driver.repo != nil {
		driver.repo.cache.StopCleanupTask()
		driver.repo = nil
	}
	driver.underlying.Close()
}
