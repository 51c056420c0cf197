package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
)

// Options configures the Redis storage driver
type Options struct {
	Address  string
	Password string
	DB       int

	// Namespace separates the values of several clients sharing one Redis database
	Namespace string
}

// Driver represents the Redis storage driver implementation
type Driver struct {
	opts   Options
	client goredis.UniversalClient
	repo   *Repository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new Redis storage driver.
// Use Initialize to open the connection.
func New(opts Options) *Driver {
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}
	return &Driver{
		opts: opts,
	}
}

// NewWithClient creates a new Redis storage driver using an existing client
func NewWithClient(client goredis.UniversalClient, namespace string) *Driver {
	driver := New(Options{Namespace: namespace})
	driver.client = client
	return driver
}

// Initialize opens the connection if needed and verifies the server is reachable
func (driver *Driver) Initialize(ctx context.Context) error {
	if driver.client == nil {
		driver.client = goredis.NewClient(&goredis.Options{
			Addr:     driver.opts.Address,
			Password: driver.opts.Password,
			DB:       driver.opts.DB,
		})
	}
	if err := driver.client.Ping(ctx).Err(); err != nil {
		return err
	}
	driver.repo = &Repository{
		client: driver.client,
		prefix: "portal:" + driver.opts.Namespace + ":",
	}
	return nil
}

// Session provides the Redis session repository implementation
func (driver *Driver) Session() session.Repository {
	if driver.repo == nil {
		return storage.Unavailable{}
	}
	return driver.repo
}

// Close discards the repository implementation and closes the connection
func (driver *Driver) Close() {
	driver.repo = nil
	if driver.client != nil {
		_ = driver.client.Close()
		driver.client = nil
	}
}

// Repository implements the session.Repository interface using Redis strings
type Repository struct {
	client goredis.UniversalClient
	prefix string
}

var _ session.Repository = (*Repository)(nil)

func (repo *Repository) key(key string) string {
	return repo.prefix + key
}

// Get retrieves the value stored under key
func (repo *Repository) Get(ctx context.Context, key string) (string, error) {
	value, err := repo.client.Get(ctx, repo.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key without expiration
func (repo *Repository) Set(ctx context.Context, key, value string) error {
	return repo.client.Set(ctx, repo.key(key), value, 0).Err()
}

// Remove deletes key
func (repo *Repository) Remove(ctx context.Context, key string) error {
	return repo.client.Del(ctx, repo.key(key)).Err()
}
