package postgres

import (
	"context"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver represents the PostgreSQL storage driver implementation
type Driver struct {
	dsn       string
	namespace string
	db        *pgxpool.Pool
	repo      *Repository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty PostgreSQL storage driver.
// Use Initialize to open the database connection and initialize the repository implementation.
func New(dsn, namespace string) *Driver {
	if namespace == "" {
		namespace = "default"
	}
	return &Driver{
		dsn:       dsn,
		namespace: namespace,
	}
}

// Initialize opens the database connection, migrates the database and initializes the repository implementation
func (driver *Driver) Initialize(ctx context.Context) error {
	// Perform SQL migrations
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, driver.dsn)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	// Initialize the database connection pool
	pool, err := pgxpool.Connect(ctx, driver.dsn)
	if err != nil {
		return err
	}
	driver.db = pool

	driver.repo = &Repository{db: pool, namespace: driver.namespace}
	return nil
}

// Session provides the PostgreSQL session repository implementation
func (driver *Driver) Session() session.Repository {
	if driver.repo == nil {
		return storage.Unavailable{}
	}
	return driver.repo
}

// Close discards the repository implementation and closes the database connection
func (driver *Driver) Close() {
	driver.repo = nil

	if driver.db != nil {
		driver.db.Close()
		driver.db = nil
	}
}
