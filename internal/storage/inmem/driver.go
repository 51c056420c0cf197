package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
)

const tableEntries = "entries"

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableEntries: {
			Name: tableEntries,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

type entry struct {
	Key   string
	Value string
}

// Driver represents the in-memory storage driver built using hashicorp/go-memdb.
// Its contents do not survive the process.
type Driver struct {
	repo *Repository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new in-memory storage driver
func New() *Driver {
	return &Driver{}
}

// Initialize creates the underlying in-memory database
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.repo = &Repository{db: db}
	return nil
}

// Session provides the in-memory session repository implementation
func (driver *Driver) Session() session.Repository {
	if driver.repo == nil {
		return storage.Unavailable{}
	}
	return driver.repo
}

// Close discards the stored values
func (driver *Driver) Close() {
	driver.repo = nil
}

// Repository implements the session.Repository interface using an in-memory database
type Repository struct {
	db *memdb.MemDB
}

var _ session.Repository = (*Repository)(nil)

// Get retrieves the value stored under key
func (repo *Repository) Get(_ context.Context, key string) (string, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableEntries, "id", key)
	if err != nil {
		return "", err
	}
	if obj == nil {
		return "", nil
	}
	return obj.(*entry).Value, nil
}

// Set stores value under key
func (repo *Repository) Set(_ context.Context, key, value string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableEntries, &entry{Key: key, Value: value}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Remove deletes key
func (repo *Repository) Remove(_ context.Context, key string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableEntries, "id", key); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
