package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
)

// Driver represents the storage driver persisting all values into a single JSON file.
// It is the counterpart of a browser's local storage for command line usage: values survive process restarts but
// concurrent processes are not synchronized.
type Driver struct {
	path string
	repo *Repository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new file storage driver persisting to path
func New(path string) *Driver {
	return &Driver{
		path: path,
	}
}

// Initialize ensures the parent directory exists and loads the current file contents
func (driver *Driver) Initialize(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(driver.path), 0o700); err != nil {
		return err
	}
	repo := &Repository{
		path:   driver.path,
		values: make(map[string]string),
	}
	if err := repo.load(); err != nil {
		return err
	}
	driver.repo = repo
	return nil
}

// Session provides the file session repository implementation
func (driver *Driver) Session() session.Repository {
	if driver.repo == nil {
		return storage.Unavailable{}
	}
	return driver.repo
}

// Close discards the repository implementation
func (driver *Driver) Close() {
	driver.repo = nil
}

// Repository implements the session.Repository interface using a JSON file
type Repository struct {
	mtx    sync.Mutex
	path   string
	values map[string]string
}

var _ session.Repository = (*Repository)(nil)

// Get retrieves the value stored under key
func (repo *Repository) Get(_ context.Context, key string) (string, error) {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()
	return repo.values[key], nil
}

// Set stores value under key and rewrites the file
func (repo *Repository) Set(_ context.Context, key, value string) error {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()
	repo.values[key] = value
	return repo.flush()
}

// Remove deletes key and rewrites the file
func (repo *Repository) Remove(_ context.Context, key string) error {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()
	if _, ok := repo.values[key]; !ok {
		return nil
	}
	delete(repo.values, key)
	return repo.flush()
}

func (repo *Repository) load() error {
	raw, err := os.ReadFile(repo.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	// A 'null' document unmarshals into a nil map
	if values != nil {
		repo.values = values
	}
	return nil
}

// flush writes the values to a temporary file and renames it over the target so readers never see a partial file
func (repo *Repository) flush() error {
	raw, err := json.MarshalIndent(repo.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := repo.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, repo.path)
}
