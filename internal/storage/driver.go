package storage

import (
	"context"
	"errors"

	"github.com/skybi/portal-client/internal/session"
)

// ErrNotInitialized is returned by the session repository of a driver that was not initialized or already closed
var ErrNotInitialized = errors.New("the storage driver is not initialized")

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Session provides the session repository implementation
	Session() session.Repository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}

// Unavailable is the session repository drivers provide before Initialize and after Close.
// Every operation fails with ErrNotInitialized.
type Unavailable struct{}

var _ session.Repository = Unavailable{}

func (Unavailable) Get(context.Context, string) (string, error) {
	return "", ErrNotInitialized
}

func (Unavailable) Set(context.Context, string, string) error {
	return ErrNotInitialized
}

func (Unavailable) Remove(context.Context, string) error {
	return ErrNotInitialized
}
