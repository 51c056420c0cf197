package cache

import (
	"context"

	"github.com/skybi/portal-client/internal/hashmap"
	"github.com/skybi/portal-client/internal/session"
)

// Repository implements the session.Repository interface in order to implement caching.
// Absent keys are cached as well. Writes go to the underlying repository first and only update the cache on success.
type Repository struct {
	repo  session.Repository
	cache *hashmap.ExpiringMap[string, string]
}

var _ session.Repository = (*Repository)(nil)

// Get retrieves the value stored under key
func (repo *Repository) Get(ctx context.Context, key string) (string, error) {
	cached, ok := repo.cache.Lookup(key)
	if ok {
		return cached, nil
	}
	value, err := repo.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	repo.cache.Set(key, value)
	return value, nil
}

// Set stores value under key
func (repo *Repository) Set(ctx context.Context, key, value string) error {
	if err := repo.repo.Set(ctx, key, value); err != nil {
		repo.cache.Unset(key)
		return err
	}
	repo.cache.Set(key, value)
	return nil
}

// Remove deletes key
func (repo *Repository) Remove(ctx context.Context, key string) error {
	if err := repo.repo.Remove(ctx, key); err != nil {
		repo.cache.Unset(key)
		return err
	}
	repo.cache.Set(key, "")
	return nil
}
