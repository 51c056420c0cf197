package session

import "context"

// Repository defines the key-value persistence API the Store mirrors its state into.
// Implementations return an empty string for absent keys.
type Repository interface {
	// Get retrieves the value stored under key
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing an absent key is not an error
	Remove(ctx context.Context, key string) error
}
