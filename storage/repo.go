package storage

import "context"

// Repo is durable key/value persistence that survives process restarts.
// Missing keys are simply absent from the map returned by Load.
type Repo interface {
	// Load returns the stored values for the given keys
	Load(ctx context.Context, keys ...string) (map[string]string, error)

	// Save writes all values; keys not mentioned are left untouched
	Save(ctx context.Context, values map[string]string) error

	// Delete removes the given keys, missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}
