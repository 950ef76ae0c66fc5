// Package kv defines the durable key-value persistence boundary used by the
// account repository, together with file, in-memory, SQLite, and PostgreSQL
// implementations.
package kv

import "context"

// Store is the minimal durable key-value contract the core persists through.
// Set must commit the value durably before returning, so a crash after a
// successful Set never loses the write.
type Store interface {
	// Get returns the value stored under key. The second result reports
	// whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
