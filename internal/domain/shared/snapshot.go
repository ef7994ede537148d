package shared

import "context"

// Snapshotter captures and restores a full copy of the underlying store.
// The migration engine takes a snapshot before rewriting tables and restores
// it when any step fails, so partial migration states are never observable.
type Snapshotter interface {
	// Snapshot captures the current store state and returns a handle that
	// can be passed to Restore or Discard.
	Snapshot(ctx context.Context) (string, error)

	// Restore replaces the live store with the snapshot identified by handle.
	Restore(ctx context.Context, handle string) error

	// Discard releases the snapshot identified by handle.
	Discard(handle string) error
}
