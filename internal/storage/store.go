package storage

import (
	"context"

	"phoenix/internal/model"
)

// CheckpointStore persists whole-population snapshots under a checkpoint id.
//
// Store overwrites any snapshot already saved under the same id. Load returns
// an error matching ErrNotFound when nothing was saved under id, and a
// *StorageError for I/O or decode failures.
type CheckpointStore interface {
	Store(ctx context.Context, checkpointID string, population []model.Organism) error
	Load(ctx context.Context, checkpointID string) ([]model.Organism, error)
}

// Lister is implemented by stores that can enumerate saved checkpoints.
// Returned ids are the sanitized keys, sorted.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
