//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a SQLite database at path and prepares the
// checkpoints table. The returned store owns the database handle.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &SQLStore{db: db, ownsDB: true}
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newSQLiteStore(ctx context.Context, path string) (CheckpointStore, error) {
	return OpenSQLite(ctx, path)
}
