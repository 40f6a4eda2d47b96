package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"phoenix/internal/model"
)

// SQLStore keeps snapshots in a single checkpoints table of any database/sql
// backend that understands "INSERT ... ON CONFLICT" (SQLite, PostgreSQL).
type SQLStore struct {
	mu          sync.RWMutex
	db          *sql.DB
	initialized bool
	ownsDB      bool
}

// NewSQLStore wraps an open database. Init must be called before use; Close
// leaves db open because the caller owns it.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New("sql store requires a database handle")
	}
	if s.initialized {
		return nil
	}
	if err := createTables(ctx, s.db); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

func (s *SQLStore) Store(ctx context.Context, checkpointID string, population []model.Organism) error {
	key, err := checkpointKey(OpStore, checkpointID)
	if err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return storageErr(OpStore, checkpointID, err)
	}

	payload, err := EncodeSnapshot(population)
	if err != nil {
		return storageErr(OpEncode, checkpointID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, version, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload
	`, key, CurrentSnapshotVersion, payload)
	if err != nil {
		return storageErr(OpStore, checkpointID, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, checkpointID string) ([]model.Organism, error) {
	key, err := checkpointKey(OpLoad, checkpointID)
	if err != nil {
		return nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, storageErr(OpLoad, checkpointID, err)
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE id = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(checkpointID)
		}
		return nil, storageErr(OpLoad, checkpointID, err)
	}

	population, err := DecodeSnapshot(payload)
	if err != nil {
		return nil, storageErr(OpDecode, checkpointID, err)
	}
	return population, nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, storageErr(OpList, "", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM checkpoints ORDER BY id`)
	if err != nil {
		return nil, storageErr(OpList, "", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(OpList, "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(OpList, "", err)
	}
	return ids, nil
}

func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	if !s.ownsDB || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil || !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			payload BLOB NOT NULL
		)
	`)
	return err
}
