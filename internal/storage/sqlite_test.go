//go:build sqlite

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "phoenix.db")

	store, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Store(ctx, "gen0", samplePopulation()); err != nil {
		t.Fatalf("store: %v", err)
	}
	population, err := store.Load(ctx, "gen0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(population, samplePopulation()) {
		t.Fatalf("round trip mismatch: %+v", population)
	}

	if err := store.Store(ctx, "gen0", samplePopulation()[:1]); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	population, err = store.Load(ctx, "gen0")
	if err != nil {
		t.Fatalf("load overwritten: %v", err)
	}
	if len(population) != 1 {
		t.Fatalf("expected overwritten snapshot, got %d organisms", len(population))
	}

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(context.Background(), Options{
		Kind:       KindSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "phoenix.db"),
	})
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
