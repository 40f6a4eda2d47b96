package storage

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisAddrEnv = "PHOENIX_TEST_REDIS_ADDR"

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", redisAddrEnv)
	}

	ctx := context.Background()
	prefix := "phoenix:test:" + time.Now().UTC().Format("20060102150405.000000000") + ":"
	store, err := DialRedis(ctx, &redis.Options{Addr: addr}, prefix)
	if err != nil {
		t.Fatalf("dial redis: %v", err)
	}
	t.Cleanup(func() {
		ids, _ := store.List(ctx)
		for _, id := range ids {
			_ = store.client.Del(ctx, prefix+id).Err()
		}
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
	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"gen0"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRedisStoreUnreachableReportsStorageError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStore(client, "")
	t.Cleanup(func() {
		_ = store.Close()
	})

	err := store.Store(context.Background(), "gen0", samplePopulation())
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != OpStore {
		t.Fatalf("expected store StorageError, got %v", err)
	}

	_, err = store.Load(context.Background(), "gen0")
	if !errors.As(err, &storageErr) || storageErr.Op != OpLoad {
		t.Fatalf("expected load StorageError, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("connection failure must not look like not found: %v", err)
	}
}

func TestDialRedisRequiresAddress(t *testing.T) {
	if _, err := DialRedis(context.Background(), &redis.Options{}, ""); err == nil {
		t.Fatal("expected missing address error")
	}
}
