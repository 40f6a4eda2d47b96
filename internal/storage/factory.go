package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	KindFile   = "file"
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"

	DefaultKind = KindFile
	DefaultRoot = "checkpoints"
)

// Options selects and configures a checkpoint backend.
type Options struct {
	Kind          string
	Root          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func NewStore(ctx context.Context, opts Options) (CheckpointStore, error) {
	switch opts.Kind {
	case "", KindFile:
		root := opts.Root
		if root == "" {
			root = DefaultRoot
		}
		return NewFileStore(root), nil
	case KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(ctx, opts.SQLitePath)
	case KindRedis:
		return DialRedis(ctx, &redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", opts.Kind)
	}
}

func CloseIfSupported(store CheckpointStore) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
