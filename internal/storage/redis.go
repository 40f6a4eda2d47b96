package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"phoenix/internal/model"
)

const DefaultRedisPrefix = "phoenix:checkpoint:"

// RedisStore keeps each snapshot envelope as a plain string value under
// prefix+sanitized id.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, opts *redis.Options, prefix string) (*RedisStore, error) {
	if opts == nil || opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) Store(ctx context.Context, checkpointID string, population []model.Organism) error {
	key, err := checkpointKey(OpStore, checkpointID)
	if err != nil {
		return err
	}
	payload, err := EncodeSnapshot(population)
	if err != nil {
		return storageErr(OpEncode, checkpointID, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, 0).Err(); err != nil {
		return storageErr(OpStore, checkpointID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, checkpointID string) ([]model.Organism, error) {
	key, err := checkpointKey(OpLoad, checkpointID)
	if err != nil {
		return nil, err
	}
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr(OpList, "", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
