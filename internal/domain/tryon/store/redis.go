package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tryon-client/internal/domain/tryon"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed record store. A zero TTL stores keys
// without expiry.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "tryon:record:"
	}
	return &redisStore{
		client: client,
		ttl:    cfg.TTL,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Save(ctx context.Context, rec tryon.Record) error {
	if err := requireID(rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(rec.ID), data, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) (tryon.Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return tryon.Record{}, ErrNotFound
	}
	if err != nil {
		return tryon.Record{}, err
	}
	var rec tryon.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return tryon.Record{}, err
	}
	return rec, nil
}

func (s *redisStore) List(ctx context.Context) ([]tryon.Record, error) {
	var cursor uint64
	keys := make([]string, 0)
	for {
		res, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, res...)
		if next == 0 {
			break
		}
		cursor = next
	}
	if len(keys) == 0 {
		return []tryon.Record{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]tryon.Record, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// 扫描和读取之间过期
			continue
		}
		var rec tryon.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", strings.TrimPrefix(keys[i], s.prefix), err)
		}
		out = append(out, rec)
	}
	newestFirst(out)
	return out, nil
}

func (s *redisStore) Remove(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
