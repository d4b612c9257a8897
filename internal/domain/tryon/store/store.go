package store

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"tryon-client/internal/domain/tryon"
)

// ErrNotFound 记录不存在或已过期
var ErrNotFound = stderrors.New("record not found")

// Store 换装记录仓库
type Store interface {
	tryon.RecordStore
	Remove(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// Config 仓库选择参数
type Config struct {
	Driver string
	// TTL 为 0 表示记录不过期
	TTL    time.Duration
	Redis  *RedisConfig
	Memory *MemoryConfig
}

// MemoryConfig 内存驱动参数
type MemoryConfig struct {
	GCInterval time.Duration
}

// RedisConfig 连接参数
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// newestFirst 按创建时间倒序，时间相同按 ID
func newestFirst(recs []tryon.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

func requireID(rec tryon.Record) error {
	if rec.ID == "" {
		return stderrors.New("record id required")
	}
	return nil
}
