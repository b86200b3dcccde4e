package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statusCacheTTL = time.Hour

// StatusCache menyimpan hasil GetSessionStatus yang sudah terminal (immutable).
type StatusCache interface {
	Get(ctx context.Context, sessionID string) (*SessionStatus, bool)
	Set(ctx context.Context, sessionID string, st *SessionStatus)
}

type noopStatusCache struct{}

func (noopStatusCache) Get(context.Context, string) (*SessionStatus, bool) { return nil, false }
func (noopStatusCache) Set(context.Context, string, *SessionStatus)        {}

type RedisStatusCache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

// NewStatusCache: client nil → cache no-op.
func NewStatusCache(client *redis.Client, log *zap.SugaredLogger) StatusCache {
	if client == nil {
		return noopStatusCache{}
	}
	return &RedisStatusCache{client: client, log: log}
}

func statusKey(sessionID string) string { return "checkout:status:" + sessionID }

func (c *RedisStatusCache) Get(ctx context.Context, sessionID string) (*SessionStatus, bool) {
	raw, err := c.client.Get(ctx, statusKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("status cache get failed", "error", err)
		}
		return nil, false
	}
	var st SessionStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false
	}
	return &st, true
}

func (c *RedisStatusCache) Set(ctx context.Context, sessionID string, st *SessionStatus) {
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statusKey(sessionID), b, statusCacheTTL).Err(); err != nil {
		c.log.Warnw("status cache set failed", "error", err)
	}
}
