// file: internals/helpers/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"schoolpay_backend/internals/configs"
	"schoolpay_backend/internals/helpers/logx"
)

// Connect membuka client Redis; nil bila CACHE_HOST kosong.
// Gagal ping tidak fatal, cache hanya optimisasi.
func Connect(cfg configs.CacheConfig) *redis.Client {
	if !cfg.Enabled() {
		logx.S().Info("cache disabled (CACHE_HOST kosong)")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if pong, err := client.Ping(ctx).Result(); err != nil {
		logx.S().Warnw("could not connect to cache", "error", err)
	} else {
		logx.S().Infow("connected to cache", "pong", pong)
	}
	return client
}
