package middlewares

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"schoolpay_backend/internals/configs"
	helper "schoolpay_backend/internals/helpers"
)

// LimiterStorage: Redis (DB 1) bila CACHE_HOST diset, selain itu memory bawaan limiter.
// Dengan Redis, counter berlaku lintas instance.
func LimiterStorage(cfg configs.CacheConfig) fiber.Storage {
	if !cfg.Enabled() {
		return nil
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: 1, // cache status pakai DB 0
		Reset:    false,
	})
}

func newLimiter(storage fiber.Storage, max int, exp time.Duration, msg string, skip func(*fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Next:       skip,
		Max:        max,
		Expiration: exp,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Route().Path
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, msg)
		},
	})
}

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter(storage fiber.Storage) fiber.Handler {
	// webhook gateway tidak dibatasi
	return newLimiter(storage, 100, time.Minute, "Terlalu banyak permintaan. Silakan coba lagi nanti.", func(c *fiber.Ctx) bool {
		return strings.HasSuffix(c.Path(), "/webhook")
	})
}

// Rate limiter untuk pembuatan checkout (tiap request = 1 session di gateway)
func CheckoutRateLimiter(storage fiber.Storage) fiber.Handler {
	return newLimiter(storage, 10, time.Minute, "Terlalu banyak percobaan checkout. Coba beberapa saat lagi.", nil)
}
