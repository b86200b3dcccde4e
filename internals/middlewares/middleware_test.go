package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextSetsIDAndDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(RequestContext(5 * time.Second))
	var deadline time.Duration
	app.Get("/x", func(c *fiber.Ctx) error {
		d, ok := c.UserContext().Deadline()
		require.True(t, ok)
		deadline = time.Until(d)
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/hook", ExtendTimeout(10*time.Second), func(c *fiber.Ctx) error {
		d, _ := c.UserContext().Deadline()
		deadline = time.Until(d)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.LessOrEqual(t, deadline, 5*time.Second)
	assert.Greater(t, deadline, 4*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))

	_, err = app.Test(httptest.NewRequest(http.MethodPost, "/hook", nil))
	require.NoError(t, err)
	assert.Greater(t, deadline, 9*time.Second)
}

func TestCheckoutRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/api/payments/checkout", CheckoutRateLimiter(nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	codes := make([]int, 0, 11)
	for i := 0; i < 11; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/payments/checkout", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, fiber.StatusCreated, codes[9])
	assert.Equal(t, fiber.StatusTooManyRequests, codes[10])
}

func TestGlobalRateLimiterSkipsWebhook(t *testing.T) {
	app := fiber.New()
	app.Use(GlobalRateLimiter(nil))
	app.Post("/api/payments/webhook", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 120; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/payments/webhook", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, i)
	}
}
