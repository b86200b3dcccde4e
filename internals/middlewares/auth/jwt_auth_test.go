package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin", AuthJWT(AuthJWTOpts{Secret: secret}), RequireRole("admin", "finance"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocUserID).(string))
	})
	return app
}

func call(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthJWT(t *testing.T) {
	app := newApp()
	exp := time.Now().Add(time.Hour).Unix()
	uid := "6f1c2d3e-4b5a-4c6d-8e7f-0a1b2c3d4e5f"

	assert.Equal(t, http.StatusUnauthorized, call(t, app, ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, "not-a-jwt"))

	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"id": uid, "role": "admin", "exp": exp})
	assert.Equal(t, http.StatusUnauthorized, call(t, app, wrongKey))

	expired := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": uid, "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, call(t, app, expired))

	badUser := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": "nope", "role": "admin", "exp": exp})
	assert.Equal(t, http.StatusUnauthorized, call(t, app, badUser))

	student := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"id": uid, "role": "student", "exp": exp})
	assert.Equal(t, http.StatusForbidden, call(t, app, student))

	admin := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": uid, "roles_global": []string{"Finance"}, "exp": exp})
	assert.Equal(t, http.StatusOK, call(t, app, admin))
}

func TestAuthJWTPanicsWithoutSecret(t *testing.T) {
	assert.Panics(t, func() { AuthJWT(AuthJWTOpts{}) })
}
