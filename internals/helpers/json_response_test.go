package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpay_backend/internals/helpers/apperr"
)

func decodeErr(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestJsonAppErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   apperr.Kind
		msg    string
	}{
		{"validation", apperr.Validation(apperr.CodeBelowMinimum, "amount below minimum"), 400, apperr.KindValidation, "amount below minimum"},
		{"state", apperr.StateConflict(apperr.CodeAccountOnHold, "account on hold"), 400, apperr.KindStateConflict, "account on hold"},
		{"not found", apperr.NotFound("fee account not found"), 404, apperr.KindNotFound, "fee account not found"},
		{"gateway down", apperr.New(apperr.KindGatewayUnavailable, "", "gateway not configured"), 503, apperr.KindGatewayUnavailable, "gateway not configured"},
		{"gateway passthrough", &apperr.Error{Kind: apperr.KindGateway, Message: "bad request", Status: 422}, 422, apperr.KindGateway, "bad request"},
		{"internal hides cause", apperr.Internal("save ledger", errors.New("pq: secret detail")), 500, apperr.KindInternal, "internal server error"},
		{"plain error", errors.New("boom"), 500, apperr.KindInternal, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return JsonAppError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeErr(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, string(tc.kind), body.ErrorCode)
			assert.Equal(t, tc.msg, body.Message)
		})
	}
}

func TestJsonValidationErrorListsFields(t *testing.T) {
	type req struct {
		PaymentType string `validate:"required,oneof=full schedule custom"`
	}
	verr := validator.New().Struct(req{PaymentType: "monthly"})
	require.Error(t, verr)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return JsonValidationError(c, verr) })
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeErr(t, resp)
	assert.Equal(t, []string{"oneof"}, body.Errors["PaymentType"])
	assert.Equal(t, apperr.CodeMissingField, body.Reason)
}

func TestFiberErrorHandlerKeepsEnvelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: FiberErrorHandler})
	app.Get("/forbidden", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "nope") })
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperr.New(apperr.KindConflict, apperr.CodePlansExist, "plans already exist")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeErr(t, resp).ErrorCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperr.CodePlansExist, decodeErr(t, resp).Reason)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
