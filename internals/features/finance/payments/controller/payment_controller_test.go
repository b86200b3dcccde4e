package controller_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schoolpay_backend/internals/features/finance/payments/controller"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/route"
	svc "schoolpay_backend/internals/features/finance/payments/service"
	helper "schoolpay_backend/internals/helpers"
)

const testWebhookSecret = "whsk_test_secret"

// newTestApp: repo nil, jadi hanya jalur yang gagal sebelum akses DB yang boleh diuji di sini.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := zap.NewNop().Sugar()
	gw := gateway.NewPayMongo(gateway.PayMongoConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: testWebhookSecret,
		BaseURL:       "http://127.0.0.1:1",
	}, log)

	checkout := svc.NewCheckoutService(nil, gw, nil, svc.CheckoutConfig{BaseURL: "https://school.example"}, log)
	webhook := svc.NewWebhookProcessor(nil, gw, svc.NewLogAlerter(log), log)
	h := controller.NewPaymentController(checkout, webhook, gw.SignatureHeader(), log)

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	route.PaymentPublicRoutes(app.Group("/api"), h)
	return app
}

type envelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Reason    string              `json:"reason"`
	Errors    map[string][]string `json:"errors"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func TestCheckoutRejectsInvalidJSON(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")

	status, env := do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestCheckoutValidationErrors(t *testing.T) {
	app := newTestApp(t)
	for _, tc := range []struct {
		name  string
		body  string
		field string
	}{
		{"missing account", `{"payment_type":"full"}`, "StudentFeeAccountID"},
		{"bad type", `{"student_fee_account_id":"3f2a9c1b-1111-4000-8000-000000000000","payment_type":"weekly"}`, "PaymentType"},
		{"schedule without id", `{"student_fee_account_id":"3f2a9c1b-1111-4000-8000-000000000000","payment_type":"schedule"}`, "PaymentScheduleID"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			status, env := do(t, app, req)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
			assert.Contains(t, env.Errors, tc.field)
		})
	}
}

func TestCheckoutStatusRequiresSessionID(t *testing.T) {
	app := newTestApp(t)
	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/payments/checkout", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "MISSING_FIELD", env.Reason)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := newTestApp(t)
	body := `{"data":{"id":"evt_1","attributes":{"type":"checkout_session.payment.paid","data":{"id":"cs_1"}}}}`

	for name, header := range map[string]string{
		"missing":  "",
		"garbage":  "nonsense",
		"tampered": gateway.SignPayMongoPayload(testWebhookSecret, false, time.Now().Unix(), []byte(body+" ")),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if header != "" {
				req.Header.Set("Paymongo-Signature", header)
			}
			status, env := do(t, app, req)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "SIGNATURE_INVALID", env.ErrorCode)
		})
	}
}

func TestWebhookSignedButMalformed(t *testing.T) {
	app := newTestApp(t)
	body := []byte(`{"data":{"id":"evt_1","attributes":{}}}`)
	ts := time.Now().Unix()

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Paymongo-Signature", gateway.SignPayMongoPayload(testWebhookSecret, false, ts, body))
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))

	status, env := do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
}
