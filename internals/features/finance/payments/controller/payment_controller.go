// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dto "schoolpay_backend/internals/features/finance/payments/dto"
	svc "schoolpay_backend/internals/features/finance/payments/service"
	helper "schoolpay_backend/internals/helpers"
	"schoolpay_backend/internals/helpers/apperr"
)

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Checkout  *svc.CheckoutService
	Processor *svc.WebhookProcessor
	Validator *validator.Validate
	// header tempat gateway mengirim signature (kosong = signature di payload)
	SignatureHeader string
	Log             *zap.SugaredLogger
}

func NewPaymentController(checkout *svc.CheckoutService, webhook *svc.WebhookProcessor, signatureHeader string, log *zap.SugaredLogger) *PaymentController {
	return &PaymentController{
		Checkout:        checkout,
		Processor:       webhook,
		Validator:       validator.New(),
		SignatureHeader: signatureHeader,
		Log:             log,
	}
}

/* =======================================================================
   Handlers
======================================================================= */

// POST /payments/checkout
func (h *PaymentController) CreateCheckout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	req.Normalize()
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := h.Checkout.CreateCheckout(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "checkout session dibuat", res)
}

// GET /payments/checkout?session_id=
func (h *PaymentController) GetCheckoutStatus(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return helper.JsonAppError(c, apperr.Validation(apperr.CodeMissingField, "session_id wajib diisi"))
	}
	st, err := h.Checkout.GetSessionStatus(c.UserContext(), sessionID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}

// POST /payments/webhook
// Body mentah dipakai apa adanya untuk verifikasi signature (jangan BodyParser dulu).
func (h *PaymentController) Webhook(c *fiber.Ctx) error {
	raw := append([]byte(nil), c.Body()...)
	header := ""
	if h.SignatureHeader != "" {
		header = c.Get(h.SignatureHeader)
	}

	res, err := h.Processor.Process(c.UserContext(), raw, header)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromWebhookResult(res))
}

// POST /payments/:id/refund
func (h *PaymentController) Refund(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id tidak valid")
	}
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := h.Checkout.RefundPayment(c.UserContext(), id, req.Amount, req.Reason)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	h.Log.Infow("refund requested", "payment_id", id, "refund_id", res.RefundID, "by", c.Locals("user_id"))
	return helper.JsonOK(c, "refund diminta", res)
}
