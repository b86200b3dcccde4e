// file: internals/features/finance/payments/route/payment_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	paymentController "schoolpay_backend/internals/features/finance/payments/controller"
)

/*
Public routes (payer + gateway). Contoh mount: PaymentPublicRoutes(app.Group("/api"), h)
- POST /api/payments/checkout
- GET  /api/payments/checkout?session_id=
- POST /api/payments/webhook   (signature diverifikasi di service, bukan JWT)
*/
func PaymentPublicRoutes(r fiber.Router, h *paymentController.PaymentController, webhookGuards ...fiber.Handler) {
	payments := r.Group("/payments")
	payments.Post("/checkout", h.CreateCheckout)
	payments.Get("/checkout", h.GetCheckoutStatus)

	webhook := append(append([]fiber.Handler{}, webhookGuards...), h.Webhook)
	payments.Post("/webhook", webhook...)
}

/*
Admin routes, dipasang di bawah group yang sudah lewat AuthJWT + RequireRole.
- POST /api/a/payments/:id/refund
- GET  /api/a/payment-gateway-events
- GET  /api/a/payment-gateway-events/:id
*/
func PaymentAdminRoutes(r fiber.Router, h *paymentController.PaymentController, events *paymentController.PaymentGatewayEventController) {
	r.Post("/payments/:id/refund", h.Refund)
	events.RegisterRoutes(r)
}
