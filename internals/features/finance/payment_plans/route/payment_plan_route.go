package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolpay_backend/internals/features/finance/payment_plans/controller"
)

// Dipasang di bawah group admin (JWT).
func PaymentPlanRoutes(r fiber.Router, h *controller.PaymentPlanController) {
	g := r.Group("/payment-plans")
	g.Get("/", h.List)
	g.Post("/defaults", h.CreateDefaults)
	g.Post("/preview", h.Preview)
	g.Post("/:id/apply", h.Apply)
}
