// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolpay_backend/internals/configs"
	"schoolpay_backend/internals/constants"
	auditController "schoolpay_backend/internals/features/finance/audit_logs/controller"
	planController "schoolpay_backend/internals/features/finance/payment_plans/controller"
	planRoute "schoolpay_backend/internals/features/finance/payment_plans/route"
	paymentController "schoolpay_backend/internals/features/finance/payments/controller"
	paymentRoute "schoolpay_backend/internals/features/finance/payments/route"
	"schoolpay_backend/internals/helpers/logx"
	"schoolpay_backend/internals/middlewares"
	"schoolpay_backend/internals/middlewares/auth"
)

// Handlers = semua controller yang sudah dirakit di main.
type Handlers struct {
	Payments      *paymentController.PaymentController
	GatewayEvents *paymentController.PaymentGatewayEventController
	Plans         *planController.PaymentPlanController
	AuditLogs     *auditController.AuditLogController
}

const webhookTimeout = 10 * time.Second

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg configs.Config, h Handlers, limiterStorage fiber.Storage) {
	BaseRoutes(app, db, cfg.AppEnv)

	// ===================== PUBLIC =====================
	logx.S().Info("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api", middlewares.GlobalRateLimiter(limiterStorage))
	public.Post("/payments/checkout", middlewares.CheckoutRateLimiter(limiterStorage))
	paymentRoute.PaymentPublicRoutes(public, h.Payments, middlewares.ExtendTimeout(webhookTimeout))

	// ===================== ADMIN =====================
	logx.S().Info("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		auth.AuthJWT(auth.AuthJWTOpts{
			Secret:              cfg.JWTSecret,
			AllowCookieFallback: true,
		}),
		auth.RequireRole(constants.FinanceRoles...),
	)
	paymentRoute.PaymentAdminRoutes(admin, h.Payments, h.GatewayEvents)
	planRoute.PaymentPlanRoutes(admin, h.Plans)
	h.AuditLogs.RegisterRoutes(admin)
}
