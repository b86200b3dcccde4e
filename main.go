package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"schoolpay_backend/internals/configs"
	database "schoolpay_backend/internals/databases"
	auditController "schoolpay_backend/internals/features/finance/audit_logs/controller"
	planController "schoolpay_backend/internals/features/finance/payment_plans/controller"
	planService "schoolpay_backend/internals/features/finance/payment_plans/service"
	paymentController "schoolpay_backend/internals/features/finance/payments/controller"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/scheduler"
	paymentService "schoolpay_backend/internals/features/finance/payments/service"
	helper "schoolpay_backend/internals/helpers"
	"schoolpay_backend/internals/helpers/cache"
	"schoolpay_backend/internals/helpers/logx"
	middlewares "schoolpay_backend/internals/middlewares"
	"schoolpay_backend/internals/middlewares/logger"
	routes "schoolpay_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	lg, err := logx.Init(cfg.IsDev())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logx.Sync()

	if err := cfg.Validate(); err != nil {
		lg.Fatalw("config invalid", "error", err)
	}

	// 🔌 DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	database.TunePool(db)
	database.WarmUpQueries(db)

	redisClient := cache.Connect(cfg.Cache)

	gw, err := gateway.New(cfg.Gateway, cfg.SessionTTL, lg.Named("gateway"))
	if err != nil {
		lg.Fatalw("gateway init failed", "error", err)
	}
	lg.Infow("payment gateway ready", "provider", gw.Name())

	// ====== services ======
	payRepo := paymentService.NewRepository(db)
	checkout := paymentService.NewCheckoutService(
		payRepo,
		gw,
		paymentService.NewStatusCache(redisClient, lg.Named("status_cache")),
		paymentService.CheckoutConfig{BaseURL: cfg.BaseURL, SessionTTL: cfg.SessionTTL},
		lg.Named("checkout"),
	)
	webhook := paymentService.NewWebhookProcessor(payRepo, gw, paymentService.NewLogAlerter(lg.Named("alert")), lg.Named("webhook"))
	sweeps := paymentService.NewSweepService(payRepo, lg.Named("sweep"))
	plans := planService.NewPlanService(planService.NewRepository(db), lg.Named("plans"))

	// ⏱ sweeper setelah DB siap
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	sweepDone := scheduler.Start(sweepCtx, sweeps, scheduler.Intervals{
		Expiry:  cfg.ExpirySweepInterval,
		LateFee: cfg.LateFeeSweepEvery,
	}, lg.Named("scheduler"))

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.FiberErrorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR load balancer
	})

	// ⚙️ middleware dasar + performa
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(middlewares.RequestContext(5 * time.Second))
	app.Use(logger.LoggerMiddleware())
	app.Use(middlewares.CorsMiddleware(cfg.CorsOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	routes.SetupRoutes(app, db, cfg, routes.Handlers{
		Payments:      paymentController.NewPaymentController(checkout, webhook, gw.SignatureHeader(), lg.Named("http")),
		GatewayEvents: paymentController.NewPaymentGatewayEventController(db),
		Plans:         planController.NewPaymentPlanController(plans),
		AuditLogs:     auditController.NewAuditLogController(db),
	}, middlewares.LimiterStorage(cfg.Cache))

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		lg.Infof("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			lg.Fatalw("server error", "error", err)
		}
	}()

	// graceful shutdown: HTTP dulu, lalu sweeper, terakhir pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		lg.Warnw("http shutdown", "error", err)
	}

	stopSweeps()
	select {
	case <-sweepDone:
	case <-ctx.Done():
		lg.Warn("sweeper tidak berhenti sebelum timeout")
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	database.Close(db)
}
