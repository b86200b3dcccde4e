// file: internals/features/finance/payments/controller/payment_gateway_events_controller.go
package controller

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolpay_backend/internals/features/finance/payments/dto"
	model "schoolpay_backend/internals/features/finance/payments/model"
	helper "schoolpay_backend/internals/helpers"
	"schoolpay_backend/internals/helpers/apperr"
)

/* =======================================================================
   Controller (read-only, untuk ops menelusuri delivery webhook)
======================================================================= */

type PaymentGatewayEventController struct {
	DB *gorm.DB
}

func NewPaymentGatewayEventController(db *gorm.DB) *PaymentGatewayEventController {
	return &PaymentGatewayEventController{DB: db}
}

func (h *PaymentGatewayEventController) RegisterRoutes(r fiber.Router) {
	gr := r.Group("/payment-gateway-events")
	gr.Get("/", h.ListEvents) // GET /payment-gateway-events?provider=&status=&transaction_id=&start=&end=&page=&limit=
	gr.Get("/:id", h.GetByID) // GET /payment-gateway-events/:id
}

/* =======================================================================
   List (filter + pagination)
   Query params:
     - provider: paymongo|midtrans
     - status: processed|duplicate|unrecognized|ignored|failed
     - transaction_id: uuid
     - start, end: RFC3339 (filter received_at)
     - page (default 1), limit (default 20, max 200)
======================================================================= */

func (h *PaymentGatewayEventController) ListEvents(c *fiber.Ctx) error {
	db := h.DB.WithContext(c.UserContext()).Model(&model.PaymentGatewayEventModel{})

	if p := strings.TrimSpace(c.Query("provider")); p != "" {
		db = db.Where("gateway_event_provider = ?", strings.ToLower(p))
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		db = db.Where("gateway_event_status = ?", strings.ToLower(s))
	}
	if tid := strings.TrimSpace(c.Query("transaction_id")); tid != "" {
		id, err := uuid.Parse(tid)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid transaction_id")
		}
		db = db.Where("gateway_event_transaction_id = ?", id)
	}

	if start := strings.TrimSpace(c.Query("start")); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid start (use RFC3339)")
		}
		db = db.Where("gateway_event_received_at >= ?", t)
	}
	if end := strings.TrimSpace(c.Query("end")); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid end (use RFC3339)")
		}
		db = db.Where("gateway_event_received_at < ?", t)
	}

	page := clampInt(queryInt(c, "page", 1), 1, 1_000_000)
	limit := clampInt(queryInt(c, "limit", 20), 1, 200)
	offset := (page - 1) * limit

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return helper.JsonAppError(c, apperr.Internal("count gateway events", err))
	}

	var rows []model.PaymentGatewayEventModel
	if err := db.Order("gateway_event_received_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return helper.JsonAppError(c, apperr.Internal("list gateway events", err))
	}

	out := make([]*dto.PaymentGatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromModelPGW(&rows[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"page":    page,
		"limit":   limit,
		"total":   total,
		"data":    out,
	})
}

/* =======================================================================
   Detail
======================================================================= */

func (h *PaymentGatewayEventController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	var m model.PaymentGatewayEventModel
	if err := h.DB.WithContext(c.UserContext()).First(&m, "gateway_event_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonAppError(c, apperr.NotFound("event not found"))
		}
		return helper.JsonAppError(c, apperr.Internal("get gateway event", err))
	}

	return helper.JsonOK(c, "ok", dto.FromModelPGW(&m))
}

/* =======================================================================
   Helpers
======================================================================= */

func queryInt(c *fiber.Ctx, key string, def int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
