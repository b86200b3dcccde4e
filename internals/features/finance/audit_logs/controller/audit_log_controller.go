// file: internals/features/finance/audit_logs/controller/audit_log_controller.go
package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolpay_backend/internals/features/finance/audit_logs/model"
	"schoolpay_backend/internals/features/finance/audit_logs/service"
	helper "schoolpay_backend/internals/helpers"
	"schoolpay_backend/internals/helpers/apperr"
)

// EntityLister = bentuk service.ListByEntity yang sudah terikat ke DB.
type EntityLister func(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error)

// AuditLogController: read-only, jejak audit per entity untuk ops.
type AuditLogController struct {
	List EntityLister
}

func NewAuditLogController(db *gorm.DB) *AuditLogController {
	return &AuditLogController{
		List: func(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error) {
			return service.ListByEntity(ctx, db, entityType, entityID, limit)
		},
	}
}

// GET /audit-logs?entity_type=gateway_transaction&entity_id=<uuid>&limit=50
func (h *AuditLogController) RegisterRoutes(r fiber.Router) {
	r.Get("/audit-logs", h.ListByEntity)
}

func (h *AuditLogController) ListByEntity(c *fiber.Ctx) error {
	entityType := strings.TrimSpace(c.Query("entity_type"))
	if entityType == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "entity_type wajib diisi")
	}
	entityID, err := uuid.Parse(strings.TrimSpace(c.Query("entity_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid entity_id")
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid limit")
		}
	}

	rows, err := h.List(c.UserContext(), entityType, entityID, limit)
	if err != nil {
		return helper.JsonAppError(c, apperr.Internal("list audit logs", err))
	}
	if rows == nil {
		rows = []model.AuditLogModel{}
	}
	return helper.JsonList(c, "ok", rows)
}
