// file: internals/features/finance/audit_logs/service/audit_log_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolpay_backend/internals/features/finance/audit_logs/model"
)

// Snapshot bebas bentuk; di-marshal ke jsonb.
type Snapshot map[string]any

func NewEntry(action, entityType string, entityID *uuid.UUID, description string, snap Snapshot) model.AuditLogModel {
	var raw datatypes.JSON
	if snap != nil {
		if b, err := json.Marshal(snap); err == nil {
			raw = datatypes.JSON(b)
		}
	}
	return model.AuditLogModel{
		AuditLogID:          uuid.New(),
		AuditLogAction:      action,
		AuditLogEntityType:  entityType,
		AuditLogEntityID:    entityID,
		AuditLogDescription: description,
		AuditLogSnapshot:    raw,
		AuditLogCreatedAt:   time.Now(),
	}
}

// Append menulis entry memakai handle yang diberikan; kirim tx agar ikut rollback.
func Append(ctx context.Context, db *gorm.DB, entry *model.AuditLogModel) error {
	if entry.AuditLogID == uuid.Nil {
		entry.AuditLogID = uuid.New()
	}
	if entry.AuditLogCreatedAt.IsZero() {
		entry.AuditLogCreatedAt = time.Now()
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit %s: %w", entry.AuditLogAction, err)
	}
	return nil
}

// ListByEntity untuk kebutuhan debugging/ops.
func ListByEntity(ctx context.Context, db *gorm.DB, entityType string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []model.AuditLogModel
	err := db.WithContext(ctx).
		Where("audit_log_entity_type = ? AND audit_log_entity_id = ?", entityType, entityID).
		Order("audit_log_created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
