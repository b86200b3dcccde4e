// file: internals/features/finance/audit_logs/model/audit_log_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Actions yang ditulis oleh modul payments.
const (
	ActionCheckoutCreated        = "checkout.created"
	ActionPaymentCompleted       = "payment.completed"
	ActionPaymentFailed          = "payment.failed"
	ActionPaymentExpired         = "payment.expired"
	ActionPaymentRefundRequested = "payment.refund_requested"
	ActionLateFeeAssessed        = "late_fee.assessed"
	ActionPlanApplied            = "payment_plan.applied"
	ActionPlansSeeded            = "payment_plan.defaults_created"
)

// Append-only; tidak ada updated_at / deleted_at.
type AuditLogModel struct {
	AuditLogID          uuid.UUID      `gorm:"column:audit_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"audit_log_id"`
	AuditLogAction      string         `gorm:"column:audit_log_action;not null" json:"audit_log_action"`
	AuditLogEntityType  string         `gorm:"column:audit_log_entity_type;not null" json:"audit_log_entity_type"`
	AuditLogEntityID    *uuid.UUID     `gorm:"column:audit_log_entity_id;type:uuid" json:"audit_log_entity_id"`
	AuditLogDescription string         `gorm:"column:audit_log_description;not null;default:''" json:"audit_log_description"`
	AuditLogSnapshot    datatypes.JSON `gorm:"column:audit_log_snapshot;type:jsonb" json:"audit_log_snapshot"`
	AuditLogCreatedAt   time.Time      `gorm:"column:audit_log_created_at;not null;default:now()" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }
