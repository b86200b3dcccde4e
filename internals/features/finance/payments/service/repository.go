// file: internals/features/finance/payments/service/repository.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	feeRepo "schoolpay_backend/internals/features/finance/fee_accounts/repository"
	planModel "schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/helpers/apperr"
)

// Repository provides DB operations used by checkout, webhook, and sweeps.
type Repository interface {
	WithinTx(ctx context.Context, fn func(Repository) error) error

	GetFeeAccount(ctx context.Context, id uuid.UUID) (*feeModel.FeeAccountModel, error)
	SaveFeeAccountLedger(ctx context.Context, acc *feeModel.FeeAccountModel) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*feeModel.PaymentScheduleModel, error)
	SaveSchedule(ctx context.Context, s *feeModel.PaymentScheduleModel) error
	ListUnpaidPastDue(ctx context.Context, before time.Time, after *feeModel.ScheduleCursor, limit int) ([]feeModel.PaymentScheduleModel, error)
	ListOpenSchedules(ctx context.Context, feeAccountID uuid.UUID) ([]feeModel.PaymentScheduleModel, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*planModel.PaymentPlanModel, error)

	CreateTransaction(ctx context.Context, tx *model.GatewayTransactionModel) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.GatewayTransactionModel, error)
	FindTransactionByExternalID(ctx context.Context, externalID string) (*model.GatewayTransactionModel, error)
	FindTransactionByReference(ctx context.Context, reference string) (*model.GatewayTransactionModel, error)
	FindTransactionBySessionID(ctx context.Context, sessionID string) (*model.GatewayTransactionModel, error)
	// ClaimTransaction: compare-and-set processed=false→true. false = sudah diproses.
	ClaimTransaction(ctx context.Context, id uuid.UUID, status model.TransactionStatus, gatewayPaymentID *string, at time.Time) (bool, error)
	ListExpiredAwaiting(ctx context.Context, now time.Time, limit int) ([]model.GatewayTransactionModel, error)

	CreatePayment(ctx context.Context, p *model.PaymentModel) error
	GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error)
	// FindPaymentByTransaction: nil, nil bila belum ada.
	FindPaymentByTransaction(ctx context.Context, txID uuid.UUID) (*model.PaymentModel, error)

	RecordGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) error
	AppendAudit(ctx context.Context, entry *auditModel.AuditLogModel) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithinTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetFeeAccount(ctx context.Context, id uuid.UUID) (*feeModel.FeeAccountModel, error) {
	return feeRepo.GetFeeAccount(ctx, r.db, id)
}

func (r *gormRepository) SaveFeeAccountLedger(ctx context.Context, acc *feeModel.FeeAccountModel) error {
	return feeRepo.SaveFeeAccountLedger(ctx, r.db, acc)
}

func (r *gormRepository) GetSchedule(ctx context.Context, id uuid.UUID) (*feeModel.PaymentScheduleModel, error) {
	return feeRepo.GetSchedule(ctx, r.db, id)
}

func (r *gormRepository) SaveSchedule(ctx context.Context, s *feeModel.PaymentScheduleModel) error {
	return feeRepo.SaveSchedule(ctx, r.db, s)
}

func (r *gormRepository) ListUnpaidPastDue(ctx context.Context, before time.Time, after *feeModel.ScheduleCursor, limit int) ([]feeModel.PaymentScheduleModel, error) {
	return feeRepo.ListUnpaidPastDue(ctx, r.db, before, after, limit)
}

func (r *gormRepository) ListOpenSchedules(ctx context.Context, feeAccountID uuid.UUID) ([]feeModel.PaymentScheduleModel, error) {
	return feeRepo.ListOpenSchedules(ctx, r.db, feeAccountID)
}

func (r *gormRepository) GetPlan(ctx context.Context, id uuid.UUID) (*planModel.PaymentPlanModel, error) {
	var p planModel.PaymentPlanModel
	err := r.db.WithContext(ctx).Where("payment_plan_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment plan tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) CreateTransaction(ctx context.Context, tx *model.GatewayTransactionModel) error {
	err := r.db.WithContext(ctx).Create(tx).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindInternal, "", "external_id sudah tercatat", err)
	}
	if err != nil {
		return fmt.Errorf("create gateway transaction: %w", err)
	}
	return nil
}

func (r *gormRepository) findTransaction(ctx context.Context, where string, arg any) (*model.GatewayTransactionModel, error) {
	var t model.GatewayTransactionModel
	err := r.db.WithContext(ctx).Where(where, arg).Order("gateway_transaction_created_at DESC").First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("transaksi tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("find gateway transaction: %w", err)
	}
	return &t, nil
}

func (r *gormRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*model.GatewayTransactionModel, error) {
	return r.findTransaction(ctx, "gateway_transaction_id = ?", id)
}

func (r *gormRepository) FindTransactionByExternalID(ctx context.Context, externalID string) (*model.GatewayTransactionModel, error) {
	return r.findTransaction(ctx, "gateway_transaction_external_id = ?", externalID)
}

func (r *gormRepository) FindTransactionByReference(ctx context.Context, reference string) (*model.GatewayTransactionModel, error) {
	return r.findTransaction(ctx, "gateway_transaction_reference_number = ?", reference)
}

func (r *gormRepository) FindTransactionBySessionID(ctx context.Context, sessionID string) (*model.GatewayTransactionModel, error) {
	return r.findTransaction(ctx, "gateway_transaction_checkout_session_id = ?", sessionID)
}

func (r *gormRepository) ClaimTransaction(ctx context.Context, id uuid.UUID, status model.TransactionStatus, gatewayPaymentID *string, at time.Time) (bool, error) {
	updates := map[string]any{
		"gateway_transaction_processed":    true,
		"gateway_transaction_status":       status,
		"gateway_transaction_processed_at": at,
		"gateway_transaction_updated_at":   at,
	}
	if gatewayPaymentID != nil && *gatewayPaymentID != "" {
		updates["gateway_transaction_gateway_payment_id"] = *gatewayPaymentID
	}
	res := r.db.WithContext(ctx).
		Model(&model.GatewayTransactionModel{}).
		Where("gateway_transaction_id = ? AND gateway_transaction_processed = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("claim gateway transaction: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) ListExpiredAwaiting(ctx context.Context, now time.Time, limit int) ([]model.GatewayTransactionModel, error) {
	var out []model.GatewayTransactionModel
	err := r.db.WithContext(ctx).
		Where("gateway_transaction_status = ? AND gateway_transaction_processed = ? AND gateway_transaction_expires_at < ?",
			model.TxAwaitingPayment, false, now).
		Order("gateway_transaction_expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) CreatePayment(ctx context.Context, p *model.PaymentModel) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *gormRepository) GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := r.db.WithContext(ctx).Where("payment_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) FindPaymentByTransaction(ctx context.Context, txID uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := r.db.WithContext(ctx).Where("payment_gateway_transaction_id = ?", txID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) RecordGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *gormRepository) AppendAudit(ctx context.Context, entry *auditModel.AuditLogModel) error {
	return auditService.Append(ctx, r.db, entry)
}
