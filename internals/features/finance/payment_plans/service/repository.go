// file: internals/features/finance/payment_plans/service/repository.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	feeRepo "schoolpay_backend/internals/features/finance/fee_accounts/repository"
	"schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/helpers/apperr"
)

// Repository = operasi DB yang dipakai PlanService.
type Repository interface {
	WithinTx(ctx context.Context, fn func(Repository) error) error

	CountPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) (int64, error)
	CreatePlans(ctx context.Context, plans []model.PaymentPlanModel) error
	ListPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) ([]model.PaymentPlanModel, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*model.PaymentPlanModel, error)

	GetFeeAccount(ctx context.Context, id uuid.UUID) (*feeModel.FeeAccountModel, error)
	SaveFeeAccountLedger(ctx context.Context, acc *feeModel.FeeAccountModel) error
	CountSchedules(ctx context.Context, feeAccountID uuid.UUID) (int64, error)
	CreateSchedules(ctx context.Context, rows []feeModel.PaymentScheduleModel) error

	AppendAudit(ctx context.Context, entry *auditModel.AuditLogModel) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithinTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) CountPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.PaymentPlanModel{}).
		Where("payment_plan_school_id = ? AND payment_plan_school_year_id = ?", schoolID, schoolYearID).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) CreatePlans(ctx context.Context, plans []model.PaymentPlanModel) error {
	err := r.db.WithContext(ctx).Create(&plans).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindConflict, apperr.CodePlansExist, "payment plan sudah ada untuk tahun ajaran ini")
	}
	if err != nil {
		return fmt.Errorf("create plans: %w", err)
	}
	return nil
}

func (r *gormRepository) ListPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) ([]model.PaymentPlanModel, error) {
	var out []model.PaymentPlanModel
	err := r.db.WithContext(ctx).
		Where("payment_plan_school_id = ? AND payment_plan_school_year_id = ?", schoolID, schoolYearID).
		Order("payment_plan_number_of_installments ASC").
		Find(&out).Error
	return out, err
}

func (r *gormRepository) GetPlan(ctx context.Context, id uuid.UUID) (*model.PaymentPlanModel, error) {
	var p model.PaymentPlanModel
	err := r.db.WithContext(ctx).Where("payment_plan_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment plan tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) GetFeeAccount(ctx context.Context, id uuid.UUID) (*feeModel.FeeAccountModel, error) {
	return feeRepo.GetFeeAccount(ctx, r.db, id)
}

func (r *gormRepository) SaveFeeAccountLedger(ctx context.Context, acc *feeModel.FeeAccountModel) error {
	return feeRepo.SaveFeeAccountLedger(ctx, r.db, acc)
}

func (r *gormRepository) CountSchedules(ctx context.Context, feeAccountID uuid.UUID) (int64, error) {
	return feeRepo.CountSchedules(ctx, r.db, feeAccountID)
}

func (r *gormRepository) CreateSchedules(ctx context.Context, rows []feeModel.PaymentScheduleModel) error {
	return feeRepo.CreateSchedules(ctx, r.db, rows)
}

func (r *gormRepository) AppendAudit(ctx context.Context, entry *auditModel.AuditLogModel) error {
	return auditService.Append(ctx, r.db, entry)
}
