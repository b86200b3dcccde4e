// file: internals/features/finance/fee_accounts/repository/fee_account_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/helpers/apperr"
)

// Query ledger dipakai bersama oleh payment_plans, payments, dan scheduler.
// Semua fungsi menerima *gorm.DB agar bisa dipanggil di dalam tx.

func GetFeeAccount(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.FeeAccountModel, error) {
	var acc model.FeeAccountModel
	err := db.WithContext(ctx).Where("fee_account_id = ?", id).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("fee account tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("get fee account: %w", err)
	}
	return &acc, nil
}

// SaveFeeAccountLedger menulis saldo/status dengan cek versi.
// 0 row terpengaruh = ada mutasi lain di antaranya → LedgerConflict (retryable).
func SaveFeeAccountLedger(ctx context.Context, db *gorm.DB, acc *model.FeeAccountModel) error {
	expected := acc.FeeAccountVersion
	res := db.WithContext(ctx).
		Model(&model.FeeAccountModel{}).
		Where("fee_account_id = ? AND fee_account_version = ?", acc.FeeAccountID, expected).
		Updates(map[string]any{
			"fee_account_current_balance": acc.FeeAccountCurrentBalance,
			"fee_account_status":          acc.FeeAccountStatus,
			"fee_account_total_fee":       acc.FeeAccountTotalFee,
			"fee_account_plan_id":         acc.FeeAccountPlanID,
			"fee_account_version":         expected + 1,
			"fee_account_updated_at":      time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("save fee account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrap(apperr.KindInternal, apperr.CodeLedgerConflict,
			"fee account diubah bersamaan", fmt.Errorf("version %d stale for %s", expected, acc.FeeAccountID))
	}
	acc.FeeAccountVersion = expected + 1
	return nil
}

func GetSchedule(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.PaymentScheduleModel, error) {
	var s model.PaymentScheduleModel
	err := db.WithContext(ctx).Where("schedule_id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment schedule tidak ditemukan")
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &s, nil
}

func SaveSchedule(ctx context.Context, db *gorm.DB, s *model.PaymentScheduleModel) error {
	err := db.WithContext(ctx).
		Model(&model.PaymentScheduleModel{}).
		Where("schedule_id = ?", s.ScheduleID).
		Updates(map[string]any{
			"schedule_amount_paid":       s.ScheduleAmountPaid,
			"schedule_late_fee_assessed": s.ScheduleLateFeeAssessed,
			"schedule_late_fee_paid":     s.ScheduleLateFeePaid,
			"schedule_status":            s.ScheduleStatus,
			"schedule_paid_at":           s.SchedulePaidAt,
			"schedule_updated_at":        time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}

func CountSchedules(ctx context.Context, db *gorm.DB, feeAccountID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&model.PaymentScheduleModel{}).
		Where("schedule_fee_account_id = ?", feeAccountID).
		Count(&n).Error
	return n, err
}

func CreateSchedules(ctx context.Context, db *gorm.DB, rows []model.PaymentScheduleModel) error {
	if len(rows) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("create schedules: %w", err)
	}
	return nil
}

// ListUnpaidPastDue: kandidat late fee (due_date < before, belum lunas), urut keyset
// (due_date, schedule_id). after=nil untuk halaman pertama.
func ListUnpaidPastDue(ctx context.Context, db *gorm.DB, before time.Time, after *model.ScheduleCursor, limit int) ([]model.PaymentScheduleModel, error) {
	var out []model.PaymentScheduleModel
	q := db.WithContext(ctx).
		Where("schedule_status <> ? AND schedule_due_date < ?", model.SchedulePaid, before)
	if after != nil {
		q = q.Where("(schedule_due_date, schedule_id) > (?, ?)", after.DueDate, after.ID)
	}
	err := q.Order("schedule_due_date ASC, schedule_id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListOpenSchedules: schedule akun yang belum paid, urut cicilan.
func ListOpenSchedules(ctx context.Context, db *gorm.DB, feeAccountID uuid.UUID) ([]model.PaymentScheduleModel, error) {
	var out []model.PaymentScheduleModel
	err := db.WithContext(ctx).
		Where("schedule_fee_account_id = ? AND schedule_status <> ?", feeAccountID, model.SchedulePaid).
		Order("schedule_installment_number ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list open schedules: %w", err)
	}
	return out, nil
}
