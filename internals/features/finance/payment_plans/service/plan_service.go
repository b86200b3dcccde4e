// file: internals/features/finance/payment_plans/service/plan_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/helpers/apperr"
)

type defaultPlan struct {
	code string
	name string
	n    int
}

var defaultPlans = []defaultPlan{
	{model.PlanCodeFull, "Full Payment", 1},
	{model.PlanCodeSemestral, "Semestral", 2},
	{model.PlanCodeQuarterly, "Quarterly", 4},
	{model.PlanCodeMonthly, "Monthly", 10},
}

type PlanService struct {
	repo Repository
	now  func() time.Time
	log  *zap.SugaredLogger
}

func NewPlanService(repo Repository, log *zap.SugaredLogger) *PlanService {
	return &PlanService{repo: repo, now: time.Now, log: log}
}

// CreateDefaultPlans membuat FULL/SEMESTRAL/QUARTERLY/MONTHLY dalam satu tx.
// Conflict bila sudah ada plan untuk (school, school_year).
func (s *PlanService) CreateDefaultPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) ([]model.PaymentPlanModel, error) {
	if schoolID == uuid.Nil || schoolYearID == uuid.Nil {
		return nil, apperr.Validation(apperr.CodeMissingField, "school_id dan school_year_id wajib diisi")
	}

	plans := make([]model.PaymentPlanModel, 0, len(defaultPlans))
	for _, dp := range defaultPlans {
		items, err := GenerateSchedule(dp.n, nil)
		if err != nil {
			return nil, err
		}
		p := model.PaymentPlanModel{
			PaymentPlanID:           uuid.New(),
			PaymentPlanSchoolID:     schoolID,
			PaymentPlanSchoolYearID: schoolYearID,
			PaymentPlanCode:         dp.code,
			PaymentPlanName:         dp.name,
			PaymentPlanLateFeeType:  model.LateFeeNone,
			PaymentPlanIsActive:     true,
		}
		if err := p.SetInstallments(items); err != nil {
			return nil, apperr.Internal("encode installment schedule", err)
		}
		plans = append(plans, p)
	}

	err := s.repo.WithinTx(ctx, func(r Repository) error {
		n, err := r.CountPlans(ctx, schoolID, schoolYearID)
		if err != nil {
			return fmt.Errorf("count plans: %w", err)
		}
		if n > 0 {
			return apperr.New(apperr.KindConflict, apperr.CodePlansExist, "payment plan sudah ada untuk tahun ajaran ini")
		}
		if err := r.CreatePlans(ctx, plans); err != nil {
			return err
		}
		entry := auditService.NewEntry(auditModel.ActionPlansSeeded, "school_year", &schoolYearID,
			"default payment plans dibuat", auditService.Snapshot{
				"school_id": schoolID.String(),
				"codes":     []string{model.PlanCodeFull, model.PlanCodeSemestral, model.PlanCodeQuarterly, model.PlanCodeMonthly},
			})
		return r.AppendAudit(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("default payment plans created", "school_id", schoolID, "school_year_id", schoolYearID)
	return plans, nil
}

func (s *PlanService) ListPlans(ctx context.Context, schoolID, schoolYearID uuid.UUID) ([]model.PaymentPlanModel, error) {
	return s.repo.ListPlans(ctx, schoolID, schoolYearID)
}

// ApplyPlan mematerialisasi PaymentSchedule untuk satu fee account.
// Total = current_balance; diskon dipotong bila hari ini ≤ discount_deadline.
func (s *PlanService) ApplyPlan(ctx context.Context, planID, feeAccountID uuid.UUID, startDate time.Time) ([]feeModel.PaymentScheduleModel, error) {
	var created []feeModel.PaymentScheduleModel

	err := s.repo.WithinTx(ctx, func(r Repository) error {
		plan, err := r.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if !plan.PaymentPlanIsActive {
			return apperr.StateConflict(apperr.CodeInvalidPlan, "payment plan tidak aktif")
		}
		if err := ValidatePlan(plan); err != nil {
			return err
		}

		acc, err := r.GetFeeAccount(ctx, feeAccountID)
		if err != nil {
			return err
		}
		if acc.FeeAccountStatus != feeModel.FeeAccountActive {
			return apperr.StateConflict(apperr.CodeAccountOnHold, "fee account tidak aktif")
		}
		if acc.FeeAccountSchoolID != plan.PaymentPlanSchoolID {
			return apperr.NotFound("payment plan tidak ditemukan untuk sekolah ini")
		}

		n, err := r.CountSchedules(ctx, acc.FeeAccountID)
		if err != nil {
			return fmt.Errorf("count schedules: %w", err)
		}
		if n > 0 {
			return apperr.New(apperr.KindConflict, apperr.CodeSchedulesExist, "fee account sudah memiliki jadwal pembayaran")
		}

		items, _ := plan.Installments()
		original := acc.FeeAccountCurrentBalance
		total := DiscountedTotal(plan, original, s.now())
		amounts := SplitAmount(total, items)

		created = make([]feeModel.PaymentScheduleModel, len(items))
		for i, it := range items {
			created[i] = feeModel.PaymentScheduleModel{
				ScheduleID:                uuid.New(),
				ScheduleFeeAccountID:      acc.FeeAccountID,
				ScheduleInstallmentNumber: it.InstallmentNumber,
				ScheduleLabel:             it.Label,
				ScheduleAmountDue:         amounts[i],
				ScheduleAmountPaid:        decimal.Zero,
				ScheduleLateFeeAssessed:   decimal.Zero,
				ScheduleLateFeePaid:       decimal.Zero,
				ScheduleStatus:            feeModel.SchedulePending,
				ScheduleDueDate:           dateOnly(startDate).AddDate(0, 0, it.DueDayOffset),
			}
		}
		if err := r.CreateSchedules(ctx, created); err != nil {
			return err
		}

		pid := plan.PaymentPlanID
		acc.FeeAccountPlanID = &pid
		acc.FeeAccountCurrentBalance = total
		if err := r.SaveFeeAccountLedger(ctx, acc); err != nil {
			return err
		}

		entry := auditService.NewEntry(auditModel.ActionPlanApplied, "student_fee_account", &acc.FeeAccountID,
			fmt.Sprintf("plan %s diterapkan", plan.PaymentPlanCode), auditService.Snapshot{
				"plan_id":          plan.PaymentPlanID.String(),
				"installments":     len(items),
				"original_balance": original.StringFixed(2),
				"total":            total.StringFixed(2),
				"discount_applied": !total.Equal(original),
			})
		return r.AppendAudit(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
