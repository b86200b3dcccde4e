package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payment_plans/model"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

type CreateDefaultPlansRequest struct {
	SchoolID     uuid.UUID `json:"school_id" validate:"required"`
	SchoolYearID uuid.UUID `json:"school_year_id" validate:"required"`
}

type InstallmentInput struct {
	InstallmentNumber int             `json:"installment_number" validate:"required,min=1"`
	Label             string          `json:"label" validate:"required,max=64"`
	Percentage        decimal.Decimal `json:"percentage"`
	DueDayOffset      int             `json:"due_day_offset" validate:"min=0"`
}

// PreviewScheduleRequest: hitung schedule tanpa menyimpan.
type PreviewScheduleRequest struct {
	NumberOfInstallments int                `json:"number_of_installments" validate:"required,min=1,max=24"`
	InstallmentSchedule  []InstallmentInput `json:"installment_schedule,omitempty" validate:"omitempty,dive"`
	TotalAmount          *decimal.Decimal   `json:"total_amount,omitempty"`
}

func (r PreviewScheduleRequest) Explicit() []model.Installment {
	if len(r.InstallmentSchedule) == 0 {
		return nil
	}
	out := make([]model.Installment, len(r.InstallmentSchedule))
	for i, in := range r.InstallmentSchedule {
		out[i] = model.Installment{
			InstallmentNumber: in.InstallmentNumber,
			Label:             in.Label,
			Percentage:        in.Percentage,
			DueDayOffset:      in.DueDayOffset,
		}
	}
	return out
}

type ApplyPlanRequest struct {
	StudentFeeAccountID uuid.UUID  `json:"student_fee_account_id" validate:"required"`
	StartDate           *time.Time `json:"start_date,omitempty"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type PreviewItem struct {
	model.Installment
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type PaymentPlanResponse struct {
	ID                   uuid.UUID           `json:"id"`
	SchoolID             uuid.UUID           `json:"school_id"`
	SchoolYearID         uuid.UUID           `json:"school_year_id"`
	Code                 string              `json:"code"`
	Name                 string              `json:"name"`
	NumberOfInstallments int                 `json:"number_of_installments"`
	InstallmentSchedule  []model.Installment `json:"installment_schedule"`
	DiscountPercentage   decimal.Decimal     `json:"discount_percentage"`
	DiscountDeadline     *time.Time          `json:"discount_deadline,omitempty"`
	LateFeeType          model.LateFeeType   `json:"late_fee_type"`
	LateFeeAmount        decimal.Decimal     `json:"late_fee_amount"`
	LateFeePercentage    decimal.Decimal     `json:"late_fee_percentage"`
	GracePeriodDays      int                 `json:"grace_period_days"`
	IsActive             bool                `json:"is_active"`
}

func FromPlanModel(p model.PaymentPlanModel) PaymentPlanResponse {
	items, _ := p.Installments()
	return PaymentPlanResponse{
		ID:                   p.PaymentPlanID,
		SchoolID:             p.PaymentPlanSchoolID,
		SchoolYearID:         p.PaymentPlanSchoolYearID,
		Code:                 p.PaymentPlanCode,
		Name:                 p.PaymentPlanName,
		NumberOfInstallments: p.PaymentPlanNumberOfInstallments,
		InstallmentSchedule:  items,
		DiscountPercentage:   p.PaymentPlanDiscountPercentage,
		DiscountDeadline:     p.PaymentPlanDiscountDeadline,
		LateFeeType:          p.PaymentPlanLateFeeType,
		LateFeeAmount:        p.PaymentPlanLateFeeAmount,
		LateFeePercentage:    p.PaymentPlanLateFeePercentage,
		GracePeriodDays:      p.PaymentPlanGracePeriodDays,
		IsActive:             p.PaymentPlanIsActive,
	}
}

func FromPlanModels(in []model.PaymentPlanModel) []PaymentPlanResponse {
	out := make([]PaymentPlanResponse, 0, len(in))
	for _, p := range in {
		out = append(out, FromPlanModel(p))
	}
	return out
}

type ScheduleResponse struct {
	ID                uuid.UUID               `json:"id"`
	InstallmentNumber int                     `json:"installment_number"`
	Label             string                  `json:"label"`
	AmountDue         decimal.Decimal         `json:"amount_due"`
	DueDate           time.Time               `json:"due_date"`
	Status            feeModel.ScheduleStatus `json:"status"`
}

func FromScheduleModels(in []feeModel.PaymentScheduleModel) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(in))
	for _, s := range in {
		out = append(out, ScheduleResponse{
			ID:                s.ScheduleID,
			InstallmentNumber: s.ScheduleInstallmentNumber,
			Label:             s.ScheduleLabel,
			AmountDue:         s.ScheduleAmountDue,
			DueDate:           s.ScheduleDueDate,
			Status:            s.ScheduleStatus,
		})
	}
	return out
}
