// file: internals/features/finance/payment_plans/model/payment_plan_model.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type LateFeeType string

const (
	LateFeeFixed      LateFeeType = "fixed"
	LateFeePercentage LateFeeType = "percentage"
	LateFeeBoth       LateFeeType = "both"
	LateFeeNone       LateFeeType = "none"
)

// Kode plan default per (school, school_year)
const (
	PlanCodeFull      = "FULL"
	PlanCodeSemestral = "SEMESTRAL"
	PlanCodeQuarterly = "QUARTERLY"
	PlanCodeMonthly   = "MONTHLY"
)

// Installment = satu slot di installment_schedule (jsonb).
type Installment struct {
	InstallmentNumber int             `json:"installment_number"`
	Label             string          `json:"label"`
	Percentage        decimal.Decimal `json:"percentage"`
	DueDayOffset      int             `json:"due_day_offset"`
}

type PaymentPlanModel struct {
	PaymentPlanID uuid.UUID `gorm:"column:payment_plan_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_plan_id"`

	PaymentPlanSchoolID     uuid.UUID `gorm:"column:payment_plan_school_id;type:uuid;not null;uniqueIndex:uq_payment_plan_code" json:"payment_plan_school_id"`
	PaymentPlanSchoolYearID uuid.UUID `gorm:"column:payment_plan_school_year_id;type:uuid;not null;uniqueIndex:uq_payment_plan_code" json:"payment_plan_school_year_id"`
	PaymentPlanCode         string    `gorm:"column:payment_plan_code;type:varchar(32);not null;uniqueIndex:uq_payment_plan_code" json:"payment_plan_code"`
	PaymentPlanName         string    `gorm:"column:payment_plan_name;not null" json:"payment_plan_name"`

	PaymentPlanNumberOfInstallments int            `gorm:"column:payment_plan_number_of_installments;not null" json:"payment_plan_number_of_installments"`
	PaymentPlanInstallmentSchedule  datatypes.JSON `gorm:"column:payment_plan_installment_schedule;type:jsonb;not null" json:"payment_plan_installment_schedule"`

	PaymentPlanDiscountPercentage decimal.Decimal `gorm:"column:payment_plan_discount_percentage;type:numeric(5,2);not null;default:0" json:"payment_plan_discount_percentage"`
	PaymentPlanDiscountDeadline   *time.Time      `gorm:"column:payment_plan_discount_deadline;type:date" json:"payment_plan_discount_deadline"`

	PaymentPlanLateFeeType       LateFeeType     `gorm:"column:payment_plan_late_fee_type;type:varchar(16);not null;default:'none'" json:"payment_plan_late_fee_type"`
	PaymentPlanLateFeeAmount     decimal.Decimal `gorm:"column:payment_plan_late_fee_amount;type:numeric(14,2);not null;default:0" json:"payment_plan_late_fee_amount"`
	PaymentPlanLateFeePercentage decimal.Decimal `gorm:"column:payment_plan_late_fee_percentage;type:numeric(5,2);not null;default:0" json:"payment_plan_late_fee_percentage"`
	PaymentPlanGracePeriodDays   int             `gorm:"column:payment_plan_grace_period_days;not null;default:0" json:"payment_plan_grace_period_days"`

	PaymentPlanIsActive bool `gorm:"column:payment_plan_is_active;not null;default:true" json:"payment_plan_is_active"`

	PaymentPlanCreatedAt time.Time `gorm:"column:payment_plan_created_at;not null;default:now();autoCreateTime" json:"payment_plan_created_at"`
	PaymentPlanUpdatedAt time.Time `gorm:"column:payment_plan_updated_at;not null;default:now();autoUpdateTime" json:"payment_plan_updated_at"`
}

func (PaymentPlanModel) TableName() string { return "payment_plans" }

func (p *PaymentPlanModel) Installments() ([]Installment, error) {
	if len(p.PaymentPlanInstallmentSchedule) == 0 {
		return nil, nil
	}
	var out []Installment
	if err := json.Unmarshal(p.PaymentPlanInstallmentSchedule, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PaymentPlanModel) SetInstallments(in []Installment) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	p.PaymentPlanInstallmentSchedule = datatypes.JSON(b)
	p.PaymentPlanNumberOfInstallments = len(in)
	return nil
}
