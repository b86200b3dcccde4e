// file: internals/features/finance/fee_accounts/model/payment_schedule_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "pending"
	ScheduleOverdue ScheduleStatus = "overdue"
	SchedulePaid    ScheduleStatus = "paid"
)

type PaymentScheduleModel struct {
	ScheduleID uuid.UUID `gorm:"column:schedule_id;type:uuid;default:gen_random_uuid();primaryKey" json:"schedule_id"`

	ScheduleFeeAccountID      uuid.UUID `gorm:"column:schedule_fee_account_id;type:uuid;not null" json:"schedule_fee_account_id"`
	ScheduleInstallmentNumber int       `gorm:"column:schedule_installment_number;not null" json:"schedule_installment_number"`
	ScheduleLabel             string    `gorm:"column:schedule_label;not null" json:"schedule_label"`

	ScheduleAmountDue       decimal.Decimal `gorm:"column:schedule_amount_due;type:numeric(14,2);not null" json:"schedule_amount_due"`
	ScheduleAmountPaid      decimal.Decimal `gorm:"column:schedule_amount_paid;type:numeric(14,2);not null;default:0" json:"schedule_amount_paid"`
	ScheduleLateFeeAssessed decimal.Decimal `gorm:"column:schedule_late_fee_assessed;type:numeric(14,2);not null;default:0" json:"schedule_late_fee_assessed"`
	ScheduleLateFeePaid     decimal.Decimal `gorm:"column:schedule_late_fee_paid;type:numeric(14,2);not null;default:0" json:"schedule_late_fee_paid"`

	ScheduleStatus  ScheduleStatus `gorm:"column:schedule_status;type:varchar(16);not null;default:'pending'" json:"schedule_status"`
	ScheduleDueDate time.Time      `gorm:"column:schedule_due_date;type:date;not null" json:"schedule_due_date"`
	SchedulePaidAt  *time.Time     `gorm:"column:schedule_paid_at" json:"schedule_paid_at"`

	ScheduleCreatedAt time.Time `gorm:"column:schedule_created_at;not null;default:now();autoCreateTime" json:"schedule_created_at"`
	ScheduleUpdatedAt time.Time `gorm:"column:schedule_updated_at;not null;default:now();autoUpdateTime" json:"schedule_updated_at"`
}

func (PaymentScheduleModel) TableName() string { return "payment_schedules" }

// Remaining = due - paid + late fee - late fee paid. Bisa negatif kalau ledger rusak;
// pemanggil yang memutuskan.
func (s *PaymentScheduleModel) Remaining() decimal.Decimal {
	return s.ScheduleAmountDue.
		Sub(s.ScheduleAmountPaid).
		Add(s.ScheduleLateFeeAssessed).
		Sub(s.ScheduleLateFeePaid)
}

// ApplyPayment: late fee dulu, sisanya ke pokok (dibatasi amount_due).
// Status jadi paid saat remaining <= 0.
func (s *PaymentScheduleModel) ApplyPayment(amount decimal.Decimal, at time.Time) {
	if !amount.IsPositive() {
		return
	}
	left := amount

	if owedFee := s.ScheduleLateFeeAssessed.Sub(s.ScheduleLateFeePaid); owedFee.IsPositive() {
		take := decimal.Min(owedFee, left)
		s.ScheduleLateFeePaid = s.ScheduleLateFeePaid.Add(take)
		left = left.Sub(take)
	}
	if owedPrincipal := s.ScheduleAmountDue.Sub(s.ScheduleAmountPaid); owedPrincipal.IsPositive() && left.IsPositive() {
		take := decimal.Min(owedPrincipal, left)
		s.ScheduleAmountPaid = s.ScheduleAmountPaid.Add(take)
	}

	if !s.Remaining().IsPositive() {
		s.ScheduleStatus = SchedulePaid
		t := at
		s.SchedulePaidAt = &t
	}
}

// Settle menutup schedule saat akun sudah lunas: sisa dialokasikan ke late fee lalu pokok.
func (s *PaymentScheduleModel) Settle(at time.Time) {
	if s.ScheduleStatus == SchedulePaid {
		return
	}
	if r := s.Remaining(); r.IsPositive() {
		s.ApplyPayment(r, at)
		return
	}
	s.ScheduleStatus = SchedulePaid
	t := at
	s.SchedulePaidAt = &t
}

// ScheduleCursor = posisi keyset (due_date, schedule_id) untuk sweep berhalaman.
type ScheduleCursor struct {
	DueDate time.Time
	ID      uuid.UUID
}
