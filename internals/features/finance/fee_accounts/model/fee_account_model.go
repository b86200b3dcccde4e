// file: internals/features/finance/fee_accounts/model/fee_account_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FeeAccountStatus string

const (
	FeeAccountActive  FeeAccountStatus = "active"
	FeeAccountOnHold  FeeAccountStatus = "on_hold"
	FeeAccountSettled FeeAccountStatus = "settled"
)

/*
  student_fee_accounts = saldo tagihan per murid per tahun ajaran
  - current_balance tidak boleh negatif
  - status=settled ⇒ current_balance=0
  - version dinaikkan setiap mutasi saldo (optimistic lock)
*/

type FeeAccountModel struct {
	FeeAccountID uuid.UUID `gorm:"column:fee_account_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_account_id"`

	FeeAccountStudentID    uuid.UUID  `gorm:"column:fee_account_student_id;type:uuid;not null" json:"fee_account_student_id"`
	FeeAccountSchoolID     uuid.UUID  `gorm:"column:fee_account_school_id;type:uuid;not null" json:"fee_account_school_id"`
	FeeAccountSchoolYearID *uuid.UUID `gorm:"column:fee_account_school_year_id;type:uuid" json:"fee_account_school_year_id"`
	FeeAccountPayerName    string     `gorm:"column:fee_account_payer_name;not null;default:''" json:"fee_account_payer_name"`

	FeeAccountTotalFee       decimal.Decimal  `gorm:"column:fee_account_total_fee;type:numeric(14,2);not null;default:0" json:"fee_account_total_fee"`
	FeeAccountCurrentBalance decimal.Decimal  `gorm:"column:fee_account_current_balance;type:numeric(14,2);not null;default:0" json:"fee_account_current_balance"`
	FeeAccountStatus         FeeAccountStatus `gorm:"column:fee_account_status;type:varchar(16);not null;default:'active'" json:"fee_account_status"`
	FeeAccountPlanID         *uuid.UUID       `gorm:"column:fee_account_plan_id;type:uuid" json:"fee_account_plan_id"`

	FeeAccountVersion int64 `gorm:"column:fee_account_version;not null;default:0" json:"fee_account_version"`

	FeeAccountCreatedAt time.Time `gorm:"column:fee_account_created_at;not null;default:now();autoCreateTime" json:"fee_account_created_at"`
	FeeAccountUpdatedAt time.Time `gorm:"column:fee_account_updated_at;not null;default:now();autoUpdateTime" json:"fee_account_updated_at"`
}

func (FeeAccountModel) TableName() string { return "student_fee_accounts" }

// Credit mengurangi saldo sebesar amount, floor di 0.
// Mengembalikan kelebihan bayar (0 bila tidak ada).
func (a *FeeAccountModel) Credit(amount decimal.Decimal) (overpayment decimal.Decimal) {
	next := a.FeeAccountCurrentBalance.Sub(amount)
	if next.IsNegative() {
		overpayment = next.Neg()
		next = decimal.Zero
	}
	a.FeeAccountCurrentBalance = next
	if next.IsZero() {
		a.FeeAccountStatus = FeeAccountSettled
	}
	return overpayment
}

// Charge menambah saldo (late fee). Akun settled dibuka kembali.
func (a *FeeAccountModel) Charge(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	a.FeeAccountCurrentBalance = a.FeeAccountCurrentBalance.Add(amount)
	if a.FeeAccountStatus == FeeAccountSettled {
		a.FeeAccountStatus = FeeAccountActive
	}
}
