// file: internals/features/finance/payments/service/amount_resolver.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/helpers/apperr"
)

type ScheduleReader interface {
	GetSchedule(ctx context.Context, id uuid.UUID) (*feeModel.PaymentScheduleModel, error)
}

// Resolution = jumlah otoritatif yang akan ditagihkan.
type Resolution struct {
	Amount      decimal.Decimal
	Description string
	ScheduleID  *uuid.UUID
}

// AmountResolver menghitung amount dari ledger; amount dari client tidak pernah dipercaya.
// Tidak ada write maupun gateway call di sini.
type AmountResolver struct {
	schedules ScheduleReader
	minimum   decimal.Decimal
}

func NewAmountResolver(schedules ScheduleReader, minimum decimal.Decimal) *AmountResolver {
	return &AmountResolver{schedules: schedules, minimum: minimum}
}

func (r *AmountResolver) Resolve(
	ctx context.Context,
	acc *feeModel.FeeAccountModel,
	paymentType model.PaymentType,
	scheduleID *uuid.UUID,
	customAmount *decimal.Decimal,
) (*Resolution, error) {
	switch acc.FeeAccountStatus {
	case feeModel.FeeAccountOnHold:
		return nil, apperr.StateConflict(apperr.CodeAccountOnHold, "fee account sedang ditahan (on hold)")
	case feeModel.FeeAccountSettled:
		return nil, apperr.StateConflict(apperr.CodeAlreadySettled, "fee account sudah lunas")
	}

	payer := strings.TrimSpace(acc.FeeAccountPayerName)
	if payer == "" {
		payer = "Student"
	}

	var res Resolution
	switch paymentType {
	case model.PaymentTypeFull:
		res.Amount = acc.FeeAccountCurrentBalance
		res.Description = "Full Balance - " + payer

	case model.PaymentTypeSchedule:
		if scheduleID == nil || *scheduleID == uuid.Nil {
			return nil, apperr.Validation(apperr.CodeMissingField, "payment_schedule_id wajib untuk payment_type=schedule")
		}
		s, err := r.schedules.GetSchedule(ctx, *scheduleID)
		if err != nil {
			return nil, err
		}
		if s.ScheduleFeeAccountID != acc.FeeAccountID {
			return nil, apperr.NotFound("payment schedule tidak ditemukan untuk fee account ini")
		}
		remaining := s.Remaining()
		if remaining.IsNegative() {
			return nil, apperr.Wrap(apperr.KindInternal, apperr.CodeLedgerInconsistent, "sisa cicilan negatif",
				fmt.Errorf("schedule %s remaining %s", s.ScheduleID, remaining.StringFixed(2)))
		}
		if s.ScheduleStatus == feeModel.SchedulePaid || remaining.IsZero() {
			return nil, apperr.StateConflict(apperr.CodeAlreadyPaid, "cicilan sudah lunas")
		}
		id := s.ScheduleID
		res.Amount = remaining
		res.ScheduleID = &id
		res.Description = s.ScheduleLabel + " - " + payer

	case model.PaymentTypeCustom:
		if customAmount == nil {
			return nil, apperr.Validation(apperr.CodeMissingField, "custom_amount wajib untuk payment_type=custom")
		}
		if !customAmount.IsPositive() {
			return nil, apperr.Validation(apperr.CodeInvalidAmount, "custom_amount harus > 0")
		}
		if customAmount.GreaterThan(acc.FeeAccountCurrentBalance) {
			return nil, apperr.Validation(apperr.CodeExceedsBalance, "custom_amount melebihi saldo tagihan")
		}
		res.Amount = *customAmount
		res.Description = "Partial Payment - " + payer

	default:
		return nil, apperr.Validation(apperr.CodeInvalidPaymentType, "payment_type harus full, schedule, atau custom")
	}

	if res.Amount.LessThan(r.minimum) {
		return nil, apperr.Validation(apperr.CodeBelowMinimum,
			fmt.Sprintf("amount minimal %s", r.minimum.StringFixed(2)))
	}
	return &res, nil
}
