// file: internals/features/finance/payment_plans/service/schedule_engine.go
package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/helpers/apperr"
)

const (
	MinInstallments  = 1
	MaxInstallments  = 24
	DefaultDueStride = 30 // hari antar cicilan
)

var hundred = decimal.NewFromInt(100)

// bulan tahun ajaran dimulai Juni
var academicMonths = []string{
	"June", "July", "August", "September", "October", "November",
	"December", "January", "February", "March", "April", "May",
}

var ordinals = []string{"1st", "2nd", "3rd", "4th"}

func installmentLabel(n, i int) string {
	switch {
	case n == 1:
		return "Full Payment"
	case n == 2:
		return ordinals[i] + " Semester"
	case n == 4:
		return ordinals[i] + " Quarter"
	case n == 10 || n == 12:
		return academicMonths[i]
	default:
		return fmt.Sprintf("Installment %d", i+1)
	}
}

// GenerateSchedule membangun slot cicilan untuk n cicilan.
// Kalau explicit diisi, schedule itu divalidasi lalu dikembalikan apa adanya.
func GenerateSchedule(n int, explicit []model.Installment) ([]model.Installment, error) {
	if n < MinInstallments || n > MaxInstallments {
		return nil, apperr.Validation(apperr.CodeInvalidPlan,
			fmt.Sprintf("number_of_installments harus %d..%d", MinInstallments, MaxInstallments))
	}
	if len(explicit) > 0 {
		if err := ValidateSchedule(n, explicit); err != nil {
			return nil, err
		}
		out := make([]model.Installment, len(explicit))
		copy(out, explicit)
		return out, nil
	}

	base := 100 / n
	remainder := 100 - n*base

	out := make([]model.Installment, n)
	for i := 0; i < n; i++ {
		pct := base
		if i == 0 {
			pct += remainder
		}
		out[i] = model.Installment{
			InstallmentNumber: i + 1,
			Label:             installmentLabel(n, i),
			Percentage:        decimal.NewFromInt(int64(pct)),
			DueDayOffset:      i * DefaultDueStride,
		}
	}
	return out, nil
}

// ValidateSchedule: Σ percentage = 100, nomor 1..n unik & berurutan, offset tidak negatif.
func ValidateSchedule(n int, in []model.Installment) error {
	if len(in) != n {
		return apperr.Validation(apperr.CodeInvalidPlan,
			fmt.Sprintf("installment_schedule berisi %d slot, seharusnya %d", len(in), n))
	}
	sum := decimal.Zero
	for i, it := range in {
		if it.InstallmentNumber != i+1 {
			return apperr.Validation(apperr.CodeInvalidPlan, "installment_number harus 1..n berurutan")
		}
		if !it.Percentage.IsPositive() {
			return apperr.Validation(apperr.CodeInvalidPlan, "percentage harus > 0")
		}
		if it.DueDayOffset < 0 {
			return apperr.Validation(apperr.CodeInvalidPlan, "due_day_offset tidak boleh negatif")
		}
		sum = sum.Add(it.Percentage)
	}
	if !sum.Equal(hundred) {
		return apperr.Validation(apperr.CodeInvalidPlan,
			fmt.Sprintf("total percentage %s, harus 100", sum.String()))
	}
	return nil
}

// ValidatePlan memeriksa invariant plan sebelum disimpan.
func ValidatePlan(p *model.PaymentPlanModel) error {
	if p.PaymentPlanCode == "" {
		return apperr.Validation(apperr.CodeMissingField, "code wajib diisi")
	}
	items, err := p.Installments()
	if err != nil {
		return apperr.Validation(apperr.CodeInvalidPlan, "installment_schedule tidak valid")
	}
	if p.PaymentPlanNumberOfInstallments < MinInstallments || p.PaymentPlanNumberOfInstallments > MaxInstallments {
		return apperr.Validation(apperr.CodeInvalidPlan,
			fmt.Sprintf("number_of_installments harus %d..%d", MinInstallments, MaxInstallments))
	}
	if err := ValidateSchedule(p.PaymentPlanNumberOfInstallments, items); err != nil {
		return err
	}
	if p.PaymentPlanDiscountPercentage.IsNegative() || p.PaymentPlanDiscountPercentage.GreaterThan(hundred) {
		return apperr.Validation(apperr.CodeInvalidPlan, "discount_percentage harus 0..100")
	}
	if p.PaymentPlanDiscountPercentage.IsPositive() && p.PaymentPlanDiscountDeadline == nil {
		return apperr.Validation(apperr.CodeInvalidPlan, "discount_deadline wajib bila ada diskon")
	}
	if p.PaymentPlanGracePeriodDays < 0 {
		return apperr.Validation(apperr.CodeInvalidPlan, "grace_period_days tidak boleh negatif")
	}

	amt, pct := p.PaymentPlanLateFeeAmount, p.PaymentPlanLateFeePercentage
	if amt.IsNegative() || pct.IsNegative() || pct.GreaterThan(hundred) {
		return apperr.Validation(apperr.CodeInvalidPlan, "late fee tidak valid")
	}
	switch p.PaymentPlanLateFeeType {
	case model.LateFeeNone:
	case model.LateFeeFixed:
		if !amt.IsPositive() {
			return apperr.Validation(apperr.CodeInvalidPlan, "late_fee_amount wajib untuk tipe fixed")
		}
	case model.LateFeePercentage:
		if !pct.IsPositive() {
			return apperr.Validation(apperr.CodeInvalidPlan, "late_fee_percentage wajib untuk tipe percentage")
		}
	case model.LateFeeBoth:
		if !amt.IsPositive() || !pct.IsPositive() {
			return apperr.Validation(apperr.CodeInvalidPlan, "late_fee_amount & late_fee_percentage wajib untuk tipe both")
		}
	default:
		return apperr.Validation(apperr.CodeInvalidPlan, "late_fee_type tidak dikenal")
	}
	return nil
}

// ComputeLateFee: nol di dalam grace period atau bila sudah lunas.
func ComputeLateFee(p *model.PaymentPlanModel, s *feeModel.PaymentScheduleModel, asOf time.Time) decimal.Decimal {
	if s.ScheduleStatus == feeModel.SchedulePaid {
		return decimal.Zero
	}
	cutoff := dateOnly(s.ScheduleDueDate).AddDate(0, 0, p.PaymentPlanGracePeriodDays)
	if !dateOnly(asOf).After(cutoff) {
		return decimal.Zero
	}

	fixed := p.PaymentPlanLateFeeAmount
	pct := s.ScheduleAmountDue.Mul(p.PaymentPlanLateFeePercentage).Div(hundred)

	var fee decimal.Decimal
	switch p.PaymentPlanLateFeeType {
	case model.LateFeeFixed:
		fee = fixed
	case model.LateFeePercentage:
		fee = pct
	case model.LateFeeBoth:
		fee = fixed.Add(pct)
	default:
		fee = decimal.Zero
	}
	return fee.Round(2)
}

// SplitAmount membagi total sesuai persentase slot (2 desimal);
// sisa pembulatan masuk ke cicilan pertama sehingga Σ = total.
func SplitAmount(total decimal.Decimal, items []model.Installment) []decimal.Decimal {
	out := make([]decimal.Decimal, len(items))
	if len(items) == 0 {
		return out
	}
	sum := decimal.Zero
	for i, it := range items {
		out[i] = total.Mul(it.Percentage).Div(hundred).Round(2)
		sum = sum.Add(out[i])
	}
	out[0] = out[0].Add(total.Sub(sum))
	return out
}

// DiscountedTotal menerapkan diskon bila today ≤ deadline.
func DiscountedTotal(p *model.PaymentPlanModel, total decimal.Decimal, today time.Time) decimal.Decimal {
	if !p.PaymentPlanDiscountPercentage.IsPositive() || p.PaymentPlanDiscountDeadline == nil {
		return total
	}
	if dateOnly(today).After(dateOnly(*p.PaymentPlanDiscountDeadline)) {
		return total
	}
	cut := total.Mul(p.PaymentPlanDiscountPercentage).Div(hundred).Round(2)
	return total.Sub(cut)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
