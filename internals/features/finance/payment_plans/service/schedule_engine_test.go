package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/helpers/apperr"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGenerateSchedule_SumsTo100(t *testing.T) {
	for n := 1; n <= 24; n++ {
		items, err := GenerateSchedule(n, nil)
		require.NoError(t, err, "n=%d", n)
		require.Len(t, items, n)

		sum := decimal.Zero
		for i, it := range items {
			assert.Equal(t, i+1, it.InstallmentNumber)
			assert.Equal(t, i*30, it.DueDayOffset)
			assert.True(t, it.Percentage.IsPositive())
			sum = sum.Add(it.Percentage)
		}
		assert.True(t, sum.Equal(decimal.NewFromInt(100)), "n=%d sum=%s", n, sum)
	}
}

func TestGenerateSchedule_RemainderOnFirstSlot(t *testing.T) {
	items, err := GenerateSchedule(3, nil)
	require.NoError(t, err)
	assert.True(t, items[0].Percentage.Equal(dec("34")))
	assert.True(t, items[1].Percentage.Equal(dec("33")))
	assert.True(t, items[2].Percentage.Equal(dec("33")))

	items, err = GenerateSchedule(7, nil)
	require.NoError(t, err)
	assert.True(t, items[0].Percentage.Equal(dec("16")))
	assert.True(t, items[6].Percentage.Equal(dec("14")))
}

func TestGenerateSchedule_Labels(t *testing.T) {
	cases := map[int][]string{
		1:  {"Full Payment"},
		2:  {"1st Semester", "2nd Semester"},
		4:  {"1st Quarter", "2nd Quarter", "3rd Quarter", "4th Quarter"},
		3:  {"Installment 1", "Installment 2", "Installment 3"},
		10: {"June", "July", "August", "September", "October", "November", "December", "January", "February", "March"},
	}
	for n, want := range cases {
		items, err := GenerateSchedule(n, nil)
		require.NoError(t, err)
		got := make([]string, len(items))
		for i, it := range items {
			got[i] = it.Label
		}
		assert.Equal(t, want, got, "n=%d", n)
	}

	items, err := GenerateSchedule(12, nil)
	require.NoError(t, err)
	assert.Equal(t, "June", items[0].Label)
	assert.Equal(t, "May", items[11].Label)
}

func TestGenerateSchedule_OutOfRange(t *testing.T) {
	for _, n := range []int{0, -1, 25} {
		_, err := GenerateSchedule(n, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestGenerateSchedule_Explicit(t *testing.T) {
	explicit := []model.Installment{
		{InstallmentNumber: 1, Label: "Down Payment", Percentage: dec("50"), DueDayOffset: 0},
		{InstallmentNumber: 2, Label: "Balance", Percentage: dec("50"), DueDayOffset: 60},
	}
	items, err := GenerateSchedule(2, explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, items)

	bad := []model.Installment{
		{InstallmentNumber: 1, Percentage: dec("60")},
		{InstallmentNumber: 2, Percentage: dec("30")},
	}
	_, err = GenerateSchedule(2, bad)
	assert.Equal(t, apperr.CodeInvalidPlan, apperr.CodeOf(err))

	gap := []model.Installment{
		{InstallmentNumber: 1, Percentage: dec("50")},
		{InstallmentNumber: 3, Percentage: dec("50")},
	}
	_, err = GenerateSchedule(2, gap)
	assert.Error(t, err)
}

func planWith(lt model.LateFeeType, amt, pct string, grace int) *model.PaymentPlanModel {
	p := &model.PaymentPlanModel{
		PaymentPlanCode:              "X",
		PaymentPlanLateFeeType:       lt,
		PaymentPlanLateFeeAmount:     dec(amt),
		PaymentPlanLateFeePercentage: dec(pct),
		PaymentPlanGracePeriodDays:   grace,
	}
	items, _ := GenerateSchedule(2, nil)
	_ = p.SetInstallments(items)
	return p
}

func TestComputeLateFee(t *testing.T) {
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	s := &feeModel.PaymentScheduleModel{
		ScheduleAmountDue: dec("3000.00"),
		ScheduleStatus:    feeModel.SchedulePending,
		ScheduleDueDate:   due,
	}

	inGrace := due.AddDate(0, 0, 5)
	late := due.AddDate(0, 0, 6)

	assert.True(t, ComputeLateFee(planWith(model.LateFeeFixed, "100", "0", 5), s, inGrace).IsZero())
	assert.True(t, ComputeLateFee(planWith(model.LateFeeFixed, "100", "0", 5), s, late).Equal(dec("100")))
	assert.True(t, ComputeLateFee(planWith(model.LateFeePercentage, "0", "2.5", 5), s, late).Equal(dec("75")))
	assert.True(t, ComputeLateFee(planWith(model.LateFeeBoth, "100", "2.5", 5), s, late).Equal(dec("175")))
	assert.True(t, ComputeLateFee(planWith(model.LateFeeNone, "0", "0", 0), s, late).IsZero())

	s.ScheduleStatus = feeModel.SchedulePaid
	assert.True(t, ComputeLateFee(planWith(model.LateFeeFixed, "100", "0", 0), s, late).IsZero())
}

func TestValidatePlan(t *testing.T) {
	assert.NoError(t, ValidatePlan(planWith(model.LateFeeNone, "0", "0", 0)))
	assert.NoError(t, ValidatePlan(planWith(model.LateFeeBoth, "50", "1", 3)))

	assert.Error(t, ValidatePlan(planWith(model.LateFeeFixed, "0", "0", 0)))
	assert.Error(t, ValidatePlan(planWith(model.LateFeePercentage, "0", "0", 0)))
	assert.Error(t, ValidatePlan(planWith("weird", "0", "0", 0)))
	assert.Error(t, ValidatePlan(planWith(model.LateFeeNone, "0", "0", -1)))

	p := planWith(model.LateFeeNone, "0", "0", 0)
	p.PaymentPlanDiscountPercentage = dec("10")
	assert.Error(t, ValidatePlan(p), "discount without deadline")

	deadline := time.Now()
	p.PaymentPlanDiscountDeadline = &deadline
	assert.NoError(t, ValidatePlan(p))

	p.PaymentPlanDiscountPercentage = dec("101")
	assert.Error(t, ValidatePlan(p))
}

func TestSplitAmount_ResidueOnFirst(t *testing.T) {
	items, _ := GenerateSchedule(3, nil)
	parts := SplitAmount(dec("1000.00"), items)

	assert.True(t, parts[0].Equal(dec("340.00")))
	assert.True(t, parts[1].Equal(dec("330.00")))

	explicit := []model.Installment{
		{InstallmentNumber: 1, Percentage: dec("33.33")},
		{InstallmentNumber: 2, Percentage: dec("33.33")},
		{InstallmentNumber: 3, Percentage: dec("33.34")},
	}
	parts = SplitAmount(dec("100.01"), explicit)
	sum := parts[0].Add(parts[1]).Add(parts[2])
	assert.True(t, sum.Equal(dec("100.01")), "sum=%s", sum)
}

func TestDiscountedTotal(t *testing.T) {
	deadline := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	p := &model.PaymentPlanModel{
		PaymentPlanDiscountPercentage: dec("5"),
		PaymentPlanDiscountDeadline:   &deadline,
	}
	assert.True(t, DiscountedTotal(p, dec("10000"), deadline).Equal(dec("9500")))
	assert.True(t, DiscountedTotal(p, dec("10000"), deadline.AddDate(0, 0, 1)).Equal(dec("10000")))
}
