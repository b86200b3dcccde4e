package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	planModel "schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/model"
)

func TestExpireStaleClaimsOnlyOverdueSessions(t *testing.T) {
	repo, gw := newMemRepo(), newFakeProvider()
	acc := repo.addAccount("5000", feeModel.FeeAccountActive)
	stale := checkoutFor(t, repo, gw, CheckoutInput{FeeAccountID: acc.FeeAccountID, PaymentType: model.PaymentTypeFull})
	fresh := checkoutFor(t, repo, gw, CheckoutInput{FeeAccountID: acc.FeeAccountID, PaymentType: model.PaymentTypeFull})

	tx, _ := repo.FindTransactionByExternalID(context.Background(), fresh.SessionID)
	tx.GatewayTransactionExpiresAt = fixedNow.Add(72 * time.Hour)
	repo.txs[tx.GatewayTransactionID] = *tx

	svc := NewSweepService(repo, zap.NewNop().Sugar())
	n, err := svc.ExpireStale(context.Background(), fixedNow.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := repo.FindTransactionByExternalID(context.Background(), stale.SessionID)
	assert.Equal(t, model.TxExpired, got.GatewayTransactionStatus)
	assert.True(t, got.GatewayTransactionProcessed)
	got, _ = repo.FindTransactionByExternalID(context.Background(), fresh.SessionID)
	assert.Equal(t, model.TxAwaitingPayment, got.GatewayTransactionStatus)
	assert.Contains(t, repo.auditActions(), auditModel.ActionPaymentExpired)

	// kedua kalinya tidak ada yang tersisa
	n, err = svc.ExpireStale(context.Background(), fixedNow.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	// paid terlambat untuk sesi yang sudah expired → duplicate, tanpa Payment
	alert := &recordingAlerter{}
	out, err := newWebhook(repo, gw, alert).Process(context.Background(), webhookBody(gateway.EventPaid, stale.SessionID), fakeValidSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out.Outcome)
	assert.Empty(t, repo.payments)
	assert.Len(t, alert.subjects, 1)
}

func TestAssessLateFees(t *testing.T) {
	repo := newMemRepo()
	plan := planModel.PaymentPlanModel{
		PaymentPlanID:                uuid.New(),
		PaymentPlanLateFeeType:       planModel.LateFeeBoth,
		PaymentPlanLateFeeAmount:     dec("50"),
		PaymentPlanLateFeePercentage: dec("2"),
		PaymentPlanGracePeriodDays:   5,
	}
	repo.plans[plan.PaymentPlanID] = plan

	acc := repo.addAccount("3000", feeModel.FeeAccountActive)
	a := repo.accounts[acc.FeeAccountID]
	a.FeeAccountPlanID = &plan.PaymentPlanID
	repo.accounts[acc.FeeAccountID] = a

	due := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	late := addSchedule(repo, acc.FeeAccountID, "1000", "0", "0", "0")
	late.ScheduleDueDate = due
	repo.schedules[late.ScheduleID] = late

	svc := NewSweepService(repo, zap.NewNop().Sugar())

	// masih dalam grace period
	n, err := svc.AssessLateFees(context.Background(), due.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.AssessLateFees(context.Background(), due.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s := repo.schedules[late.ScheduleID]
	assert.True(t, s.ScheduleLateFeeAssessed.Equal(dec("70")), s.ScheduleLateFeeAssessed.String())
	assert.Equal(t, feeModel.ScheduleOverdue, s.ScheduleStatus)
	assert.True(t, repo.accounts[acc.FeeAccountID].FeeAccountCurrentBalance.Equal(dec("3070")))
	assert.Contains(t, repo.auditActions(), auditModel.ActionLateFeeAssessed)

	// fee tidak menumpuk pada run berikutnya
	n, err = svc.AssessLateFees(context.Background(), due.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, repo.accounts[acc.FeeAccountID].FeeAccountCurrentBalance.Equal(dec("3070")))
}

func TestAssessLateFeesSkipsAccountsWithoutPlan(t *testing.T) {
	repo := newMemRepo()
	acc := repo.addAccount("3000", feeModel.FeeAccountActive)
	addSchedule(repo, acc.FeeAccountID, "1000", "0", "0", "0")

	n, err := NewSweepService(repo, zap.NewNop().Sugar()).AssessLateFees(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, repo.accounts[acc.FeeAccountID].FeeAccountCurrentBalance.Equal(dec("3000")))
}

func attachPlan(repo *memRepo, accID uuid.UUID, plan planModel.PaymentPlanModel) {
	repo.plans[plan.PaymentPlanID] = plan
	a := repo.accounts[accID]
	a.FeeAccountPlanID = &plan.PaymentPlanID
	repo.accounts[accID] = a
}

func fixedFeePlan() planModel.PaymentPlanModel {
	return planModel.PaymentPlanModel{
		PaymentPlanID:            uuid.New(),
		PaymentPlanLateFeeType:   planModel.LateFeeFixed,
		PaymentPlanLateFeeAmount: dec("50"),
	}
}

func TestFullPaymentClosesSchedulesAndSweepLeavesAccountSettled(t *testing.T) {
	repo, gw := newMemRepo(), newFakeProvider()
	acc := repo.addAccount("3000", feeModel.FeeAccountActive)
	attachPlan(repo, acc.FeeAccountID, fixedFeePlan())
	first := addSchedule(repo, acc.FeeAccountID, "1000", "0", "0", "0")
	second := addSchedule(repo, acc.FeeAccountID, "2000", "0", "0", "0")

	res := checkoutFor(t, repo, gw, CheckoutInput{FeeAccountID: acc.FeeAccountID, PaymentType: model.PaymentTypeFull})
	_, err := newWebhook(repo, gw, &recordingAlerter{}).
		Process(context.Background(), webhookBody(gateway.EventPaid, res.SessionID), fakeValidSignature)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{first.ScheduleID, second.ScheduleID} {
		s := repo.schedules[id]
		assert.Equal(t, feeModel.SchedulePaid, s.ScheduleStatus)
		assert.True(t, s.Remaining().IsZero())
	}

	n, err := NewSweepService(repo, zap.NewNop().Sugar()).AssessLateFees(context.Background(), fixedNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)

	got := repo.accounts[acc.FeeAccountID]
	assert.True(t, got.FeeAccountCurrentBalance.IsZero())
	assert.Equal(t, feeModel.FeeAccountSettled, got.FeeAccountStatus)
	assert.NotContains(t, repo.auditActions(), auditModel.ActionLateFeeAssessed)
}

func TestAssessLateFeesSkipsInactiveAccounts(t *testing.T) {
	for _, tc := range []struct {
		name    string
		balance string
		status  feeModel.FeeAccountStatus
	}{
		{"settled", "0", feeModel.FeeAccountSettled},
		{"on hold", "1000", feeModel.FeeAccountOnHold},
		{"zero balance", "0", feeModel.FeeAccountActive},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemRepo()
			acc := repo.addAccount(tc.balance, tc.status)
			attachPlan(repo, acc.FeeAccountID, fixedFeePlan())
			sched := addSchedule(repo, acc.FeeAccountID, "1000", "0", "0", "0")

			n, err := NewSweepService(repo, zap.NewNop().Sugar()).AssessLateFees(context.Background(), fixedNow)
			require.NoError(t, err)
			assert.Zero(t, n)

			got := repo.accounts[acc.FeeAccountID]
			assert.True(t, got.FeeAccountCurrentBalance.Equal(dec(tc.balance)))
			assert.Equal(t, tc.status, got.FeeAccountStatus)
			assert.True(t, repo.schedules[sched.ScheduleID].ScheduleLateFeeAssessed.IsZero())
		})
	}
}

func TestAssessLateFeesReachesSchedulesBehindAssessedBacklog(t *testing.T) {
	repo := newMemRepo()
	acc := repo.addAccount("500000", feeModel.FeeAccountActive)
	attachPlan(repo, acc.FeeAccountID, fixedFeePlan())

	// satu batch penuh yang sudah dikenai fee, due date paling tua
	for i := 0; i < sweepBatch; i++ {
		s := addSchedule(repo, acc.FeeAccountID, "1000", "0", "50", "0")
		s.ScheduleStatus = feeModel.ScheduleOverdue
		s.ScheduleDueDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		repo.schedules[s.ScheduleID] = s
	}
	fresh := addSchedule(repo, acc.FeeAccountID, "1000", "0", "0", "0")
	fresh.ScheduleDueDate = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	repo.schedules[fresh.ScheduleID] = fresh

	n, err := NewSweepService(repo, zap.NewNop().Sugar()).AssessLateFees(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, repo.listCalls)
	assert.True(t, repo.schedules[fresh.ScheduleID].ScheduleLateFeeAssessed.Equal(dec("50")))
	assert.True(t, repo.accounts[acc.FeeAccountID].FeeAccountCurrentBalance.Equal(dec("500050")))
}
