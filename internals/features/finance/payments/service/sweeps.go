// file: internals/features/finance/payments/service/sweeps.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	planModel "schoolpay_backend/internals/features/finance/payment_plans/model"
	planService "schoolpay_backend/internals/features/finance/payment_plans/service"
	"schoolpay_backend/internals/features/finance/payments/model"
)

const sweepBatch = 200

type SweepService struct {
	repo Repository
	log  *zap.SugaredLogger
}

func NewSweepService(repo Repository, log *zap.SugaredLogger) *SweepService {
	return &SweepService{repo: repo, log: log}
}

// ExpireStale menutup transaksi awaiting_payment yang lewat expires_at.
// Klaim yang sama dengan webhook, jadi balapan dengan webhook paid aman.
func (s *SweepService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.repo.ListExpiredAwaiting(ctx, now, sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list expired transactions: %w", err)
	}
	expired := 0
	for i := range rows {
		tx := &rows[i]
		var ok bool
		err := s.repo.WithinTx(ctx, func(r Repository) error {
			var err error
			ok, err = claimTerminal(ctx, r, tx, model.TxExpired, now, auditModel.ActionPaymentExpired, "expiry sweep")
			return err
		})
		if err != nil {
			s.log.Warnw("expire transaction failed", "transaction_id", tx.GatewayTransactionID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		s.log.Infow("expiry sweep done", "expired", expired, "candidates", len(rows))
	}
	return expired, nil
}

// AssessLateFees menaikkan late_fee_assessed ke nilai ComputeLateFee terbaru
// dan menambah saldo akun sebesar selisihnya. Semua kandidat dibaca per halaman
// (keyset), jadi schedule yang sudah ter-assess tidak menutupi yang baru.
func (s *SweepService) AssessLateFees(ctx context.Context, asOf time.Time) (int, error) {
	plans := map[uuid.UUID]*planModel.PaymentPlanModel{}
	assessed, candidates := 0, 0

	var cursor *feeModel.ScheduleCursor
	for {
		if err := ctx.Err(); err != nil {
			return assessed, err
		}
		rows, err := s.repo.ListUnpaidPastDue(ctx, asOf, cursor, sweepBatch)
		if err != nil {
			return assessed, fmt.Errorf("list past-due schedules: %w", err)
		}
		candidates += len(rows)

		for i := range rows {
			sc := &rows[i]
			applied, err := s.assessOne(ctx, sc.ScheduleID, asOf, plans)
			if err != nil {
				s.log.Warnw("late fee assessment failed", "schedule_id", sc.ScheduleID, "error", err)
				continue
			}
			if applied {
				assessed++
			}
		}

		if len(rows) < sweepBatch {
			break
		}
		last := rows[len(rows)-1]
		cursor = &feeModel.ScheduleCursor{DueDate: last.ScheduleDueDate, ID: last.ScheduleID}
	}

	if assessed > 0 {
		s.log.Infow("late fee sweep done", "assessed", assessed, "candidates", candidates)
	}
	return assessed, nil
}

func (s *SweepService) assessOne(ctx context.Context, scheduleID uuid.UUID, asOf time.Time, plans map[uuid.UUID]*planModel.PaymentPlanModel) (bool, error) {
	applied := false
	err := s.repo.WithinTx(ctx, func(r Repository) error {
		sc, err := r.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		acc, err := r.GetFeeAccount(ctx, sc.ScheduleFeeAccountID)
		if err != nil {
			return err
		}
		// akun lunas / ditahan tidak dikenai late fee
		if acc.FeeAccountPlanID == nil ||
			acc.FeeAccountStatus != feeModel.FeeAccountActive ||
			!acc.FeeAccountCurrentBalance.IsPositive() {
			return nil
		}
		plan, ok := plans[*acc.FeeAccountPlanID]
		if !ok {
			if plan, err = r.GetPlan(ctx, *acc.FeeAccountPlanID); err != nil {
				return err
			}
			plans[*acc.FeeAccountPlanID] = plan
		}

		fee := planService.ComputeLateFee(plan, sc, asOf)
		delta := fee.Sub(sc.ScheduleLateFeeAssessed)
		if !delta.IsPositive() {
			return nil
		}

		sc.ScheduleLateFeeAssessed = fee
		sc.ScheduleStatus = feeModel.ScheduleOverdue
		if err := r.SaveSchedule(ctx, sc); err != nil {
			return err
		}
		before := acc.FeeAccountCurrentBalance
		acc.Charge(delta)
		if err := r.SaveFeeAccountLedger(ctx, acc); err != nil {
			return err
		}

		entry := auditService.NewEntry(auditModel.ActionLateFeeAssessed, "payment_schedule", &sc.ScheduleID,
			fmt.Sprintf("late fee %s untuk %s", delta.StringFixed(2), sc.ScheduleLabel),
			auditService.Snapshot{
				"fee_account":    acc.FeeAccountID.String(),
				"late_fee":       fee.StringFixed(2),
				"delta":          delta.StringFixed(2),
				"balance_before": before.StringFixed(2),
				"balance_after":  acc.FeeAccountCurrentBalance.StringFixed(2),
			})
		if err := r.AppendAudit(ctx, &entry); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
