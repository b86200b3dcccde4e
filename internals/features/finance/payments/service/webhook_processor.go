// file: internals/features/finance/payments/service/webhook_processor.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/helpers/apperr"
)

type WebhookOutcome string

const (
	OutcomeProcessed    WebhookOutcome = "processed"
	OutcomeDuplicate    WebhookOutcome = "duplicate"
	OutcomeUnrecognized WebhookOutcome = "unrecognized"
	OutcomeIgnored      WebhookOutcome = "ignored"
)

type WebhookResult struct {
	Outcome       WebhookOutcome          `json:"outcome"`
	EventType     string                  `json:"event_type"`
	TransactionID *uuid.UUID              `json:"transaction_id,omitempty"`
	Status        model.TransactionStatus `json:"status,omitempty"`
}

type WebhookProcessor struct {
	repo  Repository
	gw    gateway.Provider
	alert Alerter
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewWebhookProcessor(repo Repository, gw gateway.Provider, alert Alerter, log *zap.SugaredLogger) *WebhookProcessor {
	return &WebhookProcessor{repo: repo, gw: gw, alert: alert, now: time.Now, log: log}
}

// Process: verify → parse → lookup → claim → apply. Body mentah tidak pernah di-log.
func (w *WebhookProcessor) Process(ctx context.Context, rawBody []byte, signatureHeader string) (*WebhookResult, error) {
	if !w.gw.VerifyWebhookSignature(rawBody, signatureHeader) {
		w.log.Warnw("webhook signature invalid", "gateway", w.gw.Name(), "bytes", len(rawBody))
		return nil, apperr.New(apperr.KindSignatureInvalid, "", "invalid signature")
	}

	ev, err := w.gw.ParseWebhookEvent(rawBody)
	if err != nil {
		w.log.Warnw("webhook payload invalid", "gateway", w.gw.Name(), "error", err)
		return nil, apperr.Wrap(apperr.KindValidation, "", "payload webhook tidak valid", err)
	}

	result := &WebhookResult{EventType: ev.Type}
	logger := w.log.With("gateway", w.gw.Name(), "event_id", ev.ID, "event_type", ev.Type, "resource_id", ev.ResourceID)

	if ev.Kind == gateway.EventIgnored {
		result.Outcome = OutcomeIgnored
		w.record(ctx, ev, nil, model.GatewayEventIgnored, nil)
		logger.Infow("webhook event ignored")
		return result, nil
	}

	tx, err := w.lookup(ctx, ev)
	if apperr.Is(err, apperr.KindNotFound) {
		result.Outcome = OutcomeUnrecognized
		w.record(ctx, ev, nil, model.GatewayEventUnrecognized, nil)
		logger.Warnw("webhook for unknown transaction")
		w.alert.Alert(ctx, "webhook for unknown gateway transaction",
			"gateway", w.gw.Name(), "event_id", ev.ID, "resource_id", ev.ResourceID, "reference", ev.Reference)
		return result, nil
	}
	if err != nil {
		return nil, apperr.Internal("lookup gateway transaction", err)
	}
	result.TransactionID = &tx.GatewayTransactionID

	var claimed bool
	switch ev.Kind {
	case gateway.EventPaid:
		claimed, err = w.applyPaid(ctx, tx, ev)
	case gateway.EventFailed:
		claimed, err = w.applyTerminal(ctx, tx, ev, model.TxFailed, auditModel.ActionPaymentFailed)
	case gateway.EventExpired:
		claimed, err = w.applyTerminal(ctx, tx, ev, model.TxExpired, auditModel.ActionPaymentExpired)
	}
	if err != nil {
		msg := err.Error()
		w.record(ctx, ev, &tx.GatewayTransactionID, model.GatewayEventFailed, &msg)
		logger.Errorw("webhook processing failed, rolled back", "transaction_id", tx.GatewayTransactionID, "error", err)
		// selalu 500 supaya gateway mengirim ulang
		if apperr.KindOf(err) == apperr.KindInternal && apperr.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperr.Internal("process webhook", err)
	}

	if !claimed {
		result.Outcome = OutcomeDuplicate
		result.Status = tx.GatewayTransactionStatus
		w.record(ctx, ev, &tx.GatewayTransactionID, model.GatewayEventDuplicate, nil)
		logger.Infow("duplicate webhook delivery", "transaction_id", tx.GatewayTransactionID)
		if ev.Kind == gateway.EventPaid && tx.GatewayTransactionProcessed && tx.GatewayTransactionStatus != model.TxPaid {
			w.alert.Alert(ctx, "paid event for transaction already finalized as "+string(tx.GatewayTransactionStatus),
				"transaction_id", tx.GatewayTransactionID, "event_id", ev.ID)
		}
		return result, nil
	}

	result.Outcome = OutcomeProcessed
	result.Status = kindStatus(ev.Kind)
	w.record(ctx, ev, &tx.GatewayTransactionID, model.GatewayEventProcessed, nil)
	logger.Infow("webhook processed", "transaction_id", tx.GatewayTransactionID, "status", result.Status)
	return result, nil
}

func (w *WebhookProcessor) lookup(ctx context.Context, ev *gateway.WebhookEvent) (*model.GatewayTransactionModel, error) {
	tx, err := w.repo.FindTransactionByExternalID(ctx, ev.ResourceID)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) || ev.Reference == "" {
		return tx, err
	}
	return w.repo.FindTransactionByReference(ctx, ev.Reference)
}

// applyPaid: satu unit atomik. Gagal di tengah → rollback, gateway akan retry.
func (w *WebhookProcessor) applyPaid(ctx context.Context, tx *model.GatewayTransactionModel, ev *gateway.WebhookEvent) (bool, error) {
	now := w.now()
	claimed := false

	var gwPaymentID *string
	if ev.PaymentID != "" {
		id := ev.PaymentID
		gwPaymentID = &id
	}

	err := w.repo.WithinTx(ctx, func(r Repository) error {
		ok, err := r.ClaimTransaction(ctx, tx.GatewayTransactionID, model.TxPaid, gwPaymentID, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		acc, err := r.GetFeeAccount(ctx, tx.GatewayTransactionFeeAccountID)
		if err != nil {
			return fmt.Errorf("load fee account: %w", err)
		}

		method := ev.Method
		if method == "" {
			method = "gateway"
		}
		pay := &model.PaymentModel{
			PaymentID:                   uuid.New(),
			PaymentFeeAccountID:         acc.FeeAccountID,
			PaymentGatewayTransactionID: tx.GatewayTransactionID,
			PaymentScheduleID:           tx.GatewayTransactionScheduleID,
			PaymentAmount:               tx.GatewayTransactionAmount,
			PaymentReceiptNumber:        newReceiptNumber(tx.GatewayTransactionID, now),
			PaymentStatus:               model.PaymentStatusCompleted,
			PaymentMethod:               method,
			PaymentDate:                 now,
		}
		if err := r.CreatePayment(ctx, pay); err != nil {
			return err
		}

		before := acc.FeeAccountCurrentBalance
		over := acc.Credit(tx.GatewayTransactionAmount)
		if err := r.SaveFeeAccountLedger(ctx, acc); err != nil {
			return err
		}

		snap := auditService.Snapshot{
			"transaction_id":  tx.GatewayTransactionID.String(),
			"external_id":     tx.GatewayTransactionExternalID,
			"amount":          tx.GatewayTransactionAmount.StringFixed(2),
			"balance_before":  before.StringFixed(2),
			"balance_after":   acc.FeeAccountCurrentBalance.StringFixed(2),
			"account_status":  string(acc.FeeAccountStatus),
			"receipt_number":  pay.PaymentReceiptNumber,
			"gateway_payment": ev.PaymentID,
		}
		if over.IsPositive() {
			snap["overpayment"] = over.StringFixed(2)
		}

		if tx.GatewayTransactionScheduleID != nil {
			s, err := r.GetSchedule(ctx, *tx.GatewayTransactionScheduleID)
			if err != nil {
				return fmt.Errorf("load schedule: %w", err)
			}
			s.ApplyPayment(tx.GatewayTransactionAmount, now)
			if err := r.SaveSchedule(ctx, s); err != nil {
				return err
			}
			snap["schedule_id"] = s.ScheduleID.String()
			snap["schedule_status"] = string(s.ScheduleStatus)
		}

		// akun lunas: schedule yang tersisa ikut ditutup supaya sweep tidak menagih late fee lagi
		if acc.FeeAccountStatus == feeModel.FeeAccountSettled {
			rest, err := r.ListOpenSchedules(ctx, acc.FeeAccountID)
			if err != nil {
				return err
			}
			for i := range rest {
				rest[i].Settle(now)
				if err := r.SaveSchedule(ctx, &rest[i]); err != nil {
					return err
				}
			}
			if len(rest) > 0 {
				snap["schedules_closed"] = len(rest)
			}
		}

		entry := auditService.NewEntry(auditModel.ActionPaymentCompleted, "payment", &pay.PaymentID,
			fmt.Sprintf("payment %s diterima via %s", pay.PaymentReceiptNumber, tx.GatewayTransactionGateway), snap)
		if err := r.AppendAudit(ctx, &entry); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// applyTerminal: failed/expired. Tanpa mutasi ledger.
func (w *WebhookProcessor) applyTerminal(ctx context.Context, tx *model.GatewayTransactionModel, ev *gateway.WebhookEvent, status model.TransactionStatus, action string) (bool, error) {
	claimed := false
	err := w.repo.WithinTx(ctx, func(r Repository) error {
		ok, err := claimTerminal(ctx, r, tx, status, w.now(), action, "event "+ev.Type)
		claimed = ok
		return err
	})
	return claimed, err
}

// claimTerminal dipakai webhook (failed/expired) dan expiry sweep.
func claimTerminal(ctx context.Context, r Repository, tx *model.GatewayTransactionModel, status model.TransactionStatus, at time.Time, action, cause string) (bool, error) {
	ok, err := r.ClaimTransaction(ctx, tx.GatewayTransactionID, status, nil, at)
	if err != nil || !ok {
		return false, err
	}
	entry := auditService.NewEntry(action, "gateway_transaction", &tx.GatewayTransactionID,
		fmt.Sprintf("transaksi %s → %s (%s)", tx.GatewayTransactionReferenceNumber, status, cause),
		auditService.Snapshot{
			"external_id": tx.GatewayTransactionExternalID,
			"amount":      tx.GatewayTransactionAmount.StringFixed(2),
			"status":      string(status),
		})
	if err := r.AppendAudit(ctx, &entry); err != nil {
		return false, err
	}
	return true, nil
}

// record mencatat delivery ke payment_gateway_events; best-effort.
func (w *WebhookProcessor) record(ctx context.Context, ev *gateway.WebhookEvent, txID *uuid.UUID, status model.GatewayEventStatus, errMsg *string) {
	row := &model.PaymentGatewayEventModel{
		GatewayEventID:            uuid.New(),
		GatewayEventTransactionID: txID,
		GatewayEventProvider:      w.gw.Name(),
		GatewayEventExternalID:    ev.ID,
		GatewayEventType:          ev.Type,
		GatewayEventResourceID:    ev.ResourceID,
		GatewayEventStatus:        status,
		GatewayEventError:         errMsg,
		GatewayEventReceivedAt:    w.now(),
	}
	if err := w.repo.RecordGatewayEvent(ctx, row); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Warnw("record gateway event failed", "event_id", ev.ID, "error", err)
	}
}

func kindStatus(k gateway.EventKind) model.TransactionStatus {
	switch k {
	case gateway.EventPaid:
		return model.TxPaid
	case gateway.EventFailed:
		return model.TxFailed
	case gateway.EventExpired:
		return model.TxExpired
	}
	return ""
}
