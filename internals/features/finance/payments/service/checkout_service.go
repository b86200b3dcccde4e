// file: internals/features/finance/payments/service/checkout_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	auditService "schoolpay_backend/internals/features/finance/audit_logs/service"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/helpers/apperr"
)

// placeholder yang disubstitusi gateway di redirect URL
const sessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type CheckoutConfig struct {
	BaseURL    string
	SessionTTL time.Duration
}

type CheckoutInput struct {
	FeeAccountID   uuid.UUID
	PaymentType    model.PaymentType
	ScheduleID     *uuid.UUID
	CustomAmount   *decimal.Decimal
	PaymentMethods []string
}

type CheckoutResult struct {
	CheckoutURL     string          `json:"checkout_url"`
	SessionID       string          `json:"session_id"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
	ExpiresAt       time.Time       `json:"expires_at"`
}

type PaymentView struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	ReceiptNumber string          `json:"receipt_number"`
	Status        string          `json:"status"`
	PaymentDate   time.Time       `json:"payment_date"`
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty"`
}

type SessionStatus struct {
	Status    model.TransactionStatus `json:"status"`
	Processed bool                    `json:"processed"`
	Amount    decimal.Decimal         `json:"amount"`
	Payment   *PaymentView            `json:"payment"`
}

type RefundResult struct {
	RefundID string          `json:"refund_id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
}

type CheckoutService struct {
	repo     Repository
	gw       gateway.Provider
	resolver *AmountResolver
	cache    StatusCache
	cfg      CheckoutConfig
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewCheckoutService(repo Repository, gw gateway.Provider, cache StatusCache, cfg CheckoutConfig, log *zap.SugaredLogger) *CheckoutService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cache == nil {
		cache = noopStatusCache{}
	}
	return &CheckoutService{
		repo:     repo,
		gw:       gw,
		resolver: NewAmountResolver(repo, gw.MinimumAmount()),
		cache:    cache,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// CreateCheckout: ledger → resolver → gateway → simpan transaksi awaiting_payment.
func (s *CheckoutService) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	acc, err := s.repo.GetFeeAccount(ctx, in.FeeAccountID)
	if err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, acc, in.PaymentType, in.ScheduleID, in.CustomAmount)
	if err != nil {
		return nil, err
	}

	if !s.gw.Configured() {
		return nil, apperr.New(apperr.KindGatewayUnavailable, "", "payment gateway belum dikonfigurasi")
	}

	now := s.now()
	ref := NewReferenceNumber(acc.FeeAccountStudentID, now)
	meta := map[string]string{
		"reference_number":       ref,
		"student_fee_account_id": acc.FeeAccountID.String(),
		"payment_type":           string(in.PaymentType),
	}
	if res.ScheduleID != nil {
		meta["payment_schedule_id"] = res.ScheduleID.String()
	}

	session, err := s.gw.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		ReferenceNumber: ref,
		Description:     res.Description,
		PayerName:       acc.FeeAccountPayerName,
		Amount:          res.Amount,
		PaymentMethods:  in.PaymentMethods,
		SuccessURL:      s.cfg.BaseURL + "/payments/success?session_id=" + sessionPlaceholder,
		CancelURL:       s.cfg.BaseURL + "/payments/cancel?session_id=" + sessionPlaceholder,
		Metadata:        meta,
	})
	if err != nil {
		return nil, gatewayFailure(err)
	}

	expires := now.Add(s.cfg.SessionTTL)
	if session.ExpiresAt != nil {
		expires = *session.ExpiresAt
	}
	metaJSON, _ := json.Marshal(meta)

	tx := &model.GatewayTransactionModel{
		GatewayTransactionID:                uuid.New(),
		GatewayTransactionGateway:           s.gw.Name(),
		GatewayTransactionExternalID:        session.ID,
		GatewayTransactionCheckoutSessionID: session.ID,
		GatewayTransactionCheckoutURL:       session.CheckoutURL,
		GatewayTransactionReferenceNumber:   ref,
		GatewayTransactionFeeAccountID:      acc.FeeAccountID,
		GatewayTransactionScheduleID:        res.ScheduleID,
		GatewayTransactionPaymentType:       in.PaymentType,
		GatewayTransactionMethods:           pq.StringArray(in.PaymentMethods),
		GatewayTransactionAmount:            res.Amount,
		GatewayTransactionCurrency:          s.gw.Currency(),
		GatewayTransactionStatus:            model.TxAwaitingPayment,
		GatewayTransactionExpiresAt:         expires,
		GatewayTransactionMetadata:          datatypes.JSON(metaJSON),
	}

	err = s.repo.WithinTx(ctx, func(r Repository) error {
		if err := r.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		entry := auditService.NewEntry(auditModel.ActionCheckoutCreated, "gateway_transaction", &tx.GatewayTransactionID,
			fmt.Sprintf("checkout %s dibuat untuk %s", ref, res.Description), auditService.Snapshot{
				"gateway":      s.gw.Name(),
				"external_id":  session.ID,
				"amount":       res.Amount.StringFixed(2),
				"payment_type": string(in.PaymentType),
				"fee_account":  acc.FeeAccountID.String(),
			})
		return r.AppendAudit(ctx, &entry)
	})
	if err != nil {
		// session di gateway sudah terbuat tapi tidak tercatat; webhook-nya akan jadi unrecognized
		s.log.Errorw("persist checkout failed", "reference", ref, "external_id", session.ID, "error", err)
		return nil, err
	}

	s.log.Infow("checkout created",
		"reference", ref, "external_id", session.ID, "amount", res.Amount.StringFixed(2), "type", in.PaymentType)

	return &CheckoutResult{
		CheckoutURL:     session.CheckoutURL,
		SessionID:       session.ID,
		ReferenceNumber: ref,
		Amount:          res.Amount,
		ExpiresAt:       expires,
	}, nil
}

// GetSessionStatus: pure read untuk polling setelah redirect.
func (s *CheckoutService) GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if sessionID == "" {
		return nil, apperr.Validation(apperr.CodeMissingField, "session_id wajib diisi")
	}
	if st, ok := s.cache.Get(ctx, sessionID); ok {
		return st, nil
	}

	tx, err := s.repo.FindTransactionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st := &SessionStatus{
		Status:    tx.GatewayTransactionStatus,
		Processed: tx.GatewayTransactionProcessed,
		Amount:    tx.GatewayTransactionAmount,
	}
	pay, err := s.repo.FindPaymentByTransaction(ctx, tx.GatewayTransactionID)
	if err != nil {
		return nil, err
	}
	if pay != nil {
		st.Payment = toPaymentView(pay)
	}

	if st.Processed && st.Status.Terminal() {
		s.cache.Set(ctx, sessionID, st)
	}
	return st, nil
}

// RefundPayment meminta refund ke gateway. Ledger tidak diubah di sini.
func (s *CheckoutService) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string) (*RefundResult, error) {
	pay, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	tx, err := s.repo.GetTransaction(ctx, pay.PaymentGatewayTransactionID)
	if err != nil {
		return nil, err
	}
	if tx.GatewayTransactionGateway != s.gw.Name() {
		return nil, apperr.StateConflict("", "payment dibuat lewat gateway lain")
	}
	if tx.GatewayTransactionGatewayPaymentID == nil || *tx.GatewayTransactionGatewayPaymentID == "" {
		return nil, apperr.StateConflict("", "payment tidak memiliki referensi gateway")
	}

	refundAmt := pay.PaymentAmount
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperr.Validation(apperr.CodeInvalidAmount, "amount harus > 0")
		}
		if amount.GreaterThan(pay.PaymentAmount) {
			return nil, apperr.Validation(apperr.CodeExceedsBalance, "amount melebihi nilai payment")
		}
		refundAmt = *amount
	}

	rf, err := s.gw.CreateRefund(ctx, gateway.RefundRequest{
		PaymentID:   *tx.GatewayTransactionGatewayPaymentID,
		AmountMinor: gateway.ToMinor(refundAmt),
		Reason:      reason,
	})
	if err != nil {
		return nil, gatewayFailure(err)
	}

	entry := auditService.NewEntry(auditModel.ActionPaymentRefundRequested, "payment", &pay.PaymentID,
		"refund diminta", auditService.Snapshot{
			"refund_id": rf.ID,
			"amount":    refundAmt.StringFixed(2),
			"reason":    reason,
		})
	if err := s.repo.AppendAudit(ctx, &entry); err != nil {
		s.log.Errorw("audit refund failed", "payment_id", pay.PaymentID, "error", err)
	}

	return &RefundResult{RefundID: rf.ID, Status: rf.Status, Amount: refundAmt}, nil
}

func toPaymentView(p *model.PaymentModel) *PaymentView {
	return &PaymentView{
		ID:            p.PaymentID,
		Amount:        p.PaymentAmount,
		ReceiptNumber: p.PaymentReceiptNumber,
		Status:        string(p.PaymentStatus),
		PaymentDate:   p.PaymentDate,
		ScheduleID:    p.PaymentScheduleID,
	}
}
