package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	auditModel "schoolpay_backend/internals/features/finance/audit_logs/model"
	feeModel "schoolpay_backend/internals/features/finance/fee_accounts/model"
	planModel "schoolpay_backend/internals/features/finance/payment_plans/model"
	"schoolpay_backend/internals/features/finance/payments/gateway"
	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/helpers/apperr"
)

/* ===================== memRepo ===================== */

type memState struct {
	accounts  map[uuid.UUID]feeModel.FeeAccountModel
	schedules map[uuid.UUID]feeModel.PaymentScheduleModel
	plans     map[uuid.UUID]planModel.PaymentPlanModel
	txs       map[uuid.UUID]model.GatewayTransactionModel
	payments  map[uuid.UUID]model.PaymentModel
	events    []model.PaymentGatewayEventModel
	audits    []auditModel.AuditLogModel
}

func (s memState) clone() memState {
	c := memState{
		accounts:  make(map[uuid.UUID]feeModel.FeeAccountModel, len(s.accounts)),
		schedules: make(map[uuid.UUID]feeModel.PaymentScheduleModel, len(s.schedules)),
		plans:     make(map[uuid.UUID]planModel.PaymentPlanModel, len(s.plans)),
		txs:       make(map[uuid.UUID]model.GatewayTransactionModel, len(s.txs)),
		payments:  make(map[uuid.UUID]model.PaymentModel, len(s.payments)),
		events:    append([]model.PaymentGatewayEventModel(nil), s.events...),
		audits:    append([]auditModel.AuditLogModel(nil), s.audits...),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.schedules {
		c.schedules[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

// memRepo: fake in-memory; WithinTx memulihkan state bila fn gagal.
// events tidak ikut rollback (dicatat di luar unit of work).
type memRepo struct {
	mu sync.Mutex
	memState

	failSaveSchedule error
	reads            int
	listCalls        int
}

func newMemRepo() *memRepo {
	return &memRepo{memState: memState{
		accounts:  map[uuid.UUID]feeModel.FeeAccountModel{},
		schedules: map[uuid.UUID]feeModel.PaymentScheduleModel{},
		plans:     map[uuid.UUID]planModel.PaymentPlanModel{},
		txs:       map[uuid.UUID]model.GatewayTransactionModel{},
		payments:  map[uuid.UUID]model.PaymentModel{},
	}}
}

func (m *memRepo) WithinTx(ctx context.Context, fn func(Repository) error) error {
	snap := m.memState.clone()
	if err := fn(m); err != nil {
		events := m.events
		m.memState = snap
		m.events = events
		return err
	}
	return nil
}

func (m *memRepo) GetFeeAccount(ctx context.Context, id uuid.UUID) (*feeModel.FeeAccountModel, error) {
	m.reads++
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperr.NotFound("fee account tidak ditemukan")
	}
	return &a, nil
}

func (m *memRepo) SaveFeeAccountLedger(ctx context.Context, acc *feeModel.FeeAccountModel) error {
	cur, ok := m.accounts[acc.FeeAccountID]
	if !ok || cur.FeeAccountVersion != acc.FeeAccountVersion {
		return apperr.Wrap(apperr.KindInternal, apperr.CodeLedgerConflict, "fee account diubah bersamaan", errors.New("stale version"))
	}
	acc.FeeAccountVersion++
	m.accounts[acc.FeeAccountID] = *acc
	return nil
}

func (m *memRepo) GetSchedule(ctx context.Context, id uuid.UUID) (*feeModel.PaymentScheduleModel, error) {
	m.reads++
	s, ok := m.schedules[id]
	if !ok {
		return nil, apperr.NotFound("payment schedule tidak ditemukan")
	}
	return &s, nil
}

func (m *memRepo) SaveSchedule(ctx context.Context, s *feeModel.PaymentScheduleModel) error {
	if m.failSaveSchedule != nil {
		return m.failSaveSchedule
	}
	m.schedules[s.ScheduleID] = *s
	return nil
}

func (m *memRepo) ListUnpaidPastDue(ctx context.Context, before time.Time, after *feeModel.ScheduleCursor, limit int) ([]feeModel.PaymentScheduleModel, error) {
	m.listCalls++
	var out []feeModel.PaymentScheduleModel
	for _, s := range m.schedules {
		if s.ScheduleStatus == feeModel.SchedulePaid || !s.ScheduleDueDate.Before(before) {
			continue
		}
		if after != nil && !scheduleAfter(s, *after) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return scheduleAfter(out[j], feeModel.ScheduleCursor{DueDate: out[i].ScheduleDueDate, ID: out[i].ScheduleID})
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// scheduleAfter: (due_date, id) > cursor, sama seperti row comparison di SQL.
func scheduleAfter(s feeModel.PaymentScheduleModel, c feeModel.ScheduleCursor) bool {
	if !s.ScheduleDueDate.Equal(c.DueDate) {
		return s.ScheduleDueDate.After(c.DueDate)
	}
	return strings.Compare(s.ScheduleID.String(), c.ID.String()) > 0
}

func (m *memRepo) ListOpenSchedules(ctx context.Context, feeAccountID uuid.UUID) ([]feeModel.PaymentScheduleModel, error) {
	var out []feeModel.PaymentScheduleModel
	for _, s := range m.schedules {
		if s.ScheduleFeeAccountID == feeAccountID && s.ScheduleStatus != feeModel.SchedulePaid {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduleInstallmentNumber < out[j].ScheduleInstallmentNumber })
	return out, nil
}

func (m *memRepo) GetPlan(ctx context.Context, id uuid.UUID) (*planModel.PaymentPlanModel, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, apperr.NotFound("payment plan tidak ditemukan")
	}
	return &p, nil
}

func (m *memRepo) CreateTransaction(ctx context.Context, tx *model.GatewayTransactionModel) error {
	for _, t := range m.txs {
		if t.GatewayTransactionExternalID == tx.GatewayTransactionExternalID {
			return apperr.Wrap(apperr.KindInternal, "", "external_id sudah tercatat", errors.New("duplicate key"))
		}
	}
	m.txs[tx.GatewayTransactionID] = *tx
	return nil
}

func (m *memRepo) find(pred func(model.GatewayTransactionModel) bool) (*model.GatewayTransactionModel, error) {
	for _, t := range m.txs {
		if pred(t) {
			cp := t
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("transaksi tidak ditemukan")
}

func (m *memRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*model.GatewayTransactionModel, error) {
	return m.find(func(t model.GatewayTransactionModel) bool { return t.GatewayTransactionID == id })
}

func (m *memRepo) FindTransactionByExternalID(ctx context.Context, externalID string) (*model.GatewayTransactionModel, error) {
	m.reads++
	return m.find(func(t model.GatewayTransactionModel) bool { return t.GatewayTransactionExternalID == externalID })
}

func (m *memRepo) FindTransactionByReference(ctx context.Context, reference string) (*model.GatewayTransactionModel, error) {
	return m.find(func(t model.GatewayTransactionModel) bool { return t.GatewayTransactionReferenceNumber == reference })
}

func (m *memRepo) FindTransactionBySessionID(ctx context.Context, sessionID string) (*model.GatewayTransactionModel, error) {
	return m.find(func(t model.GatewayTransactionModel) bool { return t.GatewayTransactionCheckoutSessionID == sessionID })
}

func (m *memRepo) ClaimTransaction(ctx context.Context, id uuid.UUID, status model.TransactionStatus, gatewayPaymentID *string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok || t.GatewayTransactionProcessed {
		return false, nil
	}
	t.GatewayTransactionProcessed = true
	t.GatewayTransactionStatus = status
	t.GatewayTransactionProcessedAt = &at
	if gatewayPaymentID != nil && *gatewayPaymentID != "" {
		id := *gatewayPaymentID
		t.GatewayTransactionGatewayPaymentID = &id
	}
	m.txs[t.GatewayTransactionID] = t
	return true, nil
}

func (m *memRepo) ListExpiredAwaiting(ctx context.Context, now time.Time, limit int) ([]model.GatewayTransactionModel, error) {
	var out []model.GatewayTransactionModel
	for _, t := range m.txs {
		if t.GatewayTransactionStatus == model.TxAwaitingPayment && !t.GatewayTransactionProcessed && t.GatewayTransactionExpiresAt.Before(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) CreatePayment(ctx context.Context, p *model.PaymentModel) error {
	for _, x := range m.payments {
		if x.PaymentGatewayTransactionID == p.PaymentGatewayTransactionID {
			return errors.New("duplicate payment for transaction")
		}
	}
	m.payments[p.PaymentID] = *p
	return nil
}

func (m *memRepo) GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment tidak ditemukan")
	}
	return &p, nil
}

func (m *memRepo) FindPaymentByTransaction(ctx context.Context, txID uuid.UUID) (*model.PaymentModel, error) {
	for _, p := range m.payments {
		if p.PaymentGatewayTransactionID == txID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) RecordGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	m.events = append(m.events, *ev)
	return nil
}

func (m *memRepo) AppendAudit(ctx context.Context, entry *auditModel.AuditLogModel) error {
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memRepo) auditActions() []string {
	out := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		out = append(out, a.AuditLogAction)
	}
	return out
}

func (m *memRepo) addAccount(balance string, status feeModel.FeeAccountStatus) feeModel.FeeAccountModel {
	a := feeModel.FeeAccountModel{
		FeeAccountID:             uuid.New(),
		FeeAccountStudentID:      uuid.New(),
		FeeAccountSchoolID:       uuid.New(),
		FeeAccountPayerName:      "Juan Dela Cruz",
		FeeAccountTotalFee:       decimal.RequireFromString(balance),
		FeeAccountCurrentBalance: decimal.RequireFromString(balance),
		FeeAccountStatus:         status,
	}
	m.accounts[a.FeeAccountID] = a
	return a
}

/* ===================== fakeProvider ===================== */

// fakeEvent = bentuk body webhook yang dipahami fakeProvider.
type fakeEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Kind       string `json:"kind"`
	ResourceID string `json:"resource_id"`
	Reference  string `json:"reference"`
	PaymentID  string `json:"payment_id"`
	Method     string `json:"method"`
}

const fakeValidSignature = "sig-ok"

type fakeProvider struct {
	configured bool
	minimum    decimal.Decimal

	checkoutCalls []gateway.CheckoutRequest
	refundCalls   []gateway.RefundRequest
	checkoutErr   error
	seq           int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{configured: true, minimum: decimal.NewFromInt(20)}
}

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) Currency() string               { return "PHP" }
func (f *fakeProvider) MinimumAmount() decimal.Decimal { return f.minimum }
func (f *fakeProvider) Configured() bool               { return f.configured }
func (f *fakeProvider) SignatureHeader() string        { return "X-Fake-Signature" }

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	f.checkoutCalls = append(f.checkoutCalls, req)
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	f.seq++
	id := "cs_test_" + string(rune('a'+f.seq))
	return &gateway.CheckoutSession{
		ID:          id,
		CheckoutURL: "https://checkout.example/" + id,
		Status:      "active",
		AmountMinor: gateway.ToMinor(req.Amount),
	}, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, id string) (*gateway.CheckoutSession, error) {
	return &gateway.CheckoutSession{ID: id}, nil
}

func (f *fakeProvider) GetPayment(ctx context.Context, id string) (*gateway.PaymentInfo, error) {
	return &gateway.PaymentInfo{ID: id}, nil
}

func (f *fakeProvider) CreateRefund(ctx context.Context, req gateway.RefundRequest) (*gateway.Refund, error) {
	f.refundCalls = append(f.refundCalls, req)
	return &gateway.Refund{ID: "ref_1", Status: "pending", AmountMinor: req.AmountMinor}, nil
}

func (f *fakeProvider) VerifyWebhookSignature(rawBody []byte, header string) bool {
	return header == fakeValidSignature
}

func (f *fakeProvider) ParseWebhookEvent(rawBody []byte) (*gateway.WebhookEvent, error) {
	var e fakeEvent
	if err := json.Unmarshal(rawBody, &e); err != nil {
		return nil, err
	}
	if e.ID == "" || e.Type == "" {
		return nil, errors.New("missing id/type")
	}
	return &gateway.WebhookEvent{
		ID:         e.ID,
		Type:       e.Type,
		Kind:       gateway.EventKind(e.Kind),
		ResourceID: e.ResourceID,
		Reference:  e.Reference,
		PaymentID:  e.PaymentID,
		Method:     e.Method,
	}, nil
}

func webhookBody(kind gateway.EventKind, resourceID string) []byte {
	b, _ := json.Marshal(fakeEvent{
		ID:         "evt_" + uuid.NewString()[:8],
		Type:       "checkout_session.payment." + string(kind),
		Kind:       string(kind),
		ResourceID: resourceID,
		PaymentID:  "pay_" + resourceID,
		Method:     "gcash",
	})
	return b
}

/* ===================== recordingAlerter ===================== */

type recordingAlerter struct {
	subjects []string
}

func (a *recordingAlerter) Alert(ctx context.Context, subject string, kv ...any) {
	a.subjects = append(a.subjects, subject)
}
