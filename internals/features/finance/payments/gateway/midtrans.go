// file: internals/features/finance/payments/gateway/midtrans.go
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const midtransCurrency = "IDR"

var midtransMinimum = decimal.NewFromInt(1000)

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type coreAPI interface {
	CheckTransaction(param string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
	RefundTransaction(param string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error)
}

type MidtransConfig struct {
	ServerKey     string
	UseProduction bool
	SessionTTL    time.Duration
}

// Midtrans: Snap untuk halaman checkout, Core API untuk status & refund.
// external_id = order_id (reference number), session id = snap token.
type Midtrans struct {
	cfg  MidtransConfig
	snap snapAPI
	core coreAPI
	log  *zap.SugaredLogger
}

func NewMidtrans(cfg MidtransConfig, log *zap.SugaredLogger) *Midtrans {
	env := midtrans.Sandbox
	if cfg.UseProduction {
		env = midtrans.Production
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)
	var c coreapi.Client
	c.New(cfg.ServerKey, env)

	return &Midtrans{cfg: cfg, snap: &s, core: &c, log: log}
}

func (m *Midtrans) Name() string                   { return ProviderMidtrans }
func (m *Midtrans) Currency() string               { return midtransCurrency }
func (m *Midtrans) MinimumAmount() decimal.Decimal { return midtransMinimum }
func (m *Midtrans) Configured() bool               { return m.cfg.ServerKey != "" }

// Midtrans menaruh signature di body (signature_key), bukan header.
func (m *Midtrans) SignatureHeader() string { return "" }

func (m *Midtrans) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	if req.Amount.LessThan(midtransMinimum) {
		return nil, &GatewayError{
			Code:       "amount_below_minimum",
			HTTPStatus: http.StatusBadRequest,
			Detail:     fmt.Sprintf("amount %s below minimum %s", req.Amount.String(), midtransMinimum.String()),
		}
	}
	// IDR tanpa desimal; nominal yang dicharge harus sama persis dengan yang dicatat
	if !req.Amount.Equal(req.Amount.Truncate(0)) {
		return nil, &GatewayError{
			Code:       "parameter_invalid",
			HTTPStatus: http.StatusBadRequest,
			Detail:     fmt.Sprintf("amount %s: %s tidak menerima pecahan", req.Amount.String(), midtransCurrency),
		}
	}
	if req.ReferenceNumber == "" {
		return nil, errors.New("midtrans: reference number wajib (dipakai sebagai order_id)")
	}

	gross := req.Amount.IntPart()
	name := req.Description
	if name == "" {
		name = "School Fee"
	}

	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ReferenceNumber,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: truncate(req.PayerName, 50),
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       truncate(req.ReferenceNumber, 50),
			Price:    gross,
			Qty:      1,
			Name:     truncate(name, 50),
			Category: "SCHOOL_FEE",
		}},
		Callbacks: &snap.Callbacks{Finish: req.SuccessURL},
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: int64(m.cfg.SessionTTL / time.Minute),
		},
		CustomField1: truncate(req.Description, 40),
	}
	if len(req.PaymentMethods) > 0 {
		for _, pm := range req.PaymentMethods {
			sr.EnabledPayments = append(sr.EnabledPayments, snap.SnapPaymentType(pm))
		}
	}

	var resp *snap.Response
	err := runBlocking(ctx, func() error {
		r, merr := m.snap.CreateTransaction(sr)
		if merr != nil {
			return midtransErr(merr)
		}
		resp = r
		return nil
	})
	if err != nil {
		m.log.Warnw("midtrans snap create failed", "order_id", req.ReferenceNumber, "error", err)
		return nil, err
	}
	if resp == nil || resp.Token == "" || resp.RedirectURL == "" {
		return nil, errors.New("midtrans: snap response tanpa token/redirect_url")
	}

	exp := time.Now().Add(m.cfg.SessionTTL).UTC()
	return &CheckoutSession{
		ID:          req.ReferenceNumber,
		CheckoutURL: resp.RedirectURL,
		Status:      "pending",
		AmountMinor: ToMinor(decimal.NewFromInt(gross)),
		ExpiresAt:   &exp,
	}, nil
}

// GetCheckoutSession: id = order_id.
func (m *Midtrans) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	st, err := m.check(ctx, id)
	if err != nil {
		return nil, err
	}
	s := &CheckoutSession{
		ID:          st.OrderID,
		Status:      st.TransactionStatus,
		AmountMinor: grossToMinor(st.GrossAmount),
	}
	if st.TransactionID != "" {
		s.PaymentIDs = []string{st.TransactionID}
	}
	return s, nil
}

func (m *Midtrans) GetPayment(ctx context.Context, id string) (*PaymentInfo, error) {
	st, err := m.check(ctx, id)
	if err != nil {
		return nil, err
	}
	info := &PaymentInfo{
		ID:          st.TransactionID,
		Status:      st.TransactionStatus,
		AmountMinor: grossToMinor(st.GrossAmount),
		Currency:    st.Currency,
	}
	if t, perr := time.Parse("2006-01-02 15:04:05", st.SettlementTime); perr == nil {
		info.PaidAt = &t
	}
	return info, nil
}

func (m *Midtrans) check(ctx context.Context, id string) (*coreapi.TransactionStatusResponse, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	var out *coreapi.TransactionStatusResponse
	err := runBlocking(ctx, func() error {
		r, merr := m.core.CheckTransaction(id)
		if merr != nil {
			return midtransErr(merr)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("midtrans: status response kosong")
	}
	return out, nil
}

func (m *Midtrans) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	if req.PaymentID == "" || req.AmountMinor <= 0 {
		return nil, &GatewayError{Code: "parameter_invalid", HTTPStatus: http.StatusBadRequest, Detail: "payment_id dan amount wajib"}
	}
	rr := &coreapi.RefundReq{
		RefundKey: fmt.Sprintf("rf-%s-%d", truncate(req.PaymentID, 20), time.Now().UnixMilli()),
		Amount:    FromMinor(req.AmountMinor).Round(0).IntPart(),
		Reason:    truncate(req.Reason, 100),
	}

	var out *coreapi.RefundResponse
	err := runBlocking(ctx, func() error {
		r, merr := m.core.RefundTransaction(req.PaymentID, rr)
		if merr != nil {
			return midtransErr(merr)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Refund{
		ID:          rr.RefundKey,
		Status:      out.TransactionStatus,
		AmountMinor: grossToMinor(out.RefundAmount),
	}, nil
}

/* =========================================================
   Webhook (HTTP notification)
========================================================= */

type midtransNotif struct {
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, partial_refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
}

// SHA512(order_id + status_code + gross_amount + ServerKey), constant-time compare.
func (m *Midtrans) VerifyWebhookSignature(rawBody []byte, _ string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if m.cfg.ServerKey == "" || len(rawBody) == 0 {
		return false
	}
	var n midtransNotif
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return false
	}
	if n.SignatureKey == "" || n.OrderID == "" {
		return false
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + m.cfg.ServerKey))
	got := hex.EncodeToString(sum[:])
	return hmac.Equal([]byte(got), []byte(strings.ToLower(n.SignatureKey)))
}

func (m *Midtrans) ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var n midtransNotif
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return nil, fmt.Errorf("midtrans notification: %w", err)
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return nil, errors.New("midtrans notification: order_id/transaction_status kosong")
	}
	return &WebhookEvent{
		ID:         n.TransactionID + ":" + n.TransactionStatus,
		Type:       n.TransactionStatus,
		Kind:       midtransEventKind(n.TransactionStatus, n.FraudStatus),
		ResourceID: n.OrderID,
		Reference:  n.OrderID,
		PaymentID:  n.TransactionID,
		Method:     n.PaymentType,
		Livemode:   m.cfg.UseProduction,
	}, nil
}

func midtransEventKind(status, fraud string) EventKind {
	switch strings.ToLower(status) {
	case "capture":
		// kartu: capture + accept → paid; challenge masih menunggu review
		switch strings.ToLower(fraud) {
		case "accept", "":
			return EventPaid
		case "challenge":
			return EventIgnored
		default:
			return EventFailed
		}
	case "settlement":
		return EventPaid
	case "deny", "failure", "cancel":
		return EventFailed
	case "expire":
		return EventExpired
	default:
		// pending, refund, partial_refund
		return EventIgnored
	}
}

/* =========================================================
   Utils
========================================================= */

func midtransErr(e *midtrans.Error) error {
	status := e.StatusCode
	if status == 0 {
		return fmt.Errorf("midtrans: %s", e.Message)
	}
	return &GatewayError{Code: strconv.Itoa(status), HTTPStatus: status, Detail: e.Message}
}

func grossToMinor(s string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return ToMinor(d)
}

// midtrans-go tidak menerima context; panggilan dijalankan di goroutine
// dan ditinggal bila ctx selesai lebih dulu.
func runBlocking(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
