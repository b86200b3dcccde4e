// file: internals/features/finance/payments/gateway/paymongo.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	payMongoCurrency     = "PHP"
	payMongoMinimumMinor = 2000
	payMongoSigHeader    = "Paymongo-Signature"
)

var defaultPaymentMethods = []string{"card", "gcash", "paymaya", "grab_pay"}

type PayMongoConfig struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string
	LiveMode      bool
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
}

type PayMongo struct {
	cfg  PayMongoConfig
	http *resty.Client
	log  *zap.SugaredLogger
}

func NewPayMongo(cfg PayMongoConfig, log *zap.SugaredLogger) *PayMongo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paymongo.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryable).
		SetBasicAuth(cfg.SecretKey, "").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &PayMongo{cfg: cfg, http: c, log: log}
}

// retryable: GET boleh diulang untuk network error, 429, dan 5xx.
// POST (checkout session, refund) tidak punya idempotency key, jadi hanya diulang
// bila request pasti belum diproses gateway: gagal dial atau 429.
func retryable(r *resty.Response, err error) bool {
	idempotent := r != nil && r.Request != nil && r.Request.Method == http.MethodGet
	if err != nil {
		return idempotent || neverSent(err)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	if code == http.StatusTooManyRequests {
		return true
	}
	return idempotent && code >= 500
}

func neverSent(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}

func (p *PayMongo) Name() string                   { return ProviderPayMongo }
func (p *PayMongo) Currency() string               { return payMongoCurrency }
func (p *PayMongo) MinimumAmount() decimal.Decimal { return FromMinor(payMongoMinimumMinor) }
func (p *PayMongo) Configured() bool               { return p.cfg.SecretKey != "" }
func (p *PayMongo) SignatureHeader() string        { return payMongoSigHeader }

/* =========================================================
   Wire types (hanya field yang dipakai; field lain diabaikan)
========================================================= */

type pmEnvelope[T any] struct {
	Data pmResource[T] `json:"data"`
}

type pmResource[T any] struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type,omitempty"`
	Attributes T      `json:"attributes"`
}

type pmLineItem struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type pmCheckoutCreateAttrs struct {
	LineItems          []pmLineItem      `json:"line_items"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	SuccessURL         string            `json:"success_url"`
	CancelURL          string            `json:"cancel_url"`
	Description        string            `json:"description,omitempty"`
	ReferenceNumber    string            `json:"reference_number,omitempty"`
	SendEmailReceipt   bool              `json:"send_email_receipt"`
	ShowDescription    bool              `json:"show_description"`
	ShowLineItems      bool              `json:"show_line_items"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type pmPaymentAttrs struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	PaidAt   *int64            `json:"paid_at"`
	Source   *pmSource         `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

type pmSource struct {
	Type string `json:"type"`
}

type pmCheckoutAttrs struct {
	CheckoutURL     string                       `json:"checkout_url"`
	Status          string                       `json:"status"`
	ReferenceNumber string                       `json:"reference_number"`
	LineItems       []pmLineItem                 `json:"line_items"`
	Payments        []pmResource[pmPaymentAttrs] `json:"payments"`
	ExpiresAt       *int64                       `json:"expires_at"`
	Metadata        map[string]string            `json:"metadata"`
}

type pmRefundCreateAttrs struct {
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes,omitempty"`
}

type pmRefundAttrs struct {
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type pmErrorBody struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

/* =========================================================
   API
========================================================= */

func (p *PayMongo) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	minor := ToMinor(req.Amount)
	if minor < payMongoMinimumMinor {
		return nil, &GatewayError{
			Code:       "parameter_below_minimum",
			HTTPStatus: http.StatusBadRequest,
			Detail:     fmt.Sprintf("amount %d below minimum %d", minor, payMongoMinimumMinor),
		}
	}

	methods := req.PaymentMethods
	if len(methods) == 0 {
		methods = defaultPaymentMethods
	}
	name := req.Description
	if name == "" {
		name = "School Fee"
	}

	body := pmEnvelope[pmCheckoutCreateAttrs]{Data: pmResource[pmCheckoutCreateAttrs]{
		Attributes: pmCheckoutCreateAttrs{
			LineItems: []pmLineItem{{
				Currency: payMongoCurrency,
				Amount:   minor,
				Name:     truncate(name, 255),
				Quantity: 1,
			}},
			PaymentMethodTypes: methods,
			SuccessURL:         req.SuccessURL,
			CancelURL:          req.CancelURL,
			Description:        truncate(req.Description, 255),
			ReferenceNumber:    req.ReferenceNumber,
			ShowDescription:    true,
			ShowLineItems:      true,
			Metadata:           req.Metadata,
		},
	}}

	var out pmEnvelope[pmCheckoutAttrs]
	if err := p.do(ctx, http.MethodPost, "/checkout_sessions", body, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" || out.Data.Attributes.CheckoutURL == "" {
		return nil, fmt.Errorf("paymongo: checkout session response tanpa id/checkout_url")
	}
	s := toCheckoutSession(out.Data)
	if s.AmountMinor == 0 {
		s.AmountMinor = minor
	}
	return s, nil
}

func (p *PayMongo) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	var out pmEnvelope[pmCheckoutAttrs]
	if err := p.do(ctx, http.MethodGet, "/checkout_sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("paymongo: checkout session response tanpa id")
	}
	return toCheckoutSession(out.Data), nil
}

func (p *PayMongo) GetPayment(ctx context.Context, id string) (*PaymentInfo, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	var out pmEnvelope[pmPaymentAttrs]
	if err := p.do(ctx, http.MethodGet, "/payments/"+id, nil, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("paymongo: payment response tanpa id")
	}
	a := out.Data.Attributes
	return &PaymentInfo{
		ID:          out.Data.ID,
		Status:      a.Status,
		AmountMinor: a.Amount,
		Currency:    a.Currency,
		PaidAt:      unixPtr(a.PaidAt),
	}, nil
}

func (p *PayMongo) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	if req.PaymentID == "" || req.AmountMinor <= 0 {
		return nil, &GatewayError{Code: "parameter_invalid", HTTPStatus: http.StatusBadRequest, Detail: "payment_id dan amount wajib"}
	}
	reason := req.Reason
	switch reason {
	case "duplicate", "fraudulent", "requested_by_customer", "others":
	default:
		reason = "others"
	}
	body := pmEnvelope[pmRefundCreateAttrs]{Data: pmResource[pmRefundCreateAttrs]{
		Attributes: pmRefundCreateAttrs{
			Amount:    req.AmountMinor,
			PaymentID: req.PaymentID,
			Reason:    reason,
			Notes:     truncate(req.Reason, 255),
		},
	}}

	var out pmEnvelope[pmRefundAttrs]
	if err := p.do(ctx, http.MethodPost, "/refunds", body, &out); err != nil {
		return nil, err
	}
	return &Refund{
		ID:          out.Data.ID,
		Status:      out.Data.Attributes.Status,
		AmountMinor: out.Data.Attributes.Amount,
	}, nil
}

func (p *PayMongo) do(ctx context.Context, method, path string, body, out any) error {
	var errBody pmErrorBody
	r := p.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errBody)
	if body != nil {
		r.SetBody(body)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		p.log.Warnw("paymongo request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("paymongo %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		ge := &GatewayError{HTTPStatus: resp.StatusCode(), Code: "unknown_error", Detail: http.StatusText(resp.StatusCode())}
		if len(errBody.Errors) == 0 {
			_ = json.Unmarshal(resp.Body(), &errBody)
		}
		if len(errBody.Errors) > 0 {
			ge.Code = errBody.Errors[0].Code
			ge.Detail = errBody.Errors[0].Detail
		}
		p.log.Warnw("paymongo error response", "method", method, "path", path, "status", ge.HTTPStatus, "code", ge.Code)
		return ge
	}
	return nil
}

func toCheckoutSession(r pmResource[pmCheckoutAttrs]) *CheckoutSession {
	a := r.Attributes
	s := &CheckoutSession{
		ID:          r.ID,
		CheckoutURL: a.CheckoutURL,
		Status:      a.Status,
		ExpiresAt:   unixPtr(a.ExpiresAt),
	}
	for _, li := range a.LineItems {
		s.AmountMinor += li.Amount * int64(max(li.Quantity, 1))
	}
	for _, pay := range a.Payments {
		s.PaymentIDs = append(s.PaymentIDs, pay.ID)
	}
	return s
}

/* =========================================================
   Webhook
========================================================= */

type pmEventAttrs struct {
	Type     string          `json:"type"`
	Livemode bool            `json:"livemode"`
	Data     json.RawMessage `json:"data"`
}

type pmEventResourceAttrs struct {
	Status          string                       `json:"status"`
	ReferenceNumber string                       `json:"reference_number"`
	Metadata        map[string]string            `json:"metadata"`
	Payments        []pmResource[pmPaymentAttrs] `json:"payments"`
	Source          *pmSource                    `json:"source"`
}

func (p *PayMongo) ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var env pmEnvelope[pmEventAttrs]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("paymongo event: %w", err)
	}
	if env.Data.Attributes.Type == "" {
		return nil, errors.New("paymongo event: type kosong")
	}

	var res pmResource[pmEventResourceAttrs]
	if len(env.Data.Attributes.Data) > 0 {
		if err := json.Unmarshal(env.Data.Attributes.Data, &res); err != nil {
			return nil, fmt.Errorf("paymongo event resource: %w", err)
		}
	}
	if res.ID == "" {
		return nil, errors.New("paymongo event: resource id kosong")
	}

	ev := &WebhookEvent{
		ID:         env.Data.ID,
		Type:       env.Data.Attributes.Type,
		Kind:       payMongoEventKind(env.Data.Attributes.Type),
		ResourceID: res.ID,
		Reference:  res.Attributes.ReferenceNumber,
		Livemode:   env.Data.Attributes.Livemode,
	}
	if ev.Reference == "" && res.Attributes.Metadata != nil {
		ev.Reference = res.Attributes.Metadata["reference_number"]
	}
	if len(res.Attributes.Payments) > 0 {
		pay := res.Attributes.Payments[0]
		ev.PaymentID = pay.ID
		if pay.Attributes.Source != nil {
			ev.Method = pay.Attributes.Source.Type
		}
	} else if res.Type == "payment" {
		ev.PaymentID = res.ID
		if res.Attributes.Source != nil {
			ev.Method = res.Attributes.Source.Type
		}
	}
	return ev, nil
}

func payMongoEventKind(t string) EventKind {
	switch t {
	case "checkout_session.payment.paid":
		return EventPaid
	case "checkout_session.expired":
		return EventExpired
	default:
		// termasuk payment.failed: satu percobaan gagal, session tetap aktif
		// dan payer boleh mencoba lagi
		return EventIgnored
	}
}

/* =========================================================
   Utils
========================================================= */

func unixPtr(v *int64) *time.Time {
	if v == nil || *v <= 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

// truncate memotong ke maksimal n byte tanpa memecah rune.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for i := n; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i]
		}
	}
	return ""
}
