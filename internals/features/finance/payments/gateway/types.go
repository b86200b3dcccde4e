// file: internals/features/finance/payments/gateway/types.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProviderPayMongo = "paymongo"
	ProviderMidtrans = "midtrans"
)

// Provider = kontrak satu payment gateway.
type Provider interface {
	Name() string
	Currency() string
	MinimumAmount() decimal.Decimal
	// Configured=false → checkout harus 503 sebelum ada network call.
	Configured() bool

	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetPayment(ctx context.Context, id string) (*PaymentInfo, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error)

	SignatureHeader() string
	VerifyWebhookSignature(rawBody []byte, header string) bool
	ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error)
}

type CheckoutRequest struct {
	ReferenceNumber string
	Description     string
	PayerName       string
	Amount          decimal.Decimal // major units
	PaymentMethods  []string
	SuccessURL      string
	CancelURL       string
	Metadata        map[string]string
}

type CheckoutSession struct {
	ID          string
	CheckoutURL string
	Status      string
	AmountMinor int64
	ExpiresAt   *time.Time
	PaymentIDs  []string
}

type PaymentInfo struct {
	ID          string
	Status      string
	AmountMinor int64
	Currency    string
	PaidAt      *time.Time
}

type RefundRequest struct {
	PaymentID   string
	AmountMinor int64
	Reason      string
}

type Refund struct {
	ID          string
	Status      string
	AmountMinor int64
}

type EventKind string

const (
	EventPaid    EventKind = "paid"
	EventFailed  EventKind = "failed"
	EventExpired EventKind = "expired"
	EventIgnored EventKind = "ignored"
)

type WebhookEvent struct {
	ID         string
	Type       string
	Kind       EventKind
	ResourceID string // dicocokkan ke gateway_transactions.external_id
	Reference  string // reference_number dari metadata (fallback lookup)
	PaymentID  string // id payment gateway (untuk refund)
	Method     string
	Livemode   bool
}

// GatewayError: error terstruktur pertama dari response gateway.
type GatewayError struct {
	Code       string
	HTTPStatus int
	Detail     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d %s: %s", e.HTTPStatus, e.Code, e.Detail)
}

// ErrNotConfigured dikembalikan sebelum network call bila kredensial kosong.
var ErrNotConfigured = errors.New("payment gateway belum dikonfigurasi")
