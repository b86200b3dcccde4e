// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolpay_backend/internals/features/finance/payments/model"
	"schoolpay_backend/internals/features/finance/payments/service"
)

/* =========================================================
   REQUEST DTOs
   amount dari client hanya dipakai untuk payment_type=custom
========================================================= */

type CheckoutRequest struct {
	StudentFeeAccountID uuid.UUID        `json:"student_fee_account_id" validate:"required"`
	PaymentType         string           `json:"payment_type" validate:"required,oneof=full schedule custom"`
	PaymentScheduleID   *uuid.UUID       `json:"payment_schedule_id,omitempty" validate:"required_if=PaymentType schedule"`
	CustomAmount        *decimal.Decimal `json:"custom_amount,omitempty"`
	PaymentMethods      []string         `json:"payment_methods,omitempty" validate:"omitempty,max=10,dive,required,max=32"`
}

func (r *CheckoutRequest) Normalize() {
	r.PaymentType = strings.ToLower(strings.TrimSpace(r.PaymentType))
	out := r.PaymentMethods[:0]
	for _, m := range r.PaymentMethods {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			out = append(out, m)
		}
	}
	r.PaymentMethods = out
}

func (r *CheckoutRequest) ToInput() service.CheckoutInput {
	return service.CheckoutInput{
		FeeAccountID:   r.StudentFeeAccountID,
		PaymentType:    model.PaymentType(r.PaymentType),
		ScheduleID:     r.PaymentScheduleID,
		CustomAmount:   r.CustomAmount,
		PaymentMethods: r.PaymentMethods,
	}
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason" validate:"required,oneof=duplicate fraudulent requested_by_customer others"`
}

/* =========================================================
   RESPONSE
========================================================= */

type WebhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

func FromWebhookResult(r *service.WebhookResult) WebhookAck {
	return WebhookAck{Received: true, Outcome: string(r.Outcome)}
}
