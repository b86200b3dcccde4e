// file: internals/features/finance/payments/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment hanya dibuat oleh webhook processor saat pembayaran terkonfirmasi.
type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`

	PaymentFeeAccountID         uuid.UUID  `gorm:"column:payment_fee_account_id;type:uuid;not null" json:"payment_fee_account_id"`
	PaymentGatewayTransactionID uuid.UUID  `gorm:"column:payment_gateway_transaction_id;type:uuid;not null;uniqueIndex" json:"payment_gateway_transaction_id"`
	PaymentScheduleID           *uuid.UUID `gorm:"column:payment_schedule_id;type:uuid" json:"payment_schedule_id"`

	PaymentAmount        decimal.Decimal `gorm:"column:payment_amount;type:numeric(14,2);not null" json:"payment_amount"`
	PaymentReceiptNumber string          `gorm:"column:payment_receipt_number;not null" json:"payment_receipt_number"`
	PaymentStatus        PaymentStatus   `gorm:"column:payment_status;type:varchar(16);not null;default:'completed'" json:"payment_status"`
	PaymentMethod        string          `gorm:"column:payment_method;type:varchar(32);not null;default:'gateway'" json:"payment_method"`
	PaymentDate          time.Time       `gorm:"column:payment_date;not null" json:"payment_date"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;not null;default:now();autoCreateTime" json:"payment_created_at"`
}

func (PaymentModel) TableName() string { return "payments" }
