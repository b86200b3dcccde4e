// file: internals/features/finance/payments/model/gateway_transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

/*
  gateway_transactions = cermin lokal satu checkout session
  - external_id disimpan byte-for-byte dari gateway (join key webhook)
  - processed false→true tepat sekali (conditional update)
  - amount/status tidak berubah setelah processed
*/

type GatewayTransactionModel struct {
	GatewayTransactionID uuid.UUID `gorm:"column:gateway_transaction_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_transaction_id"`

	GatewayTransactionGateway           string `gorm:"column:gateway_transaction_gateway;type:varchar(32);not null" json:"gateway_transaction_gateway"`
	GatewayTransactionExternalID        string `gorm:"column:gateway_transaction_external_id;not null;uniqueIndex" json:"gateway_transaction_external_id"`
	GatewayTransactionCheckoutSessionID string `gorm:"column:gateway_transaction_checkout_session_id;not null" json:"gateway_transaction_checkout_session_id"`
	GatewayTransactionCheckoutURL       string `gorm:"column:gateway_transaction_checkout_url;not null;default:''" json:"gateway_transaction_checkout_url"`
	GatewayTransactionReferenceNumber   string `gorm:"column:gateway_transaction_reference_number;not null" json:"gateway_transaction_reference_number"`

	GatewayTransactionFeeAccountID uuid.UUID      `gorm:"column:gateway_transaction_fee_account_id;type:uuid;not null" json:"gateway_transaction_fee_account_id"`
	GatewayTransactionScheduleID   *uuid.UUID     `gorm:"column:gateway_transaction_schedule_id;type:uuid" json:"gateway_transaction_schedule_id"`
	GatewayTransactionPaymentType  PaymentType    `gorm:"column:gateway_transaction_payment_type;type:varchar(16);not null" json:"gateway_transaction_payment_type"`
	GatewayTransactionMethods      pq.StringArray `gorm:"column:gateway_transaction_payment_methods;type:text[]" json:"gateway_transaction_payment_methods"`

	GatewayTransactionAmount   decimal.Decimal   `gorm:"column:gateway_transaction_amount;type:numeric(14,2);not null" json:"gateway_transaction_amount"`
	GatewayTransactionCurrency string            `gorm:"column:gateway_transaction_currency;type:varchar(3);not null" json:"gateway_transaction_currency"`
	GatewayTransactionStatus   TransactionStatus `gorm:"column:gateway_transaction_status;type:varchar(24);not null;default:'awaiting_payment'" json:"gateway_transaction_status"`

	GatewayTransactionProcessed   bool       `gorm:"column:gateway_transaction_processed;not null;default:false" json:"gateway_transaction_processed"`
	GatewayTransactionProcessedAt *time.Time `gorm:"column:gateway_transaction_processed_at" json:"gateway_transaction_processed_at"`
	GatewayTransactionExpiresAt   time.Time  `gorm:"column:gateway_transaction_expires_at;not null" json:"gateway_transaction_expires_at"`

	// payment id gateway (dipakai refund), diisi saat webhook paid
	GatewayTransactionGatewayPaymentID *string        `gorm:"column:gateway_transaction_gateway_payment_id" json:"gateway_transaction_gateway_payment_id"`
	GatewayTransactionMetadata         datatypes.JSON `gorm:"column:gateway_transaction_metadata;type:jsonb" json:"gateway_transaction_metadata"`

	GatewayTransactionCreatedAt time.Time `gorm:"column:gateway_transaction_created_at;not null;default:now();autoCreateTime" json:"gateway_transaction_created_at"`
	GatewayTransactionUpdatedAt time.Time `gorm:"column:gateway_transaction_updated_at;not null;default:now();autoUpdateTime" json:"gateway_transaction_updated_at"`
}

func (GatewayTransactionModel) TableName() string { return "gateway_transactions" }
