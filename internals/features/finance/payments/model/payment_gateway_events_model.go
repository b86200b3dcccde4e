// file: internals/features/finance/payments/model/payment_gateway_events_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

/*
  payment_gateway_events = jejak webhook yang LOLOS verifikasi signature
  - satu row per delivery; duplikat tetap dicatat (status=duplicate)
  - raw payload TIDAK disimpan
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`

	GatewayEventTransactionID *uuid.UUID `gorm:"column:gateway_event_transaction_id;type:uuid" json:"gateway_event_transaction_id"`

	GatewayEventProvider   string `gorm:"column:gateway_event_provider;type:varchar(32);not null" json:"gateway_event_provider"`
	GatewayEventExternalID string `gorm:"column:gateway_event_external_id;not null;default:''" json:"gateway_event_external_id"`
	GatewayEventType       string `gorm:"column:gateway_event_type;not null;default:''" json:"gateway_event_type"`
	GatewayEventResourceID string `gorm:"column:gateway_event_resource_id;not null;default:''" json:"gateway_event_resource_id"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(16);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error"`

	GatewayEventReceivedAt time.Time `gorm:"column:gateway_event_received_at;not null;default:now()" json:"gateway_event_received_at"`
}

func (PaymentGatewayEventModel) TableName() string { return "payment_gateway_events" }
