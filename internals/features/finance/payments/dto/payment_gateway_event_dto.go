package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolpay_backend/internals/features/finance/payments/model"
)

/* =========================================================
   RESPONSE (read-only; event hanya ditulis webhook processor)
========================================================= */

type PaymentGatewayEventResponse struct {
	GatewayEventID            uuid.UUID  `json:"gateway_event_id"`
	GatewayEventTransactionID *uuid.UUID `json:"gateway_event_transaction_id,omitempty"`
	GatewayEventProvider      string     `json:"gateway_event_provider"`
	GatewayEventExternalID    string     `json:"gateway_event_external_id"`
	GatewayEventType          string     `json:"gateway_event_type"`
	GatewayEventResourceID    string     `json:"gateway_event_resource_id"`
	GatewayEventStatus        string     `json:"gateway_event_status"`
	GatewayEventError         *string    `json:"gateway_event_error,omitempty"`
	GatewayEventReceivedAt    time.Time  `json:"gateway_event_received_at"`
}

func FromModelPGW(m *model.PaymentGatewayEventModel) *PaymentGatewayEventResponse {
	if m == nil {
		return nil
	}
	return &PaymentGatewayEventResponse{
		GatewayEventID:            m.GatewayEventID,
		GatewayEventTransactionID: m.GatewayEventTransactionID,
		GatewayEventProvider:      m.GatewayEventProvider,
		GatewayEventExternalID:    m.GatewayEventExternalID,
		GatewayEventType:          m.GatewayEventType,
		GatewayEventResourceID:    m.GatewayEventResourceID,
		GatewayEventStatus:        string(m.GatewayEventStatus),
		GatewayEventError:         m.GatewayEventError,
		GatewayEventReceivedAt:    m.GatewayEventReceivedAt,
	}
}
