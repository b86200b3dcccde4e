package model

type TransactionStatus string
type PaymentStatus string
type GatewayEventStatus string

const (
	TxAwaitingPayment TransactionStatus = "awaiting_payment"
	TxPaid            TransactionStatus = "paid"
	TxFailed          TransactionStatus = "failed"
	TxExpired         TransactionStatus = "expired"
)

func (s TransactionStatus) Terminal() bool {
	return s == TxPaid || s == TxFailed || s == TxExpired
}

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

type PaymentType string

const (
	PaymentTypeFull     PaymentType = "full"
	PaymentTypeSchedule PaymentType = "schedule"
	PaymentTypeCustom   PaymentType = "custom"
)

// status processing di payment_gateway_events
const (
	GatewayEventReceived     GatewayEventStatus = "received"
	GatewayEventProcessed    GatewayEventStatus = "processed"
	GatewayEventDuplicate    GatewayEventStatus = "duplicate"
	GatewayEventUnrecognized GatewayEventStatus = "unrecognized"
	GatewayEventIgnored      GatewayEventStatus = "ignored"
	GatewayEventFailed       GatewayEventStatus = "failed"
)
