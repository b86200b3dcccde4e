package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpay_backend/internals/features/finance/audit_logs/model"
)

func TestNewEntry_MarshalsSnapshot(t *testing.T) {
	id := uuid.New()
	e := NewEntry(model.ActionPaymentCompleted, "payment", &id, "paid", Snapshot{"amount": "5000.00"})

	assert.NotEqual(t, uuid.Nil, e.AuditLogID)
	assert.Equal(t, "payment.completed", e.AuditLogAction)
	require.NotNil(t, e.AuditLogEntityID)
	assert.Equal(t, id, *e.AuditLogEntityID)

	var got map[string]any
	require.NoError(t, json.Unmarshal(e.AuditLogSnapshot, &got))
	assert.Equal(t, "5000.00", got["amount"])
}

func TestNewEntry_NilSnapshot(t *testing.T) {
	e := NewEntry(model.ActionCheckoutCreated, "gateway_transaction", nil, "", nil)
	assert.Nil(t, e.AuditLogSnapshot)
	assert.False(t, e.AuditLogCreatedAt.IsZero())
}
