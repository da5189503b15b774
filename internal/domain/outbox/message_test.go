package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

func TestNewMessage(t *testing.T) {
	amount, err := money.NewFromString("40.00", "USD")
	require.NoError(t, err)
	record, err := transaction.New(transaction.TypeTransfer, amount, "rent")
	require.NoError(t, err)
	require.NoError(t, record.MarkCompleted(time.Now().UTC()))

	msg, err := NewMessage(record)
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, record.ID, msg.TransactionID)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, 0, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)
	assert.False(t, msg.CreatedAt.IsZero())

	// The payload round-trips back into the transaction record
	var decoded transaction.Transaction
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, record.ID, decoded.ID)
	assert.Equal(t, transaction.StatusCompleted, decoded.Status)
	assert.True(t, decoded.Amount.Equal(record.Amount))
}

func TestMessage_GetTransaction(t *testing.T) {
	amount, err := money.NewFromString("12.50", "EUR")
	require.NoError(t, err)
	record, err := transaction.New(transaction.TypeDeposit, amount, "")
	require.NoError(t, err)

	msg, err := NewMessage(record)
	require.NoError(t, err)

	decoded, err := msg.GetTransaction()
	require.NoError(t, err)
	assert.Equal(t, record.ID, decoded.ID)
	assert.Equal(t, transaction.TypeDeposit, decoded.Type)

	msg.Payload = json.RawMessage(`{broken`)
	_, err = msg.GetTransaction()
	assert.Error(t, err)
}

func TestMessage_IncrementAttempts(t *testing.T) {
	initialTime := time.Now().UTC().Add(-time.Hour)
	msg := &Message{
		Attempts:      1,
		LastAttemptAt: &initialTime,
	}

	msg.IncrementAttempts()

	assert.Equal(t, 2, msg.Attempts)
	require.NotNil(t, msg.LastAttemptAt)
	assert.True(t, msg.LastAttemptAt.After(initialTime))
}

func TestMessage_MarkAsProcessed(t *testing.T) {
	msg := &Message{Status: StatusPending}

	msg.MarkAsProcessed()

	assert.Equal(t, StatusProcessed, msg.Status)
	require.NotNil(t, msg.LastAttemptAt)
}

func TestMessage_MarkAsFailed(t *testing.T) {
	msg := &Message{Status: StatusPending}

	msg.MarkAsFailed()

	assert.Equal(t, StatusFailedToPublish, msg.Status)
	require.NotNil(t, msg.LastAttemptAt)
}
