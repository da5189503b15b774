package request

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.NewFromString(amount, "USD")
	require.NoError(t, err)
	return m
}

func pendingRequest(t *testing.T, expiresAt *time.Time) *MoneyRequest {
	t.Helper()
	req, err := New(uuid.New(), uuid.New(), usd(t, "25.00"), "lunch", expiresAt)
	require.NoError(t, err)
	return req
}

func TestNew(t *testing.T) {
	requesterID := uuid.New()
	recipientID := uuid.New()

	req, err := New(requesterID, recipientID, usd(t, "25.00"), "lunch", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, requesterID, req.RequesterAccountID)
	assert.Equal(t, recipientID, req.RecipientAccountID)
	assert.Nil(t, req.ExpiresAt)
	assert.Nil(t, req.TransactionID)
}

func TestNew_RejectsSelfRequest(t *testing.T) {
	accountID := uuid.New()
	_, err := New(accountID, accountID, usd(t, "25.00"), "", nil)
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestNew_RejectsNonPositiveAmount(t *testing.T) {
	_, err := New(uuid.New(), uuid.New(), money.Zero("USD"), "", nil)
	assert.ErrorIs(t, err, transaction.ErrInvalidAmount)
}

func TestIsExpired(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := pendingRequest(t, &deadline)

	assert.False(t, req.IsExpired(deadline.Add(-time.Minute)))
	assert.False(t, req.IsExpired(deadline)) // boundary is inclusive
	assert.True(t, req.IsExpired(deadline.Add(time.Second)))

	// No deadline never expires
	assert.False(t, pendingRequest(t, nil).IsExpired(time.Now().Add(100*24*time.Hour)))
}

func TestApprove(t *testing.T) {
	req := pendingRequest(t, nil)
	transferID := uuid.New()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, req.Approve(transferID, at))

	assert.Equal(t, StatusApproved, req.Status)
	require.NotNil(t, req.TransactionID)
	assert.Equal(t, transferID, *req.TransactionID)
	require.NotNil(t, req.ResolvedAt)
	assert.Equal(t, at, *req.ResolvedAt)
}

func TestApprove_AfterDeadline(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := pendingRequest(t, &deadline)

	err := req.Approve(uuid.New(), deadline.Add(time.Hour))
	assert.ErrorIs(t, err, ErrRequestExpired)
	assert.Equal(t, StatusPending, req.Status)
}

func TestResolvedStatesRejectFurtherTransitions(t *testing.T) {
	now := time.Now().UTC()

	approved := pendingRequest(t, nil)
	require.NoError(t, approved.Approve(uuid.New(), now))
	assert.ErrorIs(t, approved.Decline(now), ErrInvalidTransition)
	assert.ErrorIs(t, approved.Cancel(now), ErrInvalidTransition)

	declined := pendingRequest(t, nil)
	require.NoError(t, declined.Decline(now))
	assert.ErrorIs(t, declined.Approve(uuid.New(), now), ErrInvalidTransition)

	cancelled := pendingRequest(t, nil)
	require.NoError(t, cancelled.Cancel(now))
	assert.ErrorIs(t, cancelled.Approve(uuid.New(), now), ErrInvalidTransition)
}

func TestMarkExpired(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := pendingRequest(t, &deadline)

	// Not yet past the deadline
	assert.Error(t, req.MarkExpired(deadline))

	require.NoError(t, req.MarkExpired(deadline.Add(time.Minute)))
	assert.Equal(t, StatusExpired, req.Status)
	assert.NotNil(t, req.ResolvedAt)

	// EXPIRED is terminal
	assert.ErrorIs(t, req.Approve(uuid.New(), deadline), ErrInvalidTransition)
	assert.ErrorIs(t, req.MarkExpired(deadline.Add(time.Hour)), ErrInvalidTransition)
}
