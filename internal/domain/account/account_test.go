package account

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/ledger-core/internal/domain/money"
)

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.NewFromString(amount, "USD")
	require.NoError(t, err)
	return m
}

func activeAccount(t *testing.T, balance string) *Account {
	t.Helper()
	acc, err := New(uuid.New(), "USD")
	require.NoError(t, err)
	if balance != "0" {
		require.NoError(t, acc.Credit(usd(t, balance)))
	}
	return acc
}

func TestNew(t *testing.T) {
	ownerID := uuid.New()
	acc, err := New(ownerID, "USD")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, acc.ID)
	assert.Equal(t, ownerID, acc.OwnerID)
	assert.Equal(t, StatusActive, acc.Status)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, "USD", acc.Currency)
	assert.Equal(t, 1, acc.Version)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(uuid.Nil, "USD")
	assert.ErrorIs(t, err, ErrEmptyOwner)

	_, err = New(uuid.New(), "DOLLAR")
	assert.ErrorIs(t, err, money.ErrInvalidCurrencyFormat)
}

func TestCredit(t *testing.T) {
	acc := activeAccount(t, "0")
	prevVersion := acc.Version

	err := acc.Credit(usd(t, "50.00"))
	require.NoError(t, err)

	assert.Equal(t, "50.00 USD", acc.Balance.String())
	assert.Equal(t, prevVersion+1, acc.Version)
}

func TestCredit_RejectsNonPositive(t *testing.T) {
	acc := activeAccount(t, "10.00")

	err := acc.Credit(money.Zero("USD"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	neg, _ := money.NewFromString("-5.00", "USD")
	err = acc.Credit(neg)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, "10.00 USD", acc.Balance.String())
}

func TestCredit_CurrencyMismatch(t *testing.T) {
	acc := activeAccount(t, "10.00")

	eur, err := money.NewFromString("5.00", "EUR")
	require.NoError(t, err)

	err = acc.Credit(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
	assert.Equal(t, "10.00 USD", acc.Balance.String())
}

func TestDebit(t *testing.T) {
	acc := activeAccount(t, "100.00")

	err := acc.Debit(usd(t, "40.40"))
	require.NoError(t, err)
	assert.Equal(t, "59.60 USD", acc.Balance.String())
}

func TestDebit_ExactBalance(t *testing.T) {
	acc := activeAccount(t, "25.00")

	err := acc.Debit(usd(t, "25.00"))
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestDebit_InsufficientBalance(t *testing.T) {
	acc := activeAccount(t, "10.00")
	prevVersion := acc.Version

	err := acc.Debit(usd(t, "20.00"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Balance and version untouched on rejection
	assert.Equal(t, "10.00 USD", acc.Balance.String())
	assert.Equal(t, prevVersion, acc.Version)
}

func TestDebit_SuspendedAccount(t *testing.T) {
	acc := activeAccount(t, "100.00")
	require.NoError(t, acc.Suspend())

	err := acc.Debit(usd(t, "10.00"))
	assert.ErrorIs(t, err, ErrAccountNotActive)

	err = acc.Credit(usd(t, "10.00"))
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestCanDebit(t *testing.T) {
	acc := activeAccount(t, "50.00")

	assert.True(t, acc.CanDebit(usd(t, "50.00")))
	assert.True(t, acc.CanDebit(usd(t, "10.00")))
	assert.False(t, acc.CanDebit(usd(t, "50.01")))
}

func TestSuspendAndClose(t *testing.T) {
	acc := activeAccount(t, "0")

	require.NoError(t, acc.Suspend())
	assert.Equal(t, StatusSuspended, acc.Status)

	require.NoError(t, acc.Close())
	assert.Equal(t, StatusClosed, acc.Status)

	// Closed is terminal
	assert.ErrorIs(t, acc.Suspend(), ErrAccountClosed)
	assert.ErrorIs(t, acc.Close(), ErrAccountClosed)
}
