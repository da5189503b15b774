package account

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/money"
)

// Common errors
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrAccountClosed       = errors.New("account is closed")
	ErrEmptyOwner          = errors.New("owner id cannot be empty")
)

// Status defines the lifecycle states of a wallet account.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusClosed    Status = "CLOSED"
)

// Account is a wallet account holding a single-currency balance.
// The balance is mutated only through Credit and Debit; it never goes
// negative.
type Account struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Balance   money.Money `json:"balance"`
	Currency  string      `json:"currency"`
	Status    Status      `json:"status"`
	Version   int         `json:"version"` // For optimistic locking
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// New provisions an active account with a zero balance in the given currency.
func New(ownerID uuid.UUID, currency string) (*Account, error) {
	if ownerID == uuid.Nil {
		return nil, ErrEmptyOwner
	}
	if len(currency) != 3 {
		return nil, money.ErrInvalidCurrencyFormat
	}

	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   money.Zero(currency),
		Currency:  currency,
		Status:    StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AssertActive fails unless the account is ACTIVE. Every mutating operation
// must call this before touching the balance.
func (a *Account) AssertActive() error {
	if a.Status != StatusActive {
		return ErrAccountNotActive
	}
	return nil
}

// Credit adds the given amount to the balance.
func (a *Account) Credit(amount money.Money) error {
	if err := a.AssertActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	newBalance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}

	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	a.Version++
	return nil
}

// Debit subtracts the given amount from the balance. The balance invariant
// (balance >= 0) is enforced here, at the boundary of every debit.
func (a *Account) Debit(amount money.Money) error {
	if err := a.AssertActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	cmp, err := a.Balance.Cmp(amount)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return ErrInsufficientBalance
	}

	newBalance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}

	a.Balance = newBalance
	a.UpdatedAt = time.Now().UTC()
	a.Version++
	return nil
}

// CanDebit checks whether the balance covers the given amount.
func (a *Account) CanDebit(amount money.Money) bool {
	cmp, err := a.Balance.Cmp(amount)
	return err == nil && cmp >= 0
}

// Suspend blocks further mutation until the account is reactivated.
func (a *Account) Suspend() error {
	if a.Status == StatusClosed {
		return ErrAccountClosed
	}
	a.Status = StatusSuspended
	a.UpdatedAt = time.Now().UTC()
	a.Version++
	return nil
}

// Close permanently closes the account. Closed accounts reject all further
// mutation.
func (a *Account) Close() error {
	if a.Status == StatusClosed {
		return ErrAccountClosed
	}
	a.Status = StatusClosed
	a.UpdatedAt = time.Now().UTC()
	a.Version++
	return nil
}
