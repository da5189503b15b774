package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// LedgerService is the engine surface the account and transaction handlers
// depend on
type LedgerService interface {
	CreateAccount(ctx context.Context, ownerID uuid.UUID, currency string) (*account.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	GetAccountTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error)
	Deposit(ctx context.Context, params ledger.DepositParams) (*transaction.Transaction, error)
	Withdraw(ctx context.Context, params ledger.WithdrawParams) (*transaction.Transaction, error)
	Transfer(ctx context.Context, params ledger.TransferParams) (*transaction.Transaction, error)
}

// ReversalWorkflow is the reversal service surface used by the reversal
// handler
type ReversalWorkflow interface {
	RequestReversal(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error)
	RequestRefund(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error)
	GetReversal(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error)
	ApproveReversal(ctx context.Context, id, adminID uuid.UUID, notes string) (*reversal.Reversal, error)
	RejectReversal(ctx context.Context, id, adminID uuid.UUID, notes string) (*reversal.Reversal, error)
	CancelReversal(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error)
	ProcessReversal(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
}

// MoneyRequestWorkflow is the money request service surface used by the
// money request handler
type MoneyRequestWorkflow interface {
	CreateMoneyRequest(ctx context.Context, requesterID, recipientID uuid.UUID, amount money.Money, message string, expiresAt *time.Time) (*request.MoneyRequest, error)
	GetMoneyRequest(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error)
	GetPendingRequests(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error)
	ApproveMoneyRequest(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	DeclineMoneyRequest(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error)
	CancelMoneyRequest(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error)
}
