// Package ledger implements the transaction engine: atomic multi-account
// balance mutations with fee assessment, currency conversion, and reliable
// event emission through the transactional outbox.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/charge"
	"github.com/walletpay/ledger-core/internal/domain/exchange"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/outbox"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

// ErrSelfTransfer is returned when sender and receiver are the same account.
var ErrSelfTransfer = errors.New("cannot transfer to the same account")

// Engine orchestrates deposits, withdrawals, transfers, and reversal
// compensation. Every balance mutation happens inside one database
// transaction: accounts are locked with FOR UPDATE in ascending account-id
// order, fees and exchange rates are resolved at commit time against the same
// transaction, and the outbox row commits with the mutation. Business
// failures roll everything back and leave a FAILED record behind.
type Engine struct {
	db              TxRunner
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	chargeRepo      charge.Repository
	rateRepo        exchange.Repository
	outboxRepo      outbox.Repository
	failureRecorder FailureRecorder
	logger          *slog.Logger
	now             func() time.Time
}

// NewEngine creates a transaction engine.
func NewEngine(
	db TxRunner,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	chargeRepo charge.Repository,
	rateRepo exchange.Repository,
	outboxRepo outbox.Repository,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		chargeRepo:      chargeRepo,
		rateRepo:        rateRepo,
		outboxRepo:      outboxRepo,
		failureRecorder: failureRecorder,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// DepositParams describes a deposit intent.
type DepositParams struct {
	AccountID      uuid.UUID
	Amount         money.Money
	Description    string
	IdempotencyKey string
	CorrelationID  string
}

// WithdrawParams describes a withdrawal intent.
type WithdrawParams struct {
	AccountID      uuid.UUID
	Amount         money.Money
	Description    string
	IdempotencyKey string
	CorrelationID  string
}

// TransferParams describes a transfer intent. The amount is denominated in
// the sender's currency; the receiver is credited the converted amount when
// the accounts hold different currencies.
type TransferParams struct {
	SenderAccountID   uuid.UUID
	ReceiverAccountID uuid.UUID
	Amount            money.Money
	Description       string
	IdempotencyKey    string
	CorrelationID     string
}

// CreateAccount provisions an active zero-balance account.
func (e *Engine) CreateAccount(ctx context.Context, ownerID uuid.UUID, currency string) (*account.Account, error) {
	acc, err := account.New(ownerID, currency)
	if err != nil {
		return nil, err
	}

	if err := e.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	e.logger.Info("Account created", "account_id", acc.ID.String(), "owner_id", ownerID.String(), "currency", currency)
	return acc, nil
}

// GetAccount retrieves an account by ID.
func (e *Engine) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return e.accountRepo.GetByID(ctx, id)
}

// GetAccountsByOwner retrieves all accounts of an owner.
func (e *Engine) GetAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	return e.accountRepo.GetByOwner(ctx, ownerID)
}

// GetTransaction retrieves a transaction record by ID.
func (e *Engine) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return e.transactionRepo.GetByID(ctx, id)
}

// GetAccountTransactions retrieves a page of an account's transaction history
// with the total count.
func (e *Engine) GetAccountTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error) {
	records, err := e.transactionRepo.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.transactionRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Deposit credits an account with the amount net of fees. The fee is taken
// from the principal: net = amount - fee.
func (e *Engine) Deposit(ctx context.Context, params DepositParams) (*transaction.Transaction, error) {
	if existing, err := e.findByIdempotencyKey(ctx, params.IdempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	record, err := transaction.New(transaction.TypeDeposit, params.Amount, params.Description)
	if err != nil {
		return nil, err
	}
	record.ReceiverAccountID = &params.AccountID
	record.IdempotencyKey = params.IdempotencyKey
	record.CorrelationID = params.CorrelationID

	execErr := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := e.accountRepo.WithTx(tx).LockForUpdate(ctx, params.AccountID)
		if err != nil {
			return err
		}
		if acc.Currency != params.Amount.Currency {
			return money.ErrCurrencyMismatch
		}

		fee, err := e.assessFee(ctx, tx, params.Amount, transaction.TypeDeposit)
		if err != nil {
			return err
		}
		net, err := params.Amount.Sub(fee)
		if err != nil {
			return err
		}
		if !net.IsPositive() {
			return transaction.ErrInvalidAmount
		}

		if err := acc.Credit(net); err != nil {
			return err
		}
		if err := e.accountRepo.WithTx(tx).Update(ctx, acc); err != nil {
			return err
		}

		record.Fee = fee
		record.NetAmount = net
		return e.finalize(ctx, tx, record)
	})

	return e.settle(ctx, record, execErr)
}

// Withdraw debits an account by the full amount. The fee is taken from the
// principal: the holder receives net = amount - fee externally.
func (e *Engine) Withdraw(ctx context.Context, params WithdrawParams) (*transaction.Transaction, error) {
	if existing, err := e.findByIdempotencyKey(ctx, params.IdempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	record, err := transaction.New(transaction.TypeWithdrawal, params.Amount, params.Description)
	if err != nil {
		return nil, err
	}
	record.SenderAccountID = &params.AccountID
	record.IdempotencyKey = params.IdempotencyKey
	record.CorrelationID = params.CorrelationID

	execErr := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := e.accountRepo.WithTx(tx).LockForUpdate(ctx, params.AccountID)
		if err != nil {
			return err
		}
		if acc.Currency != params.Amount.Currency {
			return money.ErrCurrencyMismatch
		}

		fee, err := e.assessFee(ctx, tx, params.Amount, transaction.TypeWithdrawal)
		if err != nil {
			return err
		}
		net, err := params.Amount.Sub(fee)
		if err != nil {
			return err
		}
		if !net.IsPositive() {
			return transaction.ErrInvalidAmount
		}

		if err := acc.Debit(params.Amount); err != nil {
			return err
		}
		if err := e.accountRepo.WithTx(tx).Update(ctx, acc); err != nil {
			return err
		}

		record.Fee = fee
		record.NetAmount = net
		return e.finalize(ctx, tx, record)
	})

	return e.settle(ctx, record, execErr)
}

// Transfer moves the amount between two accounts atomically. The sender pays
// the fee on top of the principal (debit = amount + fee); the receiver is
// credited the full amount, converted at commit time when currencies differ.
func (e *Engine) Transfer(ctx context.Context, params TransferParams) (*transaction.Transaction, error) {
	if existing, err := e.findByIdempotencyKey(ctx, params.IdempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	record, err := transaction.New(transaction.TypeTransfer, params.Amount, params.Description)
	if err != nil {
		return nil, err
	}
	record.SenderAccountID = &params.SenderAccountID
	record.ReceiverAccountID = &params.ReceiverAccountID
	record.IdempotencyKey = params.IdempotencyKey
	record.CorrelationID = params.CorrelationID

	if params.SenderAccountID == params.ReceiverAccountID {
		if recordErr := e.failureRecorder.RecordFailure(ctx, record, transaction.FailureSelfTransfer); recordErr != nil {
			e.logger.Error("Failed to record self-transfer failure", "transaction_id", record.ID.String(), "error", recordErr)
		}
		return record, ErrSelfTransfer
	}

	execErr := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return e.transferTx(ctx, tx, record, params)
	})

	return e.settle(ctx, record, execErr)
}

// TransferTx runs a transfer inside the caller's transaction. Used by the
// money request workflow to couple the transfer with the request's state
// transition in one unit of work. The caller owns failure recording.
func (e *Engine) TransferTx(ctx context.Context, tx pgx.Tx, params TransferParams) (*transaction.Transaction, error) {
	if params.SenderAccountID == params.ReceiverAccountID {
		return nil, ErrSelfTransfer
	}

	record, err := transaction.New(transaction.TypeTransfer, params.Amount, params.Description)
	if err != nil {
		return nil, err
	}
	record.SenderAccountID = &params.SenderAccountID
	record.ReceiverAccountID = &params.ReceiverAccountID
	record.IdempotencyKey = params.IdempotencyKey
	record.CorrelationID = params.CorrelationID

	if err := e.transferTx(ctx, tx, record, params); err != nil {
		return nil, err
	}
	return record, nil
}

func (e *Engine) transferTx(ctx context.Context, tx pgx.Tx, record *transaction.Transaction, params TransferParams) error {
	sender, receiver, err := e.lockPair(ctx, tx, params.SenderAccountID, params.ReceiverAccountID)
	if err != nil {
		return err
	}
	if sender.Currency != params.Amount.Currency {
		return money.ErrCurrencyMismatch
	}

	fee, err := e.assessFee(ctx, tx, params.Amount, transaction.TypeTransfer)
	if err != nil {
		return err
	}
	debitTotal, err := params.Amount.Add(fee)
	if err != nil {
		return err
	}

	if err := sender.Debit(debitTotal); err != nil {
		return err
	}

	credited, err := e.convert(ctx, tx, params.Amount, receiver.Currency)
	if err != nil {
		return err
	}
	if err := receiver.Credit(credited); err != nil {
		return err
	}

	accountRepoTx := e.accountRepo.WithTx(tx)
	if err := accountRepoTx.Update(ctx, sender); err != nil {
		return err
	}
	if err := accountRepoTx.Update(ctx, receiver); err != nil {
		return err
	}

	record.Fee = fee
	record.NetAmount = debitTotal
	return e.finalize(ctx, tx, record)
}

// CompensateTx applies the compensating movement for an approved reversal
// inside the caller's transaction: the original direction is inverted for the
// reversal amount. Compensating transactions carry no fee.
func (e *Engine) CompensateTx(ctx context.Context, tx pgx.Tx, rev *reversal.Reversal, original *transaction.Transaction) (*transaction.Transaction, error) {
	record, err := transaction.New(rev.CompensatingType(), rev.Amount, "Reversal of "+original.ID.String())
	if err != nil {
		return nil, err
	}
	record.SenderAccountID = original.ReceiverAccountID
	record.ReceiverAccountID = original.SenderAccountID
	record.CorrelationID = original.CorrelationID

	accountRepoTx := e.accountRepo.WithTx(tx)

	// Transfers touch both accounts; deposits and withdrawals only one.
	if original.SenderAccountID != nil && original.ReceiverAccountID != nil {
		debited, credited, err := e.lockPair(ctx, tx, *original.ReceiverAccountID, *original.SenderAccountID)
		if err != nil {
			return nil, err
		}

		debitAmount, err := e.convert(ctx, tx, rev.Amount, debited.Currency)
		if err != nil {
			return nil, err
		}
		if err := debited.Debit(debitAmount); err != nil {
			return nil, err
		}

		creditAmount, err := e.convert(ctx, tx, rev.Amount, credited.Currency)
		if err != nil {
			return nil, err
		}
		if err := credited.Credit(creditAmount); err != nil {
			return nil, err
		}

		if err := accountRepoTx.Update(ctx, debited); err != nil {
			return nil, err
		}
		if err := accountRepoTx.Update(ctx, credited); err != nil {
			return nil, err
		}
	} else if original.ReceiverAccountID != nil {
		acc, err := accountRepoTx.LockForUpdate(ctx, *original.ReceiverAccountID)
		if err != nil {
			return nil, err
		}
		debitAmount, err := e.convert(ctx, tx, rev.Amount, acc.Currency)
		if err != nil {
			return nil, err
		}
		if err := acc.Debit(debitAmount); err != nil {
			return nil, err
		}
		if err := accountRepoTx.Update(ctx, acc); err != nil {
			return nil, err
		}
	} else if original.SenderAccountID != nil {
		acc, err := accountRepoTx.LockForUpdate(ctx, *original.SenderAccountID)
		if err != nil {
			return nil, err
		}
		creditAmount, err := e.convert(ctx, tx, rev.Amount, acc.Currency)
		if err != nil {
			return nil, err
		}
		if err := acc.Credit(creditAmount); err != nil {
			return nil, err
		}
		if err := accountRepoTx.Update(ctx, acc); err != nil {
			return nil, err
		}
	} else {
		return nil, transaction.ErrMissingCounterpart
	}

	if err := e.finalize(ctx, tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// lockPair locks two accounts in ascending account-id byte order so opposing
// transfers between the same pair cannot deadlock. Results are returned as
// (first, second) matching the argument order.
func (e *Engine) lockPair(ctx context.Context, tx pgx.Tx, firstID, secondID uuid.UUID) (*account.Account, *account.Account, error) {
	repo := e.accountRepo.WithTx(tx)

	lockOrder := []uuid.UUID{firstID, secondID}
	if bytes.Compare(secondID[:], firstID[:]) < 0 {
		lockOrder[0], lockOrder[1] = secondID, firstID
	}

	locked := make(map[uuid.UUID]*account.Account, 2)
	for _, id := range lockOrder {
		acc, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = acc
	}

	return locked[firstID], locked[secondID], nil
}

// assessFee computes charge + tax for the amount at commit time, reading the
// active rules inside the transaction.
func (e *Engine) assessFee(ctx context.Context, tx pgx.Tx, amount money.Money, txType transaction.Type) (money.Money, error) {
	chargeRepoTx := e.chargeRepo.WithTx(tx)

	chargeRules, err := chargeRepoTx.GetChargeRules(ctx)
	if err != nil {
		return money.Money{}, fmt.Errorf("failed to load charge rules: %w", err)
	}
	chargeAmount, err := charge.ComputeCharge(chargeRules, amount, txType)
	if err != nil {
		return money.Money{}, err
	}

	taxRules, err := chargeRepoTx.GetTaxRules(ctx)
	if err != nil {
		return money.Money{}, fmt.Errorf("failed to load tax rules: %w", err)
	}
	taxAmount, err := charge.ComputeTax(taxRules, amount, txType, e.now())
	if err != nil {
		return money.Money{}, err
	}

	return chargeAmount.Add(taxAmount)
}

// convert resolves the conversion at commit time against the transaction.
func (e *Engine) convert(ctx context.Context, tx pgx.Tx, m money.Money, to string) (money.Money, error) {
	if m.Currency == to {
		return m, nil
	}
	resolver := exchange.NewResolver(e.rateRepo.WithTx(tx))
	return resolver.Convert(ctx, m, to, e.now())
}

// finalize completes the record and writes it together with its outbox entry.
func (e *Engine) finalize(ctx context.Context, tx pgx.Tx, record *transaction.Transaction) error {
	if err := record.MarkCompleted(e.now()); err != nil {
		return err
	}
	if err := e.transactionRepo.WithTx(tx).Create(ctx, record); err != nil {
		return err
	}

	msg, err := outbox.NewMessage(record)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return e.outboxRepo.WithTx(tx).Create(ctx, msg)
}

// settle maps the transaction outcome: success returns the completed record,
// business failures persist a FAILED record and surface the typed error, and
// infrastructure errors propagate without a record.
func (e *Engine) settle(ctx context.Context, record *transaction.Transaction, execErr error) (*transaction.Transaction, error) {
	if execErr == nil {
		e.logger.Info("Transaction completed",
			"transaction_id", record.ID.String(),
			"type", string(record.Type),
			"amount", record.Amount.String(),
			"fee", record.Fee.String(),
		)
		return record, nil
	}

	reason, business := failureReason(execErr)
	if !business {
		return nil, execErr
	}

	if recordErr := e.failureRecorder.RecordFailure(ctx, record, reason); recordErr != nil {
		e.logger.Error("Failed to record transaction failure", "transaction_id", record.ID.String(), "error", recordErr)
	}

	e.logger.Warn("Transaction failed",
		"transaction_id", record.ID.String(),
		"type", string(record.Type),
		"reason", reason,
	)
	return record, execErr
}

// findByIdempotencyKey returns the already-settled record for a repeated
// intent, or nil when the key is unset or unseen.
func (e *Engine) findByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := e.transactionRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.logger.Info("Duplicate intent, returning existing transaction",
			"transaction_id", existing.ID.String(),
			"idempotency_key", key,
		)
	}
	return existing, nil
}

// failureReason classifies an error as a recordable business failure.
func failureReason(err error) (string, bool) {
	switch {
	case errors.Is(err, account.ErrInsufficientBalance):
		return transaction.FailureInsufficientBalance, true
	case errors.Is(err, account.ErrAccountNotActive), errors.Is(err, account.ErrAccountClosed):
		return transaction.FailureAccountNotActive, true
	case errors.Is(err, account.ErrAccountNotFound{}):
		return transaction.FailureAccountNotFound, true
	case errors.Is(err, money.ErrCurrencyMismatch):
		return transaction.FailureCurrencyMismatch, true
	case errors.Is(err, exchange.ErrNoEffectiveRate{}):
		return transaction.FailureNoEffectiveRate, true
	case errors.Is(err, account.ErrInvalidAmount), errors.Is(err, transaction.ErrInvalidAmount):
		return transaction.FailureInvalidAmount, true
	}
	return "", false
}
