package workflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func usd(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.NewFromString(amount, "USD")
	require.NoError(t, err)
	return m
}

// fakeTxRunner runs the body and restores store snapshots on error, mirroring
// transaction rollback.
type fakeTxRunner struct {
	mu        sync.Mutex
	reversals *fakeReversalRepo
	requests  *fakeRequestRepo
}

func (r *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var revSnap map[uuid.UUID]*reversal.Reversal
	var reqSnap map[uuid.UUID]*request.MoneyRequest
	if r.reversals != nil {
		revSnap = r.reversals.snapshot()
	}
	if r.requests != nil {
		reqSnap = r.requests.snapshot()
	}

	if err := fn(nil); err != nil {
		if r.reversals != nil {
			r.reversals.restore(revSnap)
		}
		if r.requests != nil {
			r.requests.restore(reqSnap)
		}
		return err
	}
	return nil
}

type fakeReversalRepo struct {
	mu        sync.Mutex
	reversals map[uuid.UUID]*reversal.Reversal
}

func newFakeReversalRepo() *fakeReversalRepo {
	return &fakeReversalRepo{reversals: make(map[uuid.UUID]*reversal.Reversal)}
}

func (r *fakeReversalRepo) snapshot() map[uuid.UUID]*reversal.Reversal {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*reversal.Reversal, len(r.reversals))
	for id, rev := range r.reversals {
		cp := *rev
		snap[id] = &cp
	}
	return snap
}

func (r *fakeReversalRepo) restore(snap map[uuid.UUID]*reversal.Reversal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reversals = snap
}

func (r *fakeReversalRepo) Create(ctx context.Context, rev *reversal.Reversal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reversals {
		if existing.TransactionID == rev.TransactionID && existing.IsActive() {
			return reversal.ErrDuplicateReversal
		}
	}
	cp := *rev
	r.reversals[rev.ID] = &cp
	return nil
}

func (r *fakeReversalRepo) GetByID(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reversals[id]
	if !ok {
		return nil, reversal.ErrReversalNotFound{ReversalID: id}
	}
	cp := *rev
	return &cp, nil
}

func (r *fakeReversalRepo) GetActiveByTransactionID(ctx context.Context, transactionID uuid.UUID) (*reversal.Reversal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.reversals {
		if rev.TransactionID == transactionID && rev.IsActive() {
			cp := *rev
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeReversalRepo) Update(ctx context.Context, rev *reversal.Reversal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reversals[rev.ID]; !ok {
		return reversal.ErrReversalNotFound{ReversalID: rev.ID}
	}
	cp := *rev
	r.reversals[rev.ID] = &cp
	return nil
}

func (r *fakeReversalRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeReversalRepo) WithTx(tx pgx.Tx) reversal.Repository { return r }

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*request.MoneyRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*request.MoneyRequest)}
}

func (r *fakeRequestRepo) snapshot() map[uuid.UUID]*request.MoneyRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*request.MoneyRequest, len(r.requests))
	for id, req := range r.requests {
		cp := *req
		snap[id] = &cp
	}
	return snap
}

func (r *fakeRequestRepo) restore(snap map[uuid.UUID]*request.MoneyRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = snap
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *request.MoneyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, request.ErrRequestNotFound{RequestID: id}
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) GetPendingByRecipient(ctx context.Context, recipientAccountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*request.MoneyRequest
	for _, req := range r.requests {
		if req.RecipientAccountID == recipientAccountID && req.Status == request.StatusPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*request.MoneyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*request.MoneyRequest
	for _, req := range r.requests {
		if req.Status == request.StatusPending && req.IsExpired(before) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, req *request.MoneyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return request.ErrRequestNotFound{RequestID: req.ID}
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRequestRepo) WithTx(tx pgx.Tx) request.Repository { return r }

type fakeWorkflowTransactionRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*transaction.Transaction
}

func newFakeWorkflowTransactionRepo() *fakeWorkflowTransactionRepo {
	return &fakeWorkflowTransactionRepo{records: make(map[uuid.UUID]*transaction.Transaction)}
}

func (r *fakeWorkflowTransactionRepo) Create(ctx context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.records[tx.ID] = &cp
	return nil
}

func (r *fakeWorkflowTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound{TransactionID: id}
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeWorkflowTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeWorkflowTransactionRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeWorkflowTransactionRepo) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *fakeWorkflowTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}
	rec.Status = status
	if reason != "" {
		rec.FailureReason = reason
	}
	return nil
}

func (r *fakeWorkflowTransactionRepo) WithTx(tx pgx.Tx) transaction.Repository { return r }

type fakeWorkflowAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func newFakeWorkflowAccountRepo() *fakeWorkflowAccountRepo {
	return &fakeWorkflowAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
}

func (r *fakeWorkflowAccountRepo) add(acc *account.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *acc
	r.accounts[acc.ID] = &cp
}

func (r *fakeWorkflowAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	r.add(acc)
	return nil
}

func (r *fakeWorkflowAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeWorkflowAccountRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	return nil, nil
}

func (r *fakeWorkflowAccountRepo) Update(ctx context.Context, acc *account.Account) error {
	r.add(acc)
	return nil
}

func (r *fakeWorkflowAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWorkflowAccountRepo) WithTx(tx pgx.Tx) account.Repository { return r }

// fakeCompensatingEngine records the compensation call and serves a canned
// result.
type fakeCompensatingEngine struct {
	compensated *transaction.Transaction
	err         error
	calls       int
}

func (e *fakeCompensatingEngine) CompensateTx(ctx context.Context, tx pgx.Tx, rev *reversal.Reversal, original *transaction.Transaction) (*transaction.Transaction, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.compensated, nil
}

// fakeTransferEngine records the transfer call and serves a canned result.
type fakeTransferEngine struct {
	settled *transaction.Transaction
	err     error
	params  ledger.TransferParams
	calls   int
}

func (e *fakeTransferEngine) TransferTx(ctx context.Context, tx pgx.Tx, params ledger.TransferParams) (*transaction.Transaction, error) {
	e.calls++
	e.params = params
	if e.err != nil {
		return nil, e.err
	}
	return e.settled, nil
}

func completedTransfer(t *testing.T, amount string) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New(transaction.TypeTransfer, usd(t, amount), "original")
	require.NoError(t, err)
	senderID := uuid.New()
	receiverID := uuid.New()
	tx.SenderAccountID = &senderID
	tx.ReceiverAccountID = &receiverID
	require.NoError(t, tx.MarkCompleted(time.Now().UTC()))
	return tx
}
