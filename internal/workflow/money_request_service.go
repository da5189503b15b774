package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// TransferEngine runs a transfer inside the workflow's transaction.
type TransferEngine interface {
	TransferTx(ctx context.Context, tx pgx.Tx, params ledger.TransferParams) (*transaction.Transaction, error)
}

// MoneyRequestService drives the money request lifecycle. Approval executes
// the underlying transfer and the status transition as a single unit of work,
// so an engine failure (e.g. insufficient balance) leaves the request
// PENDING.
type MoneyRequestService struct {
	db          ledger.TxRunner
	requestRepo request.Repository
	accountRepo account.Repository
	engine      TransferEngine
	logger      *slog.Logger
	now         func() time.Time
}

// NewMoneyRequestService creates a money request workflow service.
func NewMoneyRequestService(
	db ledger.TxRunner,
	requestRepo request.Repository,
	accountRepo account.Repository,
	engine TransferEngine,
	logger *slog.Logger,
) *MoneyRequestService {
	return &MoneyRequestService{
		db:          db,
		requestRepo: requestRepo,
		accountRepo: accountRepo,
		engine:      engine,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateMoneyRequest opens a PENDING request asking the recipient to pay the
// requester. Both accounts must exist.
func (s *MoneyRequestService) CreateMoneyRequest(ctx context.Context, requesterAccountID, recipientAccountID uuid.UUID, amount money.Money, message string, expiresAt *time.Time) (*request.MoneyRequest, error) {
	if _, err := s.accountRepo.GetByID(ctx, requesterAccountID); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.GetByID(ctx, recipientAccountID); err != nil {
		return nil, err
	}

	req, err := request.New(requesterAccountID, recipientAccountID, amount, message, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Money request created",
		"request_id", req.ID.String(),
		"requester_account_id", requesterAccountID.String(),
		"recipient_account_id", recipientAccountID.String(),
		"amount", amount.String(),
	)
	return req, nil
}

// GetMoneyRequest retrieves a money request by ID.
func (s *MoneyRequestService) GetMoneyRequest(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// GetPendingRequests retrieves pending requests addressed to an account.
func (s *MoneyRequestService) GetPendingRequests(ctx context.Context, recipientAccountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error) {
	return s.requestRepo.GetPendingByRecipient(ctx, recipientAccountID, limit, offset)
}

// ApproveMoneyRequest settles a request: the recipient's account is debited
// and the requester's credited through the engine, then the request flips to
// APPROVED. A rollback leaves the request PENDING and both balances intact.
func (s *MoneyRequestService) ApproveMoneyRequest(ctx context.Context, requestID uuid.UUID) (*transaction.Transaction, error) {
	var settled *transaction.Transaction
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.requestRepo.WithTx(tx)
		req, err := repoTx.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.IsExpired(s.now()) {
			return request.ErrRequestExpired
		}

		settled, err = s.engine.TransferTx(ctx, tx, ledger.TransferParams{
			SenderAccountID:   req.RecipientAccountID,
			ReceiverAccountID: req.RequesterAccountID,
			Amount:            req.Amount,
			Description:       "Money request " + req.ID.String(),
		})
		if err != nil {
			return err
		}

		if err := req.Approve(settled.ID, s.now()); err != nil {
			return err
		}
		return repoTx.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Money request approved",
		"request_id", requestID.String(),
		"transaction_id", settled.ID.String(),
	)
	return settled, nil
}

// DeclineMoneyRequest transitions PENDING -> DECLINED on behalf of the
// recipient.
func (s *MoneyRequestService) DeclineMoneyRequest(ctx context.Context, requestID uuid.UUID) (*request.MoneyRequest, error) {
	var req *request.MoneyRequest
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.requestRepo.WithTx(tx)
		locked, err := repoTx.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := locked.Decline(s.now()); err != nil {
			return err
		}
		req = locked
		return repoTx.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CancelMoneyRequest transitions PENDING -> CANCELLED on behalf of the
// requester.
func (s *MoneyRequestService) CancelMoneyRequest(ctx context.Context, requestID uuid.UUID) (*request.MoneyRequest, error) {
	var req *request.MoneyRequest
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := s.requestRepo.WithTx(tx)
		locked, err := repoTx.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := locked.Cancel(s.now()); err != nil {
			return err
		}
		req = locked
		return repoTx.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}
