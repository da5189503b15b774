package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/walletpay/ledger-core/internal/domain/account"
	"github.com/walletpay/ledger-core/internal/domain/exchange"
	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/request"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
	"github.com/walletpay/ledger-core/internal/ledger"
)

// respondDomainError maps typed domain errors onto HTTP statuses and stable
// error codes. Anything unclassified is a 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, reversal.ErrReversalNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, request.ErrRequestNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, account.ErrInsufficientBalance):
		RespondUnprocessable(c, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, account.ErrAccountNotActive), errors.Is(err, account.ErrAccountClosed):
		RespondUnprocessable(c, "ACCOUNT_NOT_ACTIVE", err.Error())
	case errors.Is(err, money.ErrCurrencyMismatch):
		RespondUnprocessable(c, "CURRENCY_MISMATCH", err.Error())
	case errors.Is(err, exchange.ErrNoEffectiveRate{}):
		RespondUnprocessable(c, "NO_EFFECTIVE_RATE", err.Error())
	case errors.Is(err, ledger.ErrSelfTransfer), errors.Is(err, request.ErrSelfRequest):
		RespondUnprocessable(c, "SELF_TRANSFER_NOT_ALLOWED", err.Error())
	case errors.Is(err, reversal.ErrInvalidReversalTarget):
		RespondUnprocessable(c, "INVALID_REVERSAL_TARGET", err.Error())
	case errors.Is(err, reversal.ErrAmountExceedsOriginal):
		RespondUnprocessable(c, "AMOUNT_EXCEEDS_ORIGINAL", err.Error())
	case errors.Is(err, reversal.ErrPartialRefund):
		RespondUnprocessable(c, "REFUND_NOT_FULL_AMOUNT", err.Error())
	case errors.Is(err, reversal.ErrNotApproved):
		RespondUnprocessable(c, "REVERSAL_NOT_APPROVED", err.Error())
	case errors.Is(err, request.ErrRequestExpired):
		RespondUnprocessable(c, "REQUEST_EXPIRED", err.Error())

	case errors.Is(err, reversal.ErrDuplicateReversal):
		RespondConflict(c, err.Error())
	case errors.Is(err, account.ErrConcurrentModification{}):
		RespondConflict(c, err.Error())

	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidCurrencyFormat),
		errors.Is(err, account.ErrEmptyOwner),
		errors.Is(err, reversal.ErrInvalidTransition),
		errors.Is(err, request.ErrInvalidTransition),
		errors.Is(err, transaction.ErrInvalidTransition):
		RespondBadRequest(c, err.Error())

	default:
		RespondInternalError(c)
	}
}
