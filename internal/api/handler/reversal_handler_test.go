package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/ledger-core/internal/domain/money"
	"github.com/walletpay/ledger-core/internal/domain/reversal"
	"github.com/walletpay/ledger-core/internal/domain/transaction"
)

type MockReversalWorkflow struct {
	mock.Mock
}

func (m *MockReversalWorkflow) RequestReversal(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error) {
	args := m.Called(ctx, transactionID, requestedBy, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) RequestRefund(ctx context.Context, transactionID, requestedBy uuid.UUID, amount money.Money, reason string) (*reversal.Reversal, error) {
	args := m.Called(ctx, transactionID, requestedBy, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) GetReversal(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) ApproveReversal(ctx context.Context, id, adminID uuid.UUID, notes string) (*reversal.Reversal, error) {
	args := m.Called(ctx, id, adminID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) RejectReversal(ctx context.Context, id, adminID uuid.UUID, notes string) (*reversal.Reversal, error) {
	args := m.Called(ctx, id, adminID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) CancelReversal(ctx context.Context, id uuid.UUID) (*reversal.Reversal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reversal.Reversal), args.Error(1)
}

func (m *MockReversalWorkflow) ProcessReversal(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

var _ ReversalWorkflow = (*MockReversalWorkflow)(nil)

func reversalTarget(t *testing.T) *transaction.Transaction {
	t.Helper()
	m, err := money.NewFromString("40.00", "USD")
	require.NoError(t, err)
	tx, err := transaction.New(transaction.TypeTransfer, m, "original")
	require.NoError(t, err)
	return tx
}

func TestReversalHandler_Request(t *testing.T) {
	logger := testHandlerLogger()

	t.Run("DefaultDerivesTypeFromAmount", func(t *testing.T) {
		mockService := new(MockReversalWorkflow)
		handler := NewReversalHandler(logger, mockService)

		original := reversalTarget(t)
		requestedBy := uuid.New()
		amount, err := money.NewFromString("40.00", "USD")
		require.NoError(t, err)

		rev := &reversal.Reversal{
			ID:            uuid.New(),
			TransactionID: original.ID,
			RequestedBy:   requestedBy,
			Amount:        amount,
			Type:          reversal.TypeFull,
			Status:        reversal.StatusPending,
		}
		mockService.On("RequestReversal", mock.Anything, original.ID, requestedBy, amount, "dispute").Return(rev, nil)

		router := setupTestRouter()
		router.POST("/reversals", handler.Request)

		body, err := json.Marshal(RequestReversalRequest{
			TransactionID: original.ID.String(),
			RequestedBy:   requestedBy.String(),
			Amount:        "40.00",
			Currency:      "USD",
			Reason:        "dispute",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/reversals", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeData[ReversalResponse](t, w.Body.Bytes())
		assert.Equal(t, string(reversal.TypeFull), resp.Type)
		mockService.AssertExpectations(t)
		mockService.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RefundDesignationRoutesToRefund", func(t *testing.T) {
		mockService := new(MockReversalWorkflow)
		handler := NewReversalHandler(logger, mockService)

		original := reversalTarget(t)
		requestedBy := uuid.New()
		amount, err := money.NewFromString("40.00", "USD")
		require.NoError(t, err)

		rev := &reversal.Reversal{
			ID:            uuid.New(),
			TransactionID: original.ID,
			RequestedBy:   requestedBy,
			Amount:        amount,
			Type:          reversal.TypeRefund,
			Status:        reversal.StatusPending,
		}
		mockService.On("RequestRefund", mock.Anything, original.ID, requestedBy, amount, "goodwill").Return(rev, nil)

		router := setupTestRouter()
		router.POST("/reversals", handler.Request)

		body, err := json.Marshal(RequestReversalRequest{
			TransactionID: original.ID.String(),
			RequestedBy:   requestedBy.String(),
			Amount:        "40.00",
			Currency:      "USD",
			Type:          string(reversal.TypeRefund),
			Reason:        "goodwill",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/reversals", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeData[ReversalResponse](t, w.Body.Bytes())
		assert.Equal(t, string(reversal.TypeRefund), resp.Type)
		mockService.AssertExpectations(t)
		mockService.AssertNotCalled(t, "RequestReversal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		mockService := new(MockReversalWorkflow)
		handler := NewReversalHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/reversals", handler.Request)

		body := []byte(`{"transaction_id":"` + uuid.NewString() + `","requested_by":"` + uuid.NewString() + `","amount":"40.00","currency":"USD","type":"CHARGEBACK"}`)
		req := httptest.NewRequest(http.MethodPost, "/reversals", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "RequestReversal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockService.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PartialRefundUnprocessable", func(t *testing.T) {
		mockService := new(MockReversalWorkflow)
		handler := NewReversalHandler(logger, mockService)

		original := reversalTarget(t)
		requestedBy := uuid.New()
		amount, err := money.NewFromString("15.00", "USD")
		require.NoError(t, err)
		mockService.On("RequestRefund", mock.Anything, original.ID, requestedBy, amount, "").Return(nil, reversal.ErrPartialRefund)

		router := setupTestRouter()
		router.POST("/reversals", handler.Request)

		body, err := json.Marshal(RequestReversalRequest{
			TransactionID: original.ID.String(),
			RequestedBy:   requestedBy.String(),
			Amount:        "15.00",
			Currency:      "USD",
			Type:          string(reversal.TypeRefund),
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/reversals", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "REFUND_NOT_FULL_AMOUNT")
		mockService.AssertExpectations(t)
	})
}
