package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type mockWalletStore struct {
	mock.Mock
}

func (m *mockWalletStore) Balance(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletStore) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.WalletTransaction, int, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	transactions, _ := args.Get(0).([]models.WalletTransaction)
	return transactions, args.Int(1), args.Error(2)
}

func TestWalletServiceSummary(t *testing.T) {
	store := &mockWalletStore{}
	owner := uuid.New()
	store.On("Balance", mock.Anything, owner).Return(125.5, nil)
	store.On("ListTransactions", mock.Anything, owner, 10, 10).
		Return([]models.WalletTransaction{{ID: uuid.New(), Amount: 20}}, 21, nil)

	summary, total, err := NewWalletService(store).Summary(context.Background(), owner, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 125.5, summary.Balance)
	assert.Len(t, summary.Transactions, 1)
	assert.Equal(t, 21, total)
	store.AssertExpectations(t)
}

func TestWalletServiceSummaryErrors(t *testing.T) {
	store := &mockWalletStore{}
	owner := uuid.New()
	service := NewWalletService(store)

	_, _, err := service.Summary(context.Background(), owner, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	store.On("Balance", mock.Anything, owner).Return(0.0, errors.New("db down"))
	_, _, err = service.Summary(context.Background(), owner, 1, 10)
	assert.EqualError(t, err, "db down")
	store.AssertNotCalled(t, "ListTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
