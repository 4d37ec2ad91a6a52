package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type WalletStore interface {
	Balance(ctx context.Context, ownerID uuid.UUID) (float64, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.WalletTransaction, int, error)
}

type WalletService struct {
	wallets WalletStore
}

func NewWalletService(wallets WalletStore) *WalletService {
	return &WalletService{wallets: wallets}
}

// Summary returns the balance with one page of the most recent transactions
// and the total transaction count.
func (s *WalletService) Summary(ctx context.Context, ownerID uuid.UUID, page, limit int) (*models.WalletSummary, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, ErrInvalidInput
	}

	balance, err := s.wallets.Balance(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	transactions, total, err := s.wallets.ListTransactions(ctx, ownerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	return &models.WalletSummary{Balance: balance, Transactions: transactions}, total, nil
}
