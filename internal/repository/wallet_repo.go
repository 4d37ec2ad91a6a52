package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

const (
	TransactionCredit    = "credit"
	TransactionDebit     = "debit"
	TransactionCompleted = "completed"
)

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

// Balance sums completed credits minus completed debits.
func (r *WalletRepository) Balance(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	var balance float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = $2 THEN amount ELSE -amount END), 0)::float8
		FROM wallet_transactions
		WHERE owner_id = $1
		  AND status = $3
	`, ownerID, TransactionCredit, TransactionCompleted).Scan(&balance)
	return balance, err
}

func (r *WalletRepository) ListTransactions(
	ctx context.Context,
	ownerID uuid.UUID,
	limit int,
	offset int,
) ([]models.WalletTransaction, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM wallet_transactions
		WHERE owner_id = $1
	`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, kind, amount::float8, status, description, created_at
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := make([]models.WalletTransaction, 0)
	for rows.Next() {
		var tx models.WalletTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.OwnerID,
			&tx.Kind,
			&tx.Amount,
			&tx.Status,
			&tx.Description,
			&tx.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}
