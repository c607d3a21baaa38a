package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/evcharge/internal/models"
)

// TransactionRepository 交易记录仓库
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository 创建交易仓库
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 写入交易
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, session_id, amount, type, payment_method, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	err := r.db.Pool.QueryRow(ctx, query,
		t.UserID,
		t.SessionID,
		t.Amount,
		t.Type,
		t.PaymentMethod,
		t.Description,
		t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListByUserID 获取用户交易列表
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, session_id, amount, type, payment_method, description, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.SessionID,
			&t.Amount,
			&t.Type,
			&t.PaymentMethod,
			&t.Description,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}
