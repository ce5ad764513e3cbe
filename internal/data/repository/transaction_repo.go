package repository

import (
	"context"
	"fmt"

	"payment-portal/internal/data/entity"
	"payment-portal/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionRepository interface {
	// Create appends a transaction. The unique index on (payment_id, type)
	// makes the insert a no-op for duplicate webhook deliveries.
	Create(ctx context.Context, txn *entity.Transaction) error
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.Transaction, error)
	ExistsByPaymentAndType(ctx context.Context, paymentID uuid.UUID, txnType entity.TransactionType) (bool, error)
}

type transactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactionRepository(db database.PgxIface, log *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "transaction")),
	}
}

func (r *transactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, payment_id, transaction_type, amount,
		                         stripe_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_id, transaction_type) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		txn.ID,
		txn.PaymentID,
		txn.TransactionType,
		txn.Amount,
		txn.StripeTransactionID,
		txn.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create transaction",
			zap.Error(err),
			zap.String("payment_id", txn.PaymentID.String()),
			zap.String("type", string(txn.TransactionType)),
		)
		return fmt.Errorf("create transaction for payment %s: %w", txn.PaymentID.String(), err)
	}

	return nil
}

func (r *transactionRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.Transaction, error) {
	query := `
		SELECT id, payment_id, transaction_type, amount, stripe_transaction_id, created_at
		FROM transactions
		WHERE payment_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, paymentID)
	if err != nil {
		r.log.Error("Failed to find transactions by payment",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("find transactions for payment %s: %w", paymentID.String(), err)
	}
	defer rows.Close()

	var transactions []*entity.Transaction
	for rows.Next() {
		var txn entity.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.PaymentID,
			&txn.TransactionType,
			&txn.Amount,
			&txn.StripeTransactionID,
			&txn.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		transactions = append(transactions, &txn)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return transactions, nil
}

func (r *transactionRepository) ExistsByPaymentAndType(ctx context.Context, paymentID uuid.UUID, txnType entity.TransactionType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE payment_id = $1 AND transaction_type = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, paymentID, txnType).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check transaction existence",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
			zap.String("type", string(txnType)),
		)
		return false, fmt.Errorf("check transaction for payment %s: %w", paymentID.String(), err)
	}

	return exists, nil
}
