package repository

import (
	"context"
	"fmt"

	"payment-portal/internal/data/entity"
	"payment-portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Webhook-driven transitions. All three are conditional updates so that
	// duplicate and out-of-order deliveries cannot move a payment out of a
	// terminal state or apply the same transition twice.
	MarkCompleted(ctx context.Context, intentID string) (*entity.Payment, error)
	MarkFailed(ctx context.Context, intentID string) (bool, error)
	SetChargeID(ctx context.Context, intentID, chargeID string) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, currency, status,
		                     stripe_payment_intent_id, stripe_charge_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.StripePaymentIntentID,
		payment.StripeChargeID,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("user_id", payment.UserID.String()),
		)
		return fmt.Errorf("create payment for user %s: %w", payment.UserID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, status,
		       stripe_payment_intent_id, stripe_charge_id, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	payment, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, status,
		       stripe_payment_intent_id, stripe_charge_id, created_at, updated_at
		FROM payments
		WHERE stripe_payment_intent_id = $1
	`

	payment, err := r.scanOne(r.db.QueryRow(ctx, query, intentID))
	if err != nil {
		r.log.Error("Failed to find payment by intent ID",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return nil, fmt.Errorf("find payment by intent ID %s: %w", intentID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, status,
		       stripe_payment_intent_id, stripe_charge_id, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find payments by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find payments for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var payment entity.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.Amount,
			&payment.Currency,
			&payment.Status,
			&payment.StripePaymentIntentID,
			&payment.StripeChargeID,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM payments WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count payments",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count payments for user %s: %w", userID.String(), err)
	}

	return count, nil
}

// MarkCompleted transitions the payment for intentID to completed and returns
// the updated row. Returns nil when no payment matched or the payment was
// already in a terminal state, so the caller can decide whether this delivery
// is a duplicate or a reconciliation gap.
func (r *paymentRepository) MarkCompleted(ctx context.Context, intentID string) (*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE stripe_payment_intent_id = $1
		  AND status IN ($3, $4)
		RETURNING id, user_id, amount, currency, status,
		          stripe_payment_intent_id, stripe_charge_id, created_at, updated_at
	`

	row := r.db.QueryRow(ctx, query, intentID,
		entity.PaymentStatusCompleted,
		entity.PaymentStatusPending,
		entity.PaymentStatusProcessing,
	)

	payment, err := r.scanOne(row)
	if err != nil {
		r.log.Error("Failed to mark payment completed",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return nil, fmt.Errorf("mark payment completed for intent %s: %w", intentID, err)
	}

	return payment, nil
}

// MarkFailed transitions the payment for intentID to failed. Returns false
// when no non-terminal payment matched.
func (r *paymentRepository) MarkFailed(ctx context.Context, intentID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE stripe_payment_intent_id = $1
		  AND status IN ($3, $4)
	`

	result, err := r.db.Exec(ctx, query, intentID,
		entity.PaymentStatusFailed,
		entity.PaymentStatusPending,
		entity.PaymentStatusProcessing,
	)

	if err != nil {
		r.log.Error("Failed to mark payment failed",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return false, fmt.Errorf("mark payment failed for intent %s: %w", intentID, err)
	}

	return result.RowsAffected() > 0, nil
}

// SetChargeID records the charge reference without touching status, so it is
// safe to apply before or after the intent outcome arrives.
func (r *paymentRepository) SetChargeID(ctx context.Context, intentID, chargeID string) (bool, error) {
	query := `
		UPDATE payments
		SET stripe_charge_id = $2, updated_at = NOW()
		WHERE stripe_payment_intent_id = $1
	`

	result, err := r.db.Exec(ctx, query, intentID, chargeID)
	if err != nil {
		r.log.Error("Failed to set charge ID",
			zap.Error(err),
			zap.String("intent_id", intentID),
			zap.String("charge_id", chargeID),
		)
		return false, fmt.Errorf("set charge ID for intent %s: %w", intentID, err)
	}

	return result.RowsAffected() > 0, nil
}

// scanOne maps a single payment row, treating no rows as (nil, nil)
func (r *paymentRepository) scanOne(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.StripePaymentIntentID,
		&payment.StripeChargeID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}
