package database

import (
	"context"
	"fmt"
)

// schema statements applied in order on startup. Idempotent so restarts are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(30) NOT NULL,
		last_name VARCHAR(30) NOT NULL,
		password VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		token UUID NOT NULL UNIQUE,
		user_agent VARCHAR(255),
		ip_address VARCHAR(45),
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		amount NUMERIC(10,2) NOT NULL,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		stripe_payment_intent_id VARCHAR(255),
		stripe_charge_id VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_payments_intent
		ON payments (stripe_payment_intent_id)`,

	`CREATE INDEX IF NOT EXISTS idx_payments_user_created
		ON payments (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		payment_id UUID NOT NULL REFERENCES payments(id),
		transaction_type VARCHAR(20) NOT NULL,
		amount NUMERIC(10,2) NOT NULL,
		stripe_transaction_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	// one transaction per payment and type; makes the webhook append exactly-once
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payment_type
		ON transactions (payment_id, transaction_type)`,
}

// Migrate applies the schema to the connected database
func Migrate(ctx context.Context, db PgxIface) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
