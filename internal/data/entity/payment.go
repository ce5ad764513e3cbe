package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsTerminal reports whether no webhook transition may move the payment anymore.
// Completed payments can still be refunded, but never go back to pending.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

type Payment struct {
	BaseNoDelete
	UserID                uuid.UUID       `db:"user_id"`
	Amount                decimal.Decimal `db:"amount"`
	Currency              string          `db:"currency"`
	Status                PaymentStatus   `db:"status"`
	StripePaymentIntentID *string         `db:"stripe_payment_intent_id"`
	StripeChargeID        *string         `db:"stripe_charge_id"`
}
