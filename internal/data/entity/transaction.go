package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

// Transaction records an actual funds movement for a payment. Rows are
// appended by webhook handlers and never updated or deleted.
type Transaction struct {
	BaseSimple
	PaymentID           uuid.UUID       `db:"payment_id"`
	TransactionType     TransactionType `db:"transaction_type"`
	Amount              decimal.Decimal `db:"amount"`
	StripeTransactionID string          `db:"stripe_transaction_id"`
}
