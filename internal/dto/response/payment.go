package response

import (
	"time"

	"payment-portal/internal/data/entity"
)

type InitiatePaymentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
}

type PaymentResponse struct {
	ID                    string               `json:"id"`
	Amount                string               `json:"amount"`
	Currency              string               `json:"currency"`
	Status                entity.PaymentStatus `json:"status"`
	StripePaymentIntentID *string              `json:"stripe_payment_intent_id,omitempty"`
	StripeChargeID        *string              `json:"stripe_charge_id,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type TransactionResponse struct {
	ID                  string                 `json:"id"`
	Type                entity.TransactionType `json:"type"`
	Amount              string                 `json:"amount"`
	StripeTransactionID string                 `json:"stripe_transaction_id"`
	CreatedAt           time.Time              `json:"created_at"`
}

type PaymentDetailResponse struct {
	PaymentResponse
	Transactions []TransactionResponse `json:"transactions"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                    payment.ID.String(),
		Amount:                payment.Amount.StringFixed(2),
		Currency:              payment.Currency,
		Status:                payment.Status,
		StripePaymentIntentID: payment.StripePaymentIntentID,
		StripeChargeID:        payment.StripeChargeID,
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
	}
}

func TransactionToResponse(txn *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  txn.ID.String(),
		Type:                txn.TransactionType,
		Amount:              txn.Amount.StringFixed(2),
		StripeTransactionID: txn.StripeTransactionID,
		CreatedAt:           txn.CreatedAt,
	}
}
