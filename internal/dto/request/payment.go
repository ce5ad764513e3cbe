package request

// InitiatePaymentRequest carries the amount as a string so the service can
// parse it as an exact decimal instead of a float.
type InitiatePaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
}
