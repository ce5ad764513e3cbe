package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"payment-portal/internal/dto/request"
	"payment-portal/internal/gateway"
	"payment-portal/internal/usecase"
	"payment-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxWebhookBody caps the raw payload read from the processor
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

// Initiate handles POST /api/payments
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	response, err := h.service.Initiate(r.Context(), userID, &req)
	if err != nil {
		// surface the gateway's own message on rejected intents
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) {
			h.log.Warn("Payment initiation rejected by gateway", zap.Error(err))
			utils.ResponseBadRequest(w, gwErr.Message, nil)
			return
		}
		h.handleServiceError(w, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "Payment initiated", response)
}

// Webhook handles POST /api/payments/webhook. The body must stay raw for
// signature verification; decoding happens after the check. Responses follow
// the processor's contract: client error only on signature/payload failure,
// success otherwise so deliveries are not retried forever.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.ResponseBadRequest(w, "Unable to read payload", nil)
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	if err := h.service.HandleWebhookEvent(r.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			utils.ResponseBadRequest(w, "Invalid signature", nil)
		case errors.Is(err, gateway.ErrInvalidPayload):
			utils.ResponseBadRequest(w, "Invalid payload", nil)
		default:
			// storage failure; non-2xx so the processor redelivers
			h.log.Error("Failed to process webhook", zap.Error(err))
			utils.ResponseInternalError(w, "Internal server error")
		}
		return
	}

	utils.ResponseSuccess(w, "Webhook received", nil)
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	payment, err := h.service.GetPayment(r.Context(), userID, paymentID)
	if err != nil {
		h.handleServiceError(w, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "Payment retrieved successfully", payment)
}

// ListPayments handles GET /api/payments?page=1&per_page=10
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	payments, err := h.service.ListPayments(r.Context(), userID, req)
	if err != nil {
		h.handleServiceError(w, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "Payments retrieved successfully", payments)
}

func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "not found"):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case strings.Contains(errMsg, "validation failed"),
		strings.Contains(errMsg, "invalid"):
		h.log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
