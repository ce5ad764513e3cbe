package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payment-portal/internal/dto/request"
	"payment-portal/internal/dto/response"
	"payment-portal/internal/gateway"
	"payment-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPaymentService struct {
	initiateResp *response.InitiatePaymentResponse
	initiateErr  error
	webhookErr   error
	gotPayload   []byte
	gotSignature string
}

func (s *stubPaymentService) Initiate(_ context.Context, _ uuid.UUID, _ *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	return s.initiateResp, s.initiateErr
}

func (s *stubPaymentService) HandleWebhookEvent(_ context.Context, payload []byte, signature string) error {
	s.gotPayload = payload
	s.gotSignature = signature
	return s.webhookErr
}

func (s *stubPaymentService) GetPayment(_ context.Context, _ uuid.UUID, _ string) (*response.PaymentDetailResponse, error) {
	return nil, fmt.Errorf("payment not found")
}

func (s *stubPaymentService) ListPayments(_ context.Context, _ uuid.UUID, _ *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	return response.NewPaginatedResponse([]response.PaymentResponse{}, 1, 10, 0), nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()

	var envelope utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestWebhookHTTPStatuses(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"processed", nil, http.StatusOK},
		{"invalid signature", fmt.Errorf("%w: no matching signature", gateway.ErrInvalidSignature), http.StatusBadRequest},
		{"invalid payload", fmt.Errorf("%w: missing event type", gateway.ErrInvalidPayload), http.StatusBadRequest},
		{"storage failure", errors.New("complete payment: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubPaymentService{webhookErr: tc.serviceErr}
			handler := NewPaymentHandler(service, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()

			handler.Webhook(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, []byte(`{"id":"evt_1"}`), service.gotPayload, "payload must reach the service unmodified")
			assert.Equal(t, "t=1,v1=abc", service.gotSignature)
		})
	}
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	service := &stubPaymentService{}
	handler := NewPaymentHandler(service, zap.NewNop())

	body := strings.Repeat("x", maxWebhookBody+1)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Webhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, service.gotPayload, "oversized bodies must not reach the service")
}

func TestInitiateRequiresAuthentication(t *testing.T) {
	handler := NewPaymentHandler(&stubPaymentService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{"amount":"10.00"}`))
	rec := httptest.NewRecorder()

	handler.Initiate(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitiateCreated(t *testing.T) {
	service := &stubPaymentService{
		initiateResp: &response.InitiatePaymentResponse{ClientSecret: "pi_1_secret", PaymentID: "id-1"},
	}
	handler := NewPaymentHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{"amount":"10.00"}`))
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()

	handler.Initiate(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Status)
	assert.Equal(t, "Payment initiated", envelope.Message)
}

func TestInitiateSurfacesGatewayMessage(t *testing.T) {
	service := &stubPaymentService{
		initiateErr: fmt.Errorf("payment gateway: %w", &gateway.GatewayError{Message: "Your card was declined."}),
	}
	handler := NewPaymentHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{"amount":"10.00"}`))
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()

	handler.Initiate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Status)
	assert.Equal(t, "Your card was declined.", envelope.Message)
}

func TestInitiateValidationError(t *testing.T) {
	service := &stubPaymentService{
		initiateErr: fmt.Errorf("validation failed: Amount: must be at least 0.01"),
	}
	handler := NewPaymentHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{"amount":"0"}`))
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()

	handler.Initiate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPaymentNotFound(t *testing.T) {
	handler := NewPaymentHandler(&stubPaymentService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/abc", nil)
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New()))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.GetPayment(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
