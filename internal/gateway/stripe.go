package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payment-portal/pkg/utils"

	"go.uber.org/zap"
)

// Sentinel errors for the webhook verification path. Handlers reject the
// delivery with a client error on either; the processor will retry.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// GatewayError carries the message the payment processor returned when an API
// call was rejected. Transport failures (including timeouts) are wrapped in it
// too, so callers treat them as retryable gateway failures rather than bugs.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// Client is a thin adapter over the Stripe HTTP API: intent creation on the
// way out, signature verification on the way in.
type Client struct {
	secretKey     string
	webhookSecret string
	apiBase       string
	httpClient    *http.Client
	log           *zap.Logger
	now           func() time.Time
}

func NewClient(config utils.StripeConfig, log *zap.Logger) *Client {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		secretKey:     config.SecretKey,
		webhookSecret: config.WebhookSecret,
		apiBase:       strings.TrimSuffix(config.APIBase, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		log:           log.With(zap.String("gateway", "stripe")),
		now:           time.Now,
	}
}

// Intent is the subset of a PaymentIntent the application needs
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateIntent creates a PaymentIntent for amountMinor (smallest currency
// unit) tagged with metadata. Returns a *GatewayError when the API rejects
// the request or the call does not complete within the configured timeout.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	for key, value := range metadata {
		form.Set("metadata["+key+"]", value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Payment intent request failed", zap.Error(err))
		return nil, &GatewayError{Message: fmt.Sprintf("payment processor unreachable: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{Message: fmt.Sprintf("read payment processor response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		message := fmt.Sprintf("payment processor returned status %d", resp.StatusCode)
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		c.log.Warn("Payment intent rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return nil, &GatewayError{Message: message}
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, &GatewayError{Message: fmt.Sprintf("decode payment intent: %v", err)}
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, &GatewayError{Message: "payment intent response missing id or client secret"}
	}

	return &intent, nil
}
