package gateway

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-portal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

func testClient(t *testing.T, apiBase string, at time.Time) *Client {
	t.Helper()

	client := NewClient(utils.StripeConfig{
		SecretKey:      "sk_test_key",
		WebhookSecret:  testWebhookSecret,
		APIBase:        apiBase,
		TimeoutSeconds: 5,
	}, zap.NewNop())
	client.now = func() time.Time { return at }
	return client
}

func signedHeader(secret string, timestamp int64, payload []byte) string {
	sig := computeSignature(secret, timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

// ---------- webhook verification ----------

func TestConstructEventValidSignature(t *testing.T) {
	now := time.Now()
	client := testClient(t, "", now)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	header := signedHeader(testWebhookSecret, now.Unix(), payload)

	event, err := client.ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentIntentSucceeded, event.Type)

	intent, err := event.PaymentIntent()
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
}

func TestConstructEventAcceptsAnyMatchingSignature(t *testing.T) {
	// processors rotate secrets by sending multiple v1 entries
	now := time.Now()
	client := testClient(t, "", now)

	payload := []byte(`{"id":"evt_1","type":"charge.succeeded","data":{"object":{"id":"ch_1"}}}`)
	valid := hex.EncodeToString(computeSignature(testWebhookSecret, now.Unix(), payload))
	stale := hex.EncodeToString(computeSignature("whsec_old", now.Unix(), payload))
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), stale, valid)

	_, err := client.ConstructEvent(payload, header)
	require.NoError(t, err)
}

func TestConstructEventRejectsBadSignatures(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no signature parts", fmt.Sprintf("t=%d", now.Unix())},
		{"malformed timestamp", "t=notanumber,v1=deadbeef"},
		{"wrong secret", signedHeader("whsec_wrong", now.Unix(), payload)},
		{"tampered payload", signedHeader(testWebhookSecret, now.Unix(), []byte(`{"id":"evt_2"}`))},
		{"expired timestamp", signedHeader(testWebhookSecret, now.Add(-10*time.Minute).Unix(), payload)},
		{"future timestamp", signedHeader(testWebhookSecret, now.Add(10*time.Minute).Unix(), payload)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, "", now)
			_, err := client.ConstructEvent(payload, tc.header)
			require.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestConstructEventRejectsBadPayloads(t *testing.T) {
	now := time.Now()
	client := testClient(t, "", now)

	cases := []struct {
		name    string
		payload []byte
	}{
		{"not json", []byte(`not json at all`)},
		{"missing type", []byte(`{"id":"evt_1","data":{"object":{}}}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := signedHeader(testWebhookSecret, now.Unix(), tc.payload)
			_, err := client.ConstructEvent(tc.payload, header)
			require.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestEventObjectAccessors(t *testing.T) {
	event := &Event{
		Type: EventPaymentIntentSucceeded,
		Data: EventData{Object: []byte(`{"id":"pi_1","charges":{"data":[{"id":"ch_1","payment_intent":"pi_1"}]}}`)},
	}

	intent, err := event.PaymentIntent()
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	require.Len(t, intent.Charges.Data, 1)
	assert.Equal(t, "ch_1", intent.Charges.Data[0].ID)

	event.Data.Object = []byte(`{"charges":{}}`)
	_, err = event.PaymentIntent()
	require.ErrorIs(t, err, ErrInvalidPayload)

	event.Data.Object = []byte(`{"id":"ch_1","payment_intent":"pi_1"}`)
	charge, err := event.Charge()
	require.NoError(t, err)
	assert.Equal(t, "pi_1", charge.PaymentIntent)
}

// ---------- intent creation ----------

func TestCreateIntent(t *testing.T) {
	var gotAuth, gotAmount, gotCurrency, gotUserID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.NoError(t, r.ParseForm())

		gotAuth = r.Header.Get("Authorization")
		gotAmount = r.PostForm.Get("amount")
		gotCurrency = r.PostForm.Get("currency")
		gotUserID = r.PostForm.Get("metadata[user_id]")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_1","client_secret":"pi_1_secret_x"}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, time.Now())
	intent, err := client.CreateIntent(context.Background(), 2550, "usd", map[string]string{"user_id": "u-1"})
	require.NoError(t, err)

	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_x", intent.ClientSecret)
	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, "2550", gotAmount)
	assert.Equal(t, "usd", gotCurrency)
	assert.Equal(t, "u-1", gotUserID)
}

func TestCreateIntentAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"Your card was declined.","type":"card_error"}}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, time.Now())
	_, err := client.CreateIntent(context.Background(), 100, "usd", nil)
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Your card was declined.", gwErr.Message)
}

func TestCreateIntentUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := testClient(t, url, time.Now())
	_, err := client.CreateIntent(context.Background(), 100, "usd", nil)
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Contains(t, gwErr.Message, "unreachable")
}

func TestCreateIntentMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"pi_1"}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, time.Now())
	_, err := client.CreateIntent(context.Background(), 100, "usd", nil)
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Contains(t, gwErr.Message, "missing id or client secret")
}
