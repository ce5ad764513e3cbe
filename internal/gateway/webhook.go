package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how old a signed timestamp may be. Replays of old
// deliveries outside this window are rejected.
const signatureTolerance = 5 * time.Minute

type EventType string

const (
	EventPaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed    EventType = "payment_intent.payment_failed"
	EventChargeSucceeded        EventType = "charge.succeeded"
)

// Event is a verified webhook notification. Data.Object is kept raw and
// decoded per event type by the accessors below.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

type PaymentIntent struct {
	ID      string `json:"id"`
	Charges struct {
		Data []Charge `json:"data"`
	} `json:"charges"`
}

type Charge struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

// PaymentIntent decodes the event payload as a PaymentIntent object
func (e *Event) PaymentIntent() (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return nil, fmt.Errorf("%w: decode payment intent object: %v", ErrInvalidPayload, err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: payment intent object missing id", ErrInvalidPayload)
	}
	return &intent, nil
}

// Charge decodes the event payload as a Charge object
func (e *Event) Charge() (*Charge, error) {
	var charge Charge
	if err := json.Unmarshal(e.Data.Object, &charge); err != nil {
		return nil, fmt.Errorf("%w: decode charge object: %v", ErrInvalidPayload, err)
	}
	if charge.ID == "" {
		return nil, fmt.Errorf("%w: charge object missing id", ErrInvalidPayload)
	}
	return &charge, nil
}

// ConstructEvent verifies sigHeader against payload using the webhook secret
// and returns the decoded event. Fails with ErrInvalidSignature before the
// payload is even parsed, so unverified bodies never reach the dispatcher.
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	if err := c.verifySignature(payload, sigHeader); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}

	return &event, nil
}

// verifySignature checks the Stripe signature scheme: the header carries a
// signed timestamp and one or more v1 HMAC-SHA256 signatures computed over
// "<timestamp>.<payload>" with the shared webhook secret.
func (c *Client) verifySignature(payload []byte, sigHeader string) error {
	if sigHeader == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	var timestamp int64 = -1
	var candidates [][]byte

	for _, part := range strings.Split(sigHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			candidates = append(candidates, sig)
		}
	}

	if timestamp < 0 || len(candidates) == 0 {
		return fmt.Errorf("%w: header missing timestamp or signature", ErrInvalidSignature)
	}

	age := c.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := computeSignature(c.webhookSecret, timestamp, payload)
	for _, candidate := range candidates {
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
}

func computeSignature(secret string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
