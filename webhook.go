package agentpay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/agentgatepay/agentpay-go/signature"
)

// WebhookSignatureHeader carries the payload signature on notification
// requests from the gateway.
const WebhookSignatureHeader = "AP-Signature"

// ErrWebhookSignatureMismatch is returned when a webhook payload fails
// authenticity verification. Never act on a payload that produced this error.
var ErrWebhookSignatureMismatch = errors.New("agentpay: webhook signature mismatch")

// WebhookEventType enumerates the payment notification events.
type WebhookEventType string

const (
	WebhookEventPaymentCompleted WebhookEventType = "payment.completed"
	WebhookEventPaymentFailed    WebhookEventType = "payment.failed"
	WebhookEventPaymentPending   WebhookEventType = "payment.pending"
)

// WebhookEvent is an authenticated, parsed notification. Per event the
// status progression is pending then completed or failed, terminal either
// way; the verifier itself is stateless and does not deduplicate replays.
type WebhookEvent struct {
	Type WebhookEventType `json:"type"`
	Data WebhookEventData `json:"data"`
}

// PaymentEventData is the payload carried by payment.* events.
type PaymentEventData struct {
	TxHash    string        `json:"txHash"`
	Status    PaymentStatus `json:"status"`
	AmountUSD float64       `json:"amountUsd,omitempty"`
	Token     Token         `json:"token,omitempty"`
	Chain     Chain         `json:"chain,omitempty"`
	Sender    string        `json:"sender,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// WebhookEventData holds the event payload without forcing a concrete shape,
// so future event families decode without breaking existing consumers.
type WebhookEventData struct {
	union json.RawMessage
}

// AsPaymentEvent returns the payload as payment event data.
func (t WebhookEventData) AsPaymentEvent() (PaymentEventData, error) {
	var body PaymentEventData
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromPaymentEvent overwrites the payload with payment event data.
func (t *WebhookEventData) FromPaymentEvent(v PaymentEventData) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergePaymentEvent merges payment event fields into the existing payload.
func (t *WebhookEventData) MergePaymentEvent(v PaymentEventData) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// MarshalJSON serializes the underlying payload.
func (t WebhookEventData) MarshalJSON() ([]byte, error) {
	if t.union == nil {
		return []byte("null"), nil
	}
	return t.union, nil
}

// UnmarshalJSON captures the raw payload.
func (t *WebhookEventData) UnmarshalJSON(b []byte) error {
	t.union = append(t.union[:0], b...)
	return nil
}

// VerifyWebhookSignature reports whether sig is a valid HMAC-SHA256 of the
// exact raw payload bytes under secret. A mismatch returns false, never an
// error; only missing arguments error.
//
// The signature covers the transmitted bytes: verify the body exactly as
// received, never a re-serialized structure, since re-serialization is not
// guaranteed to be byte-identical.
func VerifyWebhookSignature(payload []byte, sig, secret string) (bool, error) {
	if len(payload) == 0 {
		return false, &ValidationError{Field: "payload", Message: "is required"}
	}
	if sig == "" {
		return false, &ValidationError{Field: "signature", Message: "is required"}
	}
	if secret == "" {
		return false, &ValidationError{Field: "secret", Message: "is required"}
	}
	return signature.VerifyRaw([]byte(secret), payload, sig), nil
}

// VerifyAndParseWebhook authenticates and then decodes a notification.
// Parsing never happens before verification, so an attacker-controlled body
// is never interpreted. An unauthentic payload fails with
// [ErrWebhookSignatureMismatch]; a malformed-but-authentic one fails with a
// distinct parse error.
func VerifyAndParseWebhook(payload []byte, sig, secret string) (*WebhookEvent, error) {
	ok, err := VerifyWebhookSignature(payload, sig, secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWebhookSignatureMismatch
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("agentpay: parse webhook payload: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("agentpay: parse webhook payload: missing event type")
	}
	return &event, nil
}

// VerifyWebhookRequest reads an inbound notification request, authenticates
// it against the AP-Signature header, and decodes it. The request body is
// restored so later handlers can re-read it.
func VerifyWebhookRequest(r *http.Request, secret string) (*WebhookEvent, error) {
	raw, err := readAndRestoreBody(r)
	if err != nil {
		return nil, fmt.Errorf("agentpay: read webhook body: %w", err)
	}
	return VerifyAndParseWebhook(raw, r.Header.Get(WebhookSignatureHeader), secret)
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}
