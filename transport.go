package agentpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentgatepay/agentpay-go/signature"
)

// Header names used by the gateway protocol.
const (
	headerMandate   = "AP-Mandate"
	headerPayment   = "AP-Payment"
	headerAgentID   = "AP-Agent-Id"
	headerSignature = "Signature"
	headerTimestamp = "Timestamp"
)

const maxErrorBodySnippet = 4096

// apiErrorBody is the gateway's error envelope. Fields are best-effort; the
// gateway is not consistent about error vs message across endpoints.
type apiErrorBody struct {
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (b apiErrorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// request performs one HTTP exchange against the gateway and maps the
// response status onto the SDK error taxonomy. A nil error means a 2xx
// response; the raw body and headers are returned for the caller to decode.
func (c *Client) request(ctx context.Context, method, path string, body any, extra http.Header) ([]byte, http.Header, error) {
	op := method + " " + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("agentpay: %s: marshal request: %w", op, err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("agentpay: %s: build request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.agentID != "" {
		req.Header.Set(headerAgentID, c.agentID)
	}
	if method == http.MethodPost || method == http.MethodDelete {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	for key, values := range extra {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if len(c.signingKey) > 0 && payload != nil {
		if err := c.signRequest(req, payload); err != nil {
			return nil, nil, fmt.Errorf("agentpay: %s: sign request: %w", op, err)
		}
	}

	c.logger.Debug("gateway request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("gateway response", zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return raw, resp.Header, nil
	}
	return nil, resp.Header, errorFromResponse(resp, raw)
}

// signRequest attaches Signature and Timestamp headers computed over the
// canonical form of the JSON body.
func (c *Client) signRequest(req *http.Request, payload []byte) error {
	canonical, err := signature.CanonicalizeJSONBody(payload)
	if err != nil {
		return err
	}
	ts := c.clock().UTC()
	req.Header.Set(headerTimestamp, ts.Format(time.RFC3339Nano))
	req.Header.Set(headerSignature, signature.Sign(c.signingKey, ts, canonical))
	return nil
}

// errorFromResponse maps a non-2xx response onto the error taxonomy.
func errorFromResponse(resp *http.Response, raw []byte) error {
	var body apiErrorBody
	_ = json.Unmarshal(raw, &body)

	message := body.text()
	if message == "" {
		if snippet := strings.TrimSpace(string(raw)); snippet != "" && len(snippet) < maxErrorBodySnippet {
			message = snippet
		} else {
			message = http.StatusText(resp.StatusCode)
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: message}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    message,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Limit:      parseRateLimitHeader(resp.Header.Get("X-RateLimit-Limit")),
			Remaining:  parseRateLimitHeader(resp.Header.Get("X-RateLimit-Remaining")),
		}
	default:
		return &APIError{Status: resp.StatusCode, Code: body.Code, Message: message}
	}
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func parseRateLimitHeader(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -1
	}
	return n
}

// decodeJSON strictly decodes a gateway response body.
func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("agentpay: decode response: %w", err)
	}
	return nil
}
