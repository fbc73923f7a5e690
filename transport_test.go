package agentpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentgatepay/agentpay-go/signature"
)

// newTestClient wires a client against a stub gateway.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(append([]Option{WithBaseURL(server.URL), WithAPIKey("test_key")}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestRequestSetsProtocolHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}), WithAgentID("agent-1"))

	if _, _, err := client.request(context.Background(), http.MethodPost, "/api/mandates/issue", map[string]string{"subject": "a"}, nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	if want := "Bearer test_key"; got.Get("Authorization") != want {
		t.Fatalf("expected Authorization %q got %q", want, got.Get("Authorization"))
	}
	if got.Get(headerAgentID) != "agent-1" {
		t.Fatalf("expected agent header got %q", got.Get(headerAgentID))
	}
	if got.Get("Request-Id") == "" {
		t.Fatal("expected Request-Id header")
	}
	if got.Get("Idempotency-Key") == "" {
		t.Fatal("expected Idempotency-Key header on POST")
	}
	if got.Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON content type got %q", got.Get("Content-Type"))
	}
}

func TestRequestSignsBodyWhenSecretConfigured(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := []byte("signing-secret")

	var got http.Header
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}), WithSigningSecret(key), withClock(func() time.Time { return ts }))

	body := map[string]any{"b": 2, "a": 1}
	if _, _, err := client.request(context.Background(), http.MethodPost, "/api/mandates/issue", body, nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	canonical, err := signature.CanonicalizeJSONBody([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if want := signature.Sign(key, ts, canonical); got.Get(headerSignature) != want {
		t.Fatalf("expected signature %q got %q", want, got.Get(headerSignature))
	}
	if got.Get(headerTimestamp) != ts.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp header %q", got.Get(headerTimestamp))
	}
}

func TestRequestErrorMapping(t *testing.T) {
	t.Parallel()

	t.Run("401 maps to AuthenticationError", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
		}))

		_, _, err := client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthenticationError got %T: %v", err, err)
		}
		if authErr.Message != "invalid api key" {
			t.Fatalf("unexpected message %q", authErr.Message)
		}
	})

	t.Run("429 surfaces rate limit headers", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.Header().Set("X-RateLimit-Limit", "100")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
		}))

		_, _, err := client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitError got %T: %v", err, err)
		}
		if rateErr.RetryAfter != 7*time.Second {
			t.Fatalf("expected retry after 7s got %s", rateErr.RetryAfter)
		}
		if rateErr.Limit != 100 || rateErr.Remaining != 0 {
			t.Fatalf("unexpected limits %d/%d", rateErr.Limit, rateErr.Remaining)
		}
	})

	t.Run("missing rate limit headers default to -1", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, _, err := client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("expected RateLimitError got %T", err)
		}
		if rateErr.Limit != -1 || rateErr.Remaining != -1 {
			t.Fatalf("expected -1 defaults got %d/%d", rateErr.Limit, rateErr.Remaining)
		}
	})

	t.Run("other statuses map to APIError", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad request","code":"invalid_request"}`))
		}))

		_, _, err := client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError got %T", err)
		}
		if apiErr.Status != http.StatusBadRequest || apiErr.Code != "invalid_request" {
			t.Fatalf("unexpected error %+v", apiErr)
		}
	})

	t.Run("unreachable gateway maps to NetworkError", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithBaseURL("http://127.0.0.1:1"))
		if err != nil {
			t.Fatalf("new client: %v", err)
		}
		_, _, err = client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("expected NetworkError got %T: %v", err, err)
		}
	})
}

func TestRequestReturnsBodyOnSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))

	raw, _, err := client.request(context.Background(), http.MethodGet, "/api/webhooks", nil, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var resp map[string]string
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["ok"] != "yes" {
		t.Fatalf("unexpected body %v", resp)
	}
}
