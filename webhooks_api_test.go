package agentpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestWebhooksCreate(t *testing.T) {
	t.Parallel()

	var gotBody CreateWebhookParams
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/webhooks" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Webhook{
			WebhookID: "wh_123",
			URL:       gotBody.URL,
			Events:    gotBody.Events,
		})
	}))

	webhook, err := client.Webhooks.Create(context.Background(), CreateWebhookParams{
		URL:    "https://merchant.example.com/hooks/agentpay",
		Events: []WebhookEventType{WebhookEventPaymentCompleted, WebhookEventPaymentFailed},
		Secret: "whsec_abc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if webhook.WebhookID != "wh_123" {
		t.Fatalf("unexpected webhook id %q", webhook.WebhookID)
	}
	if len(gotBody.Events) != 2 {
		t.Fatalf("unexpected events %v", gotBody.Events)
	}
}

func TestWebhooksCreateValidation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	cases := []struct {
		name   string
		params CreateWebhookParams
	}{
		{"missing url", CreateWebhookParams{Events: []WebhookEventType{WebhookEventPaymentCompleted}, Secret: "s"}},
		{"invalid url", CreateWebhookParams{URL: "not a url", Events: []WebhookEventType{WebhookEventPaymentCompleted}, Secret: "s"}},
		{"no events", CreateWebhookParams{URL: "https://example.com/hook", Secret: "s"}},
		{"missing secret", CreateWebhookParams{URL: "https://example.com/hook", Events: []WebhookEventType{WebhookEventPaymentCompleted}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := client.Webhooks.Create(context.Background(), tc.params)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError got %T: %v", err, err)
			}
		})
	}
}

func TestWebhooksListAndDelete(t *testing.T) {
	t.Parallel()

	var deleted string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/webhooks":
			_, _ = w.Write([]byte(`{"webhooks":[{"webhookId":"wh_1","url":"https://a.example.com","events":["payment.completed"]}]}`))
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))

	webhooks, err := client.Webhooks.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(webhooks) != 1 || webhooks[0].WebhookID != "wh_1" {
		t.Fatalf("unexpected webhooks %+v", webhooks)
	}

	if err := client.Webhooks.Delete(context.Background(), "wh_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != "/api/webhooks/wh_1" {
		t.Fatalf("unexpected delete path %q", deleted)
	}

	var valErr *ValidationError
	if err := client.Webhooks.Delete(context.Background(), ""); !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for empty id, got %v", err)
	}
}
