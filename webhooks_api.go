package agentpay

import (
	"context"
	"net/http"
	"net/url"
)

// WebhooksService manages merchant webhook registrations. These are thin
// request builders; signature verification of the notifications themselves
// lives in [VerifyAndParseWebhook].
type WebhooksService struct {
	client *Client
}

// CreateWebhookParams registers a notification endpoint.
type CreateWebhookParams struct {
	URL    string             `json:"url" validate:"required,url"`
	Events []WebhookEventType `json:"events" validate:"required,min=1"`
	// Secret is the shared key the gateway signs notifications with.
	Secret string `json:"secret" validate:"required"`
}

// Webhook is a registered notification endpoint.
type Webhook struct {
	WebhookID string             `json:"webhookId"`
	URL       string             `json:"url"`
	Events    []WebhookEventType `json:"events"`
	CreatedAt int64              `json:"createdAt,omitempty"`
}

// Create registers a webhook endpoint.
func (s *WebhooksService) Create(ctx context.Context, params CreateWebhookParams) (*Webhook, error) {
	if err := validateStruct(params); err != nil {
		return nil, err
	}
	raw, _, err := s.client.request(ctx, http.MethodPost, "/api/webhooks", params, nil)
	if err != nil {
		return nil, err
	}
	var webhook Webhook
	if err := decodeJSON(raw, &webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}

// List returns all registered webhooks.
func (s *WebhooksService) List(ctx context.Context) ([]Webhook, error) {
	raw, _, err := s.client.request(ctx, http.MethodGet, "/api/webhooks", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Webhooks []Webhook `json:"webhooks"`
	}
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, err
	}
	return resp.Webhooks, nil
}

// Delete removes a webhook registration.
func (s *WebhooksService) Delete(ctx context.Context, webhookID string) error {
	if webhookID == "" {
		return &ValidationError{Field: "webhookId", Message: "is required"}
	}
	_, _, err := s.client.request(ctx, http.MethodDelete, "/api/webhooks/"+url.PathEscape(webhookID), nil, nil)
	return err
}
