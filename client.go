package agentpay

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Version is the SDK version reported in the User-Agent header.
const Version = "0.3.0"

// DefaultBaseURL is the production AgentGatePay gateway.
const DefaultBaseURL = "https://api.agentgatepay.com"

// Client talks to the AgentGatePay gateway. Construct it with [NewClient] and
// reach the API groups through the service fields.
//
// The client is safe for concurrent use. It never retries requests and never
// overrides the transport timeout of the underlying [http.Client]; configure
// one there if you need per-call deadlines beyond context cancellation.
type Client struct {
	baseURL    string
	apiKey     string
	agentID    string
	httpClient *http.Client
	logger     *zap.Logger
	signingKey []byte
	userAgent  string
	clock      func() time.Time

	// Mandates issues and verifies budget mandates.
	Mandates *MandatesService
	// Payments submits settlement proofs and polls for confirmation.
	Payments *PaymentsService
	// Webhooks manages merchant webhook registrations.
	Webhooks *WebhooksService
	// Analytics exposes revenue and transaction reporting.
	Analytics *AnalyticsService
}

// NewClient builds a gateway client. Without options it targets
// [DefaultBaseURL] anonymously; most deployments want at least [WithAPIKey].
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		userAgent:  "agentpay-go/" + Version,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	c.Mandates = &MandatesService{client: c}
	c.Payments = &PaymentsService{client: c}
	c.Webhooks = &WebhooksService{client: c}
	c.Analytics = &AnalyticsService{client: c}
	return c, nil
}

// BaseURL reports the gateway URL the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// AgentID reports the configured agent identity, if any.
func (c *Client) AgentID() string { return c.agentID }
