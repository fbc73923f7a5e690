package agentpay

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Option customizes the client behavior.
type Option func(*Client) error

// WithBaseURL points the client at a different gateway, e.g. a sandbox.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("agentpay: base URL must be an absolute http(s) URL")
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithAPIKey sets the API key sent as a Bearer credential on every request.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) error {
		c.apiKey = apiKey
		return nil
	}
}

// WithAgentID identifies the calling agent to the gateway for attribution.
func WithAgentID(agentID string) Option {
	return func(c *Client) error {
		c.agentID = agentID
		return nil
	}
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("agentpay: http client must not be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithLogger attaches a structured logger. The client logs requests at debug
// level and never logs credentials or mandate tokens.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("agentpay: logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithDebug enables human-readable debug logging. Ignored when a logger was
// already supplied via [WithLogger].
func WithDebug() Option {
	return func(c *Client) error {
		if c.logger != nil && c.logger.Core().Enabled(zap.DebugLevel) {
			return nil
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		c.logger = logger
		return nil
	}
}

// WithSigningSecret enables request signing: every request with a JSON body
// carries Signature and Timestamp headers computed over the canonical form of
// the body, so the gateway can reject tampered or replayed requests.
func WithSigningSecret(secret []byte) Option {
	return func(c *Client) error {
		if len(secret) == 0 {
			return errors.New("agentpay: signing secret must not be empty")
		}
		c.signingKey = secret
		return nil
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

// withClock provides deterministic time in tests.
func withClock(fn func() time.Time) Option {
	return func(c *Client) error {
		c.clock = fn
		return nil
	}
}
