package agentpay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables the config loader reads secrets from. Secrets never
// live in the JSON config file, which is safe to commit.
const (
	EnvAPIKey        = "AGENTPAY_API_KEY"
	EnvWebhookSecret = "AGENTPAY_WEBHOOK_SECRET"
	EnvGatewayURL    = "AGENTPAY_GATEWAY_URL"
)

// Config combines public settings from a JSON file with secrets from the
// environment.
type Config struct {
	// AgentID identifies the agent to the gateway.
	AgentID string `json:"agent_id" validate:"required"`
	// GatewayURL overrides the production gateway; usually left empty.
	GatewayURL string `json:"gateway_url,omitempty"`
	// Mandate holds the renewal parameters for the mandate manager.
	Mandate MandateConfig `json:"mandate" validate:"required"`

	apiKey        string
	webhookSecret string
}

// LoadConfig reads public settings from the JSON file at path and secrets
// from the environment. A .env file in the working directory is loaded
// best-effort first, so local development does not need exported variables.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agentpay: read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("agentpay: parse config %s: %w", path, err)
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	cfg.apiKey = os.Getenv(EnvAPIKey)
	cfg.webhookSecret = os.Getenv(EnvWebhookSecret)
	if gatewayURL := os.Getenv(EnvGatewayURL); gatewayURL != "" {
		cfg.GatewayURL = gatewayURL
	}
	return &cfg, nil
}

// APIKey returns the gateway credential loaded from the environment.
func (c *Config) APIKey() string { return c.apiKey }

// WebhookSecret returns the webhook signing key loaded from the environment.
func (c *Config) WebhookSecret() string { return c.webhookSecret }

// NewClient builds a gateway client from the configuration. Extra options
// are applied after the config-derived ones and may override them.
func (c *Config) NewClient(opts ...Option) (*Client, error) {
	base := []Option{WithAgentID(c.AgentID)}
	if c.apiKey != "" {
		base = append(base, WithAPIKey(c.apiKey))
	}
	if c.GatewayURL != "" {
		base = append(base, WithBaseURL(c.GatewayURL))
	}
	return NewClient(append(base, opts...)...)
}

// NewManager builds a mandate manager renewing with the configured
// parameters.
func (c *Config) NewManager(client *Client) *MandateManager {
	return NewMandateManager(client, c.Mandate)
}
