package agentpay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BudgetDustThresholdUSD is the remaining-budget floor below which a mandate
// is treated as exhausted: spends below one cent are assumed to fail on
// settlement, so the manager renews instead of presenting the token.
const BudgetDustThresholdUSD = 0.01

// MandateConfig holds the parameters a [MandateManager] renews mandates with.
type MandateConfig struct {
	Subject    string  `json:"subject" validate:"required"`
	BudgetUSD  float64 `json:"budget_usd" validate:"required,finite_positive"`
	Scope      string  `json:"scope,omitempty"`
	TTLMinutes int     `json:"ttl_minutes,omitempty" validate:"omitempty,gt=0"`
}

// cachedMandate is the manager's sole mutable state. It is replaced as a
// whole, never partially mutated.
type cachedMandate struct {
	token     string
	expiresAt time.Time
}

// MandateManager keeps one mandate cached and renews it when it expires or
// its budget runs dry, so repeated payments never need to track budget or
// expiry manually.
//
// The cache is best-effort, not a lock: concurrent EnsureValid calls may both
// observe a stale cache and both issue fresh mandates, with the last writer
// winning. Issuing an extra mandate wastes only a budget allocation, so the
// manager favors simplicity over coordination. The cache lives in process
// memory; sharing mandates across processes needs an external store and is
// out of scope.
type MandateManager struct {
	client *Client
	cfg    MandateConfig
	clock  func() time.Time

	mu     sync.Mutex
	cached *cachedMandate
}

// NewMandateManager builds a manager around client. Zero Scope and
// TTLMinutes fall back to the mandate defaults.
func NewMandateManager(client *Client, cfg MandateConfig) *MandateManager {
	if cfg.Scope == "" {
		cfg.Scope = DefaultMandateScope
	}
	if cfg.TTLMinutes == 0 {
		cfg.TTLMinutes = DefaultMandateTTLMinutes
	}
	return &MandateManager{
		client: client,
		cfg:    cfg,
		clock:  client.clock,
	}
}

// EnsureValid returns a mandate token that was either verified moments ago
// or freshly issued. The cached token is reused only when it is locally
// unexpired, the gateway confirms it valid, and more than the dust threshold
// of budget remains; any verification error is treated as "assume invalid"
// and triggers renewal. Renewal failure is surfaced to the caller.
func (m *MandateManager) EnsureValid(ctx context.Context) (string, error) {
	cached := m.snapshot()
	if cached != nil {
		if m.clock().After(cached.expiresAt) {
			// Locally expired; skip the verification round trip.
			m.client.logger.Debug("cached mandate expired locally")
		} else if m.verifyCached(ctx, cached.token) {
			return cached.token, nil
		}
		m.invalidate(cached)
	}
	return m.renew(ctx)
}

// Invalidate drops the cached mandate so the next EnsureValid call issues a
// fresh one. Useful after a settlement reports the budget spent elsewhere.
func (m *MandateManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
}

// verifyCached reports whether the gateway still accepts the token with
// usable budget. Errors count as "no".
func (m *MandateManager) verifyCached(ctx context.Context, token string) bool {
	verification, err := m.client.Mandates.Verify(ctx, token)
	if err != nil {
		m.client.logger.Debug("mandate verification errored, renewing", zap.Error(err))
		return false
	}
	if !verification.Valid || verification.Payload == nil {
		return false
	}
	if verification.Payload.BudgetRemaining <= BudgetDustThresholdUSD {
		m.client.logger.Debug("mandate budget exhausted, renewing",
			zap.Float64("budget_remaining", verification.Payload.BudgetRemaining))
		return false
	}
	return true
}

func (m *MandateManager) renew(ctx context.Context) (string, error) {
	mandate, err := m.client.Mandates.Issue(ctx, IssueMandateParams{
		Subject:    m.cfg.Subject,
		BudgetUSD:  m.cfg.BudgetUSD,
		Scope:      m.cfg.Scope,
		TTLMinutes: m.cfg.TTLMinutes,
	})
	if err != nil {
		return "", err
	}

	// Convert the server lifetime into local clock terms so a skewed server
	// clock cannot make the cache look perpetually fresh or stale.
	lifetime := time.Duration(mandate.ExpiresAt-mandate.IssuedAt) * time.Second
	expiresAt := m.clock().Add(lifetime)
	if mandate.IssuedAt == 0 {
		expiresAt = time.Unix(mandate.ExpiresAt, 0)
	}

	m.mu.Lock()
	m.cached = &cachedMandate{token: mandate.MandateToken, expiresAt: expiresAt}
	m.mu.Unlock()
	return mandate.MandateToken, nil
}

func (m *MandateManager) snapshot() *cachedMandate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached
}

// invalidate clears the cache only if it still holds the observed entry, so
// a concurrent renewal's fresh token is not discarded.
func (m *MandateManager) invalidate(observed *cachedMandate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == observed {
		m.cached = nil
	}
}
