package agentpay

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Default mandate parameters applied when the caller leaves them zero.
const (
	DefaultMandateScope      = "*"
	DefaultMandateTTLMinutes = 10080 // 7 days
)

// MandatesService issues and verifies budget mandates.
type MandatesService struct {
	client *Client
}

// IssueMandateParams configures a mandate issuance request.
type IssueMandateParams struct {
	// Subject is the identity of the payer the mandate is bound to.
	Subject string `json:"subject" validate:"required"`
	// BudgetUSD is the total spend cap in USD.
	BudgetUSD float64 `json:"budget_usd" validate:"required,finite_positive"`
	// Scope restricts what the mandate may pay for. Defaults to "*".
	Scope string `json:"scope,omitempty"`
	// TTLMinutes bounds the mandate lifetime. Defaults to 10080 (7 days).
	TTLMinutes int `json:"ttl_minutes,omitempty" validate:"omitempty,gt=0"`
}

// Mandate is a freshly issued budget grant. Only the token is ever
// transmitted or cached; the timestamps are epoch seconds from the gateway.
type Mandate struct {
	MandateToken string `json:"mandateToken"`
	IssuedAt     int64  `json:"issuedAt"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// MandatePayload is the claim set embedded in a mandate token.
type MandatePayload struct {
	Sub             string  `json:"sub"`
	BudgetUSD       float64 `json:"budget_usd"`
	BudgetRemaining float64 `json:"budget_remaining"`
	Scope           string  `json:"scope"`
	Exp             int64   `json:"exp"`
	Iat             int64   `json:"iat"`
	Nonce           string  `json:"nonce"`
}

// MandateVerification is the gateway's view of a presented token.
type MandateVerification struct {
	Valid   bool            `json:"valid"`
	Payload *MandatePayload `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Issue requests a new mandate from the gateway. Gateway-side rejections are
// reported as *MandateError; transport and credential failures keep their own
// types.
func (s *MandatesService) Issue(ctx context.Context, params IssueMandateParams) (*Mandate, error) {
	if params.Scope == "" {
		params.Scope = DefaultMandateScope
	}
	if params.TTLMinutes == 0 {
		params.TTLMinutes = DefaultMandateTTLMinutes
	}
	if params.TTLMinutes < 0 {
		return nil, newMandateError(MandateReasonInvalidTTL, "ttl_minutes must be positive", nil)
	}
	if err := validateStruct(params); err != nil {
		return nil, err
	}

	raw, _, err := s.client.request(ctx, http.MethodPost, "/api/mandates/issue", params, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "ttl") {
				return nil, newMandateError(MandateReasonInvalidTTL, apiErr.Message, err)
			}
			return nil, newMandateError(MandateReasonIssueFailed, apiErr.Message, err)
		}
		return nil, err
	}

	var mandate Mandate
	if err := decodeJSON(raw, &mandate); err != nil {
		return nil, newMandateError(MandateReasonIssueFailed, "malformed issuance response", err)
	}
	if mandate.MandateToken == "" {
		return nil, newMandateError(MandateReasonIssueFailed, "gateway returned no mandate token", nil)
	}
	return &mandate, nil
}

// Verify asks the gateway whether a token is still valid and how much budget
// remains. An invalid token yields Valid=false with no error; only transport
// or gateway failures return an error.
func (s *MandatesService) Verify(ctx context.Context, mandateToken string) (*MandateVerification, error) {
	if !IsWellFormedMandateToken(mandateToken) {
		return nil, newMandateError(MandateReasonInvalidMandate, "token is not well-formed", nil)
	}

	body := struct {
		MandateToken string `json:"mandateToken"`
	}{MandateToken: mandateToken}

	raw, _, err := s.client.request(ctx, http.MethodPost, "/api/mandates/verify", body, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, newMandateError(MandateReasonVerifyFailed, apiErr.Message, err)
		}
		return nil, err
	}

	var verification MandateVerification
	if err := decodeJSON(raw, &verification); err != nil {
		return nil, newMandateError(MandateReasonVerifyFailed, "malformed verification response", err)
	}
	return &verification, nil
}

// Err converts an invalid verification into a *MandateError with reason
// VERIFICATION_FAILED, for callers that treat an invalid token as fatal
// rather than as a renewal trigger. A valid verification returns nil.
func (v *MandateVerification) Err() error {
	if v.Valid {
		return nil
	}
	message := v.Error
	if message == "" {
		message = "gateway reported the mandate invalid"
	}
	return newMandateError(MandateReasonVerificationFailed, message, nil)
}

// ParseMandateClaims decodes the claim set of a mandate token locally,
// without verifying its signature. Useful for inspecting expiry and budget
// before a round trip; never a substitute for [MandatesService.Verify].
func ParseMandateClaims(mandateToken string) (*MandatePayload, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(mandateToken, claims); err != nil {
		return nil, newMandateError(MandateReasonInvalidMandate, "token is not a parseable mandate", err)
	}

	payload := &MandatePayload{}
	if sub, err := claims.GetSubject(); err == nil {
		payload.Sub = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		payload.Exp = exp.Unix()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		payload.Iat = iat.Unix()
	}
	if v, ok := claims["budget_usd"].(float64); ok {
		payload.BudgetUSD = v
	}
	if v, ok := claims["budget_remaining"].(float64); ok {
		payload.BudgetRemaining = v
	}
	if v, ok := claims["scope"].(string); ok {
		payload.Scope = v
	}
	if v, ok := claims["nonce"].(string); ok {
		payload.Nonce = v
	}
	return payload, nil
}
