package agentpay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// PaymentStatus is the gateway's view of a transaction. It progresses one
// way: pending, then exactly one of completed or failed.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Defaults for confirmation polling: 30 attempts 2s apart gives fast chains
// a realistic window (about a minute) without blocking forever.
const (
	DefaultConfirmationAttempts = 30
	DefaultConfirmationInterval = 2 * time.Second
)

// paymentScheme is the assertion scheme for EIP-3009 style stablecoin
// transfers, the only scheme the gateway currently settles.
const paymentScheme = "eip3009"

// PaymentsService submits settlement proofs and polls for confirmation.
type PaymentsService struct {
	client *Client
}

// SubmitParams describes one settlement submission. The primary and
// commission hashes reference two independent on-chain transfers; the
// commission leg is optional and its absence does not block settlement of
// the primary leg.
type SubmitParams struct {
	// MandateToken authorizes the spend.
	MandateToken string `json:"-" validate:"required,mandate_token"`
	// TxHash is the primary on-chain transfer.
	TxHash string `json:"tx_hash" validate:"required,txhash"`
	// TxHashCommission is the optional commission transfer.
	TxHashCommission *string `json:"tx_hash_commission,omitempty" validate:"omitempty,txhash"`
	Chain            Chain   `json:"chain" validate:"required,oneof=ethereum base polygon arbitrum"`
	Token            Token   `json:"token" validate:"required,oneof=USDC USDT DAI"`
	// PriceUSD is the resource price the transfer must satisfy, if known.
	PriceUSD *float64 `json:"price_usd,omitempty" validate:"omitempty,finite_positive"`
	// Resource optionally names the resource being paid for.
	Resource string `json:"resource,omitempty"`
}

// paymentAssertion travels base64-encoded in the AP-Payment header.
type paymentAssertion struct {
	Scheme           string  `json:"scheme"`
	TxHash           string  `json:"tx_hash"`
	TxHashCommission *string `json:"tx_hash_commission,omitempty"`
}

// SubmitResult is the gateway's settlement decision. A domain-level
// rejection (wrong amount, already spent, wrong recipient) arrives here with
// Success=false rather than as an error: a refused payment is an ordinary
// outcome of the protocol, not an exceptional one.
type SubmitResult struct {
	Success          bool            `json:"success"`
	Status           PaymentStatus   `json:"status"`
	TxHash           string          `json:"txHash,omitempty"`
	TxHashCommission *string         `json:"txHashCommission,omitempty"`
	AmountUSD        float64         `json:"amountUsd,omitempty"`
	BudgetRemaining  float64         `json:"budgetRemaining,omitempty"`
	// Resource is the arbitrary payload granted by the settlement.
	Resource json.RawMessage `json:"resource,omitempty"`
	// Error carries the gateway's rejection reason when Success is false.
	Error string `json:"error,omitempty"`
}

// VerificationRecord is the gateway-confirmed view of a transaction.
type VerificationRecord struct {
	TxHash      string        `json:"txHash"`
	Status      PaymentStatus `json:"status"`
	Sender      string        `json:"sender"`
	Recipient   string        `json:"recipient"`
	AmountUSD   float64       `json:"amountUsd"`
	Token       Token         `json:"token"`
	Chain       Chain         `json:"chain"`
	BlockNumber *int64        `json:"blockNumber,omitempty"`
	Timestamp   int64         `json:"timestamp"`
	Error       string        `json:"error,omitempty"`
}

// Submit presents a previously executed on-chain transfer (and optionally a
// commission transfer) as proof of payment. Transport and credential
// failures return an error; a gateway rejection of the transaction itself is
// reported in the result with Success=false.
func (s *PaymentsService) Submit(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	if err := validateStruct(params); err != nil {
		return nil, err
	}

	assertion, err := json.Marshal(paymentAssertion{
		Scheme:           paymentScheme,
		TxHash:           params.TxHash,
		TxHashCommission: params.TxHashCommission,
	})
	if err != nil {
		return nil, fmt.Errorf("agentpay: marshal payment assertion: %w", err)
	}

	headers := http.Header{}
	headers.Set(headerMandate, params.MandateToken)
	headers.Set(headerPayment, base64.StdEncoding.EncodeToString(assertion))

	raw, _, err := s.client.request(ctx, http.MethodPost, "/api/payments/submit", params, headers)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isTransactionRejection(apiErr) {
			s.client.logger.Debug("settlement rejected",
				zap.String("tx_hash", params.TxHash), zap.String("reason", apiErr.Message))
			return &SubmitResult{
				Success: false,
				Status:  PaymentStatusFailed,
				TxHash:  params.TxHash,
				Error:   apiErr.Message,
			}, nil
		}
		return nil, err
	}

	var result SubmitResult
	if err := decodeJSON(raw, &result); err != nil {
		return nil, err
	}
	if result.TxHash == "" {
		result.TxHash = params.TxHash
	}
	return &result, nil
}

// Verify fetches the gateway's confirmation record for a transaction. A 404
// means the gateway has not indexed the transaction yet.
func (s *PaymentsService) Verify(ctx context.Context, txHash string) (*VerificationRecord, error) {
	if !IsValidTxHash(txHash) {
		return nil, &ValidationError{Field: "tx_hash", Message: "must be a 0x-prefixed 64-character hex transaction hash"}
	}

	raw, _, err := s.client.request(ctx, http.MethodGet, "/api/payments/verify/"+url.PathEscape(txHash), nil, nil)
	if err != nil {
		return nil, err
	}

	var record VerificationRecord
	if err := decodeJSON(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

type confirmationConfig struct {
	maxAttempts int
	interval    time.Duration
}

// ConfirmationOption tunes confirmation polling.
type ConfirmationOption func(*confirmationConfig)

// WithMaxAttempts bounds the number of polls before giving up.
func WithMaxAttempts(n int) ConfirmationOption {
	if n <= 0 {
		panic("agentpay: max attempts must be positive")
	}
	return func(cfg *confirmationConfig) { cfg.maxAttempts = n }
}

// WithPollInterval sets the delay between polls.
func WithPollInterval(d time.Duration) ConfirmationOption {
	if d <= 0 {
		panic("agentpay: poll interval must be positive")
	}
	return func(cfg *confirmationConfig) { cfg.interval = d }
}

// WaitForConfirmation polls the verification endpoint until the transaction
// reaches a terminal status. Completed returns the record; failed returns an
// *InvalidTransactionError with the gateway's reason. A not-yet-indexed
// transaction (gateway 404) is transient and consumes one attempt; any other
// error aborts the poll immediately. Exhausting the attempt budget returns a
// *ConfirmationTimeoutError.
//
// The loop is driven entirely by this call: it suspends between polls and
// honors ctx cancellation, but spawns no background work.
func (s *PaymentsService) WaitForConfirmation(ctx context.Context, txHash string, opts ...ConfirmationOption) (*VerificationRecord, error) {
	cfg := confirmationConfig{
		maxAttempts: DefaultConfirmationAttempts,
		interval:    DefaultConfirmationInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	delay := backoff.WithContext(backoff.NewConstantBackOff(cfg.interval), ctx)

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		record, err := s.Verify(ctx, txHash)
		switch {
		case err == nil:
			switch record.Status {
			case PaymentStatusCompleted:
				return record, nil
			case PaymentStatusFailed:
				reason := record.Error
				if reason == "" {
					reason = "transaction failed"
				}
				return nil, &InvalidTransactionError{TxHash: txHash, Reason: reason}
			}
			// Still pending; wait and poll again.
		case isNotIndexedYet(err):
			s.client.logger.Debug("transaction not indexed yet",
				zap.String("tx_hash", txHash), zap.Int("attempt", attempt))
		default:
			return nil, err
		}

		wait := delay.NextBackOff()
		if wait == backoff.Stop {
			return nil, ctx.Err()
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, &ConfirmationTimeoutError{TxHash: txHash, Attempts: cfg.maxAttempts}
}

// isTransactionRejection distinguishes "the gateway examined the transaction
// and refused it" from transport-shaped 400s such as malformed requests.
func isTransactionRejection(apiErr *APIError) bool {
	if apiErr.Status != http.StatusBadRequest {
		return false
	}
	if apiErr.Code == "invalid_transaction" {
		return true
	}
	message := strings.ToLower(apiErr.Message)
	return strings.Contains(message, "transaction") || strings.Contains(message, "tx ")
}

// isNotIndexedYet reports the specific not-found condition that confirmation
// polling retries; every other failure is fatal.
func isNotIndexedYet(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
