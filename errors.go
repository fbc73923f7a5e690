package agentpay

import (
	"fmt"
	"time"
)

// MandateErrorReason is a machine-readable identifier for mandate failures.
type MandateErrorReason string

const (
	MandateReasonInvalidTTL         MandateErrorReason = "INVALID_TTL"         // TTL outside the gateway's accepted range.
	MandateReasonIssueFailed        MandateErrorReason = "ISSUE_FAILED"        // Gateway rejected the issuance request.
	MandateReasonVerifyFailed       MandateErrorReason = "VERIFY_FAILED"       // Verification request could not complete.
	MandateReasonVerificationFailed MandateErrorReason = "VERIFICATION_FAILED" // Gateway reported the token invalid.
	MandateReasonInvalidMandate     MandateErrorReason = "INVALID_MANDATE"     // Token is malformed or unparseable.
)

// ValidationError reports malformed input caught before any network call.
type ValidationError struct {
	// Field is the JSON path of the offending field.
	Field string
	// Message describes the constraint that failed.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "agentpay: " + e.Message
	}
	return fmt.Sprintf("agentpay: %s %s", e.Field, e.Message)
}

// NetworkError reports that the gateway was unreachable or the connection
// failed mid-flight. It is never produced for a completed HTTP exchange.
type NetworkError struct {
	// Op names the operation that failed, e.g. "mandates.issue".
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("agentpay: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthenticationError reports that the gateway rejected the API credential.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "agentpay: authentication failed: " + e.Message
}

// RateLimitError reports a 429 response. The SDK never retries on its own;
// callers decide whether to wait out RetryAfter.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	// Limit and Remaining mirror the x-ratelimit-* response headers.
	// They are -1 when the gateway did not supply them.
	Limit     int
	Remaining int
}

func (e *RateLimitError) Error() string {
	return "agentpay: rate limited: " + e.Message
}

// APIError is a gateway error that does not map to a more specific kind.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agentpay: gateway error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("agentpay: gateway error %d: %s", e.Status, e.Message)
}

// MandateError reports an issuance or verification failure with a
// machine-readable reason.
type MandateError struct {
	Reason  MandateErrorReason
	Message string
	Err     error
}

func (e *MandateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("agentpay: mandate error %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("agentpay: mandate error %s", e.Reason)
}

func (e *MandateError) Unwrap() error { return e.Err }

// InvalidTransactionError reports a settlement-domain rejection: the gateway
// examined the referenced transaction and refused it. Inside
// [PaymentsService.Submit] this outcome is returned as a failed
// [SubmitResult] rather than an error; [PaymentsService.WaitForConfirmation]
// raises it when a polled transaction reaches the failed status.
type InvalidTransactionError struct {
	TxHash string
	// Reason is the gateway-supplied rejection reason.
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("agentpay: transaction %s rejected: %s", e.TxHash, e.Reason)
}

// ConfirmationTimeoutError reports that confirmation polling exhausted its
// attempt budget without observing a terminal status.
type ConfirmationTimeoutError struct {
	TxHash   string
	Attempts int
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("agentpay: transaction %s not confirmed after %d attempts", e.TxHash, e.Attempts)
}

func newMandateError(reason MandateErrorReason, message string, err error) *MandateError {
	return &MandateError{Reason: reason, Message: message, Err: err}
}
