// Package signature implements the HMAC schemes used between SDK and gateway:
// canonical-JSON request signing for outbound API calls and raw-payload
// signing for webhook notifications.
package signature

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

// Sign produces the Signature header value for a request: the base64url
// HMAC-SHA256 of `RFC3339(timestamp) + "." + canonicalJSON`.
func Sign(key []byte, ts time.Time, canonicalBody []byte) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(BuildSigningPayload(ts, canonicalBody))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BuildSigningPayload constructs the canonical string that is HMAC-signed.
func BuildSigningPayload(ts time.Time, canonicalBody []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339Nano))
	buf.WriteByte('.')
	buf.Write(canonicalBody)
	return buf.Bytes()
}

// CanonicalizeJSONBody normalizes arbitrary JSON into canonical form for
// signing. Whitespace-only input canonicalizes to null.
func CanonicalizeJSONBody(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("null"), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("signature: multiple JSON documents in body")
	}
	return canonicaljson.Marshal(payload)
}

// SignRaw computes the hex HMAC-SHA256 of the exact payload bytes. This is
// the scheme used for webhook notifications, where the signature must cover
// the transmitted bytes rather than any re-serialized structure.
func SignRaw(key, payload []byte) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRaw reports whether sig is a valid HMAC-SHA256 of payload under key.
// Signatures are accepted hex-encoded or base64url-encoded; comparison is
// constant-time either way.
func VerifyRaw(key, payload []byte, sig string) bool {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(payload)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(sig); err == nil {
		return hmac.Equal(decoded, expected)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(sig); err == nil {
		return hmac.Equal(decoded, expected)
	}
	return false
}
