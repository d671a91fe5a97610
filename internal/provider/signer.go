// Package provider implements the outbound gateway to the external betting
// provider: request signing, retry with backoff, a circuit breaker, and
// per-call logging.
package provider

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sign computes a hex-encoded HMAC-SHA512 over the canonical JSON
// serialization of body, keyed by the account secret. A nil body signs as an
// empty object so that signature and wire payload always agree.
// Deterministic for a given body and secret.
func Sign(body any, secret string) (string, error) {
	payload, err := canonicalPayload(body)
	if err != nil {
		return "", err
	}
	return signPayload(payload, secret), nil
}

// signPayload signs an already-serialized payload
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalPayload serializes body the same way it is sent on the wire.
// json.Marshal sorts map keys, so map-based payloads sign canonically.
func canonicalPayload(body any) ([]byte, error) {
	if body == nil {
		return []byte("{}"), nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		// Only unserializable payloads end up here, which is a
		// programming error rather than a runtime condition.
		return nil, fmt.Errorf("failed to serialize request payload for signing: %w", err)
	}
	return payload, nil
}
