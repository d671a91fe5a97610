package credential

import (
	"strconv"
	"time"
)

// Credential holds the per-user secret material for the betting provider.
// Created once at provisioning time and immutable afterwards; the gateway
// client is its only consumer.
type Credential struct {
	UserID     int64     `json:"user_id"`
	ExternalID string    `json:"external_id"` // Account identifier on the provider side
	SecretKey  string    `json:"-"`           // HMAC key, never serialized
	CreatedAt  time.Time `json:"created_at"`
}

// ErrCredentialNotFound indicates the user has no provider account configured
type ErrCredentialNotFound struct {
	UserID int64
}

func (e ErrCredentialNotFound) Error() string {
	return "provider credential not found for user: " + strconv.FormatInt(e.UserID, 10)
}

// Is implements the errors.Is interface for ErrCredentialNotFound
func (e ErrCredentialNotFound) Is(target error) bool {
	t, ok := target.(ErrCredentialNotFound)
	if !ok {
		return false
	}
	if t.UserID == 0 {
		return true
	}
	return e.UserID == t.UserID
}
