package credentials

import (
	"strings"
	"time"
)

// Credential is a bearer token together with its expiry. A zero ExpiresAt never expires.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Empty reports a missing token.
func (credential Credential) Empty() bool {
	return len(strings.TrimSpace(credential.Token)) == 0
}

// Expired reports whether the credential is past its expiry at the given instant.
func (credential Credential) Expired(now time.Time) bool {
	if credential.ExpiresAt.IsZero() {
		return false
	}
	return now.After(credential.ExpiresAt)
}
