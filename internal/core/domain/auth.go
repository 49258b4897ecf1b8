package domain

import (
	"fmt"
	"time"
)

// AuthMode selects which trust domain API calls operate under.
// It is fixed per deployment via configuration, never per request.
type AuthMode string

const (
	// AuthModeTenant uses the shared tenant access token.
	// One credential serves every caller of the deployment.
	AuthModeTenant AuthMode = "tenant"

	// AuthModeUser impersonates the end user behind each caller.
	// Every distinct caller key gets its own OAuth credential.
	AuthModeUser AuthMode = "user"
)

// Valid returns true if the mode is one of the known modes.
func (m AuthMode) Valid() bool {
	switch m {
	case AuthModeTenant, AuthModeUser:
		return true
	}
	return false
}

// Identity is the sole cache key for credentials.
// It is immutable once constructed, derived from configuration plus
// the caller-supplied key.
type Identity struct {
	// AppID is the deployment's application identity.
	AppID string
	// UserKey distinguishes concurrently served end users.
	// Empty and ignored in tenant mode.
	UserKey string
}

// NewTenantIdentity builds the identity for tenant-mode calls.
func NewTenantIdentity(appID string) Identity {
	return Identity{AppID: appID}
}

// NewUserIdentity builds the identity for a specific end user.
func NewUserIdentity(appID, userKey string) Identity {
	return Identity{AppID: appID, UserKey: userKey}
}

// CacheKey returns the store key for this identity under the given mode.
// In tenant mode the user key never participates, so all callers share
// one record; in user mode it always does.
func (i Identity) CacheKey(mode AuthMode) string {
	if mode == AuthModeUser {
		return fmt.Sprintf("%s/%s/%s", mode, i.AppID, i.UserKey)
	}
	return fmt.Sprintf("%s/%s", mode, i.AppID)
}

// TokenRecord is a cached bearer credential.
type TokenRecord struct {
	// Value is the bearer token attached to API calls.
	Value string
	// ExpiresAt is when the token stops being usable.
	ExpiresAt time.Time
	// RefreshToken is present only for user-mode records. Its absence
	// or rejection forces re-authorization rather than silent refresh.
	RefreshToken string
}

// Valid returns true while the record has not expired.
func (r TokenRecord) Valid() bool {
	return time.Now().Before(r.ExpiresAt)
}

// ScopeKey identifies a scope-validation record.
type ScopeKey struct {
	AppID string
	Mode  AuthMode
}

// ScopeVersionRecord remembers a successful scope validation.
// Presence with a matching catalog version means "do not re-validate".
type ScopeVersionRecord struct {
	CatalogVersion string
	ValidatedAt    time.Time
	Granted        []string
}
