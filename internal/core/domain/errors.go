package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent auth lifecycle failures.
// These are distinct from infrastructure errors.
var (
	// ErrAuthorizationRequired indicates no valid or refreshable user
	// credential exists and the end user must complete an external
	// authorization step.
	ErrAuthorizationRequired = errors.New("authorization required")

	// ErrInvalidState indicates an authorization callback state value
	// could not be decoded or correlated.
	ErrInvalidState = errors.New("invalid authorization state")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// Platform error codes denoting an invalid or expired credential.
// A call failing with one of these is recoverable by invalidating the
// cached record and reacquiring, distinct from generic 4xx/5xx.
var credentialInvalidCodes = map[int]bool{
	99991661: true, // app access token invalid
	99991663: true, // tenant access token invalid
	99991664: true, // tenant access token expired
	99991665: true, // user access token invalid
	99991677: true, // user access token expired
}

// RemoteError is a classified platform API failure: the platform
// answered, but with a non-zero business code.
type RemoteError struct {
	StatusCode int
	Code       int
	Msg        string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("platform error %d: %s (http %d)", e.Code, e.Msg, e.StatusCode)
}

// CredentialInvalid reports whether the code denotes a rejected
// credential, which the gateway may recover from with one retry.
func (e *RemoteError) CredentialInvalid() bool {
	return credentialInvalidCodes[e.Code]
}

// TransientError is a network failure, 5xx, or unclassified response.
// Never retried by the core beyond the single credential-recovery retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthorizationRequiredError is the distinguished outcome of user-mode
// acquisition when no usable credential exists. It carries the URL the
// end user must visit. Refresh failures are always converted to this
// before reaching callers.
type AuthorizationRequiredError struct {
	AuthorizationURL string
}

func (e *AuthorizationRequiredError) Error() string {
	return fmt.Sprintf("authorization required, visit: %s", e.AuthorizationURL)
}

func (e *AuthorizationRequiredError) Is(target error) bool {
	return target == ErrAuthorizationRequired
}

// CredentialRejectedError is terminal for the current call. In user
// mode it carries a fresh authorization URL; in tenant mode a
// configuration-fix instruction.
type CredentialRejectedError struct {
	Mode             AuthMode
	AuthorizationURL string
	Instruction      string
	Err              error
}

func (e *CredentialRejectedError) Error() string {
	switch {
	case e.AuthorizationURL != "":
		return fmt.Sprintf("credential rejected (%s mode): authorize at %s", e.Mode, e.AuthorizationURL)
	case e.Instruction != "":
		return fmt.Sprintf("credential rejected (%s mode): %s", e.Mode, e.Instruction)
	default:
		return fmt.Sprintf("credential rejected (%s mode)", e.Mode)
	}
}

func (e *CredentialRejectedError) Unwrap() error { return e.Err }

// ScopeInsufficientError reports that the application lacks permissions
// an operation requires. Never retried; carries the full required-scope
// table as a remediation payload.
type ScopeInsufficientError struct {
	Mode           AuthMode
	Missing        []string
	Required       map[string][]string
	CatalogVersion string
}

func (e *ScopeInsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s scopes, missing: %s", e.Mode, strings.Join(e.Missing, ", "))
}

// IsCredentialRejected reports whether err is a terminal credential
// rejection.
func IsCredentialRejected(err error) bool {
	var cr *CredentialRejectedError
	return errors.As(err, &cr)
}

// IsScopeInsufficient reports whether err is a scope failure.
func IsScopeInsufficient(err error) bool {
	var si *ScopeInsufficientError
	return errors.As(err, &si)
}
