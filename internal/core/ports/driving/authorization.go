package driving

import "context"

// AuthorizationCompleter finishes a user authorization started by an
// authorization URL. The callback handler feeds it the code and state
// from the platform redirect; the state round-trips the identity, so no
// server-side session storage is involved. This is the only path that
// creates a user-mode credential record from nothing.
type AuthorizationCompleter interface {
	// CompleteAuthorization exchanges the authorization code for an
	// initial access+refresh pair and populates the token cache for the
	// identity bound into state. Returns the new access token.
	CompleteAuthorization(ctx context.Context, state, code string) (string, error)
}
