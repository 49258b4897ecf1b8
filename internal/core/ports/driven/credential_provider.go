package driven

import (
	"context"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// CredentialProvider obtains a usable bearer token for an identity,
// caching and refreshing transparently through the TokenStore.
//
// Tenant-mode acquisition failures are terminal for the request: there
// is no secondary credential to fall back to. User-mode providers
// return *domain.AuthorizationRequiredError when no valid or
// refreshable credential exists.
type CredentialProvider interface {
	// Mode returns the auth mode this provider serves.
	Mode() domain.AuthMode

	// Acquire returns a valid access token for the identity,
	// exchanging or refreshing credentials as needed.
	Acquire(ctx context.Context, id domain.Identity) (string, error)
}

// UserAuthorizer is the extra surface of the user-mode provider the
// gateway needs when rendering terminal rejections: a fresh
// authorization URL for the end user to visit.
type UserAuthorizer interface {
	CredentialProvider

	// AuthorizationURL builds the URL the end user must visit to grant
	// access, binding the identity into the opaque state value.
	AuthorizationURL(id domain.Identity) (string, error)
}
