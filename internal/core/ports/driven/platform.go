package driven

import (
	"context"
	"encoding/json"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// PlatformCaller issues a single authenticated request against the
// document platform and classifies the response.
//
// A successful platform envelope yields the raw data payload. Failures
// are returned as *domain.RemoteError (platform answered with a
// non-zero code) or *domain.TransientError (network failure, 5xx,
// malformed body). Timeouts on the network layer map to transient.
type PlatformCaller interface {
	Do(ctx context.Context, token, method, endpoint string, payload any) (json.RawMessage, error)
}

// PermissionReader lists the permissions the platform has actually
// granted to the application. The introspection endpoint only answers
// to an application-level token.
type PermissionReader interface {
	GrantedScopes(ctx context.Context, token string) ([]domain.ScopeGrant, error)
}
