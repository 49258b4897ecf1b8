package driving

import (
	"context"
	"encoding/json"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// Gateway is the single entry point domain operations use to reach the
// platform. It resolves the active auth mode, obtains a token through
// the matching provider, issues the call, and performs one bounded
// retry after credential refresh.
//
// Failures surface as one of *domain.CredentialRejectedError,
// *domain.ScopeInsufficientError or *domain.TransientError.
type Gateway interface {
	AuthorizedCall(ctx context.Context, id domain.Identity, method, endpoint string, payload any) (json.RawMessage, error)
}
