package feishu

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// grantStatusGranted is the grant_status value for an authorized scope.
const grantStatusGranted = 1

// GrantedScopes lists the permissions the platform reports as granted
// to the application. The endpoint is bearer-authenticated with an
// application-level token; scope_type says which auth mode each entry
// applies to.
func (c *Client) GrantedScopes(ctx context.Context, token string) ([]domain.ScopeGrant, error) {
	data, err := c.Do(ctx, token, http.MethodGet, "/application/v6/scopes", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Scopes []struct {
			ScopeName   string `json:"scope_name"`
			GrantStatus int    `json:"grant_status"`
			ScopeType   string `json:"scope_type"`
		} `json:"scopes"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &domain.TransientError{Op: "decode scopes", Err: err}
	}

	grants := make([]domain.ScopeGrant, 0, len(out.Scopes))
	for _, s := range out.Scopes {
		grants = append(grants, domain.ScopeGrant{
			Name:    s.ScopeName,
			Type:    domain.AuthMode(s.ScopeType),
			Granted: s.GrantStatus == grantStatusGranted,
		})
	}
	return grants, nil
}
