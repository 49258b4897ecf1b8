package feishu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// Ensure TenantTokenProvider implements the interface.
var _ driven.CredentialProvider = (*TenantTokenProvider)(nil)

// TenantTokenProvider obtains the deployment-wide tenant access token
// by direct exchange of the static application secret. There is no
// refresh flow: an expired token is simply exchanged again, and an
// exchange failure has no remediation other than fixing configuration.
type TenantTokenProvider struct {
	client *Client
	secret string
	store  driven.TokenStore

	mu sync.Mutex // serializes the exchange so concurrent misses don't duplicate it
}

// NewTenantTokenProvider creates the application-level provider.
func NewTenantTokenProvider(client *Client, secret string, store driven.TokenStore) *TenantTokenProvider {
	return &TenantTokenProvider{
		client: client,
		secret: secret,
		store:  store,
	}
}

// Mode returns AuthModeTenant.
func (p *TenantTokenProvider) Mode() domain.AuthMode {
	return domain.AuthModeTenant
}

// Acquire returns a valid tenant token, exchanging the app secret when
// the cache has no usable record.
func (p *TenantTokenProvider) Acquire(ctx context.Context, id domain.Identity) (string, error) {
	if rec, ok := p.store.Get(id, domain.AuthModeTenant); ok && rec.Valid() {
		return rec.Value, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have finished the exchange while we waited.
	if rec, ok := p.store.Get(id, domain.AuthModeTenant); ok && rec.Valid() {
		return rec.Value, nil
	}

	var resp struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	err := p.client.postJSON(ctx, "/auth/v3/tenant_access_token/internal", map[string]string{
		"app_id":     id.AppID,
		"app_secret": p.secret,
	}, &resp)
	if err != nil {
		return "", &domain.CredentialRejectedError{
			Mode:        domain.AuthModeTenant,
			Instruction: "tenant token exchange failed; verify app_id/app_secret and platform reachability",
			Err:         err,
		}
	}
	if resp.Code != 0 {
		return "", &domain.CredentialRejectedError{
			Mode:        domain.AuthModeTenant,
			Instruction: fmt.Sprintf("platform rejected the app secret (code %d: %s); fix the configured credentials", resp.Code, resp.Msg),
			Err:         &domain.RemoteError{Code: resp.Code, Msg: resp.Msg},
		}
	}

	logger.Debug("tenant token acquired for %s, expires in %ds", id.AppID, resp.Expire)
	p.store.Put(id, domain.AuthModeTenant,
		domain.TokenRecord{Value: resp.TenantAccessToken},
		time.Duration(resp.Expire)*time.Second)
	return resp.TenantAccessToken, nil
}
