package feishu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driving"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// Ensure UserTokenProvider implements the interfaces.
var (
	_ driven.UserAuthorizer          = (*UserTokenProvider)(nil)
	_ driving.AuthorizationCompleter = (*UserTokenProvider)(nil)
)

// UserTokenProvider manages per-caller OAuth credentials: refresh-token
// exchange with rotation, authorization URL generation, and the
// callback-side code exchange that creates a user record from nothing.
type UserTokenProvider struct {
	client      *Client
	appID       string
	secret      string
	redirectURI string
	store       driven.TokenStore
	catalog     *domain.ScopeCatalog

	mu       sync.Mutex
	inflight map[string]*sync.Mutex // per-identity refresh gate
}

// NewUserTokenProvider creates the user-mode provider.
func NewUserTokenProvider(
	client *Client,
	appID, secret, redirectURI string,
	store driven.TokenStore,
	catalog *domain.ScopeCatalog,
) *UserTokenProvider {
	return &UserTokenProvider{
		client:      client,
		appID:       appID,
		secret:      secret,
		redirectURI: redirectURI,
		store:       store,
		catalog:     catalog,
		inflight:    make(map[string]*sync.Mutex),
	}
}

// Mode returns AuthModeUser.
func (p *UserTokenProvider) Mode() domain.AuthMode {
	return domain.AuthModeUser
}

// Acquire returns a valid user token. With no cached record it performs
// no network call and returns the authorization-required outcome; with
// an expired record it refreshes, rotating the refresh credential when
// the platform returns a new one. A rejected refresh credential deletes
// the record and falls back to authorization-required.
func (p *UserTokenProvider) Acquire(ctx context.Context, id domain.Identity) (string, error) {
	rec, ok := p.store.Get(id, domain.AuthModeUser)
	if !ok {
		return p.authorizationRequired(id)
	}
	if rec.Valid() {
		return rec.Value, nil
	}
	if rec.RefreshToken == "" {
		p.store.Remove(id, domain.AuthModeUser)
		return p.authorizationRequired(id)
	}

	// Serialize refresh per identity so simultaneous expiries don't
	// issue duplicate exchanges against the platform.
	unlock := p.lockIdentity(id)
	defer unlock()

	// Re-read: another caller may have refreshed while we waited.
	rec, ok = p.store.Get(id, domain.AuthModeUser)
	if !ok {
		return p.authorizationRequired(id)
	}
	if rec.Valid() {
		return rec.Value, nil
	}

	tok, err := p.exchange(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     p.appID,
		"client_secret": p.secret,
		"refresh_token": rec.RefreshToken,
	})
	if err != nil {
		var remote *domain.RemoteError
		if errors.As(err, &remote) {
			// The refresh credential itself was rejected. Delete the
			// record; the next call reacquires from zero.
			logger.Debug("refresh rejected for %s: %v", id.CacheKey(domain.AuthModeUser), err)
			p.store.Remove(id, domain.AuthModeUser)
			return p.authorizationRequired(id)
		}
		return "", err
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		// No rotation: the prior refresh credential stays usable.
		refresh = rec.RefreshToken
	}
	p.store.Put(id, domain.AuthModeUser,
		domain.TokenRecord{Value: tok.AccessToken, RefreshToken: refresh},
		time.Duration(tok.ExpiresIn)*time.Second)
	return tok.AccessToken, nil
}

// AuthorizationURL builds the URL the end user must visit, binding the
// identity into the opaque state value.
func (p *UserTokenProvider) AuthorizationURL(id domain.Identity) (string, error) {
	state, err := encodeState(authState{
		AppID:       p.appID,
		AppSecret:   p.secret,
		UserKey:     id.UserKey,
		RedirectURI: p.redirectURI,
		Nonce:       uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return p.oauthConfig().AuthCodeURL(state), nil
}

// CompleteAuthorization exchanges an authorization code for the initial
// access+refresh pair and populates the cache for the identity bound
// into state. This is the only path that creates a user-mode record
// from nothing.
func (p *UserTokenProvider) CompleteAuthorization(ctx context.Context, state, code string) (string, error) {
	st, err := decodeState(state)
	if err != nil {
		return "", err
	}
	if st.AppID != p.appID {
		return "", fmt.Errorf("%w: state was minted for application %s", domain.ErrInvalidState, st.AppID)
	}

	tok, err := p.exchange(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     st.AppID,
		"client_secret": st.AppSecret,
		"code":          code,
		"redirect_uri":  st.RedirectURI,
	})
	if err != nil {
		return "", fmt.Errorf("authorization code exchange: %w", err)
	}

	id := domain.NewUserIdentity(st.AppID, st.UserKey)
	p.store.Put(id, domain.AuthModeUser,
		domain.TokenRecord{Value: tok.AccessToken, RefreshToken: tok.RefreshToken},
		time.Duration(tok.ExpiresIn)*time.Second)
	logger.Info("user authorization completed for %s", id.CacheKey(domain.AuthModeUser))
	return tok.AccessToken, nil
}

// tokenResponse is the shape of /authen/v2/oauth/token answers. OAuth
// grant errors arrive with HTTP 400 and the error/error_description
// pair; platform-level failures use the code/msg pair.
type tokenResponse struct {
	Code             int    `json:"code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
}

func (p *UserTokenProvider) exchange(ctx context.Context, body map[string]string) (*tokenResponse, error) {
	var resp tokenResponse
	if err := p.client.postJSON(ctx, "/authen/v2/oauth/token", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &domain.RemoteError{
			Code: resp.Code,
			Msg:  fmt.Sprintf("%s: %s", resp.Error, resp.ErrorDescription),
		}
	}
	if resp.Code != 0 {
		return nil, &domain.RemoteError{Code: resp.Code, Msg: resp.Msg}
	}
	if resp.AccessToken == "" {
		return nil, &domain.TransientError{Op: "token exchange", Err: errors.New("response carried no access token")}
	}
	return &resp, nil
}

func (p *UserTokenProvider) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.appID,
		ClientSecret: p.secret,
		RedirectURL:  p.redirectURI,
		Scopes:       p.catalog.Required(domain.AuthModeUser),
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.client.BaseURL() + "/authen/v1/authorize",
			TokenURL: p.client.BaseURL() + "/authen/v2/oauth/token",
		},
	}
}

// authorizationRequired builds the distinguished no-credential outcome.
// No network call happens on this path.
func (p *UserTokenProvider) authorizationRequired(id domain.Identity) (string, error) {
	url, err := p.AuthorizationURL(id)
	if err != nil {
		return "", err
	}
	return "", &domain.AuthorizationRequiredError{AuthorizationURL: url}
}

func (p *UserTokenProvider) lockIdentity(id domain.Identity) func() {
	key := id.CacheKey(domain.AuthModeUser)
	p.mu.Lock()
	m, ok := p.inflight[key]
	if !ok {
		m = &sync.Mutex{}
		p.inflight[key] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}
