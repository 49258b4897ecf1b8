package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driving"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// Ensure RequestGateway implements the interface.
var _ driving.Gateway = (*RequestGateway)(nil)

// RequestGateway orchestrates every platform call: scope gate, token
// resolution, the HTTP call itself, failure classification, and a
// single bounded retry after credential invalidation.
type RequestGateway struct {
	mode      domain.AuthMode
	store     driven.TokenStore
	tenant    driven.CredentialProvider
	user      driven.UserAuthorizer
	caller    driven.PlatformCaller
	validator *ScopeValidator
}

// NewRequestGateway creates a gateway for the configured auth mode.
// validator may be nil to disable scope validation.
func NewRequestGateway(
	mode domain.AuthMode,
	store driven.TokenStore,
	tenant driven.CredentialProvider,
	user driven.UserAuthorizer,
	caller driven.PlatformCaller,
	validator *ScopeValidator,
) (*RequestGateway, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown auth mode %q", domain.ErrInvalidInput, mode)
	}
	return &RequestGateway{
		mode:      mode,
		store:     store,
		tenant:    tenant,
		user:      user,
		caller:    caller,
		validator: validator,
	}, nil
}

// AuthorizedCall issues an authenticated platform call with at most one
// retry. The bound is structural: the loop runs twice at most, and the
// retry flag flips exactly once, on the first recoverable rejection.
func (g *RequestGateway) AuthorizedCall(
	ctx context.Context,
	id domain.Identity,
	method, endpoint string,
	payload any,
) (json.RawMessage, error) {
	if g.validator != nil {
		// ScopeInsufficient cannot be fixed by retrying; it propagates
		// immediately. Transport failures of the check itself never
		// surface here.
		if err := g.validator.EnsureSufficientScope(ctx, id, g.mode); err != nil {
			return nil, err
		}
	}

	retried := false
	for attempt := 0; attempt <= 1; attempt++ {
		token, err := g.acquireToken(ctx, id)
		if err != nil {
			return nil, err
		}

		result, err := g.caller.Do(ctx, token, method, endpoint, payload)
		if err == nil {
			return result, nil
		}

		var remote *domain.RemoteError
		if errors.As(err, &remote) && remote.CredentialInvalid() && !retried {
			// Invalidate happens-before the retried acquire, forcing
			// the provider to reacquire or refresh on the next pass.
			logger.Debug("credential rejected (code %d), invalidating %s and retrying",
				remote.Code, id.CacheKey(g.mode))
			g.store.Remove(id, g.mode)
			retried = true
			continue
		}

		return nil, g.classify(id, err)
	}

	// Unreachable: the loop either returns a result or a terminal error.
	return nil, &domain.TransientError{Op: "authorized call", Err: errors.New("retry budget exhausted")}
}

// acquireToken resolves a token through the mode-matching provider and
// converts acquisition failures into terminal errors.
func (g *RequestGateway) acquireToken(ctx context.Context, id domain.Identity) (string, error) {
	var (
		token string
		err   error
	)
	switch g.mode {
	case domain.AuthModeTenant:
		token, err = g.tenant.Acquire(ctx, id)
	case domain.AuthModeUser:
		token, err = g.user.Acquire(ctx, id)
	default:
		return "", fmt.Errorf("%w: unknown auth mode %q", domain.ErrInvalidInput, g.mode)
	}
	if err == nil {
		return token, nil
	}

	var authReq *domain.AuthorizationRequiredError
	if errors.As(err, &authReq) {
		return "", &domain.CredentialRejectedError{
			Mode:             domain.AuthModeUser,
			AuthorizationURL: authReq.AuthorizationURL,
			Err:              err,
		}
	}
	if domain.IsCredentialRejected(err) {
		return "", err
	}
	return "", &domain.TransientError{Op: "acquire token", Err: err}
}

// classify maps a failed platform call to its terminal error.
func (g *RequestGateway) classify(id domain.Identity, err error) error {
	var remote *domain.RemoteError
	if errors.As(err, &remote) && remote.CredentialInvalid() {
		// Second rejection in a row: the credential path is broken in a
		// way reacquisition did not fix.
		return g.rejected(id, err)
	}
	var transient *domain.TransientError
	if errors.As(err, &transient) {
		return err
	}
	// Unclassified errors (unexpected status codes, malformed bodies)
	// propagate as transient without retry.
	return &domain.TransientError{Op: "platform call", Err: err}
}

// rejected builds the terminal credential rejection for the active
// mode: a fresh authorization URL for user mode, a configuration-fix
// instruction for tenant mode.
func (g *RequestGateway) rejected(id domain.Identity, err error) error {
	switch g.mode {
	case domain.AuthModeUser:
		url, urlErr := g.user.AuthorizationURL(id)
		if urlErr != nil {
			logger.Warn("building authorization URL: %v", urlErr)
		}
		return &domain.CredentialRejectedError{
			Mode:             domain.AuthModeUser,
			AuthorizationURL: url,
			Err:              err,
		}
	default:
		return &domain.CredentialRejectedError{
			Mode:        domain.AuthModeTenant,
			Instruction: "verify the configured app_id and app_secret match the platform application",
			Err:         err,
		}
	}
}
