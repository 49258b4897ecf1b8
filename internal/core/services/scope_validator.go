package services

import (
	"context"
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// ScopeValidator checks the application's actually-granted permissions
// against the catalog of required ones. The check runs at most once per
// (app identity, mode, catalog version); the token store gates
// re-validation by version.
type ScopeValidator struct {
	store       driven.TokenStore
	appProvider driven.CredentialProvider
	permissions driven.PermissionReader
	catalog     *domain.ScopeCatalog
}

// NewScopeValidator creates a scope validator. appProvider must be the
// application-level provider regardless of the deployment's mode.
func NewScopeValidator(
	store driven.TokenStore,
	appProvider driven.CredentialProvider,
	permissions driven.PermissionReader,
	catalog *domain.ScopeCatalog,
) *ScopeValidator {
	return &ScopeValidator{
		store:       store,
		appProvider: appProvider,
		permissions: permissions,
		catalog:     catalog,
	}
}

// EnsureSufficientScope fails with *domain.ScopeInsufficientError when
// required scopes are missing. Scope validation is advisory: a failure
// of the introspection call itself never blocks the operation.
func (v *ScopeValidator) EnsureSufficientScope(ctx context.Context, id domain.Identity, mode domain.AuthMode) error {
	key := domain.ScopeKey{AppID: id.AppID, Mode: mode}
	if !v.store.ShouldValidateScope(key, v.catalog.Version()) {
		return nil
	}

	granted, err := v.grantedScopes(ctx, id, mode)
	if err != nil {
		// Deliberately discarded: the platform being unreachable while
		// *checking* scope must not fail the underlying operation.
		logger.Warn("scope validation skipped (%s mode): %v", mode, err)
		return nil
	}

	missing := v.catalog.Missing(mode, granted)
	if len(missing) > 0 {
		return &domain.ScopeInsufficientError{
			Mode:           mode,
			Missing:        missing,
			Required:       v.catalog.RequiredTable(),
			CatalogVersion: v.catalog.Version(),
		}
	}

	v.store.SaveScopeVersion(key, domain.ScopeVersionRecord{
		CatalogVersion: v.catalog.Version(),
		ValidatedAt:    time.Now(),
		Granted:        granted,
	})
	return nil
}

// grantedScopes queries the platform for scopes granted to the app,
// filtered to the given mode.
//
// The introspection endpoint only answers to an application-level
// token, so one is acquired here even when validating the user mode's
// required set. This conflates the two trust domains; kept because the
// platform offers no user-token introspection.
func (v *ScopeValidator) grantedScopes(ctx context.Context, id domain.Identity, mode domain.AuthMode) ([]string, error) {
	token, err := v.appProvider.Acquire(ctx, domain.NewTenantIdentity(id.AppID))
	if err != nil {
		return nil, err
	}

	grants, err := v.permissions.GrantedScopes(ctx, token)
	if err != nil {
		return nil, err
	}

	var granted []string
	for _, g := range grants {
		if g.Granted && g.Type == mode {
			granted = append(granted, g.Name)
		}
	}
	return granted, nil
}
