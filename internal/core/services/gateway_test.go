package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

func newTenantGateway(t *testing.T, store *fakeStore, provider *fakeProvider, caller *fakeCaller) *RequestGateway {
	t.Helper()
	gw, err := NewRequestGateway(domain.AuthModeTenant, store, provider,
		&fakeProvider{mode: domain.AuthModeUser}, caller, nil)
	require.NoError(t, err)
	return gw
}

func TestNewRequestGateway_UnknownMode(t *testing.T) {
	_, err := NewRequestGateway("service", newFakeStore(), &fakeProvider{},
		&fakeProvider{}, &fakeCaller{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthorizedCall_Success(t *testing.T) {
	provider := &fakeProvider{mode: domain.AuthModeTenant, token: "t-1"}
	caller := &fakeCaller{responses: []callerResponse{
		{data: json.RawMessage(`{"document":{"document_id":"doccn123"}}`)},
	}}
	gw := newTenantGateway(t, newFakeStore(), provider, caller)

	result, err := gw.AuthorizedCall(context.Background(),
		domain.NewTenantIdentity("cli_app"), http.MethodPost, "/docx/v1/documents", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"document":{"document_id":"doccn123"}}`, string(result))
	assert.Equal(t, []string{"t-1"}, caller.calls)
}

func TestAuthorizedCall_StaleToken_RetriesOnceAndSucceeds(t *testing.T) {
	store := newFakeStore()
	id := domain.NewTenantIdentity("cli_app")
	provider := &fakeProvider{mode: domain.AuthModeTenant, token: "fresh"}

	caller := &fakeCaller{responses: []callerResponse{
		{err: &domain.RemoteError{Code: 99991663, Msg: "tenant access token invalid"}},
		{data: json.RawMessage(`{"content":"hello"}`)},
	}}
	gw := newTenantGateway(t, store, provider, caller)

	result, err := gw.AuthorizedCall(context.Background(), id, http.MethodGet, "/docx/v1/documents/x/raw_content", nil)
	require.NoError(t, err)

	// The original payload comes back unchanged after the bounded retry.
	assert.JSONEq(t, `{"content":"hello"}`, string(result))
	assert.Len(t, caller.calls, 2)
	// Invalidation happened before the retried acquire.
	assert.Equal(t, []string{id.CacheKey(domain.AuthModeTenant)}, store.removed)
	assert.Equal(t, 2, provider.acquires)
}

func TestAuthorizedCall_DoubleRejection_TerminalAfterTwoCalls(t *testing.T) {
	provider := &fakeProvider{mode: domain.AuthModeTenant, token: "t"}
	caller := &fakeCaller{responses: []callerResponse{
		{err: &domain.RemoteError{Code: 99991663, Msg: "invalid"}},
		{err: &domain.RemoteError{Code: 99991663, Msg: "invalid"}},
	}}
	gw := newTenantGateway(t, newFakeStore(), provider, caller)

	_, err := gw.AuthorizedCall(context.Background(),
		domain.NewTenantIdentity("cli_app"), http.MethodGet, "/docx/v1/documents/x", nil)

	// Exactly two upstream calls, never more.
	assert.Len(t, caller.calls, 2)
	require.True(t, domain.IsCredentialRejected(err))

	var rejected *domain.CredentialRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, domain.AuthModeTenant, rejected.Mode)
	assert.NotEmpty(t, rejected.Instruction)
}

func TestAuthorizedCall_DoubleRejection_UserModeCarriesURL(t *testing.T) {
	user := &fakeProvider{mode: domain.AuthModeUser, token: "u", authURL: "https://example.com/authorize?x=1"}
	caller := &fakeCaller{responses: []callerResponse{
		{err: &domain.RemoteError{Code: 99991665, Msg: "user token invalid"}},
		{err: &domain.RemoteError{Code: 99991665, Msg: "user token invalid"}},
	}}
	gw, err := NewRequestGateway(domain.AuthModeUser, newFakeStore(),
		&fakeProvider{mode: domain.AuthModeTenant}, user, caller, nil)
	require.NoError(t, err)

	_, err = gw.AuthorizedCall(context.Background(),
		domain.NewUserIdentity("cli_app", "caller-1"), http.MethodGet, "/x", nil)

	var rejected *domain.CredentialRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "https://example.com/authorize?x=1", rejected.AuthorizationURL)
	assert.Len(t, caller.calls, 2)
}

func TestAuthorizedCall_TransientError_NoRetry(t *testing.T) {
	provider := &fakeProvider{mode: domain.AuthModeTenant, token: "t"}
	caller := &fakeCaller{responses: []callerResponse{
		{err: &domain.TransientError{Op: "platform request", Err: errors.New("connection reset")}},
	}}
	gw := newTenantGateway(t, newFakeStore(), provider, caller)

	_, err := gw.AuthorizedCall(context.Background(),
		domain.NewTenantIdentity("cli_app"), http.MethodGet, "/x", nil)

	var transient *domain.TransientError
	assert.ErrorAs(t, err, &transient)
	assert.Len(t, caller.calls, 1)
}

func TestAuthorizedCall_UnclassifiedRemoteError_Transient(t *testing.T) {
	provider := &fakeProvider{mode: domain.AuthModeTenant, token: "t"}
	caller := &fakeCaller{responses: []callerResponse{
		{err: &domain.RemoteError{Code: 1254004, Msg: "not found"}},
	}}
	gw := newTenantGateway(t, newFakeStore(), provider, caller)

	_, err := gw.AuthorizedCall(context.Background(),
		domain.NewTenantIdentity("cli_app"), http.MethodGet, "/x", nil)

	var transient *domain.TransientError
	assert.ErrorAs(t, err, &transient)
	assert.Len(t, caller.calls, 1)
}

func TestAuthorizedCall_AuthorizationRequired_TerminalRejection(t *testing.T) {
	user := &fakeProvider{
		mode: domain.AuthModeUser,
		err:  &domain.AuthorizationRequiredError{AuthorizationURL: "https://example.com/authorize"},
	}
	caller := &fakeCaller{responses: []callerResponse{{}}}
	gw, err := NewRequestGateway(domain.AuthModeUser, newFakeStore(),
		&fakeProvider{mode: domain.AuthModeTenant}, user, caller, nil)
	require.NoError(t, err)

	_, err = gw.AuthorizedCall(context.Background(),
		domain.NewUserIdentity("cli_app", "caller-1"), http.MethodGet, "/x", nil)

	var rejected *domain.CredentialRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "https://example.com/authorize", rejected.AuthorizationURL)
	// No platform call was issued without a credential.
	assert.Empty(t, caller.calls)
}

func TestAuthorizedCall_ScopeInsufficient_PropagatesWithoutCall(t *testing.T) {
	store := newFakeStore()
	catalog := domain.NewScopeCatalog("v1", map[domain.AuthMode][]string{
		domain.AuthModeTenant: {"docx:document", "drive:drive"},
	})
	appProvider := &fakeProvider{mode: domain.AuthModeTenant, token: "app-token"}
	permissions := &fakePermissions{grants: []domain.ScopeGrant{
		{Name: "docx:document", Type: domain.AuthModeTenant, Granted: true},
	}}
	validator := NewScopeValidator(store, appProvider, permissions, catalog)

	caller := &fakeCaller{responses: []callerResponse{{}}}
	gw, err := NewRequestGateway(domain.AuthModeTenant, store,
		appProvider, &fakeProvider{mode: domain.AuthModeUser}, caller, validator)
	require.NoError(t, err)

	_, err = gw.AuthorizedCall(context.Background(),
		domain.NewTenantIdentity("cli_app"), http.MethodGet, "/x", nil)

	var scope *domain.ScopeInsufficientError
	require.ErrorAs(t, err, &scope)
	assert.Equal(t, []string{"drive:drive"}, scope.Missing)
	// Scope failures are never retried against the platform.
	assert.Empty(t, caller.calls)
}
