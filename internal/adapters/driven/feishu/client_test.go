package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/docx/v1/documents/doccn123/raw_content", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 0,
			"msg":  "success",
			"data": map[string]string{"content": "hello"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	data, err := client.Do(context.Background(), "t-1", http.MethodGet, "/docx/v1/documents/doccn123/raw_content", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"hello"}`, string(data))
}

func TestClient_Do_SendsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "My Doc", body["title"])
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "ok", "data": map[string]any{}}) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "t", http.MethodPost, "/docx/v1/documents",
		map[string]string{"title": "My Doc"})
	require.NoError(t, err)
}

func TestClient_Do_CredentialRejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 99991663,
			"msg":  "tenant access token invalid",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "stale", http.MethodGet, "/x", nil)

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 99991663, remote.Code)
	assert.True(t, remote.CredentialInvalid())
}

func TestClient_Do_BusinessErrorNotCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": 1254004, "msg": "document not found"}) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "t", http.MethodGet, "/x", nil)

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.False(t, remote.CredentialInvalid())
}

func TestClient_Do_ServerError_Transient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "t", http.MethodGet, "/x", nil)

	var transient *domain.TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestClient_Do_MalformedBody_Transient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>")) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "t", http.MethodGet, "/x", nil)

	var transient *domain.TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestClient_Do_NetworkFailure_Transient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL)
	_, err := client.Do(context.Background(), "t", http.MethodGet, "/x", nil)

	var transient *domain.TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestClient_GrantedScopes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/application/v6/scopes", r.URL.Path)
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 0,
			"msg":  "ok",
			"data": map[string]any{
				"scopes": []map[string]any{
					{"scope_name": "docx:document", "grant_status": 1, "scope_type": "tenant"},
					{"scope_name": "drive:drive", "grant_status": 2, "scope_type": "tenant"},
					{"scope_name": "docx:document", "grant_status": 1, "scope_type": "user"},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	grants, err := client.GrantedScopes(context.Background(), "app-token")
	require.NoError(t, err)
	assert.Equal(t, []domain.ScopeGrant{
		{Name: "docx:document", Type: domain.AuthModeTenant, Granted: true},
		{Name: "drive:drive", Type: domain.AuthModeTenant, Granted: false},
		{Name: "docx:document", Type: domain.AuthModeUser, Granted: true},
	}, grants)
}
