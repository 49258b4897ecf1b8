package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugasun/Feishu-MCP/internal/adapters/driven/storage/memory"
	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

func TestTenantTokenProvider_Acquire_ExchangesAndCaches(t *testing.T) {
	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v3/tenant_access_token/internal", r.URL.Path)
		exchanges.Add(1)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cli_app", body["app_id"])
		assert.Equal(t, "s3cret", body["app_secret"])

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 0, "msg": "ok",
			"tenant_access_token": "t-abc",
			"expire":              7200,
		})
	}))
	defer server.Close()

	store := memory.NewTokenStore()
	provider := NewTenantTokenProvider(NewClient(server.URL), "s3cret", store)
	id := domain.NewTenantIdentity("cli_app")

	token, err := provider.Acquire(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "t-abc", token)

	// Second acquire hits the cache.
	token, err = provider.Acquire(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "t-abc", token)
	assert.Equal(t, int32(1), exchanges.Load())
}

func TestTenantTokenProvider_Acquire_RejectedSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 10003, "msg": "invalid app_secret"}) //nolint:errcheck
	}))
	defer server.Close()

	store := memory.NewTokenStore()
	provider := NewTenantTokenProvider(NewClient(server.URL), "wrong", store)

	_, err := provider.Acquire(context.Background(), domain.NewTenantIdentity("cli_app"))

	var rejected *domain.CredentialRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, domain.AuthModeTenant, rejected.Mode)
	assert.Contains(t, rejected.Instruction, "10003")

	// Nothing was cached.
	_, ok := store.Get(domain.NewTenantIdentity("cli_app"), domain.AuthModeTenant)
	assert.False(t, ok)
}

func TestTenantTokenProvider_Acquire_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	provider := NewTenantTokenProvider(NewClient(server.URL), "s", memory.NewTokenStore())
	_, err := provider.Acquire(context.Background(), domain.NewTenantIdentity("cli_app"))

	// No secondary credential exists, so the exchange failure is
	// terminal for the request.
	assert.True(t, domain.IsCredentialRejected(err))
}

func TestTenantTokenProvider_ConcurrentAcquire_SingleExchange(t *testing.T) {
	var exchanges atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exchanges.Add(1)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"code": 0, "msg": "ok",
			"tenant_access_token": "t-abc",
			"expire":              7200,
		})
	}))
	defer server.Close()

	store := memory.NewTokenStore()
	provider := NewTenantTokenProvider(NewClient(server.URL), "s3cret", store)
	id := domain.NewTenantIdentity("cli_app")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := provider.Acquire(context.Background(), id)
			assert.NoError(t, err)
			assert.Equal(t, "t-abc", token)
		}()
	}
	wg.Wait()

	// The exchange is serialized; concurrent misses coalesce into one.
	assert.Equal(t, int32(1), exchanges.Load())

	rec, ok := store.Get(id, domain.AuthModeTenant)
	require.True(t, ok)
	assert.Equal(t, "t-abc", rec.Value)
}
