// Package memory provides the in-memory implementation of the token
// store. Credentials never outlive the process; a restart starts from
// an empty cache.
package memory

import (
	"sync"
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is the process-wide in-memory credential cache. All
// operations are point reads/writes under a single RWMutex; the lock is
// never held across network calls, which happen in the providers.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.TokenRecord
	scopes map[domain.ScopeKey]domain.ScopeVersionRecord
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]domain.TokenRecord),
		scopes: make(map[domain.ScopeKey]domain.ScopeVersionRecord),
	}
}

// Get returns the cached record for the identity, if any.
func (s *TokenStore) Get(id domain.Identity, mode domain.AuthMode) (domain.TokenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[id.CacheKey(mode)]
	return rec, ok
}

// Put stores a record, stamping its expiry to now plus ttl. At most one
// record exists per identity and mode; concurrent writers race benignly
// and the last writer wins.
func (s *TokenStore) Put(id domain.Identity, mode domain.AuthMode, rec domain.TokenRecord, ttl time.Duration) {
	rec.ExpiresAt = time.Now().Add(ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id.CacheKey(mode)] = rec
}

// Remove deletes the record for the identity. A removed record is never
// returned by a later Get until re-populated.
func (s *TokenStore) Remove(id domain.Identity, mode domain.AuthMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id.CacheKey(mode))
}

// ShouldValidateScope returns true if no record exists for key or its
// stored catalog version differs from catalogVersion.
func (s *TokenStore) ShouldValidateScope(key domain.ScopeKey, catalogVersion string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.scopes[key]
	return !ok || rec.CatalogVersion != catalogVersion
}

// SaveScopeVersion replaces the scope record for key.
func (s *TokenStore) SaveScopeVersion(key domain.ScopeKey, rec domain.ScopeVersionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[key] = rec
}

// Reset clears all token and scope-version records.
func (s *TokenStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]domain.TokenRecord)
	s.scopes = make(map[domain.ScopeKey]domain.ScopeVersionRecord)
}
