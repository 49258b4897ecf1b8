package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// fakeStore is an in-package token store for service tests.
type fakeStore struct {
	mu     sync.Mutex
	tokens map[string]domain.TokenRecord
	scopes map[domain.ScopeKey]domain.ScopeVersionRecord

	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens: make(map[string]domain.TokenRecord),
		scopes: make(map[domain.ScopeKey]domain.ScopeVersionRecord),
	}
}

func (s *fakeStore) Get(id domain.Identity, mode domain.AuthMode) (domain.TokenRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[id.CacheKey(mode)]
	return rec, ok
}

func (s *fakeStore) Put(id domain.Identity, mode domain.AuthMode, rec domain.TokenRecord, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ExpiresAt = time.Now().Add(ttl)
	s.tokens[id.CacheKey(mode)] = rec
}

func (s *fakeStore) Remove(id domain.Identity, mode domain.AuthMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := id.CacheKey(mode)
	delete(s.tokens, key)
	s.removed = append(s.removed, key)
}

func (s *fakeStore) ShouldValidateScope(key domain.ScopeKey, catalogVersion string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scopes[key]
	return !ok || rec.CatalogVersion != catalogVersion
}

func (s *fakeStore) SaveScopeVersion(key domain.ScopeKey, rec domain.ScopeVersionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[key] = rec
}

func (s *fakeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]domain.TokenRecord)
	s.scopes = make(map[domain.ScopeKey]domain.ScopeVersionRecord)
}

// fakeProvider returns canned tokens or errors.
type fakeProvider struct {
	mode     domain.AuthMode
	token    string
	err      error
	authURL  string
	acquires int
}

func (p *fakeProvider) Mode() domain.AuthMode { return p.mode }

func (p *fakeProvider) Acquire(_ context.Context, _ domain.Identity) (string, error) {
	p.acquires++
	if p.err != nil {
		return "", p.err
	}
	return p.token, nil
}

func (p *fakeProvider) AuthorizationURL(_ domain.Identity) (string, error) {
	return p.authURL, nil
}

// fakeCaller scripts platform responses per attempt.
type fakeCaller struct {
	responses []callerResponse
	calls     []string // tokens seen, in order
}

type callerResponse struct {
	data json.RawMessage
	err  error
}

func (c *fakeCaller) Do(_ context.Context, token, _, _ string, _ any) (json.RawMessage, error) {
	c.calls = append(c.calls, token)
	i := len(c.calls) - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	r := c.responses[i]
	return r.data, r.err
}

// fakePermissions serves a canned scope grant list.
type fakePermissions struct {
	grants []domain.ScopeGrant
	err    error
	calls  int
}

func (p *fakePermissions) GrantedScopes(_ context.Context, _ string) ([]domain.ScopeGrant, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.grants, nil
}
