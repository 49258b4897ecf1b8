package driven

import (
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// TokenStore is the process-wide cache of credential records, keyed by
// Identity and auth mode. All operations are synchronous and in-memory;
// no operation performs I/O. Implementations must be safe for
// concurrent use from many in-flight calls, and must never hold an
// internal lock across anything but the point read/write itself.
//
// There is at most one record per Identity and mode at any time, and a
// removed record is never returned by a later Get until re-populated.
type TokenStore interface {
	// Get returns the cached record for the identity, if any.
	// Expiry is the caller's concern; Get returns expired records.
	Get(id domain.Identity, mode domain.AuthMode) (domain.TokenRecord, bool)

	// Put stores a record, stamping ExpiresAt to now plus ttl.
	Put(id domain.Identity, mode domain.AuthMode, rec domain.TokenRecord, ttl time.Duration)

	// Remove deletes the record so the next call reacquires from zero.
	Remove(id domain.Identity, mode domain.AuthMode)

	// ShouldValidateScope returns true if no scope-version record
	// exists for key, or its stored catalog version differs. This is
	// the sole gate preventing a scope-check network call on every
	// domain operation.
	ShouldValidateScope(key domain.ScopeKey, catalogVersion string) bool

	// SaveScopeVersion replaces (never merges) the scope record for key.
	SaveScopeVersion(key domain.ScopeKey, rec domain.ScopeVersionRecord)

	// Reset clears all records. Scope-version records are deleted only
	// here, as part of a full cache reset.
	Reset()
}
