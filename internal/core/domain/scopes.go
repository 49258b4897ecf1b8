package domain

// ScopeCatalogVersion tags the current required-scope table. Bumping it
// forces a fresh validation against the platform on the next call.
const ScopeCatalogVersion = "2025-08"

// ScopeGrant is one entry from the platform's permission introspection.
type ScopeGrant struct {
	// Name is the scope identifier, e.g. "docx:document".
	Name string
	// Type is which auth mode the scope applies to.
	Type AuthMode
	// Granted reports whether the platform has authorized the scope.
	Granted bool
}

// ScopeCatalog is the versioned table of permissions each mode needs.
type ScopeCatalog struct {
	version  string
	required map[AuthMode][]string
}

// DefaultScopeCatalog returns the scopes the document tools require.
func DefaultScopeCatalog() *ScopeCatalog {
	return &ScopeCatalog{
		version: ScopeCatalogVersion,
		required: map[AuthMode][]string{
			AuthModeTenant: {
				"docx:document",
				"docx:document:readonly",
				"drive:drive",
				"wiki:wiki:readonly",
			},
			AuthModeUser: {
				"docx:document",
				"docx:document:readonly",
				"drive:drive",
				"offline_access",
			},
		},
	}
}

// NewScopeCatalog builds a catalog with an explicit version and table.
// Used by tests and by deployments overriding the defaults.
func NewScopeCatalog(version string, required map[AuthMode][]string) *ScopeCatalog {
	return &ScopeCatalog{version: version, required: required}
}

// Version returns the catalog version tag.
func (c *ScopeCatalog) Version() string {
	return c.version
}

// Required returns the scopes the given mode needs.
func (c *ScopeCatalog) Required(mode AuthMode) []string {
	scopes := c.required[mode]
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}

// RequiredTable returns the full mode → scopes table. This is the
// machine-readable remediation payload attached to scope failures so a
// configuration step can be copy-pasted.
func (c *ScopeCatalog) RequiredTable() map[string][]string {
	table := make(map[string][]string, len(c.required))
	for mode, scopes := range c.required {
		out := make([]string, len(scopes))
		copy(out, scopes)
		table[string(mode)] = out
	}
	return table
}

// Missing returns the required scopes for mode that are absent from
// granted, preserving catalog order.
func (c *ScopeCatalog) Missing(mode AuthMode, granted []string) []string {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	var missing []string
	for _, s := range c.required[mode] {
		if !have[s] {
			missing = append(missing, s)
		}
	}
	return missing
}
