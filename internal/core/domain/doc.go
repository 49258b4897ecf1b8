// Package domain defines the core entities of the Feishu MCP server.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Identity: The cache key combining app identity and caller key
//   - AuthMode: Which trust domain a call operates under
//   - TokenRecord: A cached bearer credential with expiry
//   - ScopeCatalog: The versioned required-permission table
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
