// Package driving defines interfaces that external actors (MCP server,
// CLI, OAuth callback) use to interact with core services. These are the
// "driving" ports in hexagonal architecture terminology.
//
// Implementations of these interfaces live in internal/core/services,
// except AuthorizationCompleter, which the user credential provider
// implements because only it can decode the state values it minted.
package driving
