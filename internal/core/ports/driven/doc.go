// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - TokenStore: process-wide credential cache
//   - CredentialProvider: token acquisition per auth mode
//   - PlatformCaller: authenticated calls against the document platform
//   - PermissionReader: granted-scope introspection
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
