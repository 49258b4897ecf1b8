// Package mcp provides the MCP (Model Context Protocol) server adapter.
// It exposes Feishu document operations as tools to AI assistants.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")

// describe turns an auth lifecycle failure into the human-actionable
// message the tool surface must render: the authorization URL in user
// mode, a configuration instruction in tenant mode, and for scope
// failures the missing scopes plus the machine-parseable remediation
// table.
func describe(err error) error {
	var scope *domain.ScopeInsufficientError
	if errors.As(err, &scope) {
		table, mErr := json.Marshal(scope.Required)
		if mErr != nil {
			table = []byte("{}")
		}
		return fmt.Errorf(
			"the application is missing required %s scopes: %v. "+
				"Grant them in the developer console, then retry. "+
				"Full required-scope table (catalog %s): %s",
			scope.Mode, scope.Missing, scope.CatalogVersion, table)
	}

	var rejected *domain.CredentialRejectedError
	if errors.As(err, &rejected) {
		if rejected.AuthorizationURL != "" {
			return fmt.Errorf(
				"no valid user credential; ask the user to open this URL and authorize access: %s",
				rejected.AuthorizationURL)
		}
		return fmt.Errorf("platform rejected the application credential: %s", rejected.Instruction)
	}

	return err
}
