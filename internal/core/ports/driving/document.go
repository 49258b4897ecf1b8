package driving

import (
	"context"
	"encoding/json"
)

// DocumentService exposes document operations to the MCP tool surface.
// Payloads stay opaque JSON; all calls go through the gateway, which
// owns authentication and retry.
type DocumentService interface {
	// CreateDocument creates an empty document in the given folder.
	CreateDocument(ctx context.Context, folderToken, title string) (json.RawMessage, error)

	// DocumentRawContent returns the plain-text content of a document.
	DocumentRawContent(ctx context.Context, documentID string) (string, error)

	// ListDocumentBlocks lists the block tree of a document.
	ListDocumentBlocks(ctx context.Context, documentID string, pageSize int) (json.RawMessage, error)

	// CreateDocumentBlock inserts a block under a parent block.
	// index is the insertion position among the parent's children;
	// -1 appends.
	CreateDocumentBlock(ctx context.Context, documentID, parentBlockID string, index int, block json.RawMessage) (json.RawMessage, error)
}
