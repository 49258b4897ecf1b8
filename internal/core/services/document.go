package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService implements document operations on top of the gateway.
// It builds endpoints and thin payloads; authentication, scope checks
// and retry all live in the gateway.
type DocumentService struct {
	gateway  driving.Gateway
	identity domain.Identity
}

// NewDocumentService creates a document service bound to the
// deployment's identity.
func NewDocumentService(gateway driving.Gateway, identity domain.Identity) *DocumentService {
	return &DocumentService{
		gateway:  gateway,
		identity: identity,
	}
}

// CreateDocument creates an empty document in the given folder.
func (s *DocumentService) CreateDocument(ctx context.Context, folderToken, title string) (json.RawMessage, error) {
	payload := map[string]string{
		"folder_token": folderToken,
		"title":        title,
	}
	return s.gateway.AuthorizedCall(ctx, s.identity, http.MethodPost, "/docx/v1/documents", payload)
}

// DocumentRawContent returns the plain-text content of a document.
func (s *DocumentService) DocumentRawContent(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	endpoint := fmt.Sprintf("/docx/v1/documents/%s/raw_content", url.PathEscape(documentID))
	data, err := s.gateway.AuthorizedCall(ctx, s.identity, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var out struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &domain.TransientError{Op: "decode raw content", Err: err}
	}
	return out.Content, nil
}

// ListDocumentBlocks lists the block tree of a document.
func (s *DocumentService) ListDocumentBlocks(ctx context.Context, documentID string, pageSize int) (json.RawMessage, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	endpoint := fmt.Sprintf("/docx/v1/documents/%s/blocks?page_size=%d", url.PathEscape(documentID), pageSize)
	return s.gateway.AuthorizedCall(ctx, s.identity, http.MethodGet, endpoint, nil)
}

// CreateDocumentBlock inserts a block under a parent block. index is
// the position among the parent's children; -1 appends.
func (s *DocumentService) CreateDocumentBlock(
	ctx context.Context,
	documentID, parentBlockID string,
	index int,
	block json.RawMessage,
) (json.RawMessage, error) {
	if documentID == "" || parentBlockID == "" {
		return nil, fmt.Errorf("%w: document and parent block ids are required", domain.ErrInvalidInput)
	}
	payload := map[string]any{
		"children": []json.RawMessage{block},
	}
	if index >= 0 {
		payload["index"] = index
	}
	endpoint := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children",
		url.PathEscape(documentID), url.PathEscape(parentBlockID))
	return s.gateway.AuthorizedCall(ctx, s.identity, http.MethodPost, endpoint, payload)
}
