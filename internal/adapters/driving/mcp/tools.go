package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateDocumentInput is the input schema for the create_document tool.
type CreateDocumentInput struct {
	FolderToken string `json:"folder_token,omitempty" jsonschema:"token of the folder to create the document in (root folder when omitted)"`
	Title       string `json:"title" jsonschema:"title of the new document"`
}

// CreateDocumentOutput is the output schema for the create_document tool.
type CreateDocumentOutput struct {
	Document json.RawMessage `json:"document"`
}

// GetDocumentContentInput is the input schema for get_document_content.
type GetDocumentContentInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the document to read"`
}

// GetDocumentContentOutput is the output schema for get_document_content.
type GetDocumentContentOutput struct {
	Content string `json:"content"`
}

// ListDocumentBlocksInput is the input schema for list_document_blocks.
type ListDocumentBlocksInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the document"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum blocks per page (default 500)"`
}

// ListDocumentBlocksOutput is the output schema for list_document_blocks.
type ListDocumentBlocksOutput struct {
	Blocks json.RawMessage `json:"blocks"`
}

// CreateDocumentBlockInput is the input schema for create_document_block.
type CreateDocumentBlockInput struct {
	DocumentID    string          `json:"document_id" jsonschema:"identifier of the document"`
	ParentBlockID string          `json:"parent_block_id" jsonschema:"block to insert under (use the document id for top level)"`
	Index         int             `json:"index,omitempty" jsonschema:"position among the parent's children, -1 appends"`
	Block         json.RawMessage `json:"block" jsonschema:"the block payload in Feishu docx block format"`
}

// CreateDocumentBlockOutput is the output schema for create_document_block.
type CreateDocumentBlockOutput struct {
	Result json.RawMessage `json:"result"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_document",
		Description: "Create a new Feishu document in a folder",
	}, s.handleCreateDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document_content",
		Description: "Get the plain text content of a Feishu document",
	}, s.handleGetDocumentContent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_document_blocks",
		Description: "List the block tree of a Feishu document",
	}, s.handleListDocumentBlocks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_document_block",
		Description: "Insert a block into a Feishu document",
	}, s.handleCreateDocumentBlock)
}

func (s *Server) handleCreateDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateDocumentInput,
) (*mcp.CallToolResult, CreateDocumentOutput, error) {
	result, err := s.ports.Document.CreateDocument(ctx, input.FolderToken, input.Title)
	if err != nil {
		return nil, CreateDocumentOutput{}, describe(err)
	}
	return nil, CreateDocumentOutput{Document: result}, nil
}

func (s *Server) handleGetDocumentContent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentContentInput,
) (*mcp.CallToolResult, GetDocumentContentOutput, error) {
	content, err := s.ports.Document.DocumentRawContent(ctx, input.DocumentID)
	if err != nil {
		return nil, GetDocumentContentOutput{}, describe(err)
	}
	return nil, GetDocumentContentOutput{Content: content}, nil
}

func (s *Server) handleListDocumentBlocks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentBlocksInput,
) (*mcp.CallToolResult, ListDocumentBlocksOutput, error) {
	blocks, err := s.ports.Document.ListDocumentBlocks(ctx, input.DocumentID, input.PageSize)
	if err != nil {
		return nil, ListDocumentBlocksOutput{}, describe(err)
	}
	return nil, ListDocumentBlocksOutput{Blocks: blocks}, nil
}

func (s *Server) handleCreateDocumentBlock(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateDocumentBlockInput,
) (*mcp.CallToolResult, CreateDocumentBlockOutput, error) {
	result, err := s.ports.Document.CreateDocumentBlock(
		ctx, input.DocumentID, input.ParentBlockID, input.Index, input.Block)
	if err != nil {
		return nil, CreateDocumentBlockOutput{}, describe(err)
	}
	return nil, CreateDocumentBlockOutput{Result: result}, nil
}
