package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/specializedmd/lecture-pipeline/internal/embedding"
	"github.com/specializedmd/lecture-pipeline/internal/library"
	"github.com/specializedmd/lecture-pipeline/internal/vectorstore"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
	store  *vectorstore.Store
}

// Config holds server dependencies. LibraryStore is optional; when nil the
// search_guidelines tool is not registered.
type Config struct {
	Store    *vectorstore.Store
	Embedder *embedding.Embedder
	// ProcessedRoot is the directory holding per-lecture analysis output
	// and the consolidated index.
	ProcessedRoot string
	LibraryStore  *library.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "lecture-retrieval-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_lectures",
		Description: "Search processed lecture content semantically. Returns QA pairs and clinical pearls with lecture timestamps.",
	}, makeSearchLecturesHandler(cfg.Store, cfg.Embedder))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_lecture_analysis",
		Description: "Retrieve the full analysis of one lecture: enriched segments, QA pairs, key concepts, clinical pearls, references.",
	}, makeGetLectureAnalysisHandler(cfg.ProcessedRoot))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_concepts",
		Description: "List every medical concept in the consolidated index with its occurrence counts and source lectures.",
	}, makeListConceptsHandler(cfg.ProcessedRoot))

	if cfg.LibraryStore != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "search_guidelines",
			Description: "Search the local clinical guideline library by header or content text.",
		}, makeSearchGuidelinesHandler(cfg.LibraryStore))
	}

	return &Server{server: server, store: cfg.Store}
}

// Run starts the server on stdio transport, blocking until the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that need to wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
