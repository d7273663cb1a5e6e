// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the synced article library for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/articleservice"
)

// Server wraps the MCP server with library tools.
type Server struct {
	mcp *server.MCPServer
	svc *articleservice.Service
}

// New creates a new MCP server with all library tools registered.
func New(svc *articleservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_library",
		mcp.WithDescription("Full-text search through synced article titles, bodies, and labels."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchLibrary)

	s.mcp.AddTool(mcp.NewTool("read_article",
		mcp.WithDescription("Read the full Markdown content of a synced article file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative vault path (e.g. Raido/2025-03-04/article.md)")),
	), s.readArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List synced articles, optionally filtered by label or reading state."),
		mcp.WithString("label", mcp.Description("Optional label filter")),
		mcp.WithString("state", mcp.Description("Optional state filter (INBOX, READING, COMPLETED, ARCHIVED)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("sync_library",
		mcp.WithDescription("Run an incremental sync against the remote read-it-later service. "+
			"Returns an error when a run is already in progress."),
	), s.syncLibrary)

	s.mcp.AddTool(mcp.NewTool("delete_article",
		mcp.WithDescription("Delete an article from the remote library and remove its vault file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative vault path of the article to delete")),
	), s.deleteArticle)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetArticle(ctx, path, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := articleservice.ListFilter{}
	if label, err := req.RequireString("label"); err == nil {
		filter.Label = label
	}
	if state, err := req.RequireString("state"); err == nil {
		filter.State = state
	}

	items, total, err := s.svc.ListArticles(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"articles": items,
		"total":    total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.TriggerSync(ctx); err != nil {
		if errors.Is(err, apperr.ErrSyncBusy) {
			return mcp.NewToolResultError("sync already in progress"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("sync finished"), nil
}

func (s *Server) deleteArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteArticle(ctx, path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}
