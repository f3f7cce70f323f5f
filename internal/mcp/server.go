// Package mcp exposes clause search and claim decisioning as MCP tools so
// AI agents can query an indexed document corpus directly.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/clauselens/clauselens/internal/audit"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document decisioning tools.
type Server struct {
	index      *vectorindex.Index
	pipe       *pipeline.Pipeline
	auditStore *audit.Store
	mcp        *server.MCPServer
}

// NewServer creates an MCP server over the startup index and pipeline.
// index may be nil when no documents were indexed; auditStore may be nil
// to disable the decision log tool.
func NewServer(index *vectorindex.Index, pipe *pipeline.Pipeline, auditStore *audit.Store) *Server {
	s := &Server{
		index:      index,
		pipe:       pipe,
		auditStore: auditStore,
	}

	s.mcp = server.NewMCPServer(
		"clauselens",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchClausesTool, s.handleSearchClauses)
	s.mcp.AddTool(decideClaimTool, s.handleDecideClaim)
	if s.auditStore != nil {
		s.mcp.AddTool(listDecisionsTool, s.handleListDecisions)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
