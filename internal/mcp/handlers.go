package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clauselens/clauselens/internal/audit"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/internal/vectorindex"
)

// handleSearchClauses performs semantic search over the startup index.
func (s *Server) handleSearchClauses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 4)
	if limit <= 0 {
		limit = 4
	}

	if s.index == nil {
		return mcp.NewToolResultText("No documents are indexed. Run `clauselens index` over a data folder first."), nil
	}

	results, err := s.index.Query(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching clauses found."), nil
	}

	return mcp.NewToolResultText(formatClauseResults(results)), nil
}

// handleDecideClaim runs the full decisioning pipeline against the
// startup index and returns the structured result as JSON.
func (s *Server) handleDecideClaim(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	result, err := s.pipe.Decide(ctx, pipeline.Request{Query: query})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoIndex) {
			return mcp.NewToolResultText("No documents are indexed. Run `clauselens index` over a data folder first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("decisioning failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleListDecisions returns recent decision log entries.
func (s *Server) handleListDecisions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := audit.QueryFilter{
		Limit: request.GetInt("limit", 20),
	}
	if v := request.GetString("status", ""); v != "" {
		filter.Status = audit.Status(v)
	}

	entries, err := s.auditStore.Query(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("querying decision log: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("The decision log is empty."), nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding entries: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// formatClauseResults renders search hits in a text format suited to AI
// agent consumption.
func formatClauseResults(results []vectorindex.Scored) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d clause(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Clause %d (score %.3f) ---\n", i+1, r.Score))
		sb.WriteString(fmt.Sprintf("Document: %s (chars %d-%d)\n", r.Chunk.ParentDocumentID, r.Chunk.CharStart, r.Chunk.CharEnd))
		sb.WriteString(r.Chunk.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
