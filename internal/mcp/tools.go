package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchClausesTool defines the search_clauses MCP tool.
var searchClausesTool = mcp.NewTool("search_clauses",
	mcp.WithDescription("Search the indexed policy documents semantically. Returns the most relevant clauses with their source files and positions."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of clauses to return (default 4)"),
	),
)

// decideClaimTool defines the decide_claim MCP tool.
var decideClaimTool = mcp.NewTool("decide_claim",
	mcp.WithDescription("Run a claim query through the full decisioning pipeline. Returns the answer plus the structured decision, amount, justification, and clause mapping when the documents support one."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The claim question, e.g. \"46-year-old male, knee surgery in Pune, 3-month-old insurance policy\""),
	),
)

// listDecisionsTool defines the list_decisions MCP tool.
var listDecisionsTool = mcp.NewTool("list_decisions",
	mcp.WithDescription("List recent entries from the decision log, newest first."),
	mcp.WithString("status",
		mcp.Description("Filter by outcome"),
		mcp.Enum("completed", "dont_know", "no_index", "failed"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 20)"),
	),
)
