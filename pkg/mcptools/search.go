package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/webbsledge/edgartools/pkg/core/search"
)

// Searcher runs full-text searches. *search.Client satisfies it.
type Searcher interface {
	Filings(query string, opts search.Options) (*search.Results, error)
}

// SearchTool handles the edgar_search MCP tool.
type SearchTool struct {
	search Searcher
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{search: searcher}
}

// Definition returns the MCP tool definition for edgar_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("edgar_search",
		mcp.WithDescription(
			"Full-text search across SEC EDGAR filings. Use this to find filings "+
				"mentioning a phrase, optionally scoped by form type, company, or date range.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search phrase, e.g. \"climate risk\""),
		),
		mcp.WithString("forms",
			mcp.Description("Comma-separated form types to filter by, e.g. \"40-F,10-K\""),
		),
		mcp.WithString("ticker",
			mcp.Description("Scope results to one company by ticker symbol"),
		),
		mcp.WithString("cik",
			mcp.Description("Scope results to one company by CIK"),
		),
		mcp.WithString("start_date",
			mcp.Description("Earliest filing date, YYYY-MM-DD"),
		),
		mcp.WithString("end_date",
			mcp.Description("Latest filing date, YYYY-MM-DD"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 100)"),
		),
	)
}

// Handle processes the edgar_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	opts := search.Options{
		CIK:       req.GetString("cik", ""),
		Ticker:    req.GetString("ticker", ""),
		StartDate: req.GetString("start_date", ""),
		EndDate:   req.GetString("end_date", ""),
		Limit:     intArg(req, "limit", 10),
	}
	if forms := req.GetString("forms", ""); forms != "" {
		opts.Forms = strings.Split(forms, ",")
	}

	results, err := t.search.Filings(query, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results.Results) == 0 {
		return mcp.NewToolResultText("No filings found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d filings (%d total on index):\n\n", len(results.Results), results.Total)
	for _, r := range results.Results {
		fmt.Fprintf(&b, "- %s %s filed %s", r.Company, r.Form, r.Filed)
		if r.Period != "" {
			fmt.Fprintf(&b, " (period %s)", r.Period)
		}
		fmt.Fprintf(&b, "\n  accession: %s", r.AccessionNumber)
		if r.CIK != "" {
			fmt.Fprintf(&b, "  cik: %s", r.CIK)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
