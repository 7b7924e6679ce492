package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/webbsledge/edgartools/pkg/core/pipeline"
	"github.com/webbsledge/edgartools/pkg/core/utils"
)

// SubsidiariesTool handles the edgar_subsidiaries MCP tool.
type SubsidiariesTool struct {
	orch *pipeline.Orchestrator
}

// NewSubsidiariesTool creates a SubsidiariesTool.
func NewSubsidiariesTool(orch *pipeline.Orchestrator) *SubsidiariesTool {
	return &SubsidiariesTool{orch: orch}
}

// Definition returns the MCP tool definition for edgar_subsidiaries.
func (t *SubsidiariesTool) Definition() mcp.Tool {
	return mcp.NewTool("edgar_subsidiaries",
		mcp.WithDescription(
			"List the subsidiaries a company reported in Exhibit 21 of its latest "+
				"40-F: entity names, jurisdictions, and ownership percentages where disclosed.",
		),
		mcp.WithString("company",
			mcp.Required(),
			mcp.Description("Ticker symbol or CIK of the filer"),
		),
	)
}

// Handle processes the edgar_subsidiaries tool call.
func (t *SubsidiariesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company := req.GetString("company", "")
	if company == "" {
		return mcp.NewToolResultError("'company' is required"), nil
	}

	ff, err := t.orch.FortyF(company)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load 40-F for %s: %v", company, err)), nil
	}

	subs, err := t.orch.Subsidiaries(ff.Filing())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("subsidiary extraction failed: %v", err)), nil
	}

	header := fmt.Sprintf("Subsidiaries of %s (%s filed %s):\n\n",
		ff.Filing().CompanyName, ff.Filing().Form, ff.Filing().FilingDate)
	return mcp.NewToolResultText(header + utils.CleanMarkdown(subs.ToMarkdown())), nil
}
