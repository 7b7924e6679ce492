package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/webbsledge/edgartools/pkg/core/pipeline"
)

// SectionsTool handles the edgar_filing_sections MCP tool.
type SectionsTool struct {
	orch *pipeline.Orchestrator
}

// NewSectionsTool creates a SectionsTool.
func NewSectionsTool(orch *pipeline.Orchestrator) *SectionsTool {
	return &SectionsTool{orch: orch}
}

// Definition returns the MCP tool definition for edgar_filing_sections.
func (t *SectionsTool) Definition() mcp.Tool {
	return mcp.NewTool("edgar_filing_sections",
		mcp.WithDescription(
			"Analyze a company's latest 40-F annual report: locate the Annual Information "+
				"Form and MD&A among the attachments and list the detected document sections. "+
				"Pass 'section' to get the full text of one section instead.",
		),
		mcp.WithString("company",
			mcp.Required(),
			mcp.Description("Ticker symbol or CIK of the filer"),
		),
		mcp.WithString("section",
			mcp.Description("Section heading to extract, e.g. \"Risk Factors\". Fuzzy matched."),
		),
		mcp.WithString("detail",
			mcp.Description("Overview detail level: minimal, standard (default), or full"),
		),
	)
}

// Handle processes the edgar_filing_sections tool call.
func (t *SectionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company := req.GetString("company", "")
	if company == "" {
		return mcp.NewToolResultError("'company' is required"), nil
	}

	ff, err := t.orch.FortyF(company)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load 40-F for %s: %v", company, err)), nil
	}

	if section := req.GetString("section", ""); section != "" {
		text := ff.Section(section)
		if text == "" {
			return mcp.NewToolResultError(fmt.Sprintf("section %q not found; available: %v", section, ff.Items())), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	detail := req.GetString("detail", "standard")
	return mcp.NewToolResultText(ff.ToContext(detail)), nil
}
