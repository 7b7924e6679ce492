package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/webbsledge/edgartools/pkg/core/pipeline"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer creates the MCP server with all filing tools registered.
func NewServer(orch *pipeline.Orchestrator, searcher Searcher) *server.MCPServer {
	s := server.NewMCPServer(
		"edgartools",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	searchTool := NewSearchTool(searcher)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	sectionsTool := NewSectionsTool(orch)
	s.AddTool(sectionsTool.Definition(), sectionsTool.Handle)

	subsTool := NewSubsidiariesTool(orch)
	s.AddTool(subsTool.Definition(), subsTool.Handle)

	return s
}
