// MCP server for EDGAR filing analysis (stdio transport).
//
// All diagnostics go to stderr; stdout carries the MCP protocol.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	coreConfig "github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
	"github.com/webbsledge/edgartools/pkg/core/pipeline"
	"github.com/webbsledge/edgartools/pkg/core/search"
	"github.com/webbsledge/edgartools/pkg/core/store"
	"github.com/webbsledge/edgartools/pkg/mcptools"
)

func main() {
	godotenv.Load()

	heur, err := coreConfig.LoadHeuristics(os.Getenv("EDGAR_HEURISTICS"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] Failed to load heuristics overrides: %v\n", err)
	}

	var client *edgar.Client
	if ua := os.Getenv("EDGAR_USER_AGENT"); ua != "" {
		client = edgar.NewClientWithUserAgent(ua)
	} else {
		client = edgar.NewClient()
	}

	cache := store.NewExtractionCache(nil, os.Getenv("EDGAR_CACHE_DIR"))
	orch := pipeline.NewOrchestrator(client, cache, heur)
	orch.SetDocumentCache(edgar.NewDocumentCache())

	s := mcptools.NewServer(orch, search.NewClient(client))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
