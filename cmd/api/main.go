package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/webbsledge/edgartools/pkg/api/filings"
	coreConfig "github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
	"github.com/webbsledge/edgartools/pkg/core/pipeline"
	"github.com/webbsledge/edgartools/pkg/core/search"
	"github.com/webbsledge/edgartools/pkg/core/store"
)

// ServerConfig is read from config/server.yaml; every field has a working
// default so the binary runs without a config file.
type ServerConfig struct {
	Port           string `yaml:"port"`
	UserAgent      string `yaml:"user_agent"`
	HeuristicsFile string `yaml:"heuristics_file"`
	CacheDir       string `yaml:"cache_dir"`
}

func loadServerConfig() ServerConfig {
	cfg := ServerConfig{Port: "8080"}
	data, err := os.ReadFile("config/server.yaml")
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Printf("[WARNING] Failed to parse config/server.yaml: %v\n", err)
		}
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if ua := os.Getenv("EDGAR_USER_AGENT"); ua != "" {
		cfg.UserAgent = ua
	}
	return cfg
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := loadServerConfig()

	heur, err := coreConfig.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		fmt.Printf("[WARNING] Failed to load heuristics overrides: %v\n", err)
		fmt.Println("  Falling back to defaults")
	}

	var client *edgar.Client
	if cfg.UserAgent != "" {
		client = edgar.NewClientWithUserAgent(cfg.UserAgent)
	} else {
		client = edgar.NewClient()
	}

	// Postgres is optional: without DATABASE_URL the extraction cache
	// runs on the local file vault.
	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[STORE] Running without database: %v\n", err)
	} else {
		defer store.Close()
		fmt.Println("[STORE] Connected to Postgres")
	}
	cache := store.NewExtractionCache(store.GetPool(), cfg.CacheDir)

	orch := pipeline.NewOrchestrator(client, cache, heur)
	orch.SetDocumentCache(edgar.NewDocumentCache())
	handler := filings.NewHandler(orch, search.NewClient(client))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/filings", handler.Routes())

	fmt.Printf("API server starting on :%s...\n", cfg.Port)
	fmt.Println("  - GET  /health")
	fmt.Println("  - GET  /api/filings/search")
	fmt.Println("  - GET  /api/filings/{identifier}/forty-f")
	fmt.Println("  - GET  /api/filings/{identifier}/forty-f/sections")
	fmt.Println("  - GET  /api/filings/{identifier}/forty-f/section?key=...")
	fmt.Println("  - GET  /api/filings/{identifier}/forty-f/subsidiaries")
	fmt.Println("  - GET  /api/filings/{identifier}/forty-f/context")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
