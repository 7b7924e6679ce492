// Package filings provides HTTP API handlers for EDGAR filing analysis:
// full-text search, 40-F attachment classification, section extraction,
// and subsidiary tables.
package filings

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/webbsledge/edgartools/pkg/core/pipeline"
	"github.com/webbsledge/edgartools/pkg/core/search"
	"github.com/webbsledge/edgartools/pkg/core/utils"
)

// Searcher runs full-text searches. *search.Client satisfies it.
type Searcher interface {
	Filings(query string, opts search.Options) (*search.Results, error)
}

// Handler serves filing analysis endpoints.
type Handler struct {
	orch   *pipeline.Orchestrator
	search Searcher
}

// NewHandler creates a handler over an orchestrator and a search client.
func NewHandler(orch *pipeline.Orchestrator, searchClient Searcher) *Handler {
	return &Handler{orch: orch, search: searchClient}
}

// Routes builds the router for the filings API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/search", h.HandleSearch)
	r.Get("/{identifier}/forty-f", h.HandleFortyF)
	r.Get("/{identifier}/forty-f/sections", h.HandleSections)
	r.Get("/{identifier}/forty-f/section", h.HandleSection)
	r.Get("/{identifier}/forty-f/subsidiaries", h.HandleSubsidiaries)
	r.Get("/{identifier}/forty-f/context", h.HandleContext)

	return r
}

// HandleSearch handles GET /api/filings/search
// Query params: q (required), forms, cik, ticker, start, end, limit.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()

	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		http.Error(w, "missing required query parameter: q", http.StatusBadRequest)
		return
	}

	opts := search.Options{
		CIK:       q.Get("cik"),
		Ticker:    q.Get("ticker"),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
	}
	if forms := q.Get("forms"); forms != "" {
		opts.Forms = strings.Split(forms, ",")
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}

	log.Printf("[API] (%s) Search: %q forms=%v", reqID, query, opts.Forms)

	results, err := h.search.Filings(query, opts)
	if err != nil {
		log.Printf("[API] (%s) Search failed: %v", reqID, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, results)
}

// HandleFortyF handles GET /api/filings/{identifier}/forty-f
// Returns the full cached extraction for the company's latest 40-F.
func (h *Handler) HandleFortyF(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	identifier := chi.URLParam(r, "identifier")

	log.Printf("[API] (%s) Analyze 40-F for %s", reqID, identifier)

	ext, err := h.orch.Analyze(r.Context(), identifier)
	if err != nil {
		log.Printf("[API] (%s) Analysis failed: %v", reqID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, ext)
}

// HandleSections handles GET /api/filings/{identifier}/forty-f/sections
func (h *Handler) HandleSections(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	ff, err := h.orch.FortyF(identifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	resp := struct {
		Company   string   `json:"company"`
		Accession string   `json:"accession_number"`
		AIFReason string   `json:"aif_reason"`
		MDAReason string   `json:"mda_reason"`
		Items     []string `json:"items"`
	}{
		Company:   ff.Filing().CompanyName,
		Accession: ff.Filing().AccessionNumber,
		AIFReason: ff.AIFReason(),
		MDAReason: ff.MDAReason(),
		Items:     ff.Items(),
	}
	writeJSON(w, resp)
}

// HandleSection handles GET /api/filings/{identifier}/forty-f/section?key=...
func (h *Handler) HandleSection(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing required query parameter: key", http.StatusBadRequest)
		return
	}

	ff, err := h.orch.FortyF(identifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	text := ff.Section(key)
	if text == "" {
		http.Error(w, "section not found: "+key, http.StatusNotFound)
		return
	}

	resp := struct {
		Key  string `json:"key"`
		Text string `json:"text"`
	}{Key: key, Text: text}
	writeJSON(w, resp)
}

// HandleSubsidiaries handles GET /api/filings/{identifier}/forty-f/subsidiaries
func (h *Handler) HandleSubsidiaries(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	identifier := chi.URLParam(r, "identifier")

	ff, err := h.orch.FortyF(identifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	subs, err := h.orch.Subsidiaries(ff.Filing())
	if err != nil {
		log.Printf("[API] (%s) Subsidiary extraction failed: %v", reqID, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	markdown := utils.CleanMarkdown(subs.ToMarkdown())
	if !utils.ValidateMarkdown(markdown) {
		log.Printf("[API] (%s) Rendered subsidiary table failed markdown validation", reqID)
	}

	resp := struct {
		Company      string      `json:"company"`
		Count        int         `json:"count"`
		Subsidiaries interface{} `json:"subsidiaries"`
		Markdown     string      `json:"markdown"`
	}{
		Company:      ff.Filing().CompanyName,
		Count:        len(subs),
		Subsidiaries: subs,
		Markdown:     markdown,
	}
	writeJSON(w, resp)
}

// HandleContext handles GET /api/filings/{identifier}/forty-f/context?detail=...
// detail is minimal, standard, or full (default standard).
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	detail := r.URL.Query().Get("detail")
	if detail == "" {
		detail = "standard"
	}

	ff, err := h.orch.FortyF(identifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(ff.ToContext(detail)))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}
