// Package pipeline wires filing retrieval, document classification, and
// section extraction into one end-to-end flow with cached results.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
	"github.com/webbsledge/edgartools/pkg/core/reports"
	"github.com/webbsledge/edgartools/pkg/core/store"
)

// FilingSource retrieves filings and documents from EDGAR.
// *edgar.Client satisfies it; tests substitute fixtures.
type FilingSource interface {
	LookupCIK(ticker string) (string, error)
	GetFiling(cik, form string) (*edgar.Filing, error)
	DownloadText(url string) (string, error)
	DownloadPrefix(url string, n int) (string, error)
}

// Orchestrator manages the end-to-end flow:
// resolve company -> fetch filing -> classify attachments -> detect
// sections -> parse subsidiaries -> persist.
type Orchestrator struct {
	source FilingSource
	cache  *store.ExtractionCache
	docs   *edgar.DocumentCache
	heur   config.Heuristics
}

// NewOrchestrator creates an orchestrator. cache may be nil to disable
// persistence.
func NewOrchestrator(source FilingSource, cache *store.ExtractionCache, heur config.Heuristics) *Orchestrator {
	return &Orchestrator{source: source, cache: cache, heur: heur}
}

// SetDocumentCache enables on-disk caching of downloaded exhibit documents.
func (o *Orchestrator) SetDocumentCache(docs *edgar.DocumentCache) {
	o.docs = docs
}

// ResolveCIK turns a company identifier into a zero-padded CIK. Numeric
// identifiers are treated as CIKs directly; anything else goes through the
// ticker table.
func (o *Orchestrator) ResolveCIK(identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("company identifier is empty")
	}
	if isAllDigits(id) {
		return edgar.PadCIK(id), nil
	}
	cik, err := o.source.LookupCIK(id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve ticker %q: %w", id, err)
	}
	return cik, nil
}

// FortyF fetches the latest 40-F for a company and wraps it in the report
// facade. identifier may be a ticker or a CIK.
func (o *Orchestrator) FortyF(identifier string) (*reports.FortyF, error) {
	cik, err := o.ResolveCIK(identifier)
	if err != nil {
		return nil, err
	}

	filing, err := o.source.GetFiling(cik, "40-F")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch 40-F for CIK %s: %w", cik, err)
	}

	return reports.NewFortyF(filing, o.source, o.heur)
}

// Subsidiaries downloads and parses the filing's Exhibit 21, if present.
// A filing without an EX-21 yields an empty list and no error.
func (o *Orchestrator) Subsidiaries(filing *edgar.Filing) (reports.SubsidiaryList, error) {
	exhibit := reports.FindExhibit21(filing.Attachments)
	if exhibit == nil {
		return nil, nil
	}

	if o.docs != nil {
		if html := o.docs.Get(filing.AccessionNumber, exhibit.Name); html != "" {
			return reports.ParseSubsidiaries(html)
		}
	}

	html, err := o.source.DownloadText(exhibit.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download exhibit 21: %w", err)
	}
	if o.docs != nil {
		if err := o.docs.Set(filing.AccessionNumber, exhibit.Name, html); err != nil {
			log.Printf("[Pipeline] Failed to cache exhibit %s: %v", exhibit.Name, err)
		}
	}
	return reports.ParseSubsidiaries(html)
}

// Analyze runs the full extraction for a company's latest 40-F. Cached
// results are returned without refetching; fresh results are persisted
// when a cache is configured (persistence failures are logged, not fatal).
func (o *Orchestrator) Analyze(ctx context.Context, identifier string) (*store.FilingExtraction, error) {
	ff, err := o.FortyF(identifier)
	if err != nil {
		return nil, err
	}

	filing := ff.Filing()
	if o.cache != nil {
		cached, err := o.cache.GetByAccession(ctx, filing.AccessionNumber)
		if err != nil {
			log.Printf("[Pipeline] Cache read failed for %s: %v", filing.AccessionNumber, err)
		} else if cached != nil {
			log.Printf("[Pipeline] Cache hit for %s (%s)", filing.CompanyName, filing.AccessionNumber)
			return cached, nil
		}
	}

	subs, err := o.Subsidiaries(filing)
	if err != nil {
		log.Printf("[Pipeline] Subsidiary extraction failed for %s: %v", filing.AccessionNumber, err)
		subs = nil
	}

	ext := store.NewExtraction(ff, subs, nil)
	if o.cache != nil {
		if err := o.cache.Save(ctx, ext); err != nil {
			log.Printf("[Pipeline] Failed to persist extraction %s: %v", ext.AccessionNumber, err)
		}
	}
	return ext, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
