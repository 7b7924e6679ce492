package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
	"github.com/webbsledge/edgartools/pkg/core/store"
)

const (
	mainURL = "https://www.sec.gov/Archives/edgar/data/123456/form40f.htm"
	aifURL  = "https://www.sec.gov/Archives/edgar/data/123456/aif.htm"
	ex21URL = "https://www.sec.gov/Archives/edgar/data/123456/ex21.htm"
)

type fakeSource struct {
	cikByTicker map[string]string
	filing      *edgar.Filing
	pages       map[string]string
	downloads   int
	getFilings  int
}

func (f *fakeSource) LookupCIK(ticker string) (string, error) {
	if cik, ok := f.cikByTicker[strings.ToLower(ticker)]; ok {
		return cik, nil
	}
	return "", fmt.Errorf("ticker %s not found", ticker)
}

func (f *fakeSource) GetFiling(cik, form string) (*edgar.Filing, error) {
	f.getFilings++
	if f.filing == nil || f.filing.CIK != cik {
		return nil, fmt.Errorf("no %s filing for CIK %s", form, cik)
	}
	return f.filing, nil
}

func (f *fakeSource) DownloadText(url string) (string, error) {
	f.downloads++
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return "", fmt.Errorf("document not found: %s", url)
}

func (f *fakeSource) DownloadPrefix(url string, n int) (string, error) {
	page, err := f.DownloadText(url)
	if err != nil {
		return "", err
	}
	if len(page) > n {
		page = page[:n]
	}
	return page, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		cikByTicker: map[string]string{"npc": "0000123456"},
		filing: &edgar.Filing{
			CIK:             "0000123456",
			CompanyName:     "Northern Pipeline Corp",
			Form:            "40-F",
			FilingDate:      "2024-03-28",
			PeriodOfReport:  "2023-12-31",
			AccessionNumber: "0001234567-24-000123",
			Attachments: []edgar.Attachment{
				{Sequence: "1", Description: "Form 40-F", DocumentType: "40-F", Name: "form40f.htm", URL: mainURL, Size: 150000},
				{Sequence: "2", Description: "ANNUAL INFORMATION FORM", DocumentType: "EX-99.1", Name: "aif.htm", URL: aifURL, Size: 60000},
				{Sequence: "3", Description: "Subsidiaries of the Registrant", DocumentType: "EX-21.1", Name: "ex21.htm", URL: ex21URL, Size: 4000},
			},
		},
		pages: map[string]string{
			mainURL: "<html><body><p>Form 40-F cover.</p></body></html>",
			aifURL:  "<html><body><p>Short annual information form.</p></body></html>",
			ex21URL: `<html><body><table>
<tr><td>Name of Subsidiary</td><td>Jurisdiction</td></tr>
<tr><td>Maple Transport Ltd</td><td>Ontario</td></tr>
<tr><td>Maple US Inc.</td><td>Delaware</td></tr>
</table></body></html>`,
		},
	}
}

func TestResolveCIK(t *testing.T) {
	o := NewOrchestrator(newFakeSource(), nil, config.DefaultHeuristics())

	tests := []struct {
		name       string
		identifier string
		want       string
		wantErr    bool
	}{
		{"ticker", "NPC", "0000123456", false},
		{"numeric cik padded", "123456", "0000123456", false},
		{"already padded", "0000123456", "0000123456", false},
		{"unknown ticker", "ZZZZ", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.ResolveCIK(tt.identifier)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveCIK(%q) error = %v, wantErr %v", tt.identifier, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveCIK(%q) = %q, want %q", tt.identifier, got, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	src := newFakeSource()
	o := NewOrchestrator(src, nil, config.DefaultHeuristics())

	ext, err := o.Analyze(context.Background(), "NPC")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if ext.AccessionNumber != "0001234567-24-000123" {
		t.Errorf("AccessionNumber = %q", ext.AccessionNumber)
	}
	if ext.AIFReason != "Description mentions ANNUAL INFORMATION" {
		t.Errorf("AIFReason = %q", ext.AIFReason)
	}
	if ext.MDAReason != "MD&A not found" {
		t.Errorf("MDAReason = %q", ext.MDAReason)
	}
	if len(ext.Subsidiaries) != 2 {
		t.Fatalf("Subsidiaries = %+v, want 2 records", ext.Subsidiaries)
	}
	if ext.Subsidiaries[0].Name != "Maple Transport Ltd" || ext.Subsidiaries[0].Jurisdiction != "Ontario" {
		t.Errorf("first subsidiary = %+v", ext.Subsidiaries[0])
	}
	if len(ext.Sections) != 0 {
		t.Errorf("expected no sections in short fixture, got %+v", ext.Sections)
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	src := newFakeSource()
	cache := store.NewExtractionCache(nil, t.TempDir())
	o := NewOrchestrator(src, cache, config.DefaultHeuristics())
	ctx := context.Background()

	if _, err := o.Analyze(ctx, "NPC"); err != nil {
		t.Fatalf("first Analyze() error: %v", err)
	}
	downloadsAfterFirst := src.downloads

	ext, err := o.Analyze(ctx, "NPC")
	if err != nil {
		t.Fatalf("second Analyze() error: %v", err)
	}
	if src.downloads != downloadsAfterFirst {
		t.Errorf("cache hit still downloaded documents: %d -> %d", downloadsAfterFirst, src.downloads)
	}
	if len(ext.Subsidiaries) != 2 {
		t.Errorf("cached extraction lost subsidiaries: %+v", ext.Subsidiaries)
	}
}

func TestAnalyzeUnknownCompany(t *testing.T) {
	src := newFakeSource()
	o := NewOrchestrator(src, nil, config.DefaultHeuristics())

	if _, err := o.Analyze(context.Background(), "999999"); err == nil {
		t.Error("expected error for CIK with no filing")
	}
}

func TestSubsidiariesDocumentCache(t *testing.T) {
	src := newFakeSource()
	o := NewOrchestrator(src, nil, config.DefaultHeuristics())
	o.SetDocumentCache(edgar.NewDocumentCacheWithDir(t.TempDir()))

	if _, err := o.Subsidiaries(src.filing); err != nil {
		t.Fatalf("first Subsidiaries() error: %v", err)
	}
	downloadsAfterFirst := src.downloads

	subs, err := o.Subsidiaries(src.filing)
	if err != nil {
		t.Fatalf("second Subsidiaries() error: %v", err)
	}
	if src.downloads != downloadsAfterFirst {
		t.Errorf("cached exhibit still downloaded: %d -> %d", downloadsAfterFirst, src.downloads)
	}
	if len(subs) != 2 {
		t.Errorf("cached parse = %+v, want 2 records", subs)
	}
}

func TestSubsidiariesWithoutExhibit(t *testing.T) {
	src := newFakeSource()
	src.filing.Attachments = src.filing.Attachments[:2]
	o := NewOrchestrator(src, nil, config.DefaultHeuristics())

	subs, err := o.Subsidiaries(src.filing)
	if err != nil {
		t.Fatalf("Subsidiaries() error: %v", err)
	}
	if subs != nil {
		t.Errorf("expected nil list without EX-21, got %+v", subs)
	}
}
