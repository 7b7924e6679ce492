package store

import (
	"context"
	"testing"

	"github.com/webbsledge/edgartools/pkg/core/reports"
)

func sampleExtraction() *FilingExtraction {
	pct := 100.0
	return &FilingExtraction{
		AccessionNumber: "0001234567-24-000123",
		CIK:             "0000123456",
		CompanyName:     "Northern Pipeline Corp",
		FormType:        "40-F",
		FilingDate:      "2024-03-28",
		AIFReason:       "Description mentions ANNUAL INFORMATION",
		MDAReason:       "MD&A not found",
		Sections: []reports.SectionPosition{
			{Offset: 6200, Heading: "Risk Factors"},
			{Offset: 14800, Heading: "Dividends"},
		},
		Subsidiaries: reports.SubsidiaryList{
			{Name: "Northern Pipeline Holdings Ltd", Jurisdiction: "Alberta", OwnershipPct: &pct},
		},
	}
}

func TestExtractionCacheFileRoundTrip(t *testing.T) {
	cache := NewExtractionCache(nil, t.TempDir())
	ctx := context.Background()

	ext := sampleExtraction()
	if err := cache.Save(ctx, ext); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !cache.Exists(ctx, ext.AccessionNumber) {
		t.Error("Exists() = false after Save")
	}

	got, err := cache.GetByAccession(ctx, ext.AccessionNumber)
	if err != nil {
		t.Fatalf("GetByAccession() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetByAccession() returned nil for saved extraction")
	}
	if got.CompanyName != ext.CompanyName || got.AIFReason != ext.AIFReason {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Sections) != 2 || got.Sections[0].Heading != "Risk Factors" {
		t.Errorf("sections not preserved: %+v", got.Sections)
	}
	if len(got.Subsidiaries) != 1 || got.Subsidiaries[0].OwnershipPct == nil {
		t.Errorf("subsidiaries not preserved: %+v", got.Subsidiaries)
	}
	if got.ExtractedAt.IsZero() {
		t.Error("ExtractedAt not stamped on save")
	}
}

func TestExtractionCacheMiss(t *testing.T) {
	cache := NewExtractionCache(nil, t.TempDir())
	ctx := context.Background()

	got, err := cache.GetByAccession(ctx, "0000000000-00-000000")
	if err != nil {
		t.Fatalf("GetByAccession() error on miss: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on cache miss, got %+v", got)
	}
	if cache.Exists(ctx, "0000000000-00-000000") {
		t.Error("Exists() = true for missing accession")
	}
}

func TestExtractionCacheRequiresAccession(t *testing.T) {
	cache := NewExtractionCache(nil, t.TempDir())
	if err := cache.Save(context.Background(), &FilingExtraction{}); err == nil {
		t.Error("expected error saving extraction without accession number")
	}
}
