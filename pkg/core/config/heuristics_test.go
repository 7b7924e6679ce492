package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHeuristics(t *testing.T) {
	h := DefaultHeuristics()

	if h.MajorExhibitThreshold != 100000 {
		t.Errorf("expected threshold 100000, got %d", h.MajorExhibitThreshold)
	}
	if h.SizeRatio != 0.20 {
		t.Errorf("expected size ratio 0.20, got %f", h.SizeRatio)
	}
	if h.DedupWindow != 200 {
		t.Errorf("expected dedup window 200, got %d", h.DedupWindow)
	}
}

func TestMinContentOffset(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name     string
		docLen   int
		expected int
	}{
		{"small doc uses floor", 50000, 5000},     // 3% = 1500, floor wins
		{"medium doc uses fraction", 250000, 7500}, // 3% = 7500
		{"large doc capped at ceiling", 1000000, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.MinContentOffset(tt.docLen)
			if got != tt.expected {
				t.Errorf("MinContentOffset(%d) = %d, want %d", tt.docLen, got, tt.expected)
			}
		})
	}
}

func TestLoadHeuristicsMissingFile(t *testing.T) {
	h, err := LoadHeuristics(filepath.Join(t.TempDir(), "absent.hjson"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if h.MajorExhibitThreshold != 100000 {
		t.Errorf("expected defaults, got threshold %d", h.MajorExhibitThreshold)
	}
}

func TestLoadHeuristicsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.hjson")
	content := `{
  // exhibits smaller than this are noise
  major_exhibit_threshold: 50000
  size_ratio: 0.5
  extra_section_patterns: {
    "40-F": [
      {key: "esg", pattern: "ENVIRONMENTAL\\s+MATTERS"}
    ]
  }
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("LoadHeuristics failed: %v", err)
	}

	if h.MajorExhibitThreshold != 50000 {
		t.Errorf("expected overridden threshold 50000, got %d", h.MajorExhibitThreshold)
	}
	if h.SizeRatio != 0.5 {
		t.Errorf("expected overridden ratio 0.5, got %f", h.SizeRatio)
	}
	// Untouched fields keep defaults.
	if h.DedupWindow != 200 {
		t.Errorf("expected default dedup window 200, got %d", h.DedupWindow)
	}

	patterns := h.ExtraSectionPatterns["40-F"]
	if len(patterns) != 1 || patterns[0].Key != "esg" {
		t.Errorf("unexpected extra patterns: %+v", patterns)
	}
}
