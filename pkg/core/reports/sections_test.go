package reports

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/webbsledge/edgartools/pkg/core/config"
)

const fillerSentence = "operating results remained stable throughout the reporting period. "

// buildSectionText builds a plausible AIF plain-text body: a long preamble
// past the minimum content offset, then headings on their own lines
// separated by narrative filler.
func buildSectionText(headings ...string) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(fillerSentence, 90))
	for _, h := range headings {
		b.WriteString("\n")
		b.WriteString(h)
		b.WriteString("\n")
		b.WriteString(strings.Repeat(fillerSentence, 5))
	}
	return b.String()
}

func TestFindSectionPositions(t *testing.T) {
	text := buildSectionText(
		"CORPORATE STRUCTURE",
		"DESCRIPTION OF THE BUSINESS",
		"RISK FACTORS",
		"DIVIDENDS",
	)
	heur := config.DefaultHeuristics()
	patterns := SectionPatterns("40-F", heur)

	positions := FindSectionPositions(text, patterns, heur)

	if len(positions) != 4 {
		t.Fatalf("expected 4 sections, got %d: %+v", len(positions), positions)
	}

	expected := []string{
		"CORPORATE STRUCTURE",
		"DESCRIPTION OF THE BUSINESS",
		"RISK FACTORS",
		"DIVIDENDS",
	}
	for i, want := range expected {
		if positions[i].Heading != want {
			t.Errorf("position %d: expected %q, got %q", i, want, positions[i].Heading)
		}
	}

	// Offsets strictly increasing
	for i := 1; i < len(positions); i++ {
		if positions[i].Offset <= positions[i-1].Offset {
			t.Errorf("offsets not strictly increasing at %d", i)
		}
	}
}

func TestFindSectionPositionsIdempotent(t *testing.T) {
	text := buildSectionText("CORPORATE STRUCTURE", "RISK FACTORS", "DIVIDENDS")
	heur := config.DefaultHeuristics()
	patterns := SectionPatterns("40-F", heur)

	first := FindSectionPositions(text, patterns, heur)
	second := FindSectionPositions(text, patterns, heur)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("section detection is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestFindSectionPositionsDedup(t *testing.T) {
	// Two headings within the dedup window: only the earlier one survives.
	var b strings.Builder
	b.WriteString(strings.Repeat(fillerSentence, 90))
	b.WriteString("\nDESCRIPTION OF CAPITAL STRUCTURE\n")
	b.WriteString(fillerSentence) // well under 200 chars
	b.WriteString("\nMARKET FOR SECURITIES\n")
	b.WriteString(strings.Repeat(fillerSentence, 5))
	b.WriteString("\nRISK FACTORS\n")
	b.WriteString(strings.Repeat(fillerSentence, 5))

	heur := config.DefaultHeuristics()
	patterns := SectionPatterns("40-F", heur)
	positions := FindSectionPositions(b.String(), patterns, heur)

	for _, pos := range positions {
		if pos.Heading == "MARKET FOR SECURITIES" {
			t.Errorf("heading within dedup window was not suppressed: %+v", positions)
		}
	}
	if len(positions) != 2 {
		t.Errorf("expected 2 sections after dedup, got %d: %+v", len(positions), positions)
	}
}

func TestFindSectionPositionsNoMatches(t *testing.T) {
	heur := config.DefaultHeuristics()
	patterns := SectionPatterns("40-F", heur)

	positions := FindSectionPositions(strings.Repeat(fillerSentence, 200), patterns, heur)
	if len(positions) != 0 {
		t.Errorf("expected no sections, got %+v", positions)
	}
}

func TestSectionPartition(t *testing.T) {
	text := buildSectionText("CORPORATE STRUCTURE", "RISK FACTORS", "DIVIDENDS")
	heur := config.DefaultHeuristics()
	positions := FindSectionPositions(text, SectionPatterns("40-F", heur), heur)

	if len(positions) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(positions))
	}

	for i, pos := range positions {
		section := ExtractSectionText(text, positions, i)
		if section == "" {
			t.Errorf("section %d is empty", i)
		}
		if !strings.HasPrefix(section, pos.Heading) {
			t.Errorf("section %d does not start with its heading: %q", i, section[:40])
		}
	}
}

func locate(t *testing.T, text, pattern string) (int, int) {
	t.Helper()
	loc := regexp.MustCompile(pattern).FindStringIndex(text)
	if loc == nil {
		t.Fatalf("pattern %q not found in fixture", pattern)
	}
	return loc[0], loc[1]
}

func TestIsTOCEntry(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "inline page number",
			text:     "contents listing\nRISK FACTORS 45\nDIVIDENDS 52\n",
			expected: true,
		},
		{
			name:     "compact TOC with uppercase run-on",
			text:     "contents listing\nRISK FACTORS 8DESCRIPTION OF THE BUSINESS",
			expected: true,
		},
		{
			name:     "subsection numeral is not a page number",
			text:     "body text\nRISK FACTORS 4.1 Overview of principal risks facing the company",
			expected: false,
		},
		{
			name:     "multi-line page numbers",
			text:     "contents listing\nRISK FACTORS\n12\n15\nmore entries",
			expected: true,
		},
		{
			name:     "dash range page numbers",
			text:     "contents listing\nRISK FACTORS\n12–15\n18–22\nmore entries",
			expected: true,
		},
		{
			name:     "real section start",
			text:     "preamble text\nRISK FACTORS\nThe company faces a number of risks described below.",
			expected: false,
		},
		{
			name:     "years in tables are not page numbers",
			text:     "body\nRISK FACTORS\nThe table below compares fiscal years.\n2024\n2023\nrevenue figures",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := locate(t, tt.text, `RISK FACTORS`)
			if got := isTOCEntry(tt.text, start, end); got != tt.expected {
				t.Errorf("isTOCEntry = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsCrossReference(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "quoted title",
			text:     "as described in \"RISK FACTORS below",
			expected: true,
		},
		{
			name:     "see reference",
			text:     "for more information see RISK FACTORS in this document",
			expected: true,
		},
		{
			name:     "under reference",
			text:     "disclosed under RISK FACTORS elsewhere",
			expected: true,
		},
		{
			name:     "quoted structural pointer",
			text:     "described in \"Section 6 - RISK FACTORS of the annual report",
			expected: true,
		},
		{
			name:     "mid-sentence lowercase",
			text:     "these matters are discussed in the risks section, RISK FACTORS and elsewhere",
			expected: true,
		},
		{
			name:     "heading on its own line",
			text:     "end of previous section.\nRISK FACTORS\nThe company faces risks.",
			expected: false,
		},
		{
			name:     "capitalized page footer",
			text:     "something\nAnnual Report RISK FACTORS",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := locate(t, tt.text, `RISK FACTORS`)
			if got := isCrossReference(tt.text, start, end); got != tt.expected {
				t.Errorf("isCrossReference = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"CORPORATE STRUCTURE", "Corporate Structure"},
		{"DESCRIPTION OF THE BUSINESS", "Description Of The Business"},
		{"risk factors", "Risk Factors"},
		{"LEGAL PROCEEDINGS", "Legal Proceedings"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := titleCase(tt.input); got != tt.expected {
			t.Errorf("titleCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHTMLToText(t *testing.T) {
	html := `<html><body><script>var x = 1;</script><div>Hello filing</div><style>.a{}</style></body></html>`
	text := HTMLToText(html)
	if !strings.Contains(text, "Hello filing") {
		t.Errorf("expected text content, got %q", text)
	}
	if strings.Contains(text, "var x") {
		t.Errorf("script content leaked into text: %q", text)
	}
}
