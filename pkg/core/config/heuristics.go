// Package config holds tunable parameters for filing document analysis.
//
// Defaults match observed EDGAR filing shapes; deployments can override
// them from an HJSON file so operators get comments and trailing commas.
package config

import (
	"fmt"
	"os"

	"github.com/webbsledge/edgartools/pkg/core/utils"
)

// Heuristics parameterizes the document classification and section
// detection pipeline.
type Heuristics struct {
	// MajorExhibitThreshold is the minimum byte size for an exhibit to be
	// considered a substantial standalone document.
	MajorExhibitThreshold int `json:"major_exhibit_threshold"`

	// SniffWindow is how many bytes of an exhibit to download when
	// checking its content for report keywords.
	SniffWindow int `json:"sniff_window"`

	// SizeRatio is the minimum exhibit-to-main-document size ratio for a
	// fallback exhibit to win over an inline main document.
	SizeRatio float64 `json:"size_ratio"`

	// DedupWindow is the character distance within which two section
	// matches are treated as duplicates of the same heading.
	DedupWindow int `json:"dedup_window"`

	// MinContentFloor, MinContentCeil, and ContentFraction define the
	// minimum offset into a document where real section content can
	// begin: min(max(MinContentFloor, ContentFraction*len), MinContentCeil).
	MinContentFloor int     `json:"min_content_floor"`
	MinContentCeil  int     `json:"min_content_ceil"`
	ContentFraction float64 `json:"content_fraction"`

	// ExtraSectionPatterns maps form types to additional section heading
	// patterns appended to the built-in set.
	ExtraSectionPatterns map[string][]SectionPatternConfig `json:"extra_section_patterns"`
}

// SectionPatternConfig is a user-supplied section heading pattern.
type SectionPatternConfig struct {
	Key     string `json:"key"`
	Pattern string `json:"pattern"`
}

// DefaultHeuristics returns the standard tuning.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		MajorExhibitThreshold: 100000,
		SniffWindow:           80000,
		SizeRatio:             0.20,
		DedupWindow:           200,
		MinContentFloor:       5000,
		MinContentCeil:        10000,
		ContentFraction:       0.03,
	}
}

// MinContentOffset computes the earliest plausible offset for section
// content in a document of the given length. Matches before this offset
// almost always sit in the cover page or table of contents.
func (h Heuristics) MinContentOffset(docLen int) int {
	offset := int(h.ContentFraction * float64(docLen))
	if offset < h.MinContentFloor {
		offset = h.MinContentFloor
	}
	if offset > h.MinContentCeil {
		offset = h.MinContentCeil
	}
	return offset
}

// LoadHeuristics reads overrides from an HJSON file on top of defaults.
// A missing path returns the defaults unchanged.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return h, fmt.Errorf("failed to read heuristics file: %w", err)
	}

	if err := utils.ParseHJSONToStruct(string(data), &h); err != nil {
		return h, fmt.Errorf("failed to parse heuristics file %s: %w", path, err)
	}
	return h, nil
}
