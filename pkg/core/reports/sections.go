package reports

import (
	"regexp"
	"sort"
	"strings"

	"github.com/webbsledge/edgartools/pkg/core/config"
)

// SectionPosition marks a detected section heading within document text.
type SectionPosition struct {
	Offset  int    `json:"offset"`
	Heading string `json:"heading"`
}

// NI 51-102 AIF section heading patterns. Order matters: more specific
// variants come before broad ones so the recorded heading text is the
// fullest form that appears in the document.
var fortyFSectionPatterns = []string{
	`CORPORATE\s+STRUCTURE`,
	`GENERAL\s+DEVELOPMENT\s+OF\s+(?:THE\s+)?(?:[\w\-][\w\-'\x{2019}]*\s+)?BUSINESS`,
	`(?:NARRATIVE\s+)?DESCRIPTION\s+OF\s+(?:THE\s+)?(?:\w[\w'\x{2019}]*\s+)?BUSINESS(?:ES)?`,
	`BUSINESS\s+OF\s+(?:THE\s+)?(?:[\w][\w'\x{2019}]*(?:\s+[\w][\w'\x{2019}]*){0,3})`,
	`BUSINESS\s+OPERATIONS`,
	`DESCRIPTION\s+OF\s+CAPITAL\s+STRUCTURE`,
	`MARKET\s+FOR\s+SECURITIES`,
	`DIVIDENDS(?:\s+AND\s+DISTRIBUTIONS)?`,
	`DIRECTORS\s+AND\s+(?:EXECUTIVE\s+OFFICERS|OFFICERS|EXECUTIVE)`,
	`RISK\s+FACTORS`,
	`LEGAL\s+(?:PROCEEDINGS|MATTERS)`,
	`MATERIAL\s+PROPERTIES`,
	`CODE\s+OF\s+BUSINESS\s+CONDUCT`,
	`BUSINESS\s+OVERVIEW`,
}

// SectionPatterns returns the compiled heading patterns for a form type,
// with any configured extras appended.
func SectionPatterns(form string, heur config.Heuristics) []*regexp.Regexp {
	var raw []string
	switch {
	case form == "40-F" || form == "40-F/A":
		raw = fortyFSectionPatterns
	default:
		raw = fortyFSectionPatterns
	}

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+p))
	}
	for _, extra := range heur.ExtraSectionPatterns[form] {
		re, err := regexp.Compile(`(?i)` + extra.Pattern)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}

var (
	inlineSubsectionPattern = regexp.MustCompile(`^\d+[.]\d`)
	inlinePageNumPattern    = regexp.MustCompile(`^\d+(?:\s|$|[A-Z])`)
	standalonePageNumLine   = regexp.MustCompile(`(?m)^[\s\x{00a0}]*\d{1,3}(?:[-\x{2013}\x{2014}]\d{1,3})?[\s\x{00a0}]*$`)

	trailingQuotePattern  = regexp.MustCompile(`["\x{201c}\x{201d}]\s*$`)
	seeUnderPattern       = regexp.MustCompile(`(?i)\b(?:see|under)\s+["\x{201c}]?\s*$`)
	quotedPointerPattern  = regexp.MustCompile(`(?i)["\x{201c}](?:Section|Item|Appendix)\s`)
	midSentencePunct      = regexp.MustCompile(`[a-z][,;:]\s*$`)
	midSentenceTrailSpace = regexp.MustCompile(`[a-z]\s+$`)
)

// isTOCEntry reports whether the match at [start,end) looks like a
// table-of-contents listing rather than a real section start.
//
// Inline form: a bare page number immediately follows the heading. Digits
// followed by whitespace, end-of-text, or an uppercase letter count (compact
// TOCs run the next heading straight on, e.g. "8Description"). Subsection
// numerals like "4.1" are excluded.
//
// Multi-line form: two or more standalone short page numbers or dash ranges
// within the next 300 characters. Restricting to 1-3 digits avoids matching
// years in financial tables.
func isTOCEntry(text string, start, end int) bool {
	after := text[end:minInt(end+500, len(text))]
	stripped := strings.TrimLeft(after, " \t\r\n ")

	if !inlineSubsectionPattern.MatchString(stripped) && inlinePageNumPattern.MatchString(stripped) {
		return true
	}

	shortAfter := after[:minInt(300, len(after))]
	if len(standalonePageNumLine.FindAllString(shortAfter, -1)) >= 2 {
		return true
	}
	return false
}

// isCrossReference reports whether the match at [start,end) is a mention of
// a section rather than its definition, judged from the preceding 80
// characters.
func isCrossReference(text string, start, end int) bool {
	before := text[maxInt(0, start-80):start]

	// Quoted section title
	if trailingQuotePattern.MatchString(before) {
		return true
	}
	// "see X" / "under X"
	if seeUnderPattern.MatchString(before) {
		return true
	}
	// Quoted structural pointer: "Section 6 - Description of the Business"
	if quotedPointerPattern.MatchString(before) {
		return true
	}

	// Mid-sentence: a lowercase word ends the same text line immediately
	// before the match. Page footers like "Annual Report" end with a
	// capitalized word and must not trigger this rule.
	gap := before
	if idx := strings.LastIndex(before, "\n"); idx >= 0 {
		gap = before[idx+1:]
	}
	trimmed := strings.TrimSpace(gap)
	if trimmed == "" {
		return false
	}
	if midSentencePunct.MatchString(gap) {
		return true
	}
	if midSentenceTrailSpace.MatchString(gap) {
		words := strings.Fields(trimmed)
		lastWord := words[len(words)-1]
		if lastWord != "" && lastWord[0] >= 'a' && lastWord[0] <= 'z' {
			return true
		}
	}
	return false
}

// findFirstCleanMatch returns the [start,end) of the first match of pattern
// past minPos that is neither a TOC entry nor a cross-reference, or nil.
func findFirstCleanMatch(text string, pattern *regexp.Regexp, minPos int) []int {
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] <= minPos {
			continue
		}
		if isTOCEntry(text, loc[0], loc[1]) || isCrossReference(text, loc[0], loc[1]) {
			continue
		}
		return loc
	}
	return nil
}

// FindSectionPositions detects section headings in document plain text.
// Results are sorted by offset and deduplicated: when two headings start
// within the dedup window the later one is dropped, since overlapping
// patterns often re-match a subsection heading just below a section start.
func FindSectionPositions(text string, patterns []*regexp.Regexp, heur config.Heuristics) []SectionPosition {
	minPos := heur.MinContentOffset(len(text))

	var found []SectionPosition
	for _, pattern := range patterns {
		loc := findFirstCleanMatch(text, pattern, minPos)
		if loc == nil {
			continue
		}
		heading := normalizeWhitespace(text[loc[0]:loc[1]])
		found = append(found, SectionPosition{Offset: loc[0], Heading: heading})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Offset < found[j].Offset })

	var deduped []SectionPosition
	for _, pos := range found {
		if len(deduped) > 0 && pos.Offset-deduped[len(deduped)-1].Offset < heur.DedupWindow {
			continue
		}
		deduped = append(deduped, pos)
	}
	return deduped
}

// ExtractSectionText returns the whitespace-normalized text of the section
// at idx, bounded by the next section start or end of text. Adjacent
// sections partition the text with no gaps or overlaps.
func ExtractSectionText(text string, positions []SectionPosition, idx int) string {
	if idx < 0 || idx >= len(positions) {
		return ""
	}
	start := positions[idx].Offset
	end := len(text)
	if idx+1 < len(positions) {
		end = positions[idx+1].Offset
	}
	return normalizeWhitespace(text[start:end])
}

// titleCase converts a heading to title case: the first letter after any
// non-letter is uppercased, all other letters lowercased.
// "DESCRIPTION OF THE BUSINESS" becomes "Description Of The Business".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
		case isLetter:
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
