// Package reports implements form-specific SEC filing parsers built on
// heuristic document structure inference: attachment classification,
// section boundary detection, and tabular record extraction.
package reports

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagStripPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	nonBreakingPattern = regexp.MustCompile(" ")
)

// HTMLToText extracts plain text from an HTML document. Script and style
// contents are dropped. If the HTML cannot be parsed as a document tree,
// falls back to regex tag stripping so text extraction never hard-fails.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripTags(html)
	}

	doc.Find("script, style").Remove()

	text := doc.Text()
	if strings.TrimSpace(text) == "" && strings.TrimSpace(html) != "" {
		return stripTags(html)
	}
	return text
}

// stripTags is the fallback extractor: replace tags with spaces and
// collapse whitespace.
func stripTags(html string) string {
	text := tagStripPattern.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// cleanCellText normalizes a table cell: trim, collapse internal spaces,
// convert non-breaking spaces.
func cleanCellText(text string) string {
	text = nonBreakingPattern.ReplaceAllString(text, " ")
	return normalizeWhitespace(text)
}
