package reports

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
)

// ContentDownloader fetches filing documents. *edgar.Client satisfies it.
type ContentDownloader interface {
	DownloadText(url string) (string, error)
	DownloadPrefix(url string, maxBytes int) (string, error)
}

// Business section start patterns, tried in order when no detected section
// heading names the business description.
var businessStartPatterns = []string{
	`(?:NARRATIVE\s+)?DESCRIPTION\s+OF\s+(?:THE\s+)?(?:\w[\w'\x{2019}]*\s+)?BUSINESS(?:ES)?`,
	`BUSINESS\s+OF\s+(?:THE\s+)?(?:[\w][\w'\x{2019}]*(?:\s+[\w][\w'\x{2019}]*){0,3})`,
	`DESCRIPTION\s+OF\s+BUSINESS`,
	`BUSINESS\s+OPERATIONS`,
	`BUSINESS\s+OVERVIEW`,
	`DESCRIPTION\s+OF\s+OPERATIONS`,
}

var businessEndPatterns = []string{
	`GENERAL\s+DEVELOPMENT\s+OF\s+(?:THE\s+)?(?:[\w\-][\w\-'\x{2019}]*\s+)?BUSINESS`,
	`(?:THREE[\s-]YEAR|3[\s-]YEAR)\s+HISTORY`,
	`DESCRIPTION\s+OF\s+CAPITAL\s+STRUCTURE`,
	`MATERIAL\s+PROPERTIES`,
	`LEGAL\s+(?:PROCEEDINGS|MATTERS)`,
	`RISK\s+FACTORS`,
	`CODE\s+OF\s+BUSINESS\s+CONDUCT`,
	`MARKET\s+FOR\s+SECURITIES`,
	`DIRECTORS\s+AND\s+(?:EXECUTIVE\s+OFFICERS|OFFICERS|EXECUTIVE)`,
}

// FortyF is a Canadian MJDS annual report (Form 40-F).
//
// The 40-F wraps the Canadian Annual Information Form (AIF), which is the
// primary source of business description text. Attachment resolution,
// document download, text extraction, and section detection are each
// computed lazily on first access and cached for the life of the instance.
// Instances are not safe for concurrent use.
type FortyF struct {
	filing     *edgar.Filing
	downloader ContentDownloader
	heur       config.Heuristics

	aifComputed   bool
	aifAttachment *edgar.Attachment
	aifReason     string

	mdaComputed   bool
	mdaAttachment *edgar.Attachment
	mdaReason     string

	aifHTMLComputed bool
	aifHTML         string

	aifTextComputed bool
	aifText         string

	mdaHTMLComputed bool
	mdaHTML         string

	mdaTextComputed bool
	mdaText         string

	sectionsComputed bool
	sections         []SectionPosition
}

// NewFortyF creates a 40-F report facade. The filing form must be 40-F
// or 40-F/A; anything else is a usage error.
func NewFortyF(filing *edgar.Filing, downloader ContentDownloader, heur config.Heuristics) (*FortyF, error) {
	if filing == nil {
		return nil, fmt.Errorf("filing is nil")
	}
	if filing.Form != "40-F" && filing.Form != "40-F/A" {
		return nil, fmt.Errorf("expected 40-F or 40-F/A, got %s", filing.Form)
	}
	return &FortyF{filing: filing, downloader: downloader, heur: heur}, nil
}

// Filing returns the underlying filing.
func (f *FortyF) Filing() *edgar.Filing { return f.filing }

// AIFAttachment returns the identified AIF exhibit, or nil if not found.
func (f *FortyF) AIFAttachment() *edgar.Attachment {
	f.resolveAIF()
	return f.aifAttachment
}

// AIFReason explains which classification tier selected the AIF. The
// heuristic can mis-fire, and the reason is the only debugging signal.
func (f *FortyF) AIFReason() string {
	f.resolveAIF()
	return f.aifReason
}

func (f *FortyF) resolveAIF() {
	if f.aifComputed {
		return
	}
	locator := NewAIFLocator(f.downloader, f.heur)
	f.aifAttachment, f.aifReason = locator.Locate(f.filing.Attachments)
	f.aifComputed = true
}

// MDAAttachment returns the identified MD&A exhibit, or nil if not found.
// The AIF attachment is excluded from consideration.
func (f *FortyF) MDAAttachment() *edgar.Attachment {
	f.resolveMDA()
	return f.mdaAttachment
}

// MDAReason explains which classification tier selected the MD&A.
func (f *FortyF) MDAReason() string {
	f.resolveMDA()
	return f.mdaReason
}

func (f *FortyF) resolveMDA() {
	if f.mdaComputed {
		return
	}
	locator := NewMDALocator(f.downloader, f.heur)
	f.mdaAttachment, f.mdaReason = locator.Locate(f.filing.Attachments, f.AIFAttachment())
	f.mdaComputed = true
}

// AIFHTML returns the raw HTML of the AIF document, or "" if the AIF was
// not found or could not be downloaded. Download errors degrade to "no
// content" so section accessors stay total.
func (f *FortyF) AIFHTML() string {
	if f.aifHTMLComputed {
		return f.aifHTML
	}
	f.aifHTMLComputed = true

	att := f.AIFAttachment()
	if att == nil || f.downloader == nil {
		return ""
	}
	html, err := f.downloader.DownloadText(att.URL)
	if err != nil {
		return ""
	}
	f.aifHTML = html
	return f.aifHTML
}

// AIFText returns the plain text of the AIF document, or "" if unavailable.
func (f *FortyF) AIFText() string {
	if f.aifTextComputed {
		return f.aifText
	}
	f.aifTextComputed = true

	html := f.AIFHTML()
	if html == "" {
		return ""
	}
	f.aifText = HTMLToText(html)
	return f.aifText
}

// MDAHTML returns the raw HTML of the MD&A document, or "" if unavailable.
func (f *FortyF) MDAHTML() string {
	if f.mdaHTMLComputed {
		return f.mdaHTML
	}
	f.mdaHTMLComputed = true

	att := f.MDAAttachment()
	if att == nil || f.downloader == nil {
		return ""
	}
	html, err := f.downloader.DownloadText(att.URL)
	if err != nil {
		return ""
	}
	f.mdaHTML = html
	return f.mdaHTML
}

// MDAText returns the plain text of the MD&A document, or "" if unavailable.
func (f *FortyF) MDAText() string {
	if f.mdaTextComputed {
		return f.mdaText
	}
	f.mdaTextComputed = true

	html := f.MDAHTML()
	if html == "" {
		return ""
	}
	f.mdaText = HTMLToText(html)
	return f.mdaText
}

// SectionPositions returns detected sections as (offset, Title Case name)
// pairs, sorted by offset.
func (f *FortyF) SectionPositions() []SectionPosition {
	if f.sectionsComputed {
		return f.sections
	}
	f.sectionsComputed = true

	text := f.AIFText()
	if text == "" {
		return nil
	}
	patterns := SectionPatterns(f.filing.Form, f.heur)
	positions := FindSectionPositions(text, patterns, f.heur)
	for i := range positions {
		positions[i].Heading = titleCase(positions[i].Heading)
	}
	f.sections = positions
	return f.sections
}

// Items lists the detected AIF section names (Canadian NI 51-102 headings,
// not US Item numbers).
func (f *FortyF) Items() []string {
	positions := f.SectionPositions()
	items := make([]string, 0, len(positions))
	for _, pos := range positions {
		items = append(items, pos.Heading)
	}
	return items
}

// Section looks up a section by name and returns its text, bounded by the
// next detected section. Exact case-insensitive matches win; otherwise a
// containment match ("business" matches "Description Of The Business").
// Returns "" when no sections were detected or nothing matches.
func (f *FortyF) Section(key string) string {
	text := f.AIFText()
	positions := f.SectionPositions()
	if text == "" || len(positions) == 0 {
		return ""
	}

	keyLower := strings.ToLower(strings.TrimSpace(key))
	if keyLower == "" {
		return ""
	}

	for idx, pos := range positions {
		if strings.ToLower(pos.Heading) == keyLower {
			return ExtractSectionText(text, positions, idx)
		}
	}
	for idx, pos := range positions {
		headingLower := strings.ToLower(pos.Heading)
		if strings.Contains(headingLower, keyLower) || strings.Contains(keyLower, headingLower) {
			return ExtractSectionText(text, positions, idx)
		}
	}
	return ""
}

// Business returns the business description from the AIF. It prefers a
// detected business section; failing that it falls back to start/end
// pattern matching over the raw text.
func (f *FortyF) Business() string {
	text := f.AIFText()
	if text == "" {
		return ""
	}

	positions := f.SectionPositions()
	for idx, pos := range positions {
		upper := strings.ToUpper(pos.Heading)
		if (strings.Contains(upper, "DESCRIPTION") && strings.Contains(upper, "BUSINESS")) ||
			(strings.Contains(upper, "DEVELOPMENT") && strings.Contains(upper, "BUSINESS")) ||
			strings.HasPrefix(upper, "BUSINESS OF") ||
			strings.HasPrefix(upper, "BUSINESS OVERVIEW") ||
			strings.HasPrefix(upper, "BUSINESS OPERATIONS") {
			return ExtractSectionText(text, positions, idx)
		}
	}

	minPos := f.heur.MinContentOffset(len(text))
	for _, raw := range businessStartPatterns {
		pattern := regexp.MustCompile(`(?i)` + raw)
		loc := findFirstCleanMatch(text, pattern, minPos)
		if loc == nil {
			continue
		}
		start := loc[0]
		end := len(text)
		searchFrom := start + 500
		for _, rawEnd := range businessEndPatterns {
			endPattern := regexp.MustCompile(`(?i)` + rawEnd)
			endLoc := findFirstCleanMatch(text, endPattern, searchFrom)
			if endLoc != nil && endLoc[0] < end {
				end = endLoc[0]
			}
		}
		return normalizeWhitespace(text[start:end])
	}
	return ""
}

// Named accessors for the high-frequency NI 51-102 sections. These are
// sugar over Section.

// RiskFactors returns the Risk Factors section from the AIF.
func (f *FortyF) RiskFactors() string { return f.Section("Risk Factors") }

// CorporateStructure returns the Corporate Structure section from the AIF.
func (f *FortyF) CorporateStructure() string { return f.Section("Corporate Structure") }

// Dividends returns the Dividends section from the AIF.
func (f *FortyF) Dividends() string { return f.Section("Dividends") }

// CapitalStructure returns the Description of Capital Structure section.
func (f *FortyF) CapitalStructure() string { return f.Section("Description Of Capital Structure") }

// DirectorsAndOfficers returns the Directors and Officers section.
func (f *FortyF) DirectorsAndOfficers() string { return f.Section("Directors And Officers") }

// LegalProceedings returns the Legal Proceedings section from the AIF.
func (f *FortyF) LegalProceedings() string { return f.Section("Legal Proceedings") }

// ToContext returns an LLM-oriented summary of the filing's detected
// structure. Detail levels: "minimal", "standard", "full".
func (f *FortyF) ToContext(detail string) string {
	lines := []string{
		fmt.Sprintf("REPORT: %s Form %s", f.filing.CompanyName, f.filing.Form),
		fmt.Sprintf("Period: %s", f.filing.PeriodOfReport),
		fmt.Sprintf("Filed: %s", f.filing.FilingDate),
	}

	aifStatus := "not found"
	if f.AIFAttachment() != nil {
		aifStatus = "found"
	}
	lines = append(lines, fmt.Sprintf("AIF: %s", aifStatus))

	mdaStatus := "not found"
	if f.MDAAttachment() != nil {
		mdaStatus = "found"
	}
	lines = append(lines, fmt.Sprintf("MD&A: %s", mdaStatus))

	if detail == "standard" || detail == "full" {
		items := f.Items()
		if len(items) > 0 {
			lines = append(lines, fmt.Sprintf("Detected Sections (%d): %s", len(items), strings.Join(items, ", ")))
		} else {
			lines = append(lines, "Detected Sections: none")
		}

		lines = append(lines,
			"",
			"AVAILABLE SECTIONS:",
			"  Business                   # Business description from AIF",
			"  Risk Factors               # Risk factors",
			"  Corporate Structure        # Corporate structure",
			"  Dividends                  # Dividends",
			"  Description Of Capital Structure",
			"  Directors And Officers     # Directors and officers",
			"  Legal Proceedings          # Legal proceedings",
			"",
			"SECTION LOOKUP:",
			"  Section(\"Risk Factors\")    # Exact match",
			"  Section(\"business\")        # Fuzzy keyword match",
			"  Items()                    # List detected sections",
		)
	}

	if detail == "full" {
		items := f.Items()
		if len(items) > 0 {
			lines = append(lines, "", "SECTION PREVIEWS:")
			for _, name := range items {
				text := f.Section(name)
				if text == "" {
					continue
				}
				preview := text
				if len(preview) > 150 {
					preview = preview[:150]
				}
				preview = strings.ReplaceAll(preview, "\n", " ")
				lines = append(lines, fmt.Sprintf("  %s: %s...", name, preview))
			}
		}
	}

	return strings.Join(lines, "\n")
}
