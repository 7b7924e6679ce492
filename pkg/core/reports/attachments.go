package reports

import (
	"log"
	"regexp"
	"strings"

	"github.com/webbsledge/edgartools/pkg/core/config"
	"github.com/webbsledge/edgartools/pkg/core/edgar"
)

// Downloader fetches document content for content-sniffing. A failed
// download is treated by the classifiers as "candidate did not match",
// never as a classification error.
type Downloader interface {
	DownloadPrefix(url string, maxBytes int) (string, error)
}

// Exhibit types that never carry report narrative: XBRL taxonomy files,
// graphics, consents, and certifications.
var skipTypes = map[string]bool{
	"GRAPHIC": true, "EX-101.SCH": true, "EX-101.CAL": true, "EX-101.DEF": true,
	"EX-101.LAB": true, "EX-101.PRE": true, "XML": true, "": true,
	"EX-23.1": true, "EX-23.2": true, "EX-23.3": true, "EX-23.4": true,
	"EX-31.1": true, "EX-31.2": true, "EX-32.1": true, "EX-32.2": true,
	"EX-97": true, "EX-97.1": true, "EX-32": true,
}

// NI 51-102 headings used to detect AIF content (case-insensitive check)
var aifContentSignals = []string{
	"CORPORATE STRUCTURE",
	"DESCRIPTION OF THE BUSINESS",
	"GENERAL DEVELOPMENT OF THE BUSINESS",
	"RISK FACTORS",
}

var mdaContentSignals = []string{
	"MANAGEMENT'S DISCUSSION AND ANALYSIS",
	"MANAGEMENT DISCUSSION AND ANALYSIS",
	"RESULTS OF OPERATIONS",
	"LIQUIDITY AND CAPITAL RESOURCES",
}

var aifDescPattern = regexp.MustCompile(`\bAIF\b`)

func isHTMLDocument(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".htm") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".xhtml")
}

func attachmentFilename(att *edgar.Attachment) string {
	url := att.URL
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		url = url[idx+1:]
	}
	return strings.ToLower(url)
}

// scannedAttachments holds the AIF-likelihood tiers produced by a single
// pass over a filing's attachment list. All EX-99.x exhibits are collected
// as content-sniff candidates: the AIF may appear under any EX-99 number
// (ENB uses EX-99.5), and sniffing plus size thresholds filter the rest.
type scannedAttachments struct {
	ex1Candidates []*edgar.Attachment
	aifDescribed  []*edgar.Attachment
	ex99Named     []*edgar.Attachment
	ex99All       []*edgar.Attachment
	mainDoc       *edgar.Attachment
}

func scanAttachments(attachments []edgar.Attachment) scannedAttachments {
	var scanned scannedAttachments

	for i := range attachments {
		att := &attachments[i]
		docType := strings.TrimSpace(att.DocumentType)
		desc := strings.ToUpper(att.Description)
		filename := attachmentFilename(att)

		if skipTypes[docType] {
			continue
		}
		if !isHTMLDocument(att.URL) {
			continue
		}

		switch {
		case docType == "EX-1" || docType == "EX-1.1" || docType == "EX-1.2":
			scanned.ex1Candidates = append(scanned.ex1Candidates, att)
		case strings.Contains(desc, "ANNUAL INFORMATION") || aifDescPattern.MatchString(desc):
			scanned.aifDescribed = append(scanned.aifDescribed, att)
		case strings.HasPrefix(docType, "EX-99") && containsAny(filename, "annual", "aif", "annualinformation"):
			scanned.ex99Named = append(scanned.ex99Named, att)
		case strings.HasPrefix(docType, "EX-99"):
			scanned.ex99All = append(scanned.ex99All, att)
		case docType == "40-F" || docType == "40-F/A":
			scanned.mainDoc = att
		}
	}
	return scanned
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AIFLocator finds the Annual Information Form attachment in a 40-F filing.
type AIFLocator struct {
	downloader Downloader
	heur       config.Heuristics
}

// NewAIFLocator creates a locator using the given downloader for content
// sniffing. A nil downloader disables the sniff tier.
func NewAIFLocator(downloader Downloader, heur config.Heuristics) *AIFLocator {
	return &AIFLocator{downloader: downloader, heur: heur}
}

// Locate returns the best AIF candidate and the reason it was chosen.
//
// Priority chain (first tier with a candidate wins):
// 1. EX-1 / EX-1.1 / EX-1.2 (standard MJDS AIF exhibits)
// 2. Description containing 'ANNUAL INFORMATION' or 'AIF'
// 3. Any EX-99.x with 'aif' in filename (prefer over 'annual')
// 4. Content-sniff major EX-99.x exhibits for NI 51-102 headings
// 5. Main 40-F document (inline AIF, e.g. CNQ)
// 6. First major EX-99.x exhibit as a last resort
func (l *AIFLocator) Locate(attachments []edgar.Attachment) (*edgar.Attachment, string) {
	scanned := scanAttachments(attachments)

	// Priority 1: EX-1 standard MJDS exhibits
	if len(scanned.ex1Candidates) > 0 {
		return scanned.ex1Candidates[0], "EX-1/EX-1.1/EX-1.2 (standard MJDS)"
	}

	// Priority 2: Description mentions AIF
	if len(scanned.aifDescribed) > 0 {
		return scanned.aifDescribed[0], "Description mentions ANNUAL INFORMATION"
	}

	// Priority 3: AIF keyword in filename (any EX-99.x)
	// Prefer "aif" over "annual" (MFC names its MD&A "annualmdareport")
	if len(scanned.ex99Named) > 0 {
		for _, att := range scanned.ex99Named {
			if strings.Contains(attachmentFilename(att), "aif") {
				return att, "EX-99.x with AIF in filename"
			}
		}
		return scanned.ex99Named[0], "EX-99.x with AIF filename keywords"
	}

	// Priority 4: content-sniff all major EX-99.x candidates. The AIF will
	// carry NI 51-102 headings; financial statements and MD&A will not.
	major := l.majorExhibits(scanned.ex99All)
	for _, att := range major {
		if l.hasContentSignals(att.URL, aifContentSignals, 1) {
			return att, "EX-99.x with AIF content"
		}
	}

	// Priority 5: main 40-F document, unless a major exhibit is large
	// enough relative to it to plausibly be the AIF itself.
	if scanned.mainDoc != nil {
		if len(major) > 0 && float64(major[0].Size) >= l.heur.SizeRatio*float64(scanned.mainDoc.Size) {
			return major[0], "EX-99.x first major exhibit (fallback)"
		}
		return scanned.mainDoc, "40-F main document (AIF embedded inline)"
	}

	if len(major) > 0 {
		return major[0], "EX-99.x first major exhibit (fallback)"
	}

	return nil, "AIF not found"
}

// majorExhibits filters to exhibits over the major-document size threshold.
// Unknown sizes count as 0 and fail the threshold.
func (l *AIFLocator) majorExhibits(candidates []*edgar.Attachment) []*edgar.Attachment {
	var major []*edgar.Attachment
	for _, att := range candidates {
		if att.Size > l.heur.MajorExhibitThreshold {
			major = append(major, att)
		}
	}
	return major
}

// hasContentSignals downloads a bounded prefix of the document and counts
// how many signal phrases appear. Download failures are non-matches.
func (l *AIFLocator) hasContentSignals(url string, signals []string, required int) bool {
	if l.downloader == nil {
		return false
	}
	html, err := l.downloader.DownloadPrefix(url, l.heur.SniffWindow)
	if err != nil {
		log.Printf("[AIFLocator] sniff failed for %s: %v", url, err)
		return false
	}
	upper := strings.ToUpper(html)
	count := 0
	for _, sig := range signals {
		if strings.Contains(upper, sig) {
			count++
		}
	}
	return count >= required
}

// MDALocator finds the MD&A exhibit in a 40-F filing. Canadian filers often
// attach a separate MD&A document as an EX-99.x exhibit.
type MDALocator struct {
	downloader Downloader
	heur       config.Heuristics
}

// NewMDALocator creates a locator using the given downloader for content
// sniffing.
func NewMDALocator(downloader Downloader, heur config.Heuristics) *MDALocator {
	return &MDALocator{downloader: downloader, heur: heur}
}

// Locate returns the best MD&A candidate and the reason it was chosen.
// The already-identified AIF attachment is excluded from consideration.
//
// Priority chain:
// 1. Description containing 'MD&A' or 'MANAGEMENT DISCUSSION'
// 2. Any EX-99.x with 'mda' or 'managementdiscussion' in filename
// 3. Content-sniff remaining major EX-99.x exhibits, requiring 2+ signal
//    phrases since financial statements mention "results of operations"
//    in passing
func (l *MDALocator) Locate(attachments []edgar.Attachment, aif *edgar.Attachment) (*edgar.Attachment, string) {
	aifURL := ""
	if aif != nil {
		aifURL = aif.URL
	}

	var descCandidates []*edgar.Attachment
	var filenameCandidates []*edgar.Attachment
	var ex99Candidates []*edgar.Attachment

	for i := range attachments {
		att := &attachments[i]
		docType := strings.TrimSpace(att.DocumentType)
		desc := strings.ToUpper(att.Description)
		filename := attachmentFilename(att)

		if skipTypes[docType] {
			continue
		}
		if !isHTMLDocument(att.URL) {
			continue
		}
		if aifURL != "" && att.URL == aifURL {
			continue
		}
		if !strings.HasPrefix(docType, "EX-99") && docType != "40-F" && docType != "40-F/A" {
			continue
		}

		switch {
		case strings.Contains(desc, "MD&A") ||
			strings.Contains(desc, "MANAGEMENT DISCUSSION") ||
			strings.Contains(desc, "MANAGEMENT'S DISCUSSION"):
			descCandidates = append(descCandidates, att)
		case strings.HasPrefix(docType, "EX-99") && containsAny(filename, "mda", "managementdiscussion"):
			filenameCandidates = append(filenameCandidates, att)
		case strings.HasPrefix(docType, "EX-99"):
			ex99Candidates = append(ex99Candidates, att)
		}
	}

	if len(descCandidates) > 0 {
		return descCandidates[0], "Description mentions MD&A"
	}
	if len(filenameCandidates) > 0 {
		return filenameCandidates[0], "EX-99.x with MD&A in filename"
	}

	for _, att := range ex99Candidates {
		if att.Size <= l.heur.MajorExhibitThreshold {
			continue
		}
		if l.hasContentSignals(att.URL, mdaContentSignals, 2) {
			return att, "EX-99.x with MD&A content"
		}
	}

	return nil, "MD&A not found"
}

func (l *MDALocator) hasContentSignals(url string, signals []string, required int) bool {
	if l.downloader == nil {
		return false
	}
	html, err := l.downloader.DownloadPrefix(url, l.heur.SniffWindow)
	if err != nil {
		log.Printf("[MDALocator] sniff failed for %s: %v", url, err)
		return false
	}
	upper := strings.ToUpper(html)
	count := 0
	for _, sig := range signals {
		if strings.Contains(upper, sig) {
			count++
		}
	}
	return count >= required
}
