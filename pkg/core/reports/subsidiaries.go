package reports

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webbsledge/edgartools/pkg/core/edgar"
	"github.com/webbsledge/edgartools/pkg/core/utils"
)

// Subsidiary is a single record from an Exhibit 21 subsidiary table.
// OwnershipPct distinguishes confirmed zero ownership (pointer to 0.0)
// from ownership not reported (nil).
type Subsidiary struct {
	Name         string   `json:"name"`
	Jurisdiction string   `json:"jurisdiction"`
	OwnershipPct *float64 `json:"ownership_pct,omitempty"`
}

// SubsidiaryList is an ordered collection of subsidiaries parsed from one
// EX-21 exhibit. Records from multiple tables are concatenated in document
// order without deduplication.
type SubsidiaryList []Subsidiary

// HasOwnership reports whether any record carries an ownership percentage.
func (sl SubsidiaryList) HasOwnership() bool {
	for _, s := range sl {
		if s.OwnershipPct != nil {
			return true
		}
	}
	return false
}

// ToMarkdown renders the list as a markdown table for report output.
func (sl SubsidiaryList) ToMarkdown() string {
	if len(sl) == 0 {
		return "No subsidiaries found."
	}

	var b strings.Builder
	hasOwnership := sl.HasOwnership()

	if hasOwnership {
		b.WriteString("| Name | Jurisdiction | Ownership % |\n")
		b.WriteString("|------|--------------|-------------|\n")
	} else {
		b.WriteString("| Name | Jurisdiction |\n")
		b.WriteString("|------|--------------|\n")
	}

	for _, s := range sl {
		name := utils.EscapeTableCell(s.Name)
		jur := utils.EscapeTableCell(s.Jurisdiction)
		if hasOwnership {
			pct := ""
			if s.OwnershipPct != nil {
				pct = strconv.FormatFloat(*s.OwnershipPct, 'f', 1, 64) + "%"
			}
			b.WriteString("| " + name + " | " + jur + " | " + pct + " |\n")
		} else {
			b.WriteString("| " + name + " | " + jur + " |\n")
		}
	}
	return b.String()
}

// Strong header patterns, safe to match against any single cell
var strongHeaderPatterns = regexp.MustCompile(
	`(?i)(name\s+of\s+(subsidiary|subsidiaries|company|entity|companies)|` +
		`^subsidiary$|^subsidiaries$|company\s+name|entity\s+name|` +
		`percent(age)?\s+(of\s+)?own|` +
		`organized\s+under\s+the\s+laws|` +
		`state\s+or\s+(other\s+)?jurisdiction)`)

// Weaker header keywords, requiring corroboration from multiple cells
var headerKeywords = []string{
	"jurisdiction", "ownership", "subsidiary", "subsidiaries",
	"incorporation", "organization", "organized",
}

var jurisdictionHeaderPhrases = []string{
	"jurisdiction", "state or", "organized under", "place of", "country of",
}

var sectionLabelPatterns = regexp.MustCompile(
	`(?i)^(u\.?\s*s\.?\s*(subsidiaries|companies)|` +
		`international\s+(subsidiaries|companies)|` +
		`domestic\s+(subsidiaries|companies)|` +
		`foreign\s+(subsidiaries|companies)|` +
		`subsidiaries\s+of|` +
		`the\s+following|` +
		`significant\s+subsidiaries|` +
		`list\s+of\s+subsidiaries|` +
		`exhibit\s+21|` +
		`part\s+[ivx]+)`)

// Trailing footnote markers like (1), (2)(3), *, **. Anchored to the end
// of the string so mid-name references like "Series [1] Holdings" survive.
// Limited to 1-2 digit numbers so years like [2024] are not stripped.
var footnotePattern = regexp.MustCompile(`(\s*[\(\[]\d{1,2}[\)\]])+\s*$|\s*\*+\s*$`)

func cleanSubsidiaryName(name string) string {
	name = footnotePattern.ReplaceAllString(name, "")
	name = strings.TrimRight(name, "* ")
	return strings.TrimSpace(name)
}

// parseOwnership parses values like "100%", "80", "99.9%" into a percentage.
func parseOwnership(text string) *float64 {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	val, err := strconv.ParseFloat(text, 64)
	if err != nil || val < 0 || val > 100 {
		return nil
	}
	return &val
}

// isHeaderRow checks whether a row looks like a table header. Strong
// patterns match on any single cell. Weaker keyword signals need evidence
// from at least two different cells, so a subsidiary literally named
// "Jurisdiction Holdings LLC" does not get its row dropped.
func isHeaderRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		text := strings.TrimSpace(cell)
		if text != "" && strongHeaderPatterns.MatchString(text) {
			return true
		}
	}

	var keywordCells, jurisdictionCells []int
	for i, cell := range cells {
		lower := strings.ToLower(cell)
		if containsAny(lower, headerKeywords...) {
			keywordCells = append(keywordCells, i)
		}
		if containsAny(lower, jurisdictionHeaderPhrases...) {
			jurisdictionCells = append(jurisdictionCells, i)
		}
	}

	if len(keywordCells) > 0 && len(jurisdictionCells) > 0 {
		evidence := make(map[int]bool)
		for _, i := range keywordCells {
			evidence[i] = true
		}
		for _, i := range jurisdictionCells {
			evidence[i] = true
		}
		if len(evidence) >= 2 {
			return true
		}
	}
	return len(keywordCells) >= 2
}

// isSectionLabel checks whether a row is a section label like
// "U.S. Subsidiaries:".
func isSectionLabel(cells []string) bool {
	var nonEmpty []string
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) != 1 {
		return false
	}
	text := strings.TrimSuffix(strings.TrimSpace(nonEmpty[0]), ":")
	if sectionLabelPatterns.MatchString(text) {
		return true
	}
	// Short all-caps text in a single cell is likely a section header
	if len(text) < 60 && text == strings.ToUpper(text) && !strings.ContainsAny(text, "0123456789") {
		return true
	}
	return false
}

// looksLikeOwnershipColumn reports whether more than 40% of a column's
// non-empty values parse as numbers in [0,100].
func looksLikeOwnershipColumn(values []string) bool {
	numericCount := 0
	nonEmpty := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		nonEmpty++
		if parseOwnership(v) != nil {
			numericCount++
		}
	}
	return nonEmpty > 0 && float64(numericCount)/float64(nonEmpty) > 0.4
}

// stripEmptyColumns removes columns that are empty across every row
// (spacer columns common in SEC-generated HTML). Rows are padded to equal
// width first so index access stays safe downstream.
func stripEmptyColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	maxCols := 0
	for _, r := range rows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}

	padded := make([][]string, len(rows))
	for i, r := range rows {
		padded[i] = append(append([]string{}, r...), make([]string, maxCols-len(r))...)
	}

	var keep []int
	for col := 0; col < maxCols; col++ {
		for _, row := range padded {
			if strings.TrimSpace(row[col]) != "" {
				keep = append(keep, col)
				break
			}
		}
	}

	result := make([][]string, len(padded))
	for i, row := range padded {
		kept := make([]string, 0, len(keep))
		for _, col := range keep {
			kept = append(kept, row[col])
		}
		result[i] = kept
	}
	return result
}

func nonEmptyCells(cells []string) []string {
	var out []string
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// ParseSubsidiaries parses EX-21 exhibit HTML into subsidiary records.
//
// Handles 2-column tables (name + jurisdiction), 3+ column tables with an
// inferred ownership-percentage column, multiple tables per document,
// header rows, section labels, footnote markers, and spacer columns.
func ParseSubsidiaries(html string) (SubsidiaryList, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var subsidiaries SubsidiaryList

	// Only top-level tables: nested layout tables would double-count rows.
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if table.ParentsFiltered("table").Length() > 0 {
			return
		}
		subsidiaries = append(subsidiaries, parseSubsidiaryTable(table)...)
	})

	return subsidiaries, nil
}

func parseSubsidiaryTable(table *goquery.Selection) []Subsidiary {
	var allRows [][]string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		// Direct children only: a nested table inside one cell contributes
		// its own tr rows, which Find("tr") above already visits.
		row.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanCellText(cell.Text()))
		})
		if cells != nil {
			allRows = append(allRows, cells)
		}
	})

	if len(allRows) == 0 {
		return nil
	}

	allRows = stripEmptyColumns(allRows)

	var dataRows [][]string
	for _, cells := range allRows {
		if len(nonEmptyCells(cells)) < 2 {
			continue
		}
		if isHeaderRow(cells) || isSectionLabel(cells) {
			continue
		}
		dataRows = append(dataRows, cells)
	}
	if len(dataRows) == 0 {
		return nil
	}

	// Effective column count is the mode of non-empty cell counts, which
	// tolerates ragged rows.
	colCounts := make(map[int]int)
	for _, cells := range dataRows {
		colCounts[len(nonEmptyCells(cells))]++
	}
	effectiveCols := 0
	bestCount := 0
	for n, count := range colCounts {
		if count > bestCount || (count == bestCount && n < effectiveCols) {
			effectiveCols = n
			bestCount = count
		}
	}

	var subs []Subsidiary

	if effectiveCols == 2 {
		for _, cells := range dataRows {
			nonEmpty := nonEmptyCells(cells)
			if len(nonEmpty) < 2 {
				continue
			}
			name := cleanSubsidiaryName(nonEmpty[0])
			jurisdiction := strings.TrimSpace(nonEmpty[1])
			if name != "" && jurisdiction != "" {
				subs = append(subs, Subsidiary{Name: name, Jurisdiction: jurisdiction})
			}
		}
		return subs
	}

	if effectiveCols < 3 {
		return nil
	}

	numCols := 0
	for _, r := range dataRows {
		if len(r) > numCols {
			numCols = len(r)
		}
	}

	// Scan columns after the name column for one whose values look like
	// ownership percentages.
	ownershipCol := -1
	for col := 1; col < minInt(numCols, 4); col++ {
		var vals []string
		for _, row := range dataRows {
			if col < len(row) {
				vals = append(vals, row[col])
			} else {
				vals = append(vals, "")
			}
		}
		if looksLikeOwnershipColumn(vals) {
			ownershipCol = col
			break
		}
	}

	if ownershipCol < 0 {
		// No ownership column: treat first/last non-empty as name/jurisdiction
		for _, cells := range dataRows {
			nonEmpty := nonEmptyCells(cells)
			if len(nonEmpty) < 2 {
				continue
			}
			name := cleanSubsidiaryName(nonEmpty[0])
			jurisdiction := strings.TrimSpace(nonEmpty[len(nonEmpty)-1])
			if name != "" && jurisdiction != "" {
				subs = append(subs, Subsidiary{Name: name, Jurisdiction: jurisdiction})
			}
		}
		return subs
	}

	jurisdictionCol := ownershipCol + 1
	for col := 1; col < numCols; col++ {
		if col != ownershipCol {
			jurisdictionCol = col
			break
		}
	}

	for _, cells := range dataRows {
		name := ""
		if len(cells) > 0 {
			name = cleanSubsidiaryName(cells[0])
		}
		var ownership *float64
		if ownershipCol < len(cells) {
			ownership = parseOwnership(cells[ownershipCol])
		}
		jurisdiction := ""
		if jurisdictionCol < len(cells) {
			jurisdiction = strings.TrimSpace(cells[jurisdictionCol])
		}
		if name != "" && jurisdiction != "" {
			subs = append(subs, Subsidiary{Name: name, Jurisdiction: jurisdiction, OwnershipPct: ownership})
		}
	}
	return subs
}

// FindExhibit21 locates the EX-21 attachment in a filing's attachment list.
func FindExhibit21(attachments []edgar.Attachment) *edgar.Attachment {
	for i := range attachments {
		docType := strings.TrimSpace(attachments[i].DocumentType)
		if strings.HasPrefix(docType, "EX-21") {
			return &attachments[i]
		}
	}
	return nil
}
