package edgar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHomepageAttachments extracts the document table from a filing
// homepage ("-index.htm"). Each row lists sequence, description, document
// link, type, and size. Rows without a document link are skipped.
func ParseHomepageAttachments(html string, baseURL string) ([]Attachment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse filing homepage: %w", err)
	}

	var attachments []Attachment

	doc.Find("table.tableFile").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.ChildrenFiltered("td")
			if cells.Length() < 5 {
				return
			}

			link := cells.Eq(2).Find("a").First()
			href, ok := link.Attr("href")
			if !ok {
				return
			}

			name := href
			if idx := strings.LastIndex(href, "/"); idx >= 0 {
				name = href[idx+1:]
			}
			// iXBRL viewer links wrap the real document path.
			name = strings.TrimPrefix(name, "ix?doc=")

			size := 0
			if n, err := strconv.Atoi(strings.TrimSpace(cells.Eq(4).Text())); err == nil {
				size = n
			}

			attachments = append(attachments, Attachment{
				Sequence:     strings.TrimSpace(cells.Eq(0).Text()),
				Description:  strings.TrimSpace(cells.Eq(1).Text()),
				DocumentType: strings.TrimSpace(cells.Eq(3).Text()),
				Name:         name,
				URL:          baseURL + name,
				Size:         size,
			})
		})
	})

	if len(attachments) == 0 {
		return nil, fmt.Errorf("no documents found on filing homepage")
	}
	return attachments, nil
}

// ParseFilingIndex parses an EDGAR directory index.json listing into
// attachments. Used when the homepage table is unavailable; type and
// description come from the directory entry rather than the filing.
func ParseFilingIndex(jsonBody []byte, baseURL string) ([]Attachment, error) {
	type indexItem struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Size        string `json:"size"`
		Description string `json:"description"`
	}
	type indexResponse struct {
		Directory struct {
			Item []indexItem `json:"item"`
		} `json:"directory"`
	}

	var resp indexResponse
	if err := json.Unmarshal(jsonBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse filing index: %w", err)
	}

	var attachments []Attachment
	for _, item := range resp.Directory.Item {
		if item.Name == "" || strings.HasSuffix(item.Name, "/") {
			continue
		}
		size := 0
		if n, err := strconv.Atoi(item.Size); err == nil {
			size = n
		}
		attachments = append(attachments, Attachment{
			Description:  item.Description,
			DocumentType: item.Type,
			Name:         item.Name,
			URL:          baseURL + item.Name,
			Size:         size,
		})
	}
	return attachments, nil
}
