// Package edgar provides functionality for fetching SEC EDGAR filings.
//
// This package uses github.com/PuerkitoBio/goquery for jQuery-style HTML
// traversal of EDGAR filing homepages.
package edgar

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultUserAgent  = "edgartools admin@webbsledge.dev"
	submissionsAPIURL = "https://data.sec.gov/submissions/CIK%s.json"
	filingBaseURL     = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// Client handles SEC EDGAR retrieval: ticker resolution, submissions
// metadata, filing homepages, and document downloads.
type Client struct {
	client      *http.Client
	userAgent   string
	tickerCache map[string]string // ticker -> zero-padded CIK
	tickerMutex sync.Mutex
}

// NewClient creates a new EDGAR client with the default user agent.
func NewClient() *Client {
	return NewClientWithUserAgent(defaultUserAgent)
}

// NewClientWithUserAgent creates a client identifying itself as userAgent.
// The SEC requires a descriptive User-Agent on all automated requests.
func NewClientWithUserAgent(userAgent string) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		client:    &http.Client{Timeout: 60 * time.Second},
		userAgent: userAgent,
	}
}

// fetchURL performs a GET with the SEC-required User-Agent header.
func (c *Client) fetchURL(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// DownloadText fetches a document and returns it as a string. A failed
// download is an error for the caller to translate into "no content".
func (c *Client) DownloadText(url string) (string, error) {
	body, err := c.fetchURL(url)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	return string(body), nil
}

// DownloadPrefix fetches a document and returns at most maxBytes of it.
// Used for content-sniffing large exhibits without pulling the whole file.
func (c *Client) DownloadPrefix(url string, maxBytes int) (string, error) {
	text, err := c.DownloadText(url)
	if err != nil {
		return "", err
	}
	if maxBytes > 0 && len(text) > maxBytes {
		return text[:maxBytes], nil
	}
	return text, nil
}

// LookupCIK resolves a ticker symbol to a zero-padded CIK using SEC's
// company_tickers.json. The ticker map is loaded lazily and cached.
func (c *Client) LookupCIK(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))

	c.tickerMutex.Lock()
	defer c.tickerMutex.Unlock()

	if c.tickerCache == nil {
		c.tickerCache = make(map[string]string)
	}

	if cik, ok := c.tickerCache[normalized]; ok {
		return cik, nil
	}

	if len(c.tickerCache) == 0 {
		if err := c.loadTickerCache(); err != nil {
			return "", err
		}
		if cik, ok := c.tickerCache[normalized]; ok {
			return cik, nil
		}
	}

	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// loadTickerCache fetches the full ticker list from SEC.
// Format: {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
func (c *Client) loadTickerCache() error {
	body, err := c.fetchURL(companyTickersURL)
	if err != nil {
		return fmt.Errorf("failed to fetch company tickers: %w", err)
	}

	type tickerEntry struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}

	var resp map[string]tickerEntry
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse ticker JSON: %w", err)
	}

	for _, entry := range resp {
		c.tickerCache[strings.ToUpper(entry.Ticker)] = PadCIK(fmt.Sprintf("%d", entry.CIK))
	}

	log.Printf("[EDGAR] loaded %d tickers from SEC", len(c.tickerCache))
	return nil
}

// submissionsResponse mirrors the SEC submissions API.
type submissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// GetFilingMetadata returns the most recent filing of the given form for a
// CIK. Amendments ("<form>/A") count as matches for the base form, and the
// latest filing date wins.
func (c *Client) GetFilingMetadata(cik string, form string) (*FilingMetadata, error) {
	cik = PadCIK(cik)

	body, err := c.fetchURL(fmt.Sprintf(submissionsAPIURL, cik))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}

	var best *FilingMetadata
	var bestDate string

	recent := resp.Filings.Recent
	for i, f := range recent.Form {
		if f != form && f != form+"/A" {
			continue
		}

		filingDate := recent.FilingDate[i]
		if best != nil && filingDate <= bestDate {
			continue
		}

		accession := recent.AccessionNumber[i]
		primaryDoc := recent.PrimaryDocument[i]
		period := ""
		if i < len(recent.ReportDate) {
			period = recent.ReportDate[i]
		}

		best = &FilingMetadata{
			CIK:             cik,
			CompanyName:     resp.Name,
			Tickers:         resp.Tickers,
			AccessionNumber: accession,
			FilingDate:      filingDate,
			PeriodOfReport:  period,
			Form:            f,
			PrimaryDocument: primaryDoc,
			FilingURL:       fmt.Sprintf(filingBaseURL, cik, stripAccessionDashes(accession), primaryDoc),
			RetrievedAt:     time.Now(),
		}
		bestDate = filingDate
	}

	if best == nil {
		return nil, fmt.Errorf("no %s filing found for CIK %s", form, cik)
	}
	return best, nil
}

// GetFiling returns the latest filing of the given form with its homepage
// attachment list resolved.
func (c *Client) GetFiling(cik string, form string) (*Filing, error) {
	meta, err := c.GetFilingMetadata(cik, form)
	if err != nil {
		return nil, err
	}

	attachments, err := c.FetchAttachments(meta)
	if err != nil {
		// The attachment list is an enrichment; metadata alone still lets
		// the caller work against the primary document.
		log.Printf("[EDGAR] attachment list unavailable for %s: %v", meta.AccessionNumber, err)
	}

	return &Filing{
		CIK:             meta.CIK,
		CompanyName:     meta.CompanyName,
		Form:            meta.Form,
		FilingDate:      meta.FilingDate,
		PeriodOfReport:  meta.PeriodOfReport,
		AccessionNumber: meta.AccessionNumber,
		PrimaryURL:      meta.FilingURL,
		Attachments:     attachments,
	}, nil
}

// FetchAttachments resolves the filing's document list. The homepage table
// is preferred; when it is unavailable, the directory's index.json supplies
// the same entries with coarser type and description fields.
func (c *Client) FetchAttachments(meta *FilingMetadata) ([]Attachment, error) {
	base := homepageBaseURL(meta.CIK, meta.AccessionNumber)

	body, err := c.fetchURL(buildHomepageURL(meta.CIK, meta.AccessionNumber))
	if err == nil {
		attachments, parseErr := ParseHomepageAttachments(string(body), base)
		if parseErr == nil {
			return attachments, nil
		}
		err = parseErr
	}
	log.Printf("[EDGAR] homepage unavailable for %s, falling back to index.json: %v",
		meta.AccessionNumber, err)

	indexBody, indexErr := c.fetchURL(base + "index.json")
	if indexErr != nil {
		return nil, fmt.Errorf("failed to fetch filing homepage: %w", err)
	}
	return ParseFilingIndex(indexBody, base)
}

// PadCIK zero-pads a CIK to the 10 digits the SEC APIs expect.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func stripAccessionDashes(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}

// FormatAccession converts a dashless accession number to the standard
// dashed format (0000320193-23-000077).
func FormatAccession(adsh string) string {
	adsh = stripAccessionDashes(adsh)
	if len(adsh) == 18 {
		return adsh[:10] + "-" + adsh[10:12] + "-" + adsh[12:]
	}
	return adsh
}

func homepageBaseURL(cik, accession string) string {
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/",
		strings.TrimLeft(cik, "0"), stripAccessionDashes(accession))
}

func buildHomepageURL(cik, accession string) string {
	return homepageBaseURL(cik, accession) + accession + "-index.htm"
}
