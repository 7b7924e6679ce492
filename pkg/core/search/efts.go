// Package search queries EDGAR Full-Text Search (EFTS).
//
// Unlike the submissions API, which filters filing metadata, EFTS searches
// the text inside filings: topics, products, risks, legal terms.
package search

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/webbsledge/edgartools/pkg/core/edgar"
)

const eftsBaseURL = "https://efts.sec.gov/LATEST/search-index"

// Result is a single filing hit from a full-text search.
type Result struct {
	AccessionNumber string `json:"accession_number"`
	Form            string `json:"form"`
	Filed           string `json:"filed"`
	Company         string `json:"company,omitempty"`
	CIK             string `json:"cik,omitempty"`
	Period          string `json:"period,omitempty"`
}

// Results holds a search response: the total hit count on the index plus
// the fetched page of results.
type Results struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Options scope a full-text search.
type Options struct {
	// Forms filters by form type, e.g. ["10-K", "10-Q"].
	Forms []string
	// CIK scopes results to a filer. Zero-padding is applied.
	CIK string
	// Ticker scopes results to a filer, resolved to a CIK via the client.
	Ticker string
	// StartDate and EndDate bound the filing date range (YYYY-MM-DD).
	StartDate string
	EndDate   string
	// Limit caps returned results. Defaults to 20, clamped to [1,100].
	Limit int
}

// fetcher is the HTTP surface the search client needs from edgar.Client.
type fetcher interface {
	DownloadText(url string) (string, error)
	LookupCIK(ticker string) (string, error)
}

// Client runs EFTS searches through an EDGAR HTTP client.
type Client struct {
	edgar fetcher
}

// NewClient creates a search client on top of an EDGAR client.
func NewClient(edgarClient *edgar.Client) *Client {
	return &Client{edgar: edgarClient}
}

// eftsResponse mirrors the EFTS search-index JSON shape.
type eftsResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source struct {
				Adsh         string   `json:"adsh"`
				Form         string   `json:"form"`
				FileDate     string   `json:"file_date"`
				DisplayNames []string `json:"display_names"`
				CIKs         []string `json:"ciks"`
				PeriodEnding string   `json:"period_ending"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Filings searches filing text for the query. An empty query is a usage
// error.
func (c *Client) Filings(query string, opts Options) (*Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	params, err := c.buildParams(query, opts)
	if err != nil {
		return nil, err
	}

	body, err := c.edgar.DownloadText(eftsBaseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("EFTS request failed: %w", err)
	}

	var resp eftsResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse EFTS response: %w", err)
	}

	results := &Results{Query: query, Total: resp.Hits.Total.Value}
	for _, hit := range resp.Hits.Hits {
		source := hit.Source

		result := Result{
			AccessionNumber: edgar.FormatAccession(source.Adsh),
			Form:            source.Form,
			Filed:           source.FileDate,
			Period:          source.PeriodEnding,
		}
		if len(source.DisplayNames) > 0 {
			result.Company = source.DisplayNames[0]
		}
		if len(source.CIKs) > 0 {
			result.CIK = source.CIKs[0]
		}
		results.Results = append(results.Results, result)

		if len(results.Results) >= limit {
			break
		}
	}
	return results, nil
}

func (c *Client) buildParams(query string, opts Options) (url.Values, error) {
	params := url.Values{}
	params.Set("q", query)

	if len(opts.Forms) > 0 {
		params.Set("forms", strings.Join(opts.Forms, ","))
	}

	if opts.StartDate != "" || opts.EndDate != "" {
		params.Set("dateRange", "custom")
		if opts.StartDate != "" {
			params.Set("startdt", opts.StartDate)
		}
		if opts.EndDate != "" {
			params.Set("enddt", opts.EndDate)
		}
	}

	switch {
	case opts.Ticker != "":
		cik, err := c.edgar.LookupCIK(opts.Ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ticker %s: %w", opts.Ticker, err)
		}
		params.Set("ciks", cik)
	case opts.CIK != "":
		params.Set("ciks", edgar.PadCIK(opts.CIK))
	}

	return params, nil
}
