package edgar

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestPadCIK(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"short CIK", "320193", "0000320193"},
		{"already padded", "0000320193", "0000320193"},
		{"single digit", "9", "0000000009"},
		{"with whitespace", " 320193 ", "0000320193"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadCIK(tt.input)
			if got != tt.expected {
				t.Errorf("PadCIK(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatAccession(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dashless", "000032019323000077", "0000320193-23-000077"},
		{"already dashed", "0000320193-23-000077", "0000320193-23-000077"},
		{"wrong length unchanged", "12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAccession(tt.input)
			if got != tt.expected {
				t.Errorf("FormatAccession(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

const sampleHomepage = `
<html><body>
<table class="tableFile" summary="Document Format Files">
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
<tr>
  <td>1</td>
  <td>ANNUAL REPORT</td>
  <td><a href="/Archives/edgar/data/123/000012345/main40f.htm">main40f.htm</a></td>
  <td>40-F</td>
  <td>250000</td>
</tr>
<tr>
  <td>2</td>
  <td>ANNUAL INFORMATION FORM</td>
  <td><a href="/Archives/edgar/data/123/000012345/ex991.htm">ex991.htm</a></td>
  <td>EX-99.1</td>
  <td>180000</td>
</tr>
<tr>
  <td>3</td>
  <td>SUBSIDIARIES</td>
  <td><a href="/Archives/edgar/data/123/000012345/ex21.htm">ex21.htm</a></td>
  <td>EX-21.1</td>
  <td>4200</td>
</tr>
</table>
</body></html>`

func TestParseHomepageAttachments(t *testing.T) {
	base := "https://www.sec.gov/Archives/edgar/data/123/000012345/"
	attachments, err := ParseHomepageAttachments(sampleHomepage, base)
	if err != nil {
		t.Fatalf("ParseHomepageAttachments failed: %v", err)
	}

	if len(attachments) != 3 {
		t.Fatalf("expected 3 attachments, got %d", len(attachments))
	}

	first := attachments[0]
	if first.DocumentType != "40-F" {
		t.Errorf("expected type 40-F, got %q", first.DocumentType)
	}
	if first.Name != "main40f.htm" {
		t.Errorf("expected name main40f.htm, got %q", first.Name)
	}
	if first.URL != base+"main40f.htm" {
		t.Errorf("unexpected URL %q", first.URL)
	}
	if first.Size != 250000 {
		t.Errorf("expected size 250000, got %d", first.Size)
	}

	if attachments[1].Description != "ANNUAL INFORMATION FORM" {
		t.Errorf("unexpected description %q", attachments[1].Description)
	}
	if attachments[2].DocumentType != "EX-21.1" {
		t.Errorf("unexpected type %q", attachments[2].DocumentType)
	}
}

func TestParseHomepageAttachmentsEmpty(t *testing.T) {
	_, err := ParseHomepageAttachments("<html><body></body></html>", "https://example.com/")
	if err == nil {
		t.Error("expected error for homepage with no documents")
	}
}

func TestParseFilingIndex(t *testing.T) {
	body := []byte(`{
		"directory": {
			"item": [
				{"name": "main40f.htm", "type": "text.gif", "size": "250000", "description": "main document"},
				{"name": "ex991.htm", "type": "text.gif", "size": "180000", "description": "exhibit"},
				{"name": "", "type": "", "size": "", "description": ""}
			]
		}
	}`)

	attachments, err := ParseFilingIndex(body, "https://example.com/")
	if err != nil {
		t.Fatalf("ParseFilingIndex failed: %v", err)
	}
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	if attachments[0].Size != 250000 {
		t.Errorf("expected size 250000, got %d", attachments[0].Size)
	}
	if attachments[1].URL != "https://example.com/ex991.htm" {
		t.Errorf("unexpected URL %q", attachments[1].URL)
	}
}

type fakeTransport func(req *http.Request) (*http.Response, error)

func (f fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchAttachmentsIndexFallback(t *testing.T) {
	meta := &FilingMetadata{
		CIK:             "0000000123",
		AccessionNumber: "0000012345-24-000001",
	}
	indexBody := `{
		"directory": {
			"item": [
				{"name": "main40f.htm", "type": "text.gif", "size": "250000", "description": "main document"},
				{"name": "ex991.htm", "type": "text.gif", "size": "180000", "description": "exhibit"}
			]
		}
	}`

	var homepageHits, indexHits int
	c := NewClient()
	c.client.Transport = fakeTransport(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "-index.htm"):
			homepageHits++
			return textResponse(http.StatusNotFound, "not found"), nil
		case strings.HasSuffix(req.URL.Path, "/index.json"):
			indexHits++
			return textResponse(http.StatusOK, indexBody), nil
		}
		t.Errorf("unexpected request %s", req.URL)
		return textResponse(http.StatusNotFound, "not found"), nil
	})

	attachments, err := c.FetchAttachments(meta)
	if err != nil {
		t.Fatalf("FetchAttachments failed: %v", err)
	}
	if homepageHits != 1 || indexHits != 1 {
		t.Errorf("expected 1 homepage and 1 index hit, got %d and %d", homepageHits, indexHits)
	}
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	base := homepageBaseURL(meta.CIK, meta.AccessionNumber)
	if attachments[0].URL != base+"main40f.htm" {
		t.Errorf("unexpected URL %q", attachments[0].URL)
	}
}

func TestFetchAttachmentsHomepagePreferred(t *testing.T) {
	meta := &FilingMetadata{
		CIK:             "0000000123",
		AccessionNumber: "0000012345-24-000001",
	}

	c := NewClient()
	c.client.Transport = fakeTransport(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/index.json") {
			t.Error("index.json should not be fetched when the homepage parses")
		}
		return textResponse(http.StatusOK, sampleHomepage), nil
	})

	attachments, err := c.FetchAttachments(meta)
	if err != nil {
		t.Fatalf("FetchAttachments failed: %v", err)
	}
	if len(attachments) != 3 {
		t.Fatalf("expected 3 attachments, got %d", len(attachments))
	}
	if attachments[0].DocumentType != "40-F" {
		t.Errorf("expected type 40-F, got %q", attachments[0].DocumentType)
	}
}

func TestPrimaryAttachment(t *testing.T) {
	filing := &Filing{
		Form: "40-F",
		Attachments: []Attachment{
			{DocumentType: "EX-99.1", Name: "ex991.htm"},
			{DocumentType: "40-F", Name: "main40f.htm"},
		},
	}

	primary := filing.PrimaryAttachment()
	if primary == nil {
		t.Fatal("expected primary attachment")
	}
	if primary.Name != "main40f.htm" {
		t.Errorf("expected main40f.htm, got %q", primary.Name)
	}

	noMatch := &Filing{Form: "40-F", Attachments: []Attachment{{DocumentType: "EX-99.1"}}}
	if noMatch.PrimaryAttachment() != nil {
		t.Error("expected nil when no attachment matches form type")
	}
}

func TestDocumentCache(t *testing.T) {
	cache := NewDocumentCacheWithDir(t.TempDir())

	accession := "0000320193-23-000077"
	if cache.Has(accession, "main.htm") {
		t.Error("cache should start empty")
	}

	if err := cache.Set(accession, "main.htm", "<html>content</html>"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if !cache.Has(accession, "main.htm") {
		t.Error("expected cache hit after Set")
	}
	if got := cache.Get(accession, "main.htm"); got != "<html>content</html>" {
		t.Errorf("unexpected cached content: %q", got)
	}
	if got := cache.Get(accession, "other.htm"); got != "" {
		t.Errorf("expected empty string for miss, got %q", got)
	}
}
