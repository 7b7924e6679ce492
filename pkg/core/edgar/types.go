package edgar

import "time"

// Attachment is a single document within a filing, as listed on the filing
// homepage. Size comes from the homepage table and may be 0 when EDGAR does
// not report it; callers must treat 0 as "unknown", never fail on it.
type Attachment struct {
	Sequence     string `json:"sequence"`
	Description  string `json:"description"`
	DocumentType string `json:"document_type"` // exhibit code, e.g. "EX-99.1"
	Name         string `json:"name"`
	URL          string `json:"url"`
	Size         int    `json:"size"`
}

// FilingMetadata identifies one filing from the submissions API.
type FilingMetadata struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	Tickers         []string  `json:"tickers"`
	AccessionNumber string    `json:"accession_number"`
	FilingDate      string    `json:"filing_date"`
	PeriodOfReport  string    `json:"period_of_report"`
	Form            string    `json:"form"`
	PrimaryDocument string    `json:"primary_document"`
	FilingURL       string    `json:"filing_url"`
	RetrievedAt     time.Time `json:"retrieved_at"`
}

// Filing bundles filing metadata with its homepage attachment list. This is
// the explicit schema form-specific parsers consume; every field is plainly
// optional-by-zero-value rather than probed at runtime.
type Filing struct {
	CIK             string
	CompanyName     string
	Form            string
	FilingDate      string
	PeriodOfReport  string
	AccessionNumber string
	PrimaryURL      string
	Attachments     []Attachment
}

// PrimaryAttachment returns the attachment matching the filing's own form
// type (the main document), or nil if the homepage does not list one.
func (f *Filing) PrimaryAttachment() *Attachment {
	for i := range f.Attachments {
		if f.Attachments[i].DocumentType == f.Form {
			return &f.Attachments[i]
		}
	}
	return nil
}
