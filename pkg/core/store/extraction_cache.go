package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webbsledge/edgartools/pkg/core/reports"
)

// FilingExtraction is the persisted output of the 40-F analysis pipeline for
// one filing: which attachments were selected and why, the detected section
// map, and any subsidiary records from Exhibit 21.
type FilingExtraction struct {
	AccessionNumber string                    `json:"accession_number"`
	CIK             string                    `json:"cik"`
	CompanyName     string                    `json:"company_name"`
	FormType        string                    `json:"form_type"`
	FilingDate      string                    `json:"filing_date"`
	AIFReason       string                    `json:"aif_reason"`
	MDAReason       string                    `json:"mda_reason"`
	Sections        []reports.SectionPosition `json:"sections,omitempty"`
	Subsidiaries    reports.SubsidiaryList    `json:"subsidiaries,omitempty"`
	Auditor         *reports.AuditorInfo      `json:"auditor,omitempty"`
	ExtractedAt     time.Time                 `json:"extracted_at"`
}

// ExtractionCache stores pipeline results keyed by accession number.
// Hybrid vault: DB (primary) + file system (fallback/local).
type ExtractionCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewExtractionCache creates an extraction cache.
// If pool is nil, it falls back to a file-based cache in the specified
// directory; an empty dir defaults to .cache/edgar/extractions.
func NewExtractionCache(pool *pgxpool.Pool, dir string) *ExtractionCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "edgar", "extractions")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check ExtractionCache dir: %v\n", err)
		}
	}
	return &ExtractionCache{pool: pool, fileDir: dir}
}

// Save upserts an extraction, keyed by accession number.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS filing_extractions (
//   accession_number TEXT PRIMARY KEY,
//   cik TEXT,
//   form_type TEXT,
//   data JSONB,
//   updated_at TIMESTAMPTZ
// );
func (c *ExtractionCache) Save(ctx context.Context, ext *FilingExtraction) error {
	if ext.AccessionNumber == "" {
		return fmt.Errorf("extraction has no accession number")
	}
	if ext.ExtractedAt.IsZero() {
		ext.ExtractedAt = time.Now()
	}

	dataJSON, err := json.MarshalIndent(ext, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal extraction: %w", err)
	}

	if c.pool != nil {
		query := `
			INSERT INTO filing_extractions (accession_number, cik, form_type, data, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (accession_number)
			DO UPDATE SET
				cik = EXCLUDED.cik,
				form_type = EXCLUDED.form_type,
				data = EXCLUDED.data,
				updated_at = NOW()
		`
		_, err = c.pool.Exec(ctx, query, ext.AccessionNumber, ext.CIK, ext.FormType, dataJSON)
		if err != nil {
			return fmt.Errorf("failed to save extraction to db: %w", err)
		}
	}

	if c.fileDir != "" {
		path := c.accessionPath(ext.AccessionNumber)
		if err := os.WriteFile(path, dataJSON, 0644); err != nil {
			return fmt.Errorf("failed to save extraction to file cache: %w", err)
		}
	}

	return nil
}

// GetByAccession retrieves a cached extraction, or nil on a miss.
func (c *ExtractionCache) GetByAccession(ctx context.Context, accession string) (*FilingExtraction, error) {
	if c.pool != nil {
		query := `SELECT data FROM filing_extractions WHERE accession_number = $1 LIMIT 1`
		var dataJSON []byte
		err := c.pool.QueryRow(ctx, query, accession).Scan(&dataJSON)
		if err != nil {
			return nil, nil // Cache miss
		}
		var ext FilingExtraction
		if err := json.Unmarshal(dataJSON, &ext); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached extraction: %w", err)
		}
		return &ext, nil
	}

	if c.fileDir != "" {
		return c.loadFromFile(c.accessionPath(accession))
	}

	return nil, nil
}

// Exists checks if an extraction is already cached.
func (c *ExtractionCache) Exists(ctx context.Context, accession string) bool {
	if c.pool != nil {
		query := `SELECT 1 FROM filing_extractions WHERE accession_number = $1 LIMIT 1`
		var one int
		if err := c.pool.QueryRow(ctx, query, accession).Scan(&one); err == nil {
			return true
		}
	}

	if c.fileDir != "" {
		if _, err := os.Stat(c.accessionPath(accession)); err == nil {
			return true
		}
	}

	return false
}

// NewExtraction builds an extraction record from a parsed 40-F. All pipeline
// stages run here, so a cache entry always carries the full result set.
func NewExtraction(ff *reports.FortyF, subs reports.SubsidiaryList, auditor *reports.AuditorInfo) *FilingExtraction {
	f := ff.Filing()
	return &FilingExtraction{
		AccessionNumber: f.AccessionNumber,
		CIK:             f.CIK,
		CompanyName:     f.CompanyName,
		FormType:        f.Form,
		FilingDate:      f.FilingDate,
		AIFReason:       ff.AIFReason(),
		MDAReason:       ff.MDAReason(),
		Sections:        ff.SectionPositions(),
		Subsidiaries:    subs,
		Auditor:         auditor,
		ExtractedAt:     time.Now(),
	}
}

func (c *ExtractionCache) accessionPath(accession string) string {
	safe := strings.ReplaceAll(accession, "-", "")
	return filepath.Join(c.fileDir, safe+".json")
}

func (c *ExtractionCache) loadFromFile(path string) (*FilingExtraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil // Not found
	}
	var ext FilingExtraction
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("failed to parse cached extraction %s: %w", path, err)
	}
	return &ext, nil
}
