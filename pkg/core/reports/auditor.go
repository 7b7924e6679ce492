package reports

import (
	"strconv"
	"strings"
)

// FactSource exposes XBRL facts from a parsed filing. The XBRL engine is an
// external collaborator; this package queries it by element name only.
type FactSource interface {
	// FirstFactValue returns the value of the first fact found for an
	// element, or "" when the element has no facts.
	FirstFactValue(elementName string) string
}

// AuditorInfo holds auditor details from DEI (Document and Entity
// Information) XBRL facts in an annual filing.
type AuditorInfo struct {
	Name            string `json:"name"`
	Location        string `json:"location"`
	FirmID          int    `json:"firm_id"`
	ICFRAttestation bool   `json:"icfr_attestation"`
}

// ExtractAuditorInfo pulls auditor facts from a filing's XBRL data.
// Returns nil when no auditor name is reported.
func ExtractAuditorInfo(facts FactSource) *AuditorInfo {
	name := facts.FirstFactValue("dei_AuditorName")
	if name == "" {
		return nil
	}

	info := &AuditorInfo{
		Name:     name,
		Location: facts.FirstFactValue("dei_AuditorLocation"),
	}

	if firmID, err := strconv.Atoi(strings.TrimSpace(facts.FirstFactValue("dei_AuditorFirmId"))); err == nil {
		info.FirmID = firmID
	}

	info.ICFRAttestation = strings.EqualFold(
		facts.FirstFactValue("dei_IcfrAuditorAttestationFlag"), "true")

	return info
}
