// Package funds parses fund shareholder reports (N-CSR / N-CSRS).
//
// These filings carry Inline XBRL in the oef: (Open-End Fund) taxonomy.
// The XBRL engine is an external collaborator exposed through FactQuerier;
// this package only interprets the oef concepts.
package funds

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// NCSRForms lists the form types this package understands.
var NCSRForms = []string{"N-CSR", "N-CSR/A", "N-CSRS", "N-CSRS/A"}

const classAxis = "oef:ClassAxis"

// Fact is a single XBRL fact with its dimensional qualifiers.
type Fact struct {
	Concept   string            `json:"concept"`
	Value     string            `json:"value"`
	PeriodEnd string            `json:"period_end,omitempty"`
	Dims      map[string]string `json:"dims,omitempty"`
}

// FactQuerier returns all facts reported for a concept, dimensioned or not.
type FactQuerier interface {
	FactsByConcept(concept string) []Fact
}

// AnnualReturn is a single average-annual-return data point.
type AnnualReturn struct {
	PeriodLabel string   `json:"period_label"`
	ReturnPct   *float64 `json:"return_pct,omitempty"`
}

// Holding is a top-holding entry for a share class.
type Holding struct {
	Name     string   `json:"name"`
	PctOfNav *float64 `json:"pct_of_nav,omitempty"`
}

// ShareClass holds per-share-class data from the OEF taxonomy.
type ShareClass struct {
	Name            string         `json:"name"`
	Ticker          string         `json:"ticker,omitempty"`
	ExpenseRatioPct *float64       `json:"expense_ratio_pct,omitempty"`
	ExpensesPaid    *float64       `json:"expenses_paid,omitempty"`
	AdvisoryFees    *float64       `json:"advisory_fees,omitempty"`
	AnnualReturns   []AnnualReturn `json:"annual_returns,omitempty"`
	Holdings        []Holding      `json:"holdings,omitempty"`
	HoldingsCount   *int           `json:"holdings_count,omitempty"`
}

// FundShareholderReport is a certified shareholder report for a registered
// investment company.
type FundShareholderReport struct {
	FundName          string       `json:"fund_name"`
	ReportType        string       `json:"report_type"` // "Annual" or "Semi-Annual"
	NetAssets         *float64     `json:"net_assets,omitempty"`
	PortfolioTurnover *float64     `json:"portfolio_turnover,omitempty"`
	ShareClasses      []ShareClass `json:"share_classes"`
}

// IsAnnual reports whether this is an annual (N-CSR) report.
func (r *FundShareholderReport) IsAnnual() bool {
	return r.ReportType == "Annual"
}

// IsNCSRForm reports whether a form type is one of the shareholder report
// forms.
func IsNCSRForm(form string) bool {
	for _, f := range NCSRForms {
		if f == form {
			return true
		}
	}
	return false
}

// FromFacts builds a report from a filing's XBRL facts. The form type
// decides annual vs semi-annual.
func FromFacts(facts FactQuerier, form string) *FundShareholderReport {
	reportType := "Annual"
	if strings.Contains(form, "CSRS") {
		reportType = "Semi-Annual"
	}

	report := &FundShareholderReport{
		FundName:   firstUndimensionedValue(facts, "oef:FundName"),
		ReportType: reportType,
	}

	report.NetAssets = firstNumericFact(facts, "oef:NetAssetsOfSeriesMember", "")
	if report.NetAssets == nil {
		report.NetAssets = firstNumericFact(facts, "oef:NetAssets", "")
	}
	report.PortfolioTurnover = firstNumericFact(facts, "oef:PortfolioTurnoverRt", "")
	if report.PortfolioTurnover == nil {
		report.PortfolioTurnover = firstNumericFact(facts, "us-gaap:InvestmentCompanyPortfolioTurnover", "")
	}

	for _, memberID := range discoverClassMembers(facts) {
		report.ShareClasses = append(report.ShareClasses, parseShareClass(facts, memberID))
	}

	// No ClassAxis dimensions: single-class fund, read undimensioned facts.
	if len(report.ShareClasses) == 0 {
		sc := parseUndimensionedShareClass(facts, report.FundName)
		if sc.ExpenseRatioPct != nil || len(sc.AnnualReturns) > 0 || sc.HoldingsCount != nil {
			report.ShareClasses = append(report.ShareClasses, sc)
		}
	}

	return report
}

// Concepts scanned when discovering share classes. Any fact dimensioned by
// ClassAxis under one of these reveals a class member.
var classBearingConcepts = []string{
	"oef:ClassName",
	"oef:ClassTicker",
	"oef:ExpenseRatioPct",
	"oef:ExpensesPaidAmt",
	"oef:AdvisoryFeesPaidAmt",
	"oef:AvgAnnlRtrPct",
	"oef:HoldingsCount",
}

func discoverClassMembers(facts FactQuerier) []string {
	seen := make(map[string]bool)
	var members []string
	for _, concept := range classBearingConcepts {
		for _, fact := range facts.FactsByConcept(concept) {
			member := fact.Dims[classAxis]
			if member == "" || seen[member] {
				continue
			}
			seen[member] = true
			members = append(members, member)
		}
	}
	sort.Strings(members)
	return members
}

func parseShareClass(facts FactQuerier, memberID string) ShareClass {
	sc := ShareClass{
		Name:   memberIDToLabel(memberID),
		Ticker: firstClassValue(facts, "oef:ClassTicker", memberID),
	}

	for _, concept := range []string{"oef:ClassName", "oef:ClassNameDerived", "oef:ShareClassNm"} {
		if name := firstClassValue(facts, concept, memberID); name != "" {
			sc.Name = name
			break
		}
	}

	sc.ExpenseRatioPct = firstNumericFact(facts, "oef:ExpenseRatioPct", memberID)
	if sc.ExpenseRatioPct == nil {
		sc.ExpenseRatioPct = firstNumericFact(facts, "oef:ExpensesPctOfAvgNetAssets", memberID)
	}
	sc.ExpensesPaid = firstNumericFact(facts, "oef:ExpensesPaidAmt", memberID)
	sc.AdvisoryFees = firstNumericFact(facts, "oef:AdvisoryFeesPaidAmt", memberID)
	sc.AnnualReturns = parseAnnualReturns(facts, memberID)
	sc.Holdings = parseHoldings(facts, memberID)
	sc.HoldingsCount = parseHoldingsCount(facts, memberID)
	return sc
}

func parseUndimensionedShareClass(facts FactQuerier, fundName string) ShareClass {
	sc := ShareClass{Name: fundName}

	sc.ExpenseRatioPct = firstNumericFact(facts, "oef:ExpenseRatioPct", "")
	if sc.ExpenseRatioPct == nil {
		sc.ExpenseRatioPct = firstNumericFact(facts, "oef:ExpensesPctOfAvgNetAssets", "")
	}
	sc.ExpensesPaid = firstNumericFact(facts, "oef:ExpensesPaidAmt", "")
	sc.AdvisoryFees = firstNumericFact(facts, "oef:AdvisoryFeesPaidAmt", "")
	sc.AnnualReturns = parseAnnualReturns(facts, "")
	sc.HoldingsCount = parseHoldingsCount(facts, "")
	return sc
}

func parseAnnualReturns(facts FactQuerier, memberID string) []AnnualReturn {
	var returns []AnnualReturn
	for _, fact := range facts.FactsByConcept("oef:AvgAnnlRtrPct") {
		if !matchesMember(fact, memberID) {
			continue
		}
		label := fact.Dims["oef:ColumnAxis"]
		if label != "" {
			label = memberIDToLabel(label)
		} else {
			label = fact.PeriodEnd
		}
		returns = append(returns, AnnualReturn{
			PeriodLabel: label,
			ReturnPct:   parseNumeric(fact.Value),
		})
	}
	return returns
}

func parseHoldings(facts FactQuerier, memberID string) []Holding {
	var holdings []Holding
	for _, fact := range facts.FactsByConcept("oef:HoldingPctOfNav") {
		if !matchesMember(fact, memberID) {
			continue
		}
		name := ""
		for axis, member := range fact.Dims {
			if strings.Contains(axis, "HoldingAxis") {
				name = memberIDToLabel(member)
				break
			}
		}
		pct := parseNumeric(fact.Value)
		if name != "" || pct != nil {
			holdings = append(holdings, Holding{Name: name, PctOfNav: pct})
		}
	}
	return holdings
}

func parseHoldingsCount(facts FactQuerier, memberID string) *int {
	for _, fact := range facts.FactsByConcept("oef:HoldingsCount") {
		if !matchesMember(fact, memberID) {
			continue
		}
		if val := parseNumeric(fact.Value); val != nil {
			count := int(*val)
			return &count
		}
	}
	return nil
}

// matchesMember checks a fact against a ClassAxis member. An empty member
// selects only undimensioned facts.
func matchesMember(fact Fact, memberID string) bool {
	if memberID == "" {
		return fact.Dims[classAxis] == ""
	}
	return fact.Dims[classAxis] == memberID
}

// firstUndimensionedValue prefers facts with no dimensions, falling back to
// the first fact reported for the concept.
func firstUndimensionedValue(facts FactQuerier, concept string) string {
	all := facts.FactsByConcept(concept)
	for _, fact := range all {
		if len(fact.Dims) == 0 {
			return strings.TrimSpace(fact.Value)
		}
	}
	if len(all) > 0 {
		return strings.TrimSpace(all[0].Value)
	}
	return ""
}

func firstClassValue(facts FactQuerier, concept, memberID string) string {
	for _, fact := range facts.FactsByConcept(concept) {
		if matchesMember(fact, memberID) {
			return strings.TrimSpace(fact.Value)
		}
	}
	return ""
}

func firstNumericFact(facts FactQuerier, concept, memberID string) *float64 {
	for _, fact := range facts.FactsByConcept(concept) {
		if !matchesMember(fact, memberID) {
			continue
		}
		if val := parseNumeric(fact.Value); val != nil {
			return val
		}
	}
	return nil
}

// parseNumeric converts a fact value to a float, rejecting non-numeric and
// non-finite values.
func parseNumeric(value string) *float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return nil
	}
	return &val
}

// memberIDToLabel derives a readable label from a dimension member ID:
// "oef:ClassAMember" becomes "ClassA".
func memberIDToLabel(memberID string) string {
	label := memberID
	if idx := strings.LastIndex(label, ":"); idx >= 0 {
		label = label[idx+1:]
	}
	return strings.TrimSuffix(label, "Member")
}
