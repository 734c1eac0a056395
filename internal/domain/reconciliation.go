package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type MatchType string

const (
	MatchTypePerfect   MatchType = "PERFECT_MATCH"
	MatchTypeReference MatchType = "REFERENCE_MATCH"
	// MatchTypeAmount is reserved. The matcher never produces it.
	MatchTypeAmount MatchType = "AMOUNT_MATCH"
	MatchTypeNone   MatchType = "NO_MATCH"
)

func ParseMatchType(s string) (MatchType, error) {
	switch t := MatchType(s); t {
	case MatchTypePerfect, MatchTypeReference, MatchTypeAmount, MatchTypeNone:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown match type %q", ErrInternal, s)
}

type DiscrepancyType string

const (
	DiscrepancyNone               DiscrepancyType = "NONE"
	DiscrepancyAmountDifference   DiscrepancyType = "AMOUNT_DIFFERENCE"
	DiscrepancyMissingInternal    DiscrepancyType = "MISSING_INTERNAL"
	DiscrepancyMissingExternal    DiscrepancyType = "MISSING_EXTERNAL"
	DiscrepancyDuplicateReference DiscrepancyType = "DUPLICATE_REFERENCE"
)

func ParseDiscrepancyType(s string) (DiscrepancyType, error) {
	switch t := DiscrepancyType(s); t {
	case DiscrepancyNone, DiscrepancyAmountDifference, DiscrepancyMissingInternal,
		DiscrepancyMissingExternal, DiscrepancyDuplicateReference:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown discrepancy type %q", ErrInternal, s)
}

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

var (
	highDifferenceThreshold   = decimal.NewFromInt(100)
	mediumDifferenceThreshold = decimal.NewFromInt(10)
)

// SeverityOf maps a discrepancy to its severity. It panics on a discrepancy
// type outside the known set; rows read from storage are parsed first.
func SeverityOf(d DiscrepancyType, amountDifference decimal.Decimal) Severity {
	switch d {
	case DiscrepancyMissingInternal, DiscrepancyMissingExternal:
		return SeverityHigh
	case DiscrepancyAmountDifference:
		abs := amountDifference.Abs()
		switch {
		case abs.GreaterThan(highDifferenceThreshold):
			return SeverityHigh
		case abs.GreaterThan(mediumDifferenceThreshold):
			return SeverityMedium
		default:
			return SeverityLow
		}
	case DiscrepancyDuplicateReference:
		return SeverityMedium
	case DiscrepancyNone:
		return SeverityLow
	}
	panic(fmt.Sprintf("domain: unhandled discrepancy type %q", string(d)))
}

type ReportStatus string

const (
	ReportStatusInProgress ReportStatus = "IN_PROGRESS"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

type MatchStatus string

const (
	MatchStatusPerfect    MatchStatus = "PERFECT"
	MatchStatusGood       MatchStatus = "GOOD"
	MatchStatusAcceptable MatchStatus = "ACCEPTABLE"
	MatchStatusPoor       MatchStatus = "POOR"
)

// ReconciliationItem is one classified outcome of the matcher. At least one
// of InternalTransactionID and ExternalTransactionID is set.
type ReconciliationItem struct {
	ID                    int64           `json:"id"`
	ReportID              int64           `json:"report_id"`
	InternalTransactionID *int64          `json:"internal_transaction_id,omitempty"`
	ExternalTransactionID *int64          `json:"external_transaction_id,omitempty"`
	ReferenceID           string          `json:"reference_id"`
	MatchType             MatchType       `json:"match_type"`
	DiscrepancyType       DiscrepancyType `json:"discrepancy_type"`
	InternalAmount        decimal.Decimal `json:"internal_amount"`
	ExternalAmount        decimal.Decimal `json:"external_amount"`
	AmountDifference      decimal.Decimal `json:"amount_difference"`
	Notes                 string          `json:"notes"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (i *ReconciliationItem) Severity() Severity {
	return SeverityOf(i.DiscrepancyType, i.AmountDifference)
}

func (i *ReconciliationItem) IsDiscrepancy() bool {
	return i.DiscrepancyType != DiscrepancyNone
}

// ReconciliationSummary holds the aggregates of one reconciliation run.
type ReconciliationSummary struct {
	TotalInternal       int             `json:"total_internal_transactions"`
	TotalExternal       int             `json:"total_external_transactions"`
	Matched             int             `json:"matched_transactions"`
	UnmatchedInternal   int             `json:"unmatched_internal"`
	UnmatchedExternal   int             `json:"unmatched_external"`
	AmountDifferences   int             `json:"amount_differences"`
	TotalInternalAmount decimal.Decimal `json:"total_internal_amount"`
	TotalExternalAmount decimal.Decimal `json:"total_external_amount"`
	DifferenceAmount    decimal.Decimal `json:"difference_amount"`
}

// MatchPercentage is matched / max(totalInternal, totalExternal) * 100, and
// 100 when both sides are empty.
func (s ReconciliationSummary) MatchPercentage() float64 {
	denom := s.TotalInternal
	if s.TotalExternal > denom {
		denom = s.TotalExternal
	}
	if denom == 0 {
		return 100.0
	}
	return float64(s.Matched) / float64(denom) * 100.0
}

func (s ReconciliationSummary) MatchStatus() MatchStatus {
	return MatchStatusFor(s.MatchPercentage())
}

func MatchStatusFor(pct float64) MatchStatus {
	switch {
	case pct >= 100.0:
		return MatchStatusPerfect
	case pct >= 95.0:
		return MatchStatusGood
	case pct >= 85.0:
		return MatchStatusAcceptable
	default:
		return MatchStatusPoor
	}
}

// ReconciliationReport is the persisted outcome of reconciling one date.
// Items are owned by the report and carry its id; they are only populated
// on reads that ask for them.
type ReconciliationReport struct {
	ReconciliationSummary
	ID                 int64                 `json:"id"`
	ReconciliationDate time.Time             `json:"reconciliation_date"`
	Status             ReportStatus          `json:"status"`
	ProviderName       string                `json:"provider_name"`
	FileName           string                `json:"file_name"`
	CreatedAt          time.Time             `json:"created_at"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
	Items              []*ReconciliationItem `json:"items,omitempty"`
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReconciliationStatusSummary is the dashboard view over recent reports.
type ReconciliationStatusSummary struct {
	ReportsLast7Days   int        `json:"total_reports_last_7_days"`
	CompletedLast7Days int        `json:"completed_reports_last_7_days"`
	LatestReportDate   *time.Time `json:"latest_report_date,omitempty"`
}
