package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

const generatedLayout = "2006-01-02 15:04:05"

var detailHeader = []string{
	"Item ID", "Reference ID", "Match Type", "Discrepancy Type",
	"Internal Transaction ID", "External Transaction ID",
	"Internal Amount", "External Amount", "Amount Difference", "Severity", "Notes",
}

var summaryHeader = []string{
	"Date", "Total Internal", "Total External", "Matched", "Unmatched Internal", "Unmatched External",
	"Amount Differences", "Internal Amount", "External Amount", "Difference", "Match %", "Status",
}

var sampleFeedHeader = []string{
	"transaction_id", "transaction_date", "amount", "reference_id",
	"transaction_type", "customer_id", "service_type", "description",
}

type exportService struct {
	reportRepo repository.ReconciliationRepository
	now        func() time.Time
}

func NewExportService(reportRepo repository.ReconciliationRepository) ExportService {
	return &exportService{
		reportRepo: reportRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ExportReport writes the report for date and every one of its items as CSV.
func (s *exportService) ExportReport(ctx context.Context, date time.Time, w io.Writer) error {
	day := domain.DateOnly(date)
	logger.Info("Exporting reconciliation report", "date", day.Format("2006-01-02"))

	report, err := s.reportRepo.GetByDate(ctx, day)
	if err != nil {
		return internal(err)
	}
	items, err := s.reportRepo.ListItems(ctx, report.ID, false)
	if err != nil {
		return internal(err)
	}

	provider := report.ProviderName
	if provider == "" {
		provider = "N/A"
	}

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Reconciliation Report for " + day.Format("2006-01-02")},
		{"Generated on: " + s.now().Format(generatedLayout)},
		{"Provider: " + provider},
		{},
		{"SUMMARY"},
		{"Total Internal Transactions", strconv.Itoa(report.TotalInternal)},
		{"Total External Transactions", strconv.Itoa(report.TotalExternal)},
		{"Matched Transactions", strconv.Itoa(report.Matched)},
		{"Unmatched Internal", strconv.Itoa(report.UnmatchedInternal)},
		{"Unmatched External", strconv.Itoa(report.UnmatchedExternal)},
		{"Amount Differences", strconv.Itoa(report.AmountDifferences)},
		{"Total Internal Amount", money(report.TotalInternalAmount)},
		{"Total External Amount", money(report.TotalExternalAmount)},
		{"Difference Amount", money(report.DifferenceAmount)},
		{"Match Percentage", percent(report.MatchPercentage())},
		{},
		{"DETAILED RECONCILIATION ITEMS"},
		detailHeader,
	}
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.ReferenceID,
			string(item.MatchType),
			string(item.DiscrepancyType),
			optionalID(item.InternalTransactionID),
			optionalID(item.ExternalTransactionID),
			money(item.InternalAmount),
			money(item.ExternalAmount),
			money(item.AmountDifference),
			string(item.Severity()),
			item.Notes,
		})
	}
	if err := writeAll(cw, rows); err != nil {
		return err
	}

	logger.Info("Reconciliation report exported", "date", day.Format("2006-01-02"), "items", len(items))
	return nil
}

// ExportSummary writes one row per report dated within [from, to].
func (s *exportService) ExportSummary(ctx context.Context, from, to time.Time, w io.Writer) error {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	if to.Before(from) {
		return domain.InvalidArgumentf("start date must not be after end date")
	}

	reports, err := s.reportRepo.ListBetween(ctx, from, to)
	if err != nil {
		return internal(err)
	}

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Transaction Summary Report"},
		{fmt.Sprintf("Period: %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))},
		{"Generated on: " + s.now().Format(generatedLayout)},
		{},
		summaryHeader,
	}
	for _, r := range reports {
		rows = append(rows, []string{
			r.ReconciliationDate.Format("2006-01-02"),
			strconv.Itoa(r.TotalInternal),
			strconv.Itoa(r.TotalExternal),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.UnmatchedInternal),
			strconv.Itoa(r.UnmatchedExternal),
			strconv.Itoa(r.AmountDifferences),
			money(r.TotalInternalAmount),
			money(r.TotalExternalAmount),
			money(r.DifferenceAmount),
			percent(r.MatchPercentage()),
			string(r.Status),
		})
	}
	if err := writeAll(cw, rows); err != nil {
		return err
	}

	logger.Info("Reconciliation summary exported", "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"), "reports", len(reports))
	return nil
}

// GenerateSampleFeed writes a synthetic provider file for date in the
// canonical ingestion layout. Used to exercise the upload path by hand.
func (s *exportService) GenerateSampleFeed(ctx context.Context, date time.Time, count int, w io.Writer) error {
	if count <= 0 || count > 10000 {
		return domain.InvalidArgumentf("count must be within 1-10000, got %d", count)
	}
	day := domain.DateOnly(date)
	compact := day.Format("20060102")

	rows := make([][]string, 0, count+1)
	rows = append(rows, sampleFeedHeader)
	for i := 1; i <= count; i++ {
		txType, svc := "CONSUMPTION", "CRB"
		if i%3 == 0 {
			txType = "TOPUP"
		}
		if i%2 == 0 {
			svc = "KYC"
		}
		rows = append(rows, []string{
			fmt.Sprintf("EXT_%s_%03d", compact, i),
			day.Format("2006-01-02"),
			money(decimal.NewFromInt(int64(25 + i*5))),
			fmt.Sprintf("REF_%s_%03d", compact, i),
			txType,
			fmt.Sprintf("CUST_%d", i%5+1),
			svc,
			fmt.Sprintf("Sample external transaction %d", i),
		})
	}
	return writeAll(csv.NewWriter(w), rows)
}

func writeAll(cw *csv.Writer, rows [][]string) error {
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: failed to write CSV: %v", domain.ErrInternal, err)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
