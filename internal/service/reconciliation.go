package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/reconcile"
	"wallet-ledger-service/internal/repository"
)

const statusWindowDays = 7

// KeyLocker serialises work on one key within the process.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type reconciliationService struct {
	txRepo      repository.TransactionRepository
	extRepo     repository.ExternalTransactionRepository
	reportRepo  repository.ReconciliationRepository
	locker      KeyLocker
	historyDays int
	now         func() time.Time
}

func NewReconciliationService(
	txRepo repository.TransactionRepository,
	extRepo repository.ExternalTransactionRepository,
	reportRepo repository.ReconciliationRepository,
	locker KeyLocker,
	historyDays int,
) ReconciliationService {
	return &reconciliationService{
		txRepo:      txRepo,
		extRepo:     extRepo,
		reportRepo:  reportRepo,
		locker:      locker,
		historyDays: historyDays,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile produces the report for date, or returns the one already stored.
// Re-running a date never duplicates items.
func (s *reconciliationService) Reconcile(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error) {
	day := domain.DateOnly(date)
	dayStr := day.Format("2006-01-02")
	logger.Info("Starting reconciliation", "date", dayStr)

	unlock, err := s.locker.Lock(ctx, dayStr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.reportRepo.GetByDate(ctx, day)
	switch {
	case err == nil:
		switch existing.Status {
		case domain.ReportStatusCompleted:
			logger.Info("Reconciliation report already exists", "date", dayStr, "reportID", existing.ID)
			return existing, nil
		case domain.ReportStatusFailed:
			logger.Warn("Discarding failed reconciliation report", "date", dayStr, "reportID", existing.ID)
			if err := s.reportRepo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, internal(err)
			}
		default:
			return nil, fmt.Errorf("%w: reconciliation for %s is %s", domain.ErrConflict, dayStr, existing.Status)
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, internal(err)
	}

	internalTxs, err := s.txRepo.ListCreatedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, s.recordFailure(ctx, day, nil, err)
	}
	externalTxs, err := s.extRepo.ListByDate(ctx, day)
	if err != nil {
		return nil, s.recordFailure(ctx, day, nil, err)
	}

	result := reconcile.Reconcile(internalTxs, externalTxs)
	providers, files := feedMetadata(externalTxs)
	report := &domain.ReconciliationReport{
		ReconciliationSummary: result.Summary,
		ReconciliationDate:    day,
		ProviderName:          providers,
		FileName:              files,
		CreatedAt:             s.now(),
	}

	if err := s.reportRepo.SaveReport(ctx, report, result.Items); err != nil {
		if errors.Is(err, domain.ErrDuplicateResource) {
			// Another process stored this date first.
			winner, gerr := s.reportRepo.GetByDate(ctx, day)
			if gerr != nil {
				return nil, internal(gerr)
			}
			if winner.Status != domain.ReportStatusCompleted {
				return nil, fmt.Errorf("%w: reconciliation for %s is %s", domain.ErrConflict, dayStr, winner.Status)
			}
			return winner, nil
		}
		return nil, s.recordFailure(ctx, day, report, err)
	}

	logger.Info("Reconciliation completed",
		"date", dayStr,
		"reportID", report.ID,
		"matched", report.Matched,
		"unmatchedInternal", report.UnmatchedInternal,
		"unmatchedExternal", report.UnmatchedExternal,
		"amountDifferences", report.AmountDifferences,
		"matchPercentage", report.MatchPercentage(),
	)
	return report, nil
}

// recordFailure leaves a FAILED marker so the next run for the date knows to
// recompute. The marker is best effort.
func (s *reconciliationService) recordFailure(ctx context.Context, day time.Time, report *domain.ReconciliationReport, cause error) error {
	logger.Error("Reconciliation failed", "date", day.Format("2006-01-02"), "error", cause)
	if report == nil {
		report = &domain.ReconciliationReport{ReconciliationDate: day, CreatedAt: s.now()}
	}
	if err := s.reportRepo.RecordFailure(context.WithoutCancel(ctx), report); err != nil {
		logger.Error("Failed to record reconciliation failure", "date", day.Format("2006-01-02"), "error", err)
	}
	return internal(cause)
}

func feedMetadata(txs []*domain.ExternalTransaction) (string, string) {
	providers := map[string]struct{}{}
	files := map[string]struct{}{}
	for _, t := range txs {
		if t.ProviderName != "" {
			providers[t.ProviderName] = struct{}{}
		}
		if t.FileName != "" {
			files[t.FileName] = struct{}{}
		}
	}
	return joinSorted(providers), joinSorted(files)
}

func joinSorted(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func (s *reconciliationService) GetReport(ctx context.Context, date time.Time, includeDetails bool) (*domain.ReconciliationReport, error) {
	report, err := s.reportRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, internal(err)
	}
	if includeDetails {
		items, err := s.reportRepo.ListItems(ctx, report.ID, true)
		if err != nil {
			return nil, internal(err)
		}
		report.Items = items
	}
	return report, nil
}

func (s *reconciliationService) History(ctx context.Context, days int) ([]*domain.ReconciliationReport, error) {
	if days <= 0 {
		days = s.historyDays
	}
	today := domain.DateOnly(s.now())
	reports, err := s.reportRepo.ListBetween(ctx, today.AddDate(0, 0, -days), today)
	if err != nil {
		return nil, internal(err)
	}
	return reports, nil
}

func (s *reconciliationService) Status(ctx context.Context) (*domain.ReconciliationStatusSummary, error) {
	today := domain.DateOnly(s.now())
	reports, err := s.reportRepo.ListBetween(ctx, today.AddDate(0, 0, -statusWindowDays), today)
	if err != nil {
		return nil, internal(err)
	}
	summary := &domain.ReconciliationStatusSummary{ReportsLast7Days: len(reports)}
	for _, r := range reports {
		if r.Status == domain.ReportStatusCompleted {
			summary.CompletedLast7Days++
		}
	}
	latest, err := s.reportRepo.LatestDate(ctx)
	if err != nil {
		return nil, internal(err)
	}
	summary.LatestReportDate = latest
	return summary, nil
}
