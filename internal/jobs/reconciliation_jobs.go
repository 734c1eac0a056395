package jobs

import (
	"context"
	"time"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
)

// ReconcilePreviousDay reconciles yesterday (UTC)
func (jr *JobRunner) ReconcilePreviousDay() {
	yesterday := domain.DateOnly(jr.now()).AddDate(0, 0, -1)
	jr.ReconcileDate(yesterday)
}

// ReconcileDate reconciles a single date. An existing completed report is
// left as is.
func (jr *JobRunner) ReconcileDate(date time.Time) {
	jr.runWithRecovery("ReconcileDate", func() {
		ctx := context.Background()
		day := domain.DateOnly(date)

		report, err := jr.services.Reconciliation.Reconcile(ctx, day)
		if err != nil {
			logger.Error("Failed to reconcile date",
				"date", day.Format("2006-01-02"),
				"code", domain.CodeOf(err),
				"error", err)
			return
		}

		logger.Info("Reconciled date",
			"date", day.Format("2006-01-02"),
			"report_id", report.ID,
			"status", report.Status,
			"match_percentage", report.MatchPercentage(),
			"match_status", report.MatchStatus())
	})
}

// LogReconciliationStatus logs the last week's reconciliation totals
func (jr *JobRunner) LogReconciliationStatus() {
	jr.runWithRecovery("LogReconciliationStatus", func() {
		status, err := jr.services.Reconciliation.Status(context.Background())
		if err != nil {
			logger.Error("Failed to load reconciliation status", "error", err)
			return
		}

		args := []any{
			"reports_last_7_days", status.ReportsLast7Days,
			"completed_last_7_days", status.CompletedLast7Days,
		}
		if status.LatestReportDate != nil {
			args = append(args, "latest_report_date", status.LatestReportDate.Format("2006-01-02"))
		}
		if status.ReportsLast7Days > status.CompletedLast7Days {
			logger.Warn("Some recent reconciliations did not complete", args...)
			return
		}
		logger.Info("Reconciliation status", args...)
	})
}
