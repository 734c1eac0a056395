package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

const reportColumns = `id, reconciliation_date, total_internal_transactions, total_external_transactions,
	matched_transactions, unmatched_internal, unmatched_external, amount_differences,
	total_internal_amount, total_external_amount, difference_amount, status,
	COALESCE(provider_name, ''), COALESCE(file_name, ''), created_at, completed_at`

const itemColumns = `id, report_id, internal_transaction_id, external_transaction_id, COALESCE(reference_id, ''),
	match_type, discrepancy_type, internal_amount, external_amount, amount_difference, COALESCE(notes, ''), created_at`

var discrepancyTypes = []string{
	string(domain.DiscrepancyAmountDifference),
	string(domain.DiscrepancyMissingInternal),
	string(domain.DiscrepancyMissingExternal),
	string(domain.DiscrepancyDuplicateReference),
}

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) repository.ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) GetByDate(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error) {
	day := domain.DateOnly(date)
	query := `SELECT ` + reportColumns + ` FROM reconciliation_reports WHERE reconciliation_date = $1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, day))
	if err != nil {
		return nil, notFound(err, "reconciliation report for %s", day.Format("2006-01-02"))
	}
	return rep, nil
}

func (r *reconciliationRepository) SaveReport(ctx context.Context, rep *domain.ReconciliationReport, items []*domain.ReconciliationItem) error {
	logger.EnterMethod("reconciliationRepository.SaveReport",
		"date", rep.ReconciliationDate.Format("2006-01-02"), "items", len(items))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, insertReportSQL+` RETURNING id`, reportArgs(rep, domain.ReportStatusInProgress)...).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: reconciliation report for %s", domain.ErrDuplicateResource, rep.ReconciliationDate.Format("2006-01-02"))
		}
		logger.ExitMethodWithError("reconciliationRepository.SaveReport", err, "step", "insert report")
		return err
	}

	if len(items) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO reconciliation_items
			(report_id, internal_transaction_id, external_transaction_id, reference_id, match_type, discrepancy_type,
			 internal_amount, external_amount, amount_difference, severity, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, item := range items {
			err := stmt.QueryRowContext(ctx,
				id, nullInt64(item.InternalTransactionID), nullInt64(item.ExternalTransactionID), item.ReferenceID,
				item.MatchType, item.DiscrepancyType, item.InternalAmount, item.ExternalAmount, item.AmountDifference,
				item.Severity(), item.Notes, rep.CreatedAt,
			).Scan(&item.ID)
			if err != nil {
				logger.ExitMethodWithError("reconciliationRepository.SaveReport", err, "step", "insert item", "referenceID", item.ReferenceID)
				return err
			}
		}
	}

	completedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE reconciliation_reports SET status = $1, completed_at = $2 WHERE id = $3`,
		domain.ReportStatusCompleted, completedAt, id)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.SaveReport", err, "step", "complete report")
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("reconciliationRepository.SaveReport", err, "step", "commit")
		return err
	}

	rep.ID = id
	rep.Status = domain.ReportStatusCompleted
	rep.CompletedAt = &completedAt
	for _, item := range items {
		item.ReportID = id
		item.CreatedAt = rep.CreatedAt
	}
	logger.ExitMethod("reconciliationRepository.SaveReport", "reportID", id)
	return nil
}

// RecordFailure stores a FAILED marker for the date unless a report already
// exists for it.
func (r *reconciliationRepository) RecordFailure(ctx context.Context, rep *domain.ReconciliationReport) error {
	_, err := r.db.ExecContext(ctx, insertReportSQL+` ON CONFLICT (reconciliation_date) DO NOTHING`,
		reportArgs(rep, domain.ReportStatusFailed)...)
	logger.DatabaseResult("INSERT", 1, err, "table", "reconciliation_reports", "status", domain.ReportStatusFailed)
	return err
}

func (r *reconciliationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reconciliation_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NotFoundf("reconciliation report %d", id)
	}
	return nil
}

func (r *reconciliationRepository) ListItems(ctx context.Context, reportID int64, discrepanciesOnly bool) ([]*domain.ReconciliationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM reconciliation_items WHERE report_id = $1 ORDER BY id`
	args := []any{reportID}
	if discrepanciesOnly {
		query = `SELECT ` + itemColumns + ` FROM reconciliation_items
			WHERE report_id = $1 AND discrepancy_type = ANY($2) ORDER BY id`
		args = append(args, pq.Array(discrepancyTypes))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ReconciliationItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *reconciliationRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationReport, error) {
	query := `SELECT ` + reportColumns + ` FROM reconciliation_reports
	          WHERE reconciliation_date >= $1 AND reconciliation_date <= $2 ORDER BY reconciliation_date DESC`
	rows, err := r.db.QueryContext(ctx, query, domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.ReconciliationReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *reconciliationRepository) LatestDate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(reconciliation_date) FROM reconciliation_reports`).Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	day := domain.DateOnly(latest.Time)
	return &day, nil
}

const insertReportSQL = `INSERT INTO reconciliation_reports
	(reconciliation_date, total_internal_transactions, total_external_transactions, matched_transactions,
	 unmatched_internal, unmatched_external, amount_differences, total_internal_amount, total_external_amount,
	 difference_amount, status, provider_name, file_name, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func reportArgs(rep *domain.ReconciliationReport, status domain.ReportStatus) []any {
	s := rep.ReconciliationSummary
	return []any{
		domain.DateOnly(rep.ReconciliationDate), s.TotalInternal, s.TotalExternal, s.Matched,
		s.UnmatchedInternal, s.UnmatchedExternal, s.AmountDifferences, s.TotalInternalAmount, s.TotalExternalAmount,
		s.DifferenceAmount, status, nullString(rep.ProviderName), nullString(rep.FileName), rep.CreatedAt,
	}
}

func scanReport(row rowScanner) (*domain.ReconciliationReport, error) {
	var rep domain.ReconciliationReport
	var completedAt sql.NullTime
	s := &rep.ReconciliationSummary
	err := row.Scan(&rep.ID, &rep.ReconciliationDate, &s.TotalInternal, &s.TotalExternal,
		&s.Matched, &s.UnmatchedInternal, &s.UnmatchedExternal, &s.AmountDifferences,
		&s.TotalInternalAmount, &s.TotalExternalAmount, &s.DifferenceAmount, &rep.Status,
		&rep.ProviderName, &rep.FileName, &rep.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	rep.ReconciliationDate = domain.DateOnly(rep.ReconciliationDate)
	if completedAt.Valid {
		t := completedAt.Time
		rep.CompletedAt = &t
	}
	return &rep, nil
}

func scanItem(row rowScanner) (*domain.ReconciliationItem, error) {
	var item domain.ReconciliationItem
	var internalID, externalID sql.NullInt64
	var matchType, discrepancyType string
	err := row.Scan(&item.ID, &item.ReportID, &internalID, &externalID, &item.ReferenceID,
		&matchType, &discrepancyType, &item.InternalAmount, &item.ExternalAmount, &item.AmountDifference,
		&item.Notes, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	if item.MatchType, err = domain.ParseMatchType(matchType); err != nil {
		return nil, err
	}
	if item.DiscrepancyType, err = domain.ParseDiscrepancyType(discrepancyType); err != nil {
		return nil, err
	}
	if internalID.Valid {
		id := internalID.Int64
		item.InternalTransactionID = &id
	}
	if externalID.Valid {
		id := externalID.Int64
		item.ExternalTransactionID = &id
	}
	return &item, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
