package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/repository/postgres"
)

var reportCols = []string{"id", "reconciliation_date", "total_internal_transactions", "total_external_transactions",
	"matched_transactions", "unmatched_internal", "unmatched_external", "amount_differences",
	"total_internal_amount", "total_external_amount", "difference_amount", "status",
	"provider_name", "file_name", "created_at", "completed_at"}

func sampleReport(day time.Time) (*domain.ReconciliationReport, []*domain.ReconciliationItem) {
	internalID, externalID := int64(1), int64(10)
	rep := &domain.ReconciliationReport{
		ReconciliationDate: day,
		ReconciliationSummary: domain.ReconciliationSummary{
			TotalInternal:       1,
			TotalExternal:       1,
			AmountDifferences:   1,
			TotalInternalAmount: decimal.RequireFromString("100.00"),
			TotalExternalAmount: decimal.RequireFromString("80.00"),
			DifferenceAmount:    decimal.RequireFromString("20.00"),
		},
		ProviderName: "MPESA",
		FileName:     "mpesa.csv",
		CreatedAt:    day.Add(time.Hour),
	}
	items := []*domain.ReconciliationItem{{
		InternalTransactionID: &internalID,
		ExternalTransactionID: &externalID,
		ReferenceID:           "B",
		MatchType:             domain.MatchTypeReference,
		DiscrepancyType:       domain.DiscrepancyAmountDifference,
		InternalAmount:        decimal.RequireFromString("100.00"),
		ExternalAmount:        decimal.RequireFromString("80.00"),
		AmountDifference:      decimal.RequireFromString("20.00"),
		Notes:                 "Reference match but amount differs by 20.00",
	}}
	return rep, items
}

func TestReconciliationRepository_SaveReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReconciliationRepository(db)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		rep, items := sampleReport(day)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO reconciliation_reports").
			WithArgs(day, 1, 1, 0, 0, 0, 1, rep.TotalInternalAmount, rep.TotalExternalAmount,
				rep.DifferenceAmount, "IN_PROGRESS", "MPESA", "mpesa.csv", rep.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		prep := mock.ExpectPrepare("INSERT INTO reconciliation_items")
		prep.ExpectQuery().
			WithArgs(int64(5), int64(1), int64(10), "B", "REFERENCE_MATCH", "AMOUNT_DIFFERENCE",
				items[0].InternalAmount, items[0].ExternalAmount, items[0].AmountDifference, "MEDIUM",
				items[0].Notes, rep.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(50))
		mock.ExpectExec("UPDATE reconciliation_reports SET status").
			WithArgs("COMPLETED", sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.SaveReport(ctx, rep, items))
		assert.Equal(t, int64(5), rep.ID)
		assert.Equal(t, domain.ReportStatusCompleted, rep.Status)
		require.NotNil(t, rep.CompletedAt)
		assert.Equal(t, int64(50), items[0].ID)
		assert.Equal(t, int64(5), items[0].ReportID)
	})

	t.Run("ItemFailureLeavesNothingCompleted", func(t *testing.T) {
		rep, items := sampleReport(day)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO reconciliation_reports").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
		prep := mock.ExpectPrepare("INSERT INTO reconciliation_items")
		prep.ExpectQuery().WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := repo.SaveReport(ctx, rep, items)
		assert.EqualError(t, err, "disk full")
		assert.Zero(t, rep.ID)
		assert.Empty(t, rep.Status)
		assert.Nil(t, rep.CompletedAt)
	})

	t.Run("ConcurrentWinner", func(t *testing.T) {
		rep, items := sampleReport(day)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO reconciliation_reports").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.SaveReport(ctx, rep, items)
		assert.ErrorIs(t, err, domain.ErrDuplicateResource)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciliationRepository_GetByDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReconciliationRepository(db)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		completed := day.Add(2 * time.Hour)
		mock.ExpectQuery("SELECT (.+) FROM reconciliation_reports WHERE reconciliation_date = \\$1").
			WithArgs(day).
			WillReturnRows(sqlmock.NewRows(reportCols).
				AddRow(5, day, 20, 19, 19, 1, 0, 0, "1000.00", "950.00", "50.00", "COMPLETED", "MPESA", "mpesa.csv", day, completed))

		rep, err := repo.GetByDate(ctx, day.Add(15*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.ReportStatusCompleted, rep.Status)
		assert.Equal(t, 95.0, rep.MatchPercentage())
		assert.Equal(t, domain.MatchStatusGood, rep.MatchStatus())
		assert.True(t, rep.DifferenceAmount.Equal(decimal.RequireFromString("50.00")))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM reconciliation_reports WHERE reconciliation_date = \\$1").
			WithArgs(day).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByDate(ctx, day)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciliationRepository_ListItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReconciliationRepository(db)
	now := time.Now().UTC()
	cols := []string{"id", "report_id", "internal_transaction_id", "external_transaction_id", "reference_id",
		"match_type", "discrepancy_type", "internal_amount", "external_amount", "amount_difference", "notes", "created_at"}

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_items\\s+WHERE report_id = \\$1 AND discrepancy_type = ANY\\(\\$2\\)").
		WithArgs(int64(5), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(51, 5, nil, 12, "D", "NO_MATCH", "MISSING_INTERNAL", "0", "30.00", "0", "External transaction with no internal match", now))

	items, err := repo.ListItems(context.Background(), 5, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].InternalTransactionID)
	assert.Equal(t, int64(12), *items[0].ExternalTransactionID)
	assert.Equal(t, domain.SeverityHigh, items[0].Severity())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciliationRepository_LatestDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReconciliationRepository(db)

	mock.ExpectQuery("SELECT MAX\\(reconciliation_date\\) FROM reconciliation_reports").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	latest, err := repo.LatestDate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.NoError(t, mock.ExpectationsWereMet())
}
