package postgres

import (
	"context"
	"database/sql"
	"time"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

type externalTransactionRepository struct {
	db *sql.DB
}

func NewExternalTransactionRepository(db *sql.DB) repository.ExternalTransactionRepository {
	return &externalTransactionRepository{db: db}
}

// CreateBatch inserts all rows in one transaction. Either every row is
// stored or none is.
func (r *externalTransactionRepository) CreateBatch(ctx context.Context, txs []*domain.ExternalTransaction) error {
	logger.EnterMethod("externalTransactionRepository.CreateBatch", "count", len(txs))
	if len(txs) == 0 {
		logger.ExitMethod("externalTransactionRepository.CreateBatch", "count", 0)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO external_transactions
		(external_transaction_id, transaction_date, amount, reference_id, transaction_type, customer_ref,
		 service_type, description, provider_name, file_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range txs {
		err := stmt.QueryRowContext(ctx,
			e.ExternalID, e.TransactionDate, e.Amount, e.ReferenceID, e.Type, nullString(e.CustomerRef),
			nullString(e.ServiceType), nullString(e.Description), e.ProviderName, e.FileName, e.Status, e.CreatedAt,
		).Scan(&e.ID)
		if err != nil {
			logger.ExitMethodWithError("externalTransactionRepository.CreateBatch", err, "externalID", e.ExternalID)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("externalTransactionRepository.CreateBatch", err, "step", "commit")
		return err
	}
	logger.ExitMethod("externalTransactionRepository.CreateBatch", "count", len(txs))
	return nil
}

func (r *externalTransactionRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.ExternalTransaction, error) {
	query := `SELECT id, external_transaction_id, transaction_date, amount, COALESCE(reference_id, ''), COALESCE(transaction_type, ''),
	          COALESCE(customer_ref, ''), COALESCE(service_type, ''), COALESCE(description, ''),
	          COALESCE(provider_name, ''), COALESCE(file_name, ''), status, created_at
	          FROM external_transactions WHERE transaction_date = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, domain.DateOnly(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.ExternalTransaction
	for rows.Next() {
		var e domain.ExternalTransaction
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.TransactionDate, &e.Amount, &e.ReferenceID, &e.Type,
			&e.CustomerRef, &e.ServiceType, &e.Description, &e.ProviderName, &e.FileName, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, &e)
	}
	return txs, rows.Err()
}
