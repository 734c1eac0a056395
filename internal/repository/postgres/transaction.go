package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

const transactionColumns = `id, wallet_id, transaction_type, amount, reference_id, COALESCE(description, ''), status,
	balance_before, balance_after, COALESCE(service_type, ''), created_at, processed_at`

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ExistsByReference(ctx context.Context, referenceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wallet_transactions WHERE reference_id = $1)`, referenceID,
	).Scan(&exists)
	return exists, err
}

func (r *transactionRepository) CreatePending(ctx context.Context, rec *domain.TransactionRecord) error {
	query := `INSERT INTO wallet_transactions
	          (wallet_id, transaction_type, amount, reference_id, description, status, balance_before, balance_after, service_type, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall("INSERT", "wallet_transactions", "walletID", rec.WalletID, "referenceID", rec.ReferenceID)

	err := r.db.QueryRowContext(ctx, query,
		rec.WalletID, rec.Type, rec.Amount, rec.ReferenceID, rec.Description, rec.Status,
		rec.BalanceBefore, rec.BalanceAfter, nullString(rec.ServiceType), rec.CreatedAt,
	).Scan(&rec.ID)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", rec.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, rec.ReferenceID)
	}
	return err
}

func (r *transactionRepository) CommitMutation(ctx context.Context, w *domain.Wallet, expectedVersion int64, rec *domain.TransactionRecord) error {
	logger.EnterMethod("transactionRepository.CommitMutation", "walletID", w.ID, "expectedVersion", expectedVersion, "transactionID", rec.ID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.CommitMutation", err, "step", "begin")
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`,
		w.Balance, w.UpdatedAt, w.ID, expectedVersion)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.CommitMutation", err, "step", "update wallet")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.ExitMethod("transactionRepository.CommitMutation", "walletID", w.ID, "conflict", true)
		return fmt.Errorf("%w: wallet %d is no longer at version %d", domain.ErrConflict, w.ID, expectedVersion)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE wallet_transactions SET status = $1, balance_before = $2, balance_after = $3, processed_at = $4
		 WHERE id = $5 AND status = $6`,
		rec.Status, rec.BalanceBefore, rec.BalanceAfter, rec.ProcessedAt, rec.ID, domain.TransactionStatusPending)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.CommitMutation", err, "step", "complete transaction")
		return err
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err := fmt.Errorf("%w: transaction %d is not pending", domain.ErrInternal, rec.ID)
		logger.ExitMethodWithError("transactionRepository.CommitMutation", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("transactionRepository.CommitMutation", err, "step", "commit")
		return err
	}
	w.Version = expectedVersion + 1
	logger.ExitMethod("transactionRepository.CommitMutation", "walletID", w.ID, "version", w.Version)
	return nil
}

func (r *transactionRepository) MarkFailed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE wallet_transactions SET status = $1, processed_at = $2 WHERE id = $3 AND status = $4`,
		domain.TransactionStatusFailed, time.Now().UTC(), id, domain.TransactionStatusPending)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "transactionID", id, "status", domain.TransactionStatusFailed)
	return err
}

func (r *transactionRepository) GetByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE reference_id = $1`
	rec, err := scanTransaction(r.db.QueryRowContext(ctx, query, referenceID))
	if err != nil {
		return nil, notFound(err, "transaction with reference %s", referenceID)
	}
	return rec, nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	recs, err := r.list(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *transactionRepository) ListByWalletBetween(ctx context.Context, walletID int64, from, to time.Time) ([]*domain.TransactionRecord, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE wallet_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at DESC, id DESC`, walletID, from, to)
}

func (r *transactionRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.TransactionRecord, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE created_at >= $1 AND created_at < $2 ORDER BY id`, from, to)
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*domain.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var processedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.WalletID, &rec.Type, &rec.Amount, &rec.ReferenceID, &rec.Description, &rec.Status,
		&rec.BalanceBefore, &rec.BalanceAfter, &rec.ServiceType, &rec.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t := processedAt.Time
		rec.ProcessedAt = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
