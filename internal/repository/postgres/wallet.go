package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

const walletColumns = `id, customer_id, balance, currency, status, wallet_type, version, created_at, updated_at`

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (customer_id, balance, currency, status, wallet_type, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "wallets", "customerID", w.CustomerID, "type", w.Type)

	err := r.db.QueryRowContext(ctx, query,
		w.CustomerID, w.Balance, w.Currency, w.Status, w.Type, w.Version, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID)
	logger.DatabaseResult("INSERT", 1, err, "walletID", w.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: customer %d already has a %s wallet", domain.ErrDuplicateResource, w.CustomerID, w.Type)
	}
	return err
}

func (r *walletRepository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	w, err := scanWallet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "wallet %d", id)
	}
	return w, nil
}

func (r *walletRepository) List(ctx context.Context) ([]*domain.Wallet, error) {
	return r.list(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY id`)
}

func (r *walletRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error) {
	return r.list(ctx, `SELECT `+walletColumns+` FROM wallets WHERE customer_id = $1 ORDER BY id`, customerID)
}

func (r *walletRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.CustomerID, &w.Balance, &w.Currency, &w.Status, &w.Type, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
