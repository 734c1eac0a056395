package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"wallet-ledger-service/internal/config"
	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/repository"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.CustomerRepository
	repository.WalletRepository
	repository.TransactionRepository
	repository.ExternalTransactionRepository
	repository.ReconciliationRepository
	repository.EventRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                            db,
		CustomerRepository:            NewCustomerRepository(db),
		WalletRepository:              NewWalletRepository(db),
		TransactionRepository:         NewTransactionRepository(db),
		ExternalTransactionRepository: NewExternalTransactionRepository(db),
		ReconciliationRepository:      NewReconciliationRepository(db),
		EventRepository:               NewEventRepository(db),
	}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound turns sql.ErrNoRows into a domain NotFound error.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf(format, args...)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}
