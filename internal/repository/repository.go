package repository

import (
	"context"
	"time"

	"wallet-ledger-service/internal/domain"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	List(ctx context.Context) ([]*domain.Wallet, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error)
}

// TransactionRepository persists ledger records. CommitMutation is the only
// way a wallet balance changes.
type TransactionRepository interface {
	ExistsByReference(ctx context.Context, referenceID string) (bool, error)
	CreatePending(ctx context.Context, rec *domain.TransactionRecord) error
	// CommitMutation writes the wallet's new balance if its stored version
	// still equals expectedVersion and completes rec, atomically.
	CommitMutation(ctx context.Context, w *domain.Wallet, expectedVersion int64, rec *domain.TransactionRecord) error
	MarkFailed(ctx context.Context, id int64) error
	GetByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error)
	ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, int, error)
	ListByWalletBetween(ctx context.Context, walletID int64, from, to time.Time) ([]*domain.TransactionRecord, error)
	// ListCreatedBetween returns records of every wallet created in [from, to).
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.TransactionRecord, error)
}

type ExternalTransactionRepository interface {
	CreateBatch(ctx context.Context, txs []*domain.ExternalTransaction) error
	ListByDate(ctx context.Context, date time.Time) ([]*domain.ExternalTransaction, error)
}

type ReconciliationRepository interface {
	GetByDate(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error)
	// SaveReport stores the report IN_PROGRESS, then its items, then marks
	// it COMPLETED. Nothing is visible unless every step succeeds.
	SaveReport(ctx context.Context, report *domain.ReconciliationReport, items []*domain.ReconciliationItem) error
	RecordFailure(ctx context.Context, report *domain.ReconciliationReport) error
	Delete(ctx context.Context, id int64) error
	ListItems(ctx context.Context, reportID int64, discrepanciesOnly bool) ([]*domain.ReconciliationItem, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationReport, error)
	LatestDate(ctx context.Context) (*time.Time, error)
}

type EventRepository interface {
	Save(ctx context.Context, e *domain.TransactionEvent) error
}
