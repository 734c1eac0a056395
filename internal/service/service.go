package service

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, name, email, phone, nationalID string) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
}

type WalletService interface {
	CreateWallet(ctx context.Context, customerID int64, walletType, currency string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id int64) (*domain.Wallet, error)
	GetBalance(ctx context.Context, id int64) (*domain.Balance, error)
	ListWallets(ctx context.Context) ([]*domain.Wallet, error)
	ListWalletsByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error)
}

// ApplyRequest is one balance-changing operation against one wallet.
type ApplyRequest struct {
	WalletID    int64
	Type        domain.TransactionType
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	ServiceType string
}

// HistoryQuery selects a page of a wallet's transactions. When both From
// and To are set the whole inclusive date range is returned unpaged.
type HistoryQuery struct {
	Page int
	Size int
	From *time.Time
	To   *time.Time
}

type TransactionPage struct {
	Items []*domain.TransactionRecord `json:"items"`
	Page  int                         `json:"page"`
	Size  int                         `json:"size"`
	Total int                         `json:"total"`
}

// ServiceConsumption is the outcome of a paid lookup: the committed debit
// and whatever the provider answered.
type ServiceConsumption struct {
	Transaction *domain.TransactionRecord `json:"transaction"`
	Result      *domain.ServiceResult     `json:"result"`
}

type LedgerService interface {
	Apply(ctx context.Context, req ApplyRequest) (*domain.TransactionRecord, error)
	TopUp(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, description, source string) (*domain.TransactionRecord, error)
	Consume(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, serviceType, description string) (*domain.TransactionRecord, error)
	ConsumeService(ctx context.Context, walletID int64, serviceType, referenceID string, identity domain.ServiceIdentity) (*ServiceConsumption, error)
	GetTransactionHistory(ctx context.Context, walletID int64, q HistoryQuery) (*TransactionPage, error)
	GetTransactionByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error)
	ListServices(ctx context.Context) []domain.ServiceInfo
}

type ReconciliationService interface {
	Reconcile(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error)
	GetReport(ctx context.Context, date time.Time, includeDetails bool) (*domain.ReconciliationReport, error)
	History(ctx context.Context, days int) ([]*domain.ReconciliationReport, error)
	Status(ctx context.Context) (*domain.ReconciliationStatusSummary, error)
}

// IngestResult summarises one uploaded provider file.
type IngestResult struct {
	FileName     string    `json:"file_name"`
	ArchiveKey   string    `json:"archive_key"`
	Checksum     string    `json:"sha256"`
	ProviderName string    `json:"provider_name"`
	ReportDate   time.Time `json:"report_date"`
	Stored       int       `json:"stored"`
	Skipped      int       `json:"skipped"`
}

type IngestionService interface {
	Ingest(ctx context.Context, fileName, providerName string, reportDate time.Time, r io.Reader) (*IngestResult, error)
}

type ExportService interface {
	ExportReport(ctx context.Context, date time.Time, w io.Writer) error
	ExportSummary(ctx context.Context, from, to time.Time, w io.Writer) error
	GenerateSampleFeed(ctx context.Context, date time.Time, count int, w io.Writer) error
}

// ExternalServices is the catalogue and caller for paid lookups.
type ExternalServices interface {
	ParseServiceType(name string) (domain.ServiceType, error)
	Cost(st domain.ServiceType) (decimal.Decimal, error)
	Catalogue() []domain.ServiceInfo
	Call(ctx context.Context, st domain.ServiceType, id domain.ServiceIdentity, referenceID string) (*domain.ServiceResult, error)
}

// EventPublisher accepts completion events without blocking.
type EventPublisher interface {
	Publish(e *domain.TransactionEvent) bool
}
