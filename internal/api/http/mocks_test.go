package http

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/service"
)

// MockCustomerService
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, name, email, phone, nationalID string) (*domain.Customer, error) {
	args := m.Called(ctx, name, email, phone, nationalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
func (m *MockCustomerService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

// MockWalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) CreateWallet(ctx context.Context, customerID int64, walletType, currency string) (*domain.Wallet, error) {
	args := m.Called(ctx, customerID, walletType, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletService) GetWallet(ctx context.Context, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletService) GetBalance(ctx context.Context, id int64) (*domain.Balance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockWalletService) ListWallets(ctx context.Context) ([]*domain.Wallet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}
func (m *MockWalletService) ListWalletsByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

// MockLedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Apply(ctx context.Context, req service.ApplyRequest) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}
func (m *MockLedgerService) TopUp(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, description, source string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, walletID, amount.String(), referenceID, description, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}
func (m *MockLedgerService) Consume(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, serviceType, description string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, walletID, amount.String(), referenceID, serviceType, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}
func (m *MockLedgerService) ConsumeService(ctx context.Context, walletID int64, serviceType, referenceID string, identity domain.ServiceIdentity) (*service.ServiceConsumption, error) {
	args := m.Called(ctx, walletID, serviceType, referenceID, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ServiceConsumption), args.Error(1)
}
func (m *MockLedgerService) GetTransactionHistory(ctx context.Context, walletID int64, q service.HistoryQuery) (*service.TransactionPage, error) {
	args := m.Called(ctx, walletID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransactionPage), args.Error(1)
}
func (m *MockLedgerService) GetTransactionByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}
func (m *MockLedgerService) ListServices(ctx context.Context) []domain.ServiceInfo {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ServiceInfo)
}

// MockReconciliationService
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}
func (m *MockReconciliationService) GetReport(ctx context.Context, date time.Time, includeDetails bool) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, date, includeDetails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}
func (m *MockReconciliationService) History(ctx context.Context, days int) ([]*domain.ReconciliationReport, error) {
	args := m.Called(ctx, days)
	return args.Get(0).([]*domain.ReconciliationReport), args.Error(1)
}
func (m *MockReconciliationService) Status(ctx context.Context) (*domain.ReconciliationStatusSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationStatusSummary), args.Error(1)
}

// MockIngestionService
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, fileName, providerName string, reportDate time.Time, r io.Reader) (*service.IngestResult, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, fileName, providerName, reportDate, string(data))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

// MockExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportReport(ctx context.Context, date time.Time, w io.Writer) error {
	args := m.Called(ctx, date)
	if args.Error(0) == nil {
		_, _ = io.WriteString(w, args.String(1))
	}
	return args.Error(0)
}
func (m *MockExportService) ExportSummary(ctx context.Context, from, to time.Time, w io.Writer) error {
	args := m.Called(ctx, from, to)
	if args.Error(0) == nil {
		_, _ = io.WriteString(w, args.String(1))
	}
	return args.Error(0)
}
func (m *MockExportService) GenerateSampleFeed(ctx context.Context, date time.Time, count int, w io.Writer) error {
	args := m.Called(ctx, date, count)
	if args.Error(0) == nil {
		_, _ = io.WriteString(w, args.String(1))
	}
	return args.Error(0)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}
