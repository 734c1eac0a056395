package service_test

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/storage"
)

// MockCustomerRepo
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

// MockWalletRepo returns a fresh copy of the wallet on every GetByID so the
// service can mutate it freely.
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
func (m *MockWalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	w := *args.Get(0).(*domain.Wallet)
	return &w, args.Error(1)
}
func (m *MockWalletRepo) List(ctx context.Context) ([]*domain.Wallet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}
func (m *MockWalletRepo) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) ExistsByReference(ctx context.Context, referenceID string) (bool, error) {
	args := m.Called(ctx, referenceID)
	return args.Bool(0), args.Error(1)
}
func (m *MockTransactionRepo) CreatePending(ctx context.Context, rec *domain.TransactionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockTransactionRepo) CommitMutation(ctx context.Context, w *domain.Wallet, expectedVersion int64, rec *domain.TransactionRecord) error {
	args := m.Called(ctx, w, expectedVersion, rec)
	return args.Error(0)
}
func (m *MockTransactionRepo) MarkFailed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}
func (m *MockTransactionRepo) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, int, error) {
	args := m.Called(ctx, walletID, limit, offset)
	return args.Get(0).([]*domain.TransactionRecord), args.Int(1), args.Error(2)
}
func (m *MockTransactionRepo) ListByWalletBetween(ctx context.Context, walletID int64, from, to time.Time) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, walletID, from, to)
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}
func (m *MockTransactionRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}

// MockExternalRepo
type MockExternalRepo struct {
	mock.Mock
}

func (m *MockExternalRepo) CreateBatch(ctx context.Context, txs []*domain.ExternalTransaction) error {
	args := m.Called(ctx, txs)
	return args.Error(0)
}
func (m *MockExternalRepo) ListByDate(ctx context.Context, date time.Time) ([]*domain.ExternalTransaction, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ExternalTransaction), args.Error(1)
}

// MockReportRepo
type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) GetByDate(ctx context.Context, date time.Time) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}
func (m *MockReportRepo) SaveReport(ctx context.Context, report *domain.ReconciliationReport, items []*domain.ReconciliationItem) error {
	args := m.Called(ctx, report, items)
	return args.Error(0)
}
func (m *MockReportRepo) RecordFailure(ctx context.Context, report *domain.ReconciliationReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}
func (m *MockReportRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockReportRepo) ListItems(ctx context.Context, reportID int64, discrepanciesOnly bool) ([]*domain.ReconciliationItem, error) {
	args := m.Called(ctx, reportID, discrepanciesOnly)
	return args.Get(0).([]*domain.ReconciliationItem), args.Error(1)
}
func (m *MockReportRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.ReconciliationReport, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]*domain.ReconciliationReport), args.Error(1)
}
func (m *MockReportRepo) LatestDate(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// MockExternalServices
type MockExternalServices struct {
	mock.Mock
}

func (m *MockExternalServices) ParseServiceType(name string) (domain.ServiceType, error) {
	args := m.Called(name)
	return args.Get(0).(domain.ServiceType), args.Error(1)
}
func (m *MockExternalServices) Cost(st domain.ServiceType) (decimal.Decimal, error) {
	args := m.Called(st)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockExternalServices) Catalogue() []domain.ServiceInfo {
	args := m.Called()
	return args.Get(0).([]domain.ServiceInfo)
}
func (m *MockExternalServices) Call(ctx context.Context, st domain.ServiceType, id domain.ServiceIdentity, referenceID string) (*domain.ServiceResult, error) {
	args := m.Called(ctx, st, id, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceResult), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(e *domain.TransactionEvent) bool {
	args := m.Called(e)
	return args.Bool(0)
}

// MockArchive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, fileName string, r io.Reader) (*storage.StoredFile, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.StoredFile), args.Error(1)
}
func (m *MockArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return io.NopCloser(bytes.NewReader(args.Get(0).([]byte))), args.Error(1)
}
func (m *MockArchive) Exists(ctx context.Context, key string) (bool, int64, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}
func (m *MockArchive) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// noopLocker never blocks.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
