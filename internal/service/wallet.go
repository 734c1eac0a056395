package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

type walletService struct {
	walletRepo      repository.WalletRepository
	customerRepo    repository.CustomerRepository
	defaultCurrency string
}

func NewWalletService(walletRepo repository.WalletRepository, customerRepo repository.CustomerRepository, defaultCurrency string) WalletService {
	return &walletService{
		walletRepo:      walletRepo,
		customerRepo:    customerRepo,
		defaultCurrency: defaultCurrency,
	}
}

// CreateWallet opens an empty ACTIVE wallet for an existing customer.
func (s *walletService) CreateWallet(ctx context.Context, customerID int64, walletType, currency string) (*domain.Wallet, error) {
	logger.EnterMethod("walletService.CreateWallet", "customerID", customerID, "walletType", walletType)

	wt, err := domain.ParseWalletType(walletType)
	if err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		logger.ExitMethodWithError("walletService.CreateWallet", err)
		return nil, internal(err)
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	now := time.Now().UTC()
	w := &domain.Wallet{
		CustomerID: customerID,
		Balance:    decimal.Zero,
		Currency:   currency,
		Status:     domain.WalletStatusActive,
		Type:       wt,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		logger.ExitMethodWithError("walletService.CreateWallet", err)
		return nil, internal(err)
	}

	logger.ExitMethod("walletService.CreateWallet", "walletID", w.ID)
	return w, nil
}

func (s *walletService) GetWallet(ctx context.Context, id int64) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	return w, nil
}

func (s *walletService) GetBalance(ctx context.Context, id int64) (*domain.Balance, error) {
	w, err := s.GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Balance{WalletID: w.ID, Balance: w.Balance, Currency: w.Currency, Status: w.Status}, nil
}

func (s *walletService) ListWallets(ctx context.Context) ([]*domain.Wallet, error) {
	ws, err := s.walletRepo.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return ws, nil
}

func (s *walletService) ListWalletsByCustomer(ctx context.Context, customerID int64) ([]*domain.Wallet, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, internal(err)
	}
	ws, err := s.walletRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, internal(err)
	}
	return ws, nil
}
