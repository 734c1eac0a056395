package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/notification"
	"wallet-ledger-service/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	amountScale     = 2
)

// minAmount is the smallest currency unit a ledger entry may carry.
var minAmount = decimal.New(1, -amountScale)

type ledgerService struct {
	walletRepo   repository.WalletRepository
	txRepo       repository.TransactionRepository
	customerRepo repository.CustomerRepository
	services     ExternalServices
	publisher    EventPublisher
	maxRetries   int
	now          func() time.Time
}

// NewLedgerService wires the ledger. publisher may be nil, in which case no
// completion events are emitted.
func NewLedgerService(
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
	services ExternalServices,
	publisher EventPublisher,
	maxRetries int,
) LedgerService {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &ledgerService{
		walletRepo:   walletRepo,
		txRepo:       txRepo,
		customerRepo: customerRepo,
		services:     services,
		publisher:    publisher,
		maxRetries:   maxRetries,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *ledgerService) Apply(ctx context.Context, req ApplyRequest) (*domain.TransactionRecord, error) {
	logger.EnterMethod("ledgerService.Apply", "walletID", req.WalletID, "type", req.Type, "referenceID", req.ReferenceID)

	if err := validateAmount(req.Amount); err != nil {
		logger.ExitMethodWithError("ledgerService.Apply", err)
		return nil, err
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		err := domain.InvalidArgumentf("reference id is required")
		logger.ExitMethodWithError("ledgerService.Apply", err)
		return nil, err
	}
	if _, err := req.Type.IsCredit(); err != nil {
		logger.ExitMethodWithError("ledgerService.Apply", err)
		return nil, err
	}

	exists, err := s.txRepo.ExistsByReference(ctx, req.ReferenceID)
	if err != nil {
		logger.ExitMethodWithError("ledgerService.Apply", err)
		return nil, internal(err)
	}
	if exists {
		err := fmt.Errorf("%w: %s", domain.ErrDuplicateTransaction, req.ReferenceID)
		logger.ExitMethodWithError("ledgerService.Apply", err)
		return nil, err
	}

	var rec *domain.TransactionRecord
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		wallet, err := s.walletRepo.GetByID(ctx, req.WalletID)
		if err != nil {
			return nil, s.fail(ctx, rec, err)
		}
		if !wallet.IsActive() {
			return nil, s.fail(ctx, rec, domain.InvalidArgumentf("wallet %d is %s", wallet.ID, wallet.Status))
		}

		before := wallet.Balance
		version := wallet.Version
		if err := wallet.Apply(req.Type, req.Amount); err != nil {
			return nil, s.fail(ctx, rec, err)
		}

		if rec == nil {
			rec = &domain.TransactionRecord{
				WalletID:      wallet.ID,
				Type:          req.Type,
				Amount:        req.Amount,
				ReferenceID:   req.ReferenceID,
				Description:   req.Description,
				Status:        domain.TransactionStatusPending,
				BalanceBefore: before,
				BalanceAfter:  before,
				ServiceType:   req.ServiceType,
				CreatedAt:     s.now(),
			}
			if err := s.txRepo.CreatePending(ctx, rec); err != nil {
				logger.ExitMethodWithError("ledgerService.Apply", err)
				if errors.Is(err, domain.ErrDuplicateTransaction) {
					return nil, err
				}
				return nil, internal(err)
			}
		}

		pending := *rec
		if err := pending.Complete(before, wallet.Balance, s.now()); err != nil {
			return nil, s.fail(ctx, rec, err)
		}

		wallet.UpdatedAt = *pending.ProcessedAt
		err = s.txRepo.CommitMutation(ctx, wallet, version, &pending)
		if errors.Is(err, domain.ErrConflict) {
			logger.Warn("Wallet version conflict, retrying",
				"walletID", wallet.ID, "referenceID", req.ReferenceID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, s.fail(ctx, rec, err)
		}

		*rec = pending
		if s.publisher != nil {
			s.publisher.Publish(notification.NewEvent(rec, wallet.CustomerID, s.now()))
		}
		logger.ExitMethod("ledgerService.Apply", "transactionID", rec.ID, "balanceAfter", rec.BalanceAfter)
		return rec, nil
	}

	return nil, s.fail(ctx, rec, fmt.Errorf("%w: wallet %d still contended after %d attempts",
		domain.ErrConflict, req.WalletID, s.maxRetries))
}

// validateAmount accepts positive amounts of at least one cent with no more
// than two decimal places, matching the NUMERIC(19,2) columns.
func validateAmount(amount decimal.Decimal) error {
	if amount.LessThan(minAmount) {
		return domain.InvalidArgumentf("amount must be at least %s, got %s", minAmount.StringFixed(amountScale), amount.String())
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return domain.InvalidArgumentf("amount must have at most %d decimal places, got %s", amountScale, amount.String())
	}
	return nil
}

// fail marks the pending record FAILED, if one was written, and returns
// cause in the error taxonomy. Marking runs even when ctx is cancelled.
func (s *ledgerService) fail(ctx context.Context, rec *domain.TransactionRecord, cause error) error {
	if rec != nil && rec.ID != 0 {
		if err := s.txRepo.MarkFailed(context.WithoutCancel(ctx), rec.ID); err != nil {
			logger.Error("Failed to mark transaction failed",
				"transactionID", rec.ID, "referenceID", rec.ReferenceID, "error", err)
		} else {
			rec.Status = domain.TransactionStatusFailed
		}
	}
	logger.ExitMethodWithError("ledgerService.Apply", cause)
	return internal(cause)
}

// internal passes taxonomy errors through and wraps everything else as
// INTERNAL so storage details never leak as a different kind.
func internal(err error) error {
	if domain.CodeOf(err) != domain.CodeInternal || errors.Is(err, domain.ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

func (s *ledgerService) TopUp(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, description, source string) (*domain.TransactionRecord, error) {
	if description == "" {
		description = "Wallet top-up"
	}
	return s.Apply(ctx, ApplyRequest{
		WalletID:    walletID,
		Type:        domain.TransactionTypeTopUp,
		Amount:      amount,
		ReferenceID: referenceID,
		Description: description,
		ServiceType: source,
	})
}

func (s *ledgerService) Consume(ctx context.Context, walletID int64, amount decimal.Decimal, referenceID, serviceType, description string) (*domain.TransactionRecord, error) {
	if description == "" {
		description = "Service consumption: " + serviceType
	}
	return s.Apply(ctx, ApplyRequest{
		WalletID:    walletID,
		Type:        domain.TransactionTypeConsumption,
		Amount:      amount,
		ReferenceID: referenceID,
		Description: description,
		ServiceType: serviceType,
	})
}

// ConsumeService debits the catalogue price of a lookup and then performs
// it. The debit is committed before the call, so a failed call still costs
// the wallet; the caller sees the failure in Result.
func (s *ledgerService) ConsumeService(ctx context.Context, walletID int64, serviceType, referenceID string, identity domain.ServiceIdentity) (*ServiceConsumption, error) {
	logger.EnterMethod("ledgerService.ConsumeService", "walletID", walletID, "serviceType", serviceType)

	st, err := s.services.ParseServiceType(serviceType)
	if err != nil {
		logger.ExitMethodWithError("ledgerService.ConsumeService", err)
		return nil, err
	}
	cost, err := s.services.Cost(st)
	if err != nil {
		logger.ExitMethodWithError("ledgerService.ConsumeService", err)
		return nil, err
	}

	rec, err := s.Consume(ctx, walletID, cost, referenceID, string(st), "")
	if err != nil {
		logger.ExitMethodWithError("ledgerService.ConsumeService", err)
		return nil, err
	}

	identity = s.completeIdentity(ctx, walletID, identity)

	result, err := s.services.Call(ctx, st, identity, referenceID)
	if err != nil {
		logger.Warn("External service call did not complete",
			"serviceType", st, "referenceID", referenceID, "error", err)
		result = &domain.ServiceResult{
			ServiceType: st,
			Status:      domain.ServiceCallFailed,
			Message:     err.Error(),
			Cost:        cost,
		}
	}
	if !result.Cost.Equal(rec.Amount) {
		logger.Error("Service cost differs from debited amount",
			"serviceType", st, "referenceID", referenceID,
			"cost", result.Cost.String(), "debited", rec.Amount.String())
	}

	logger.ExitMethod("ledgerService.ConsumeService", "transactionID", rec.ID, "status", result.Status)
	return &ServiceConsumption{Transaction: rec, Result: result}, nil
}

// completeIdentity fills blank identity fields from the wallet's customer.
// Lookups here are best effort.
func (s *ledgerService) completeIdentity(ctx context.Context, walletID int64, id domain.ServiceIdentity) domain.ServiceIdentity {
	if s.customerRepo == nil || (id.NationalID != "" && id.PhoneNumber != "") {
		return id
	}
	if id.CustomerID == 0 {
		w, err := s.walletRepo.GetByID(ctx, walletID)
		if err != nil {
			return id
		}
		id.CustomerID = w.CustomerID
	}
	c, err := s.customerRepo.GetByID(ctx, id.CustomerID)
	if err != nil {
		logger.Debug("Customer lookup for service identity failed", "customerID", id.CustomerID, "error", err)
		return id
	}
	if id.NationalID == "" {
		id.NationalID = c.NationalID
	}
	if id.PhoneNumber == "" {
		id.PhoneNumber = c.Phone
	}
	return id
}

func (s *ledgerService) GetTransactionHistory(ctx context.Context, walletID int64, q HistoryQuery) (*TransactionPage, error) {
	if _, err := s.walletRepo.GetByID(ctx, walletID); err != nil {
		return nil, internal(err)
	}

	if q.From != nil && q.To != nil {
		from := domain.DateOnly(*q.From)
		to := domain.DateOnly(*q.To).Add(24 * time.Hour)
		if !to.After(from) {
			return nil, domain.InvalidArgumentf("start date must not be after end date")
		}
		items, err := s.txRepo.ListByWalletBetween(ctx, walletID, from, to)
		if err != nil {
			return nil, internal(err)
		}
		return &TransactionPage{Items: items, Page: 0, Size: len(items), Total: len(items)}, nil
	}

	if q.Page < 0 {
		return nil, domain.InvalidArgumentf("page must not be negative")
	}
	size := q.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, total, err := s.txRepo.ListByWallet(ctx, walletID, size, q.Page*size)
	if err != nil {
		return nil, internal(err)
	}
	return &TransactionPage{Items: items, Page: q.Page, Size: size, Total: total}, nil
}

func (s *ledgerService) GetTransactionByReference(ctx context.Context, referenceID string) (*domain.TransactionRecord, error) {
	if strings.TrimSpace(referenceID) == "" {
		return nil, domain.InvalidArgumentf("reference id is required")
	}
	rec, err := s.txRepo.GetByReference(ctx, referenceID)
	if err != nil {
		return nil, internal(err)
	}
	return rec, nil
}

func (s *ledgerService) ListServices(ctx context.Context) []domain.ServiceInfo {
	return s.services.Catalogue()
}
