package notification

import (
	"context"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

// RepositorySink appends events to the event store.
type RepositorySink struct {
	repo repository.EventRepository
}

func NewRepositorySink(repo repository.EventRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Deliver(ctx context.Context, e *domain.TransactionEvent) error {
	return s.repo.Save(ctx, e)
}

// LogSink writes events to the process log.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, e *domain.TransactionEvent) error {
	logger.Info("Transaction event",
		"messageID", e.MessageID,
		"transactionID", e.TransactionID,
		"walletID", e.WalletID,
		"type", e.TransactionType,
		"amount", e.Amount.StringFixed(2),
		"referenceID", e.ReferenceID,
		"balanceAfter", e.BalanceAfter.StringFixed(2),
	)
	return nil
}
