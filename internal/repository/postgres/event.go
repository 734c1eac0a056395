package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

// Save appends the event to the outbox table as JSON.
func (r *eventRepository) Save(ctx context.Context, e *domain.TransactionEvent) error {
	logger.EnterMethod("eventRepository.Save", "messageID", e.MessageID, "transactionID", e.TransactionID)

	payload, err := json.Marshal(e)
	if err != nil {
		logger.ExitMethodWithError("eventRepository.Save", err, "reason", "failed to marshal event")
		return err
	}

	query := `INSERT INTO transaction_events (message_id, transaction_id, wallet_id, event_type, payload, retry_count, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.DatabaseCall("INSERT", "transaction_events", "messageID", e.MessageID)

	_, err = r.db.ExecContext(ctx, query, e.MessageID, e.TransactionID, e.WalletID, e.TransactionType, payload, e.RetryCount, e.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "messageID", e.MessageID)
	if err != nil {
		logger.ExitMethodWithError("eventRepository.Save", err, "messageID", e.MessageID)
		return err
	}
	logger.ExitMethod("eventRepository.Save", "messageID", e.MessageID)
	return nil
}
