// Package notification delivers transaction completion events off the
// request path. Delivery is best effort: nothing here can fail a ledger
// operation that has already committed.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
)

// Sink receives events from the publisher's workers.
type Sink interface {
	Deliver(ctx context.Context, e *domain.TransactionEvent) error
}

type SinkFunc func(ctx context.Context, e *domain.TransactionEvent) error

func (f SinkFunc) Deliver(ctx context.Context, e *domain.TransactionEvent) error {
	return f(ctx, e)
}

// NewEvent builds the completion event for a committed record. Every call
// gets a fresh message id.
func NewEvent(rec *domain.TransactionRecord, customerID int64, now time.Time) *domain.TransactionEvent {
	ts := now
	if rec.ProcessedAt != nil {
		ts = *rec.ProcessedAt
	}
	return &domain.TransactionEvent{
		TransactionID:   rec.ID,
		WalletID:        rec.WalletID,
		CustomerID:      customerID,
		TransactionType: rec.Type,
		Amount:          rec.Amount,
		ReferenceID:     rec.ReferenceID,
		ServiceType:     rec.ServiceType,
		Status:          string(rec.Status),
		BalanceBefore:   rec.BalanceBefore,
		BalanceAfter:    rec.BalanceAfter,
		Timestamp:       ts,
		Description:     rec.Description,
		MessageID:       uuid.NewString(),
		RetryCount:      0,
		CreatedAt:       now,
	}
}

// Publisher fans events out to a fixed pool of workers through a bounded
// queue. A full queue drops the event; a failed delivery is logged and not
// retried.
type Publisher struct {
	sink    Sink
	events  chan *domain.TransactionEvent
	workers int
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPublisher(sink Sink, workers, queueSize int) *Publisher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Publisher{
		sink:    sink,
		events:  make(chan *domain.TransactionEvent, queueSize),
		workers: workers,
		timeout: 5 * time.Second,
		log:     logger.WithComponent("notification"),
	}
}

// Start launches the workers. They run until Stop drains the queue.
func (p *Publisher) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info("Event publisher started", "workers", p.workers, "queue_size", cap(p.events))
}

func (p *Publisher) worker(id int) {
	defer p.wg.Done()
	for e := range p.events {
		p.deliver(id, e)
	}
}

func (p *Publisher) deliver(workerID int, e *domain.TransactionEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Event sink panicked", "worker", workerID, "messageID", e.MessageID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.sink.Deliver(ctx, e); err != nil {
		p.log.Warn("Failed to publish transaction event",
			"worker", workerID, "messageID", e.MessageID, "referenceID", e.ReferenceID, "error", err)
		return
	}
	p.log.Debug("Transaction event published", "messageID", e.MessageID, "referenceID", e.ReferenceID)
}

// Publish enqueues e without blocking. It reports whether the event was
// accepted.
func (p *Publisher) Publish(e *domain.TransactionEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("Event publisher stopped, dropping event", "messageID", e.MessageID, "referenceID", e.ReferenceID)
		return false
	}
	select {
	case p.events <- e:
		return true
	default:
		p.log.Warn("Event queue full, dropping event", "messageID", e.MessageID, "referenceID", e.ReferenceID)
		return false
	}
}

// Stop closes the queue and waits for queued events to be delivered.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("Event publisher stopped")
}
