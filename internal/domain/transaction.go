package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit      TransactionType = "CREDIT"
	TransactionTypeDebit       TransactionType = "DEBIT"
	TransactionTypeTopUp       TransactionType = "TOPUP"
	TransactionTypeConsumption TransactionType = "CONSUMPTION"
	TransactionTypeReversal    TransactionType = "REVERSAL"
	TransactionTypeAdjustment  TransactionType = "ADJUSTMENT"
)

// IsCredit reports whether the type adds to the balance. ADJUSTMENT amounts
// are always positive, so adjustments are credits.
func (t TransactionType) IsCredit() (bool, error) {
	switch t {
	case TransactionTypeCredit, TransactionTypeTopUp, TransactionTypeReversal, TransactionTypeAdjustment:
		return true, nil
	case TransactionTypeDebit, TransactionTypeConsumption:
		return false, nil
	default:
		return false, InvalidArgumentf("unknown transaction type %q", string(t))
	}
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// TransactionRecord is the append-only audit record of one balance mutation.
// It is created PENDING and transitions exactly once to COMPLETED or FAILED.
type TransactionRecord struct {
	ID            int64             `json:"id"`
	WalletID      int64             `json:"wallet_id"`
	Type          TransactionType   `json:"transaction_type"`
	Amount        decimal.Decimal   `json:"amount"`
	ReferenceID   string            `json:"reference_id"`
	Description   string            `json:"description"`
	Status        TransactionStatus `json:"status"`
	BalanceBefore decimal.Decimal   `json:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	ServiceType   string            `json:"service_type,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// ExpectedBalanceAfter derives balanceAfter from balanceBefore and the amount.
func (r *TransactionRecord) ExpectedBalanceAfter() (decimal.Decimal, error) {
	credit, err := r.Type.IsCredit()
	if err != nil {
		return decimal.Zero, err
	}
	if credit {
		return r.BalanceBefore.Add(r.Amount), nil
	}
	return r.BalanceBefore.Sub(r.Amount), nil
}

// Complete stamps the final balances and moves a PENDING record to COMPLETED.
func (r *TransactionRecord) Complete(before, after decimal.Decimal, at time.Time) error {
	if r.Status != TransactionStatusPending {
		return fmt.Errorf("%w: transaction %s is %s, not PENDING", ErrConflict, r.ReferenceID, r.Status)
	}
	r.BalanceBefore = before
	r.BalanceAfter = after
	expected, err := r.ExpectedBalanceAfter()
	if err != nil {
		return err
	}
	if !expected.Equal(after) {
		return fmt.Errorf("%w: balance chain mismatch for %s: %s -> %s with amount %s",
			ErrInternal, r.ReferenceID, before.String(), after.String(), r.Amount.String())
	}
	r.Status = TransactionStatusCompleted
	r.ProcessedAt = &at
	return nil
}

// TransactionEvent is the logical schema of the completion notification.
type TransactionEvent struct {
	TransactionID   int64           `json:"transactionId"`
	WalletID        int64           `json:"walletId"`
	CustomerID      int64           `json:"customerId"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceID     string          `json:"referenceId"`
	ServiceType     string          `json:"serviceType,omitempty"`
	Status          string          `json:"status"`
	BalanceBefore   decimal.Decimal `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	Timestamp       time.Time       `json:"timestamp"`
	Description     string          `json:"description"`
	MessageID       string          `json:"messageId"`
	RetryCount      int             `json:"retryCount"`
	CreatedAt       time.Time       `json:"createdAt"`
}
