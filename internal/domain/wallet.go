package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusInactive  WalletStatus = "INACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

type WalletType string

const (
	WalletTypeCredits WalletType = "CREDITS"
	WalletTypeCash    WalletType = "CASH"
	WalletTypePoints  WalletType = "POINTS"
)

// ParseWalletType accepts a wallet type in any letter case.
func ParseWalletType(s string) (WalletType, error) {
	switch t := WalletType(strings.ToUpper(strings.TrimSpace(s))); t {
	case WalletTypeCredits, WalletTypeCash, WalletTypePoints:
		return t, nil
	case "":
		return WalletTypeCredits, nil
	default:
		return "", InvalidArgumentf("unknown wallet type %q", s)
	}
}

// Wallet holds a prepaid balance. CustomerID is a plain reference; the
// wallet's transactions are looked up by wallet id, never held here.
type Wallet struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Status     WalletStatus    `json:"status"`
	Type       WalletType      `json:"wallet_type"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

func (w *Wallet) HasSufficientBalance(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Credit adds a positive amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidArgumentf("credit amount must be positive, got %s", amount.String())
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Debit subtracts a positive amount, refusing to take the balance below zero.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidArgumentf("debit amount must be positive, got %s", amount.String())
	}
	if !w.HasSufficientBalance(amount) {
		return &InsufficientBalanceError{Required: amount, Available: w.Balance}
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// Apply moves the balance in the direction implied by txType.
func (w *Wallet) Apply(txType TransactionType, amount decimal.Decimal) error {
	credit, err := txType.IsCredit()
	if err != nil {
		return err
	}
	if credit {
		return w.Credit(amount)
	}
	return w.Debit(amount)
}

// Balance is the read model returned by balance lookups.
type Balance struct {
	WalletID int64           `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Status   WalletStatus    `json:"status"`
}

type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone_number"`
	NationalID string    `json:"national_id"`
	CreatedAt  time.Time `json:"created_at"`
}
