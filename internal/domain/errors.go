package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateResource    = errors.New("resource already exists")
	ErrDuplicateTransaction = errors.New("duplicate transaction reference")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("concurrent modification conflict")
	ErrInternal             = errors.New("internal error")
)

// ErrorCode is the stable machine-readable code surfaced to API callers.
type ErrorCode string

const (
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeDuplicateResource    ErrorCode = "DUPLICATE_RESOURCE"
	CodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"
	CodeInsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	CodeInvalidArgument      ErrorCode = "INVALID_ARGUMENT"
	CodeConflict             ErrorCode = "CONFLICT"
	CodeInternal             ErrorCode = "INTERNAL"
)

// InsufficientBalanceError is returned when a debit would take a wallet below zero.
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}

// CodeOf classifies err into the error taxonomy. Unknown errors are INTERNAL.
func CodeOf(err error) ErrorCode {
	var ibe *InsufficientBalanceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ibe):
		return CodeInsufficientBalance
	case errors.Is(err, ErrDuplicateTransaction):
		return CodeDuplicateTransaction
	case errors.Is(err, ErrDuplicateResource):
		return CodeDuplicateResource
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
