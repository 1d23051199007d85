package pkg

import (
	"errors"
	"fmt"
)

// Error codes for graduation failures. None of them is retryable: each one
// means the caller supplied an input the engine cannot turn into an instruction.
const (
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeDivisionByZero        = "DIVISION_BY_ZERO"
	ErrCodePriceOutOfRange       = "PRICE_OUT_OF_RANGE"
	ErrCodeInsufficientLiquidity = "INSUFFICIENT_LIQUIDITY"
	ErrCodeNotAMint              = "NOT_A_MINT"
	ErrCodeAddressDerivation     = "ADDRESS_DERIVATION_FAILURE"
)

// Error is a coded graduation error
type Error struct {
	// Code identifies the failure class
	Code string

	// Message is a human-readable error message
	Message string

	// Cause is the underlying error, if any
	Cause error

	// Details contains additional error context
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotAMint)
// works for every NotAMint failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e with cause attached. The sentinels below are
// shared, so they are never mutated.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy of e carrying details
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a coded error with a formatted message
func Errorf(code, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	// ErrInvalidInput is returned for equal or malformed mints and non-representable amounts
	ErrInvalidInput = NewError(ErrCodeInvalidInput, "invalid input")

	// ErrDivisionByZero is returned when either deposit amount is zero
	ErrDivisionByZero = NewError(ErrCodeDivisionByZero, "division by zero")

	// ErrPriceOutOfRange is returned when the sqrt price falls outside the protocol bounds
	ErrPriceOutOfRange = NewError(ErrCodePriceOutOfRange, "price out of range")

	// ErrInsufficientLiquidity is returned when the quoted liquidity is not positive
	ErrInsufficientLiquidity = NewError(ErrCodeInsufficientLiquidity, "insufficient liquidity")

	// ErrNotAMint is returned when a fetched account is not an initialised mint
	ErrNotAMint = NewError(ErrCodeNotAMint, "account is not a mint")

	// ErrAddressDerivation is returned when no program address exists for a seed set
	ErrAddressDerivation = NewError(ErrCodeAddressDerivation, "address derivation failed")
)
