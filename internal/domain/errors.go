package domain

import "errors"

var (
	// Syntax errors
	ErrMissingKeyword       = errors.New("missing required keyword")
	ErrInvalidKeywordOrder  = errors.New("invalid keyword order")
	ErrMalformedInstruction = errors.New("malformed instruction")

	// Field errors
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidAccountID    = errors.New("invalid account ID format")
	ErrInvalidDateFormat   = errors.New("invalid date format")

	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrCurrencyMismatch  = errors.New("account currency mismatch")
	ErrSameAccount       = errors.New("debit and credit accounts cannot be the same")
	ErrInsufficientFunds = errors.New("insufficient funds in debit account")

	// Record errors
	ErrInstructionNotFound = errors.New("instruction record not found")
)

// StatusCodeFor maps an engine error to its status code. Errors the engine does
// not recognise are reported as malformed instructions.
func StatusCodeFor(err error) StatusCode {
	switch {
	case errors.Is(err, ErrMissingKeyword):
		return StatusCodeMissingKeyword
	case errors.Is(err, ErrInvalidKeywordOrder):
		return StatusCodeInvalidKeywordOrder
	case errors.Is(err, ErrInvalidAmount):
		return StatusCodeInvalidAmount
	case errors.Is(err, ErrUnsupportedCurrency):
		return StatusCodeUnsupportedCurrency
	case errors.Is(err, ErrCurrencyMismatch):
		return StatusCodeCurrencyMismatch
	case errors.Is(err, ErrInsufficientFunds):
		return StatusCodeInsufficientFunds
	case errors.Is(err, ErrSameAccount):
		return StatusCodeSameAccount
	case errors.Is(err, ErrAccountNotFound):
		return StatusCodeAccountNotFound
	case errors.Is(err, ErrInvalidAccountID):
		return StatusCodeInvalidAccountID
	case errors.Is(err, ErrInvalidDateFormat):
		return StatusCodeInvalidDateFormat
	default:
		return StatusCodeMalformedInstruction
	}
}
