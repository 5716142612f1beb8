package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

// ErrInvalidRequest is wrapped by every shape validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// AccountRequest is one entry of the caller's account snapshot.
type AccountRequest struct {
	ID       *string         `json:"id"`
	Balance  json.RawMessage `json:"balance"`
	Currency *string         `json:"currency"`
}

// ProcessInstructionRequest represents a request to process a payment instruction.
type ProcessInstructionRequest struct {
	Instruction *string          `json:"instruction"`
	Accounts    []AccountRequest `json:"accounts"`
}

// ToUseCaseInput checks the payload shape and converts it to use case input.
// The id and instruction are trimmed, the currency trimmed and uppercased.
func (r *ProcessInstructionRequest) ToUseCaseInput(requestID string) (usecase.ProcessInstructionInput, error) {
	if r.Instruction == nil {
		return usecase.ProcessInstructionInput{}, fieldError("instruction", "is required")
	}
	if r.Accounts == nil {
		return usecase.ProcessInstructionInput{}, fieldError("accounts", "is required")
	}

	accounts := make([]domain.Account, 0, len(r.Accounts))
	for i, a := range r.Accounts {
		account, err := a.toDomain(fmt.Sprintf("accounts[%d]", i))
		if err != nil {
			return usecase.ProcessInstructionInput{}, err
		}
		accounts = append(accounts, account)
	}

	return usecase.ProcessInstructionInput{
		RequestID:   requestID,
		Instruction: strings.TrimSpace(*r.Instruction),
		Accounts:    accounts,
	}, nil
}

func (a AccountRequest) toDomain(field string) (domain.Account, error) {
	if a.ID == nil {
		return domain.Account{}, fieldError(field+".id", "is required")
	}

	balance, err := parseBalance(a.Balance)
	if err != nil {
		return domain.Account{}, fieldError(field+".balance", err.Error())
	}

	if a.Currency == nil {
		return domain.Account{}, fieldError(field+".currency", "is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(*a.Currency))
	if !isCurrencyCode(currency) {
		return domain.Account{}, fieldError(field+".currency", "must be a 3-letter code")
	}

	return domain.Account{
		ID:       strings.TrimSpace(*a.ID),
		Currency: currency,
		Balance:  balance,
	}, nil
}

// parseBalance accepts JSON numbers only; quoted numbers are rejected.
func parseBalance(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, errors.New("is required")
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, errors.New("must be a number")
	}

	balance, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, errors.New("must be a number")
	}
	return balance, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func fieldError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidRequest, field, msg)
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ToUseCaseInput converts to use case input.
func (r PaginationRequest) ToUseCaseInput() usecase.ListInstructionsInput {
	return usecase.ListInstructionsInput{
		Limit:  r.Limit,
		Offset: r.Offset,
	}
}
