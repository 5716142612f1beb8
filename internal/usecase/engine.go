package usecase

import (
	"time"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/instruction"
)

// Evaluate parses raw, checks it against the account snapshot and, when every
// rule passes, computes the transfer. The snapshot is read only; balances
// after an executed transfer are reported in the result views. today is the
// reference calendar date for scheduling.
func Evaluate(raw string, accounts []domain.Account, today time.Time) *domain.TransactionResult {
	parsed, err := instruction.Parse(raw)
	if err != nil {
		return domain.NewResult(parsed, domain.StatusCodeFor(err), accounts, nil)
	}

	code, postings := applyRules(parsed, accounts, today)

	return domain.NewResult(parsed, code, accounts, postings)
}

// applyRules runs the business checks in reporting order: existence,
// currency agreement, distinct accounts, scheduling, funds.
func applyRules(parsed domain.ParsedInstruction, accounts []domain.Account, today time.Time) (domain.StatusCode, domain.Postings) {
	debit, debitFound := domain.FindAccount(accounts, parsed.DebitAccount)
	credit, creditFound := domain.FindAccount(accounts, parsed.CreditAccount)
	if !debitFound || !creditFound {
		return domain.StatusCodeAccountNotFound, nil
	}

	transfer := domain.Transfer{
		DebitAccountID:  parsed.DebitAccount,
		CreditAccountID: parsed.CreditAccount,
		Currency:        parsed.Currency,
	}
	if parsed.Amount != nil {
		transfer.Amount = *parsed.Amount
	}

	if err := transfer.Validate(debit, credit); err != nil {
		return domain.StatusCodeFor(err), nil
	}

	if isScheduled(parsed.ExecuteBy, today) {
		return domain.StatusCodePending, nil
	}

	postings, err := transfer.Execute(debit, credit)
	if err != nil {
		return domain.StatusCodeFor(err), nil
	}

	return domain.StatusCodeExecuted, postings
}

// isScheduled reports whether executeBy is a calendar date after today.
func isScheduled(executeBy string, today time.Time) bool {
	if executeBy == "" {
		return false
	}

	date, err := domain.ValidateDate(executeBy)
	if err != nil {
		return false
	}

	return domain.CompareDate(date, today.UTC()) > 0
}
