package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Transfer represents a money movement between two snapshot accounts.
type Transfer struct {
	DebitAccountID  string
	CreditAccountID string
	Currency        string
	Amount          decimal.Decimal
}

// Posting is the effect of a transfer on one account.
type Posting struct {
	AccountID     string
	BalanceBefore decimal.Decimal
	Balance       decimal.Decimal
}

// Postings maps account ids to the balances produced by a transfer.
type Postings map[string]Posting

// Validate checks the transfer against the two accounts it moves money between,
// in the order the rules are reported: currency agreement, then distinct accounts.
func (t *Transfer) Validate(debit, credit *Account) error {
	if !debit.HasCurrency(credit.Currency) {
		return fmt.Errorf("%w: %s account %s, %s account %s",
			ErrCurrencyMismatch, debit.ID, debit.Currency, credit.ID, credit.Currency)
	}

	if !debit.HasCurrency(t.Currency) {
		return fmt.Errorf("%w: instruction %s, accounts %s", ErrCurrencyMismatch, t.Currency, debit.Currency)
	}

	if t.DebitAccountID == t.CreditAccountID {
		return ErrSameAccount
	}

	return nil
}

// Execute computes the balances after the transfer. The accounts are not
// modified; callers that keep a ledger apply the returned postings themselves.
func (t *Transfer) Execute(debit, credit *Account) (Postings, error) {
	if err := debit.ValidateDebit(t.Amount); err != nil {
		return nil, err
	}

	return Postings{
		debit.ID: {
			AccountID:     debit.ID,
			BalanceBefore: debit.Balance,
			Balance:       debit.ApplyDebit(t.Amount),
		},
		credit.ID: {
			AccountID:     credit.ID,
			BalanceBefore: credit.Balance,
			Balance:       credit.ApplyCredit(t.Amount),
		},
	}, nil
}

// Apply returns a copy of accounts with the postings applied.
func (p Postings) Apply(accounts []Account) []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)
	for i := range out {
		if posting, ok := p[out[i].ID]; ok {
			out[i].Balance = posting.Balance
		}
	}
	return out
}
