package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Account is a caller-supplied snapshot entry. It is not owned by the engine.
type Account struct {
	ID       string
	Currency string
	Balance  decimal.Decimal
}

// HasCurrency reports whether the account is denominated in currency, ignoring case.
func (a *Account) HasCurrency(currency string) bool {
	return strings.EqualFold(a.Currency, currency)
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// FindAccount returns the first snapshot entry with the given id.
func FindAccount(accounts []Account, id string) (*Account, bool) {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], true
		}
	}
	return nil, false
}
