package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

var today = time.Date(2025, time.June, 15, 13, 45, 0, 0, time.UTC)

func snapshot() []domain.Account {
	return []domain.Account{
		{ID: "A1", Balance: decimal.NewFromInt(500), Currency: "USD"},
		{ID: "A2", Balance: decimal.NewFromInt(50), Currency: "usd"},
		{ID: "N1", Balance: decimal.NewFromInt(1000), Currency: "NGN"},
	}
}

func viewByID(t *testing.T, r *domain.TransactionResult, id string) domain.AccountView {
	t.Helper()
	for _, v := range r.Accounts {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("account %s not in result views %+v", id, r.Accounts)
	return domain.AccountView{}
}

func TestEvaluate_ExecutesDebit(t *testing.T) {
	accounts := snapshot()

	r := usecase.Evaluate("DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2", accounts, today)

	assert.Equal(t, domain.StatusSuccessful, r.Status)
	assert.Equal(t, domain.StatusCodeExecuted, r.StatusCode)
	assert.Equal(t, "Transaction executed successfully", r.StatusReason)
	assert.Equal(t, "100", r.Amount.String())
	assert.Equal(t, "A1", r.DebitAccount)
	assert.Equal(t, "A2", r.CreditAccount)

	require.Len(t, r.Accounts, 2)
	a1 := viewByID(t, r, "A1")
	assert.True(t, a1.Balance.Equal(decimal.NewFromInt(400)))
	assert.True(t, a1.BalanceBefore.Equal(decimal.NewFromInt(500)))
	a2 := viewByID(t, r, "A2")
	assert.True(t, a2.Balance.Equal(decimal.NewFromInt(150)))
	assert.True(t, a2.BalanceBefore.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "USD", a2.Currency)

	// The snapshot itself is left untouched.
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, accounts[1].Balance.Equal(decimal.NewFromInt(50)))
}

func TestEvaluate_ExecutesCredit(t *testing.T) {
	r := usecase.Evaluate("CREDIT 50 USD TO ACCOUNT A2 FOR DEBIT FROM ACCOUNT A1", snapshot(), today)

	assert.Equal(t, domain.StatusCodeExecuted, r.StatusCode)
	assert.Equal(t, domain.InstructionTypeCredit, r.Type)
	assert.True(t, viewByID(t, r, "A1").Balance.Equal(decimal.NewFromInt(450)))
	assert.True(t, viewByID(t, r, "A2").Balance.Equal(decimal.NewFromInt(100)))
}

func TestEvaluate_ViewsFollowSnapshotOrder(t *testing.T) {
	r := usecase.Evaluate("CREDIT 50 USD TO ACCOUNT A2 FOR DEBIT FROM ACCOUNT A1", snapshot(), today)

	require.Len(t, r.Accounts, 2)
	assert.Equal(t, "A1", r.Accounts[0].ID)
	assert.Equal(t, "A2", r.Accounts[1].ID)
}

func TestEvaluate_ExactBalanceSucceeds(t *testing.T) {
	r := usecase.Evaluate("DEBIT 500 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2", snapshot(), today)

	assert.Equal(t, domain.StatusCodeExecuted, r.StatusCode)
	assert.True(t, viewByID(t, r, "A1").Balance.IsZero())
}

func TestEvaluate_InsufficientFunds(t *testing.T) {
	r := usecase.Evaluate("DEBIT 501 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2", snapshot(), today)

	assert.Equal(t, domain.StatusFailed, r.Status)
	assert.Equal(t, domain.StatusCodeInsufficientFunds, r.StatusCode)

	a1 := viewByID(t, r, "A1")
	assert.True(t, a1.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, a1.BalanceBefore.Equal(decimal.NewFromInt(500)))
}

func TestEvaluate_Scheduling(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		wantCode domain.StatusCode
	}{
		{"far future is pending", "2099-01-01", domain.StatusCodePending},
		{"tomorrow is pending", "2025-06-16", domain.StatusCodePending},
		{"today executes", "2025-06-15", domain.StatusCodeExecuted},
		{"past executes", "2020-01-01", domain.StatusCodeExecuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := usecase.Evaluate("DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2 ON "+tt.date, snapshot(), today)

			assert.Equal(t, tt.wantCode, r.StatusCode)
			assert.Equal(t, tt.date, r.ExecuteBy)
			if tt.wantCode == domain.StatusCodePending {
				assert.Equal(t, domain.StatusPending, r.Status)
				assert.True(t, viewByID(t, r, "A1").Balance.Equal(decimal.NewFromInt(500)))
				assert.True(t, viewByID(t, r, "A2").Balance.Equal(decimal.NewFromInt(50)))
			}
		})
	}
}

func TestEvaluate_PendingSkipsFundsCheck(t *testing.T) {
	r := usecase.Evaluate("DEBIT 9999 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2 ON 2099-01-01", snapshot(), today)

	assert.Equal(t, domain.StatusCodePending, r.StatusCode)
}

func TestEvaluate_RulePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode domain.StatusCode
	}{
		{
			name:     "missing account beats currency mismatch",
			raw:      "DEBIT 100 GBP FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT ZZ",
			wantCode: domain.StatusCodeAccountNotFound,
		},
		{
			name:     "both accounts missing",
			raw:      "DEBIT 100 USD FROM ACCOUNT X1 FOR CREDIT TO ACCOUNT X2",
			wantCode: domain.StatusCodeAccountNotFound,
		},
		{
			name:     "account currencies differ",
			raw:      "DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT N1",
			wantCode: domain.StatusCodeCurrencyMismatch,
		},
		{
			name:     "instruction currency differs from accounts",
			raw:      "DEBIT 100 GBP FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2",
			wantCode: domain.StatusCodeCurrencyMismatch,
		},
		{
			name:     "currency mismatch beats same account",
			raw:      "DEBIT 100 GBP FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A1",
			wantCode: domain.StatusCodeCurrencyMismatch,
		},
		{
			name:     "same account",
			raw:      "DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A1",
			wantCode: domain.StatusCodeSameAccount,
		},
		{
			name:     "same account beats pending",
			raw:      "DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A1 ON 2099-01-01",
			wantCode: domain.StatusCodeSameAccount,
		},
		{
			name:     "date format checked before accounts",
			raw:      "DEBIT 100 USD FROM ACCOUNT X1 FOR CREDIT TO ACCOUNT X2 ON 2025-13-01",
			wantCode: domain.StatusCodeInvalidDateFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := usecase.Evaluate(tt.raw, snapshot(), today)

			assert.Equal(t, domain.StatusFailed, r.Status)
			assert.Equal(t, tt.wantCode, r.StatusCode)
			assert.Equal(t, tt.wantCode.Reason(), r.StatusReason)
		})
	}
}

func TestEvaluate_SameAccountEchoesSingleView(t *testing.T) {
	r := usecase.Evaluate("DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A1", snapshot(), today)

	require.Len(t, r.Accounts, 1)
	assert.Equal(t, "A1", r.Accounts[0].ID)
}

func TestEvaluate_PartialResults(t *testing.T) {
	t.Run("unsupported currency", func(t *testing.T) {
		r := usecase.Evaluate("DEBIT 100 XYZ FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2", snapshot(), today)

		assert.Equal(t, domain.StatusCodeUnsupportedCurrency, r.StatusCode)
		assert.Equal(t, domain.InstructionTypeDebit, r.Type)
		assert.Equal(t, "100", r.Amount.String())
		assert.Empty(t, r.Currency)
		assert.Empty(t, r.Accounts)
		assert.NotNil(t, r.Accounts)
	})

	t.Run("first account echoed when second block fails", func(t *testing.T) {
		r := usecase.Evaluate("DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT ACCOUNT A2", snapshot(), today)

		assert.Equal(t, domain.StatusCodeInvalidKeywordOrder, r.StatusCode)
		assert.Equal(t, "A1", r.DebitAccount)
		require.Len(t, r.Accounts, 1)
		assert.Equal(t, "A1", r.Accounts[0].ID)
		assert.True(t, r.Accounts[0].Balance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("missing account still echoes the known one", func(t *testing.T) {
		r := usecase.Evaluate("DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT ZZ", snapshot(), today)

		assert.Equal(t, domain.StatusCodeAccountNotFound, r.StatusCode)
		require.Len(t, r.Accounts, 1)
		assert.Equal(t, "A1", r.Accounts[0].ID)
	})
}

func TestEvaluate_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t", "PAY 100 USD TO ACCOUNT A1 ON 2025-01-01"} {
		r := usecase.Evaluate(raw, snapshot(), today)

		assert.Equal(t, domain.StatusFailed, r.Status)
		assert.Equal(t, domain.StatusCodeMalformedInstruction, r.StatusCode)
		assert.Empty(t, r.Type)
		assert.Nil(t, r.Amount)
		assert.Empty(t, r.ExecuteBy)
		assert.Empty(t, r.Accounts)
	}
}

func TestEvaluate_FailuresAreIdempotent(t *testing.T) {
	accounts := snapshot()
	raw := "DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT N1"

	first := usecase.Evaluate(raw, accounts, today)
	second := usecase.Evaluate(raw, accounts, today)

	assert.Equal(t, first, second)
}

func TestEvaluate_SuccessIsRepeatableOnSameSnapshot(t *testing.T) {
	accounts := snapshot()
	raw := "DEBIT 100 USD FROM ACCOUNT A1 FOR CREDIT TO ACCOUNT A2"

	first := usecase.Evaluate(raw, accounts, today)
	second := usecase.Evaluate(raw, accounts, today)

	assert.Equal(t, first, second)
}

func TestEvaluate_LargeAmountsAreExact(t *testing.T) {
	big, _ := decimal.NewFromString("90000000000000000001")
	accounts := []domain.Account{
		{ID: "B1", Balance: big, Currency: "GHS"},
		{ID: "B2", Balance: decimal.Zero, Currency: "GHS"},
	}

	r := usecase.Evaluate("DEBIT 90000000000000000000 GHS FROM ACCOUNT B1 FOR CREDIT TO ACCOUNT B2", accounts, today)

	require.Equal(t, domain.StatusCodeExecuted, r.StatusCode)
	assert.Equal(t, "1", viewByID(t, r, "B1").Balance.String())
	assert.Equal(t, "90000000000000000000", viewByID(t, r, "B2").Balance.String())
}
