package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountView is how an involved account is echoed back to the caller.
type AccountView struct {
	ID            string
	Currency      string
	Balance       decimal.Decimal
	BalanceBefore decimal.Decimal
}

// TransactionResult is the terminal output of the engine.
type TransactionResult struct {
	ParsedInstruction

	Status       Status
	StatusCode   StatusCode
	StatusReason string
	Accounts     []AccountView
}

// NewResult builds the result for the instruction as far as it was parsed.
// The views cover every snapshot entry matching a resolved account id, in
// snapshot order; postings override balances only for executed transfers.
func NewResult(parsed ParsedInstruction, code StatusCode, snapshot []Account, postings Postings) *TransactionResult {
	return &TransactionResult{
		ParsedInstruction: parsed,
		Status:            code.Status(),
		StatusCode:        code,
		StatusReason:      code.Reason(),
		Accounts:          BuildAccountViews(snapshot, parsed.DebitAccount, parsed.CreditAccount, postings),
	}
}

// MalformedResult is returned when nothing could be parsed.
func MalformedResult() *TransactionResult {
	return NewResult(ParsedInstruction{}, StatusCodeMalformedInstruction, nil, nil)
}

// BuildAccountViews echoes the snapshot entries for debitID and creditID.
// Empty ids match nothing.
func BuildAccountViews(snapshot []Account, debitID, creditID string, postings Postings) []AccountView {
	views := make([]AccountView, 0, 2)
	for _, a := range snapshot {
		if a.ID == "" || (a.ID != debitID && a.ID != creditID) {
			continue
		}

		view := AccountView{
			ID:            a.ID,
			Currency:      strings.ToUpper(a.Currency),
			Balance:       a.Balance,
			BalanceBefore: a.Balance,
		}
		if posting, ok := postings[a.ID]; ok {
			view.Balance = posting.Balance
			view.BalanceBefore = posting.BalanceBefore
		}
		views = append(views, view)
	}
	return views
}

type accountViewJSON struct {
	ID            string      `json:"id"`
	Balance       json.Number `json:"balance"`
	BalanceBefore json.Number `json:"balance_before"`
	Currency      string      `json:"currency"`
}

type transactionResultJSON struct {
	Type          *string           `json:"type"`
	Amount        *json.Number      `json:"amount"`
	Currency      *string           `json:"currency"`
	DebitAccount  *string           `json:"debit_account"`
	CreditAccount *string           `json:"credit_account"`
	ExecuteBy     *string           `json:"execute_by"`
	Status        Status            `json:"status"`
	StatusReason  string            `json:"status_reason"`
	StatusCode    StatusCode        `json:"status_code"`
	Accounts      []accountViewJSON `json:"accounts"`
}

// MarshalJSON renders the result in its wire shape: unresolved fields are
// null and amounts and balances are plain JSON numbers.
func (r TransactionResult) MarshalJSON() ([]byte, error) {
	out := transactionResultJSON{
		Type:          nullable(string(r.Type)),
		Currency:      nullable(r.Currency),
		DebitAccount:  nullable(r.DebitAccount),
		CreditAccount: nullable(r.CreditAccount),
		ExecuteBy:     nullable(r.ExecuteBy),
		Status:        r.Status,
		StatusReason:  r.StatusReason,
		StatusCode:    r.StatusCode,
		Accounts:      make([]accountViewJSON, 0, len(r.Accounts)),
	}
	if r.Amount != nil {
		n := json.Number(r.Amount.String())
		out.Amount = &n
	}
	for _, v := range r.Accounts {
		out.Accounts = append(out.Accounts, accountViewJSON{
			ID:            v.ID,
			Balance:       json.Number(v.Balance.String()),
			BalanceBefore: json.Number(v.BalanceBefore.String()),
			Currency:      v.Currency,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a result back from its wire shape.
func (r *TransactionResult) UnmarshalJSON(data []byte) error {
	var in transactionResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = TransactionResult{
		ParsedInstruction: ParsedInstruction{
			Type:          InstructionType(deref(in.Type)),
			Currency:      deref(in.Currency),
			DebitAccount:  deref(in.DebitAccount),
			CreditAccount: deref(in.CreditAccount),
			ExecuteBy:     deref(in.ExecuteBy),
		},
		Status:       in.Status,
		StatusReason: in.StatusReason,
		StatusCode:   in.StatusCode,
		Accounts:     make([]AccountView, 0, len(in.Accounts)),
	}
	if in.Amount != nil {
		amount, err := decimal.NewFromString(in.Amount.String())
		if err != nil {
			return err
		}
		r.Amount = &amount
	}
	for _, v := range in.Accounts {
		balance, err := decimal.NewFromString(v.Balance.String())
		if err != nil {
			return err
		}
		before, err := decimal.NewFromString(v.BalanceBefore.String())
		if err != nil {
			return err
		}
		r.Accounts = append(r.Accounts, AccountView{
			ID:            v.ID,
			Currency:      v.Currency,
			Balance:       balance,
			BalanceBefore: before,
		})
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
