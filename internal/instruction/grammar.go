package instruction

import (
	"fmt"

	"github.com/iho/payflow/internal/domain"
)

const (
	keywordAccount = "ACCOUNT"
	keywordFor     = "FOR"

	// Verb, amount and currency occupy the first three positions.
	minTokens = 3
)

// grammar describes one verb:
//
//	DEBIT  <amount> <currency> ... FROM ACCOUNT <id> ... FOR CREDIT TO ACCOUNT <id>
//	CREDIT <amount> <currency> ... TO ACCOUNT <id> ... FOR DEBIT FROM ACCOUNT <id>
type grammar struct {
	verb domain.InstructionType

	// separator introduces the first account block.
	separator string
	// counterpart follows FOR and introduces the second account block.
	counterpart []string

	// firstIsDebit is true when the first account block names the debit side.
	firstIsDebit bool
}

var grammars = map[string]grammar{
	string(domain.InstructionTypeDebit): {
		verb:         domain.InstructionTypeDebit,
		separator:    "FROM",
		counterpart:  []string{"CREDIT", "TO", keywordAccount},
		firstIsDebit: true,
	},
	string(domain.InstructionTypeCredit): {
		verb:         domain.InstructionTypeCredit,
		separator:    "TO",
		counterpart:  []string{"DEBIT", "FROM", keywordAccount},
		firstIsDebit: false,
	},
}

// matcher walks the token stream. Each state consumes one token role and
// returns the next state, or an error that ends the walk with whatever
// fields were resolved so far.
type matcher struct {
	tokens  Tokens
	clauses Clauses
	grammar grammar
	parsed  domain.ParsedInstruction

	separatorIdx int
	forIdx       int
}

type stateFn func(*matcher) (stateFn, error)

func (m *matcher) run() error {
	state := stateVerb
	for state != nil {
		next, err := state(m)
		if err != nil {
			return err
		}
		state = next
	}
	return nil
}

func stateVerb(m *matcher) (stateFn, error) {
	g, ok := grammars[m.tokens.Keyword(0)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown verb %q", domain.ErrMalformedInstruction, m.tokens.Value(0))
	}

	m.grammar = g
	m.parsed.Type = g.verb
	m.parsed.ExecuteBy = m.clauses.ExecuteBy

	return stateArity, nil
}

func stateArity(m *matcher) (stateFn, error) {
	if m.tokens.Len() < minTokens {
		return nil, fmt.Errorf("%w: expected amount and currency", domain.ErrMissingKeyword)
	}
	return stateAmount, nil
}

func stateAmount(m *matcher) (stateFn, error) {
	amount, err := domain.ValidateAmount(m.tokens.Value(1))
	if err != nil {
		return nil, err
	}

	m.parsed.Amount = &amount
	return stateCurrency, nil
}

func stateCurrency(m *matcher) (stateFn, error) {
	currency, err := domain.ValidateCurrency(m.tokens.Value(2))
	if err != nil {
		return nil, err
	}

	m.parsed.Currency = currency
	return stateSeparators, nil
}

func stateSeparators(m *matcher) (stateFn, error) {
	sep := m.tokens.Index(m.grammar.separator)
	forIdx := m.tokens.Index(keywordFor)

	if sep < 0 || forIdx < 0 {
		return nil, fmt.Errorf("%w: %s and %s are required", domain.ErrMissingKeyword, m.grammar.separator, keywordFor)
	}

	if sep < minTokens || forIdx <= sep {
		return nil, fmt.Errorf("%w: %s must follow the currency and precede %s",
			domain.ErrMissingKeyword, m.grammar.separator, keywordFor)
	}

	m.separatorIdx = sep
	m.forIdx = forIdx

	return stateFirstAccountKeyword, nil
}

func stateFirstAccountKeyword(m *matcher) (stateFn, error) {
	if m.tokens.Keyword(m.separatorIdx+1) != keywordAccount {
		return nil, fmt.Errorf("%w: expected %s after %s", domain.ErrInvalidKeywordOrder, keywordAccount, m.grammar.separator)
	}
	return stateFirstID, nil
}

func stateFirstID(m *matcher) (stateFn, error) {
	id := m.tokens.Value(m.separatorIdx + 2)
	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}

	m.setAccount(true, id)
	return stateCounterpart, nil
}

func stateCounterpart(m *matcher) (stateFn, error) {
	for i, keyword := range m.grammar.counterpart {
		if m.tokens.Keyword(m.forIdx+1+i) != keyword {
			return nil, fmt.Errorf("%w: expected %v after %s", domain.ErrInvalidKeywordOrder, m.grammar.counterpart, keywordFor)
		}
	}
	return stateSecondID, nil
}

func stateSecondID(m *matcher) (stateFn, error) {
	id := m.tokens.Value(m.forIdx + 1 + len(m.grammar.counterpart))
	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}

	m.setAccount(false, id)
	return stateExecuteBy, nil
}

func stateExecuteBy(m *matcher) (stateFn, error) {
	if !m.clauses.HasDate {
		return nil, nil
	}

	if _, err := domain.ValidateDate(m.clauses.ExecuteBy); err != nil {
		return nil, err
	}
	return nil, nil
}

// setAccount stores id on the side the block names. first selects the block
// introduced by the separator rather than by FOR.
func (m *matcher) setAccount(first bool, id string) {
	if first == m.grammar.firstIsDebit {
		m.parsed.DebitAccount = id
	} else {
		m.parsed.CreditAccount = id
	}
}
