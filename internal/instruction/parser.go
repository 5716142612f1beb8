package instruction

import (
	"fmt"

	"github.com/iho/payflow/internal/domain"
)

// Parse extracts a transaction from a raw instruction. On failure the
// returned instruction still carries every field resolved before the
// failing step, and the error maps to a status code via
// domain.StatusCodeFor.
func Parse(raw string) (domain.ParsedInstruction, error) {
	clauses := SplitClauses(Normalize(raw))

	tokens := Tokenize(clauses.Main)
	if tokens.Len() == 0 {
		return domain.ParsedInstruction{}, fmt.Errorf("%w: empty instruction", domain.ErrMalformedInstruction)
	}

	m := &matcher{
		tokens:  tokens,
		clauses: clauses,
	}
	err := m.run()

	return m.parsed, err
}
