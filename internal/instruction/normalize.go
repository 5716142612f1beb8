// Package instruction turns free-text payment instructions into structured
// transactions.
package instruction

import "strings"

const dateMarker = " ON "

// Normalize collapses every run of whitespace into a single space and trims
// both ends.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Clauses is a normalized instruction split around its date marker.
type Clauses struct {
	Main      string
	ExecuteBy string
	HasDate   bool
}

// SplitClauses looks for the first case-insensitive " ON " in a normalized
// instruction. The word after it is the execute_by candidate; everything
// before it is the main clause. The candidate is not validated here.
func SplitClauses(normalized string) Clauses {
	idx := indexFold(normalized, dateMarker)
	if idx < 0 {
		return Clauses{Main: normalized}
	}

	rest := strings.TrimSpace(normalized[idx+len(dateMarker):])
	date, _, _ := strings.Cut(rest, " ")

	return Clauses{
		Main:      strings.TrimSpace(normalized[:idx]),
		ExecuteBy: date,
		HasDate:   true,
	}
}

// indexFold is strings.Index with ASCII case folding. Offsets refer to s
// itself, so multi-byte case mappings cannot shift them.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
