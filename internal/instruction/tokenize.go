package instruction

import "strings"

// Tokens holds two parallel views of the main clause: Upper for keyword
// matching and Raw for identifiers and amounts.
type Tokens struct {
	Upper []string
	Raw   []string
}

// Tokenize splits the main clause on single spaces, dropping empty tokens.
func Tokenize(main string) Tokens {
	var t Tokens
	for _, tok := range strings.Split(main, " ") {
		if tok == "" {
			continue
		}
		t.Raw = append(t.Raw, tok)
		t.Upper = append(t.Upper, strings.ToUpper(tok))
	}
	return t
}

// Len returns the number of tokens.
func (t Tokens) Len() int {
	return len(t.Raw)
}

// Keyword returns the uppercased token at i, or "" past the end.
func (t Tokens) Keyword(i int) string {
	if i < 0 || i >= len(t.Upper) {
		return ""
	}
	return t.Upper[i]
}

// Value returns the original-case token at i, or "" past the end.
func (t Tokens) Value(i int) string {
	if i < 0 || i >= len(t.Raw) {
		return ""
	}
	return t.Raw[i]
}

// Index returns the position of the first token equal to keyword, or -1.
func (t Tokens) Index(keyword string) int {
	for i, tok := range t.Upper {
		if tok == keyword {
			return i
		}
	}
	return -1
}
