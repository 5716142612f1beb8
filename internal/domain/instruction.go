package domain

import "github.com/shopspring/decimal"

// InstructionType is the leading verb of an instruction.
type InstructionType string

const (
	InstructionTypeDebit  InstructionType = "DEBIT"
	InstructionTypeCredit InstructionType = "CREDIT"
)

// ParsedInstruction holds the fields extracted from an instruction. Empty
// strings and a nil Amount mean the field was not resolved.
type ParsedInstruction struct {
	Type          InstructionType
	Amount        *decimal.Decimal
	Currency      string
	DebitAccount  string
	CreditAccount string
	ExecuteBy     string
}
