package domain

import "time"

// InstructionRecord is the stored outcome of one processed instruction.
// Only the result echo is kept; balances are never persisted as state.
type InstructionRecord struct {
	CreatedAt   time.Time
	Result      *TransactionResult
	ID          string
	RequestID   string
	Instruction string
}

// Status returns the status of the recorded result.
func (r *InstructionRecord) Status() Status {
	if r.Result == nil {
		return StatusFailed
	}
	return r.Result.Status
}
