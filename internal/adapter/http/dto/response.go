package dto

import (
	"time"

	"github.com/iho/payflow/internal/domain"
)

// InstructionResponse is the envelope returned for a processed instruction.
type InstructionResponse struct {
	Status  domain.Status             `json:"status"`
	Message string                    `json:"message"`
	Data    *domain.TransactionResult `json:"data"`
}

// InstructionFromResult wraps an engine result.
func InstructionFromResult(r *domain.TransactionResult) *InstructionResponse {
	return &InstructionResponse{
		Status:  r.Status,
		Message: r.StatusReason,
		Data:    r,
	}
}

// InstructionRecordResponse represents a recorded outcome in API responses.
type InstructionRecordResponse struct {
	ID          string                    `json:"id"`
	RequestID   string                    `json:"request_id,omitempty"`
	Instruction string                    `json:"instruction"`
	Status      domain.Status             `json:"status"`
	Result      *domain.TransactionResult `json:"result"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// InstructionRecordFromDomain converts a domain record to response.
func InstructionRecordFromDomain(rec *domain.InstructionRecord) *InstructionRecordResponse {
	return &InstructionRecordResponse{
		ID:          rec.ID,
		RequestID:   rec.RequestID,
		Instruction: rec.Instruction,
		Status:      rec.Status(),
		Result:      rec.Result,
		CreatedAt:   rec.CreatedAt,
	}
}

// InstructionRecordsFromDomain converts domain records to responses.
func InstructionRecordsFromDomain(records []*domain.InstructionRecord) []*InstructionRecordResponse {
	result := make([]*InstructionRecordResponse, len(records))
	for i, rec := range records {
		result[i] = InstructionRecordFromDomain(rec)
	}
	return result
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
