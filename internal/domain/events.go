package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeInstructionProcessed = "instruction.processed"
)

// Aggregate types
const (
	AggregateTypeInstruction = "instruction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// InstructionProcessedEvent payload
type InstructionProcessedEvent struct {
	InstructionID string `json:"instruction_id"`
	Type          string `json:"type,omitempty"`
	Status        string `json:"status"`
	StatusCode    string `json:"status_code"`
	Amount        string `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	DebitAccount  string `json:"debit_account,omitempty"`
	CreditAccount string `json:"credit_account,omitempty"`
	ExecuteBy     string `json:"execute_by,omitempty"`
	ProcessedAt   string `json:"processed_at"`
}

// NewInstructionProcessedEvent builds the event payload for a record.
func NewInstructionProcessedEvent(record *InstructionRecord) InstructionProcessedEvent {
	event := InstructionProcessedEvent{
		InstructionID: record.ID,
		Status:        string(record.Status()),
		StatusCode:    string(StatusCodeMalformedInstruction),
		ProcessedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
	}

	if r := record.Result; r != nil {
		event.Type = string(r.Type)
		event.StatusCode = string(r.StatusCode)
		event.Currency = r.Currency
		event.DebitAccount = r.DebitAccount
		event.CreditAccount = r.CreditAccount
		event.ExecuteBy = r.ExecuteBy
		if r.Amount != nil {
			event.Amount = r.Amount.String()
		}
	}

	return event
}

// ToPayload converts an event struct to the generic outbox payload.
func ToPayload(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return payload
}
