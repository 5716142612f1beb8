package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

const (
	insertInstructionSQL = `
INSERT INTO payment_instructions (id, request_id, instruction, type, status, status_code, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectInstructionColumns = `SELECT id, request_id, instruction, result, created_at FROM payment_instructions`

	getInstructionSQL = selectInstructionColumns + ` WHERE id = $1`

	listInstructionsSQL = selectInstructionColumns + ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
)

// InstructionRepository implements usecase.InstructionRepository.
type InstructionRepository struct {
	db querier
}

// NewInstructionRepository creates a new InstructionRepository.
func NewInstructionRepository(pool *pgxpool.Pool) *InstructionRepository {
	return newInstructionRepository(pool)
}

func newInstructionRepository(db querier) *InstructionRepository {
	return &InstructionRepository{db: db}
}

// Create stores a record within a transaction.
func (r *InstructionRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.InstructionRecord) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	if record.Result == nil {
		return fmt.Errorf("instruction record %s has no result", record.ID)
	}

	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	var instructionType *string
	if t := string(record.Result.Type); t != "" {
		instructionType = &t
	}

	_, err = pgxTx.Exec(ctx, insertInstructionSQL,
		record.ID,
		record.RequestID,
		record.Instruction,
		instructionType,
		string(record.Result.Status),
		string(record.Result.StatusCode),
		result,
		record.CreatedAt,
	)

	return err
}

// GetByID retrieves a record by ID.
func (r *InstructionRepository) GetByID(ctx context.Context, id string) (*domain.InstructionRecord, error) {
	record, err := scanInstruction(r.db.QueryRow(ctx, getInstructionSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInstructionNotFound
	}
	return record, err
}

// List retrieves records, newest first.
func (r *InstructionRepository) List(ctx context.Context, limit, offset int) ([]*domain.InstructionRecord, error) {
	rows, err := r.db.Query(ctx, listInstructionsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.InstructionRecord, 0, limit)
	for rows.Next() {
		record, err := scanInstruction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanInstruction(row pgx.Row) (*domain.InstructionRecord, error) {
	var (
		record    domain.InstructionRecord
		result    []byte
		createdAt time.Time
	)

	if err := row.Scan(&record.ID, &record.RequestID, &record.Instruction, &result, &createdAt); err != nil {
		return nil, err
	}

	record.Result = &domain.TransactionResult{}
	if err := json.Unmarshal(result, record.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result of %s: %w", record.ID, err)
	}
	record.CreatedAt = createdAt.UTC()

	return &record, nil
}
