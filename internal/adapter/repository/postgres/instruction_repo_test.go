package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

type fakeTransaction struct{}

func (fakeTransaction) Commit(context.Context) error   { return nil }
func (fakeTransaction) Rollback(context.Context) error { return nil }

func executedResult() *domain.TransactionResult {
	amount := decimal.NewFromInt(100)
	return &domain.TransactionResult{
		ParsedInstruction: domain.ParsedInstruction{
			Type:          domain.InstructionTypeDebit,
			Amount:        &amount,
			Currency:      "USD",
			DebitAccount:  "A1",
			CreditAccount: "A2",
		},
		Status:       domain.StatusSuccessful,
		StatusCode:   domain.StatusCodeExecuted,
		StatusReason: domain.StatusCodeExecuted.Reason(),
		Accounts: []domain.AccountView{
			{ID: "A1", Currency: "USD", Balance: decimal.NewFromInt(400), BalanceBefore: decimal.NewFromInt(500)},
			{ID: "A2", Currency: "USD", Balance: decimal.NewFromInt(150), BalanceBefore: decimal.NewFromInt(50)},
		},
	}
}

func beginMockTx(t *testing.T, mockPool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	mockPool.ExpectBegin()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestInstructionRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mockPool.ExpectExec("INSERT INTO payment_instructions").
		WithArgs("rec-1", "req-1", "DEBIT 100 USD ...", pgxmock.AnyArg(), "successful", "AP00", pgxmock.AnyArg(), createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := newInstructionRepository(mockPool)
	err := repo.Create(context.Background(), tx, &domain.InstructionRecord{
		ID:          "rec-1",
		RequestID:   "req-1",
		Instruction: "DEBIT 100 USD ...",
		Result:      executedResult(),
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestInstructionRepositoryCreateRejectsForeignTransaction(t *testing.T) {
	repo := newInstructionRepository(newMockPool(t))

	err := repo.Create(context.Background(), fakeTransaction{}, &domain.InstructionRecord{ID: "rec-1", Result: executedResult()})
	if !errors.Is(err, errForeignTransaction) {
		t.Fatalf("expected foreign transaction error, got %v", err)
	}
}

func TestInstructionRepositoryCreateRequiresResult(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	repo := newInstructionRepository(mockPool)
	if err := repo.Create(context.Background(), tx, &domain.InstructionRecord{ID: "rec-1"}); err == nil {
		t.Fatalf("expected error for record without result")
	}
}

func TestInstructionRepositoryGetByID(t *testing.T) {
	mockPool := newMockPool(t)

	result, err := json.Marshal(executedResult())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	createdAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mockPool.ExpectQuery("FROM payment_instructions WHERE id").
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "request_id", "instruction", "result", "created_at"}).
			AddRow("rec-1", "req-1", "DEBIT 100 USD ...", result, createdAt))

	repo := newInstructionRepository(mockPool)
	record, err := repo.GetByID(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.ID != "rec-1" || record.RequestID != "req-1" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if record.Result.StatusCode != domain.StatusCodeExecuted || record.Result.Amount.String() != "100" {
		t.Fatalf("unexpected decoded result: %+v", record.Result)
	}

	if len(record.Result.Accounts) != 2 || !record.Result.Accounts[0].Balance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected account views: %+v", record.Result.Accounts)
	}

	assertExpectations(t, mockPool)
}

func TestInstructionRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM payment_instructions WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := newInstructionRepository(mockPool)
	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrInstructionNotFound) {
		t.Fatalf("expected ErrInstructionNotFound, got %v", err)
	}
}

func TestInstructionRepositoryList(t *testing.T) {
	mockPool := newMockPool(t)

	result, err := json.Marshal(domain.MalformedResult())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	now := time.Now().UTC()

	mockPool.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(10, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "request_id", "instruction", "result", "created_at"}).
			AddRow("rec-2", "", "hello", result, now).
			AddRow("rec-1", "", "hi", result, now.Add(-time.Second)))

	repo := newInstructionRepository(mockPool)
	records, err := repo.List(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 || records[0].ID != "rec-2" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if records[1].Result.StatusCode != domain.StatusCodeMalformedInstruction {
		t.Fatalf("expected malformed result, got %s", records[1].Result.StatusCode)
	}

	assertExpectations(t, mockPool)
}
