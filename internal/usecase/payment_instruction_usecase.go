package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/payflow/internal/domain"
)

// PaymentInstructionUseCase runs instructions through the engine and, when
// recording is configured, stores each outcome with its outbox event.
type PaymentInstructionUseCase struct {
	logger  zerolog.Logger
	metrics InstructionMetrics
	now     func() time.Time

	txManager       TransactionManager
	instructionRepo InstructionRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retrier         Retrier
}

// Option configures a PaymentInstructionUseCase.
type Option func(*PaymentInstructionUseCase)

// WithRecording enables storing outcomes and outbox events.
func WithRecording(
	txManager TransactionManager,
	instructionRepo InstructionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
) Option {
	return func(uc *PaymentInstructionUseCase) {
		uc.txManager = txManager
		uc.instructionRepo = instructionRepo
		uc.outboxRepo = outboxRepo
		uc.idGen = idGen
		uc.retrier = retrier
	}
}

// WithMetrics sets the outcome metrics sink.
func WithMetrics(m InstructionMetrics) Option {
	return func(uc *PaymentInstructionUseCase) {
		uc.metrics = m
	}
}

// WithClock overrides the source of "today" and record timestamps. Latency
// is always measured on the wall clock.
func WithClock(now func() time.Time) Option {
	return func(uc *PaymentInstructionUseCase) {
		uc.now = now
	}
}

// NewPaymentInstructionUseCase creates a new PaymentInstructionUseCase.
func NewPaymentInstructionUseCase(logger zerolog.Logger, opts ...Option) *PaymentInstructionUseCase {
	uc := &PaymentInstructionUseCase{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessInstructionInput represents input for processing an instruction.
type ProcessInstructionInput struct {
	RequestID   string
	Instruction string
	Accounts    []domain.Account
}

// ProcessInstructionOutput carries the engine result and, when recorded,
// the record id.
type ProcessInstructionOutput struct {
	Result   *domain.TransactionResult
	RecordID string
}

// RecordingEnabled reports whether outcomes are stored.
func (uc *PaymentInstructionUseCase) RecordingEnabled() bool {
	return uc.instructionRepo != nil
}

// ProcessInstruction evaluates an instruction. Every outcome, including
// failures, is a normal result; recording errors are logged and do not
// change it.
func (uc *PaymentInstructionUseCase) ProcessInstruction(ctx context.Context, input ProcessInstructionInput) *ProcessInstructionOutput {
	start := time.Now()

	result := uc.evaluate(input)

	uc.observe(result, time.Since(start))

	return &ProcessInstructionOutput{
		Result:   result,
		RecordID: uc.record(ctx, input, result),
	}
}

func (uc *PaymentInstructionUseCase) evaluate(input ProcessInstructionInput) (result *domain.TransactionResult) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error().
				Str("request_id", input.RequestID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("instruction evaluation panicked")
			result = domain.MalformedResult()
		}
	}()

	return Evaluate(input.Instruction, input.Accounts, uc.now().UTC())
}

func (uc *PaymentInstructionUseCase) observe(result *domain.TransactionResult, elapsed time.Duration) {
	event := uc.logger.Info()
	if result.Status != domain.StatusFailed {
		event = uc.logger.Debug()
	}
	event.
		Str("status", string(result.Status)).
		Str("status_code", string(result.StatusCode)).
		Str("type", string(result.Type)).
		Dur("duration", elapsed).
		Msg("instruction processed")

	if uc.metrics == nil {
		return
	}

	uc.metrics.ObserveInstruction(result.Status, result.StatusCode, elapsed)
	if result.StatusCode == domain.StatusCodeExecuted && result.Amount != nil {
		uc.metrics.ObserveTransfer(result.Currency, *result.Amount)
	}
}

func (uc *PaymentInstructionUseCase) record(ctx context.Context, input ProcessInstructionInput, result *domain.TransactionResult) string {
	if !uc.RecordingEnabled() {
		return ""
	}

	rec := &domain.InstructionRecord{
		ID:          uc.idGen.Generate(),
		RequestID:   input.RequestID,
		Instruction: input.Instruction,
		Result:      result,
		CreatedAt:   uc.now().UTC(),
	}

	err := uc.retrier.Retry(ctx, func() error {
		return uc.persist(ctx, rec)
	})
	if err != nil {
		uc.logger.Error().
			Err(err).
			Str("request_id", input.RequestID).
			Str("instruction_id", rec.ID).
			Msg("failed to record instruction outcome")
		return ""
	}

	return rec.ID
}

func (uc *PaymentInstructionUseCase) persist(ctx context.Context, rec *domain.InstructionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := uc.instructionRepo.Create(ctx, tx, rec); err != nil {
		return fmt.Errorf("create instruction record: %w", err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   rec.ID,
		AggregateType: domain.AggregateTypeInstruction,
		EventType:     domain.EventTypeInstructionProcessed,
		Payload:       domain.ToPayload(domain.NewInstructionProcessedEvent(rec)),
		CreatedAt:     rec.CreatedAt,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}

	return tx.Commit(ctx)
}

// GetInstruction retrieves a recorded outcome by ID.
func (uc *PaymentInstructionUseCase) GetInstruction(ctx context.Context, id string) (*domain.InstructionRecord, error) {
	if !uc.RecordingEnabled() {
		return nil, domain.ErrInstructionNotFound
	}
	return uc.instructionRepo.GetByID(ctx, id)
}

// ListInstructionsInput represents input for listing recorded outcomes.
type ListInstructionsInput struct {
	Limit  int
	Offset int
}

// ListInstructions lists recorded outcomes, newest first.
func (uc *PaymentInstructionUseCase) ListInstructions(ctx context.Context, input ListInstructionsInput) ([]*domain.InstructionRecord, error) {
	if !uc.RecordingEnabled() {
		return []*domain.InstructionRecord{}, nil
	}

	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}

	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.instructionRepo.List(ctx, input.Limit, input.Offset)
}
