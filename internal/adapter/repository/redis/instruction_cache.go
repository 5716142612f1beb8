package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

const instructionCachePrefix = "payflow:instruction:"

// CachedInstructionRepository serves record reads from Redis before falling
// back to the wrapped repository. Records never change once written, so
// entries only expire by TTL.
type CachedInstructionRepository struct {
	usecase.InstructionRepository

	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedInstructionRepository wraps repo with a read-through cache.
func NewCachedInstructionRepository(repo usecase.InstructionRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedInstructionRepository {
	return &CachedInstructionRepository{
		InstructionRepository: repo,
		client:                client,
		ttl:                   ttl,
		logger:                logger,
	}
}

type cachedRecord struct {
	ID          string                    `json:"id"`
	RequestID   string                    `json:"request_id"`
	Instruction string                    `json:"instruction"`
	Result      *domain.TransactionResult `json:"result"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// GetByID retrieves a record, consulting the cache first. Cache failures
// are logged and fall through to the wrapped repository.
func (r *CachedInstructionRepository) GetByID(ctx context.Context, id string) (*domain.InstructionRecord, error) {
	key := instructionCachePrefix + id

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedRecord
		if err := json.Unmarshal(data, &cached); err == nil {
			return &domain.InstructionRecord{
				ID:          cached.ID,
				RequestID:   cached.RequestID,
				Instruction: cached.Instruction,
				Result:      cached.Result,
				CreatedAt:   cached.CreatedAt,
			}, nil
		}
		r.logger.Warn().Str("instruction_id", id).Msg("discarding unreadable cached record")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("instruction_id", id).Msg("instruction cache read failed")
	}

	record, err := r.InstructionRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, record)

	return record, nil
}

func (r *CachedInstructionRepository) store(ctx context.Context, record *domain.InstructionRecord) {
	data, err := json.Marshal(cachedRecord{
		ID:          record.ID,
		RequestID:   record.RequestID,
		Instruction: record.Instruction,
		Result:      record.Result,
		CreatedAt:   record.CreatedAt,
	})
	if err != nil {
		return
	}

	if err := r.client.Set(ctx, instructionCachePrefix+record.ID, data, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("instruction_id", record.ID).Msg("instruction cache write failed")
	}
}
