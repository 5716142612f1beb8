package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a recording transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultListLimit and MaxListLimit bound record listings
	DefaultListLimit = 20
	MaxListLimit     = 100
)
