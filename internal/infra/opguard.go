package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Operation Guard ───────────────────────────────────────────────────────────
// Serializes mutating drawer operations within one process. Acquisition is
// try-with-timeout: a caller that cannot get the slot in time receives
// ErrBusy immediately instead of queueing behind an unbounded line, so the
// UI can show "try again" rather than hang.
//
// Transient failures inside the guarded action (connection drops, etc.) are
// retried with linear backoff; the last cause is preserved under
// ErrPersistenceFailure when attempts run out. Validation errors are never
// retried — only errors wrapped with Transient participate.

// ErrBusy is returned when the guard slot cannot be acquired within the timeout.
var ErrBusy = errors.New("another drawer operation is in progress, try again")

// ErrPersistenceFailure wraps the last cause after retries are exhausted.
var ErrPersistenceFailure = errors.New("persistence failure")

// errTransient marks retryable errors; see Transient / IsTransient.
var errTransient = errors.New("transient")

// Transient marks err as retryable by the guard. The original error remains
// reachable through errors.Is / errors.As.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errTransient, err)
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	return errors.Is(err, errTransient)
}

// OpGuardConfig holds tunable parameters.
type OpGuardConfig struct {
	AcquireTimeout time.Duration // max wait for the slot (default: 3s)
	MaxRetries     int           // transient retry attempts (default: 3)
	BaseDelay      time.Duration // linear backoff unit: attempt × BaseDelay (default: 150ms)
}

// DefaultOpGuardConfig returns the defaults used by the drawer service.
func DefaultOpGuardConfig() OpGuardConfig {
	return OpGuardConfig{
		AcquireTimeout: 3 * time.Second,
		MaxRetries:     3,
		BaseDelay:      150 * time.Millisecond,
	}
}

// OpGuard is a one-slot lock with acquire-or-fail semantics.
type OpGuard struct {
	slot           chan struct{}
	acquireTimeout time.Duration
	maxRetries     int
	baseDelay      time.Duration
}

// NewOpGuard creates a guard with the slot free.
func NewOpGuard(cfg OpGuardConfig) *OpGuard {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 3 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 150 * time.Millisecond
	}
	g := &OpGuard{
		slot:           make(chan struct{}, 1),
		acquireTimeout: cfg.AcquireTimeout,
		maxRetries:     cfg.MaxRetries,
		baseDelay:      cfg.BaseDelay,
	}
	g.slot <- struct{}{}
	return g
}

// WithExclusiveAccess runs fn while holding the slot. It returns ErrBusy if
// the slot is not free within the acquire timeout, retries transient errors
// up to MaxRetries times with linear backoff, and wraps the final transient
// cause in ErrPersistenceFailure. Non-transient errors pass through on the
// first attempt.
func (g *OpGuard) WithExclusiveAccess(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(g.acquireTimeout)
	defer timer.Stop()

	select {
	case <-g.slot:
		defer func() { g.slot <- struct{}{} }()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBusy
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == g.maxRetries {
			break
		}

		delay := time.Duration(attempt) * g.baseDelay
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("opguard: transient failure, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrPersistenceFailure, g.maxRetries, lastErr)
}
