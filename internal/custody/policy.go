package custody

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/erazemk/orodjarna/internal/model"
)

// Policy bounds store calls. Each attempt gets its own Timeout; failed
// attempts are retried up to Attempts total with exponential backoff and
// jitter between them.
type Policy struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy allows one retry within five seconds per attempt.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:   5 * time.Second,
		Attempts:  2,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
	}
}

// Do runs op until it succeeds, fails permanently or runs out of attempts.
// Permanent failures (see retryable) and cancellation of ctx stop it early.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = p.attempt(ctx, op)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) || attempt == attempts-1 {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.backoff(attempt)):
		}
	}
	return err
}

func (p Policy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return op(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return op(ctx)
}

// retryable reports whether err may clear up on another attempt. The record
// store can sit behind a network, so failures are transient unless they are
// known to be permanent: a missing tool, a malformed filter or cancellation.
func retryable(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, model.ErrToolNotFound),
		errors.Is(err, model.ErrInvalidFilter),
		errors.Is(err, context.Canceled):
		return false
	}
	return ctx.Err() == nil
}

// backoff computes baseDelay * 2^attempt capped at maxDelay, plus up to one
// baseDelay of jitter.
func (p Policy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(p.BaseDelay)))
}
