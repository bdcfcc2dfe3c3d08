// Package retry implements the shared recovery policy for transient
// upstream failures on model calls.
package retry

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/flookyhq/flooky-tools/internal/domain"
)

// Policy retries an operation on transient upstream overload with
// exponentially growing delays. A policy makes at most MaxAttempts calls;
// the delay before attempt n+1 is BaseDelay * Multiplier^(n-1), undithered
// so behavior stays deterministic.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// Retryable reports whether err warrants another attempt. When nil,
	// only domain.ErrUpstreamOverloaded is retried.
	Retryable func(error) bool
	// Notify observes each scheduled retry and the delay preceding it.
	Notify func(err error, delay time.Duration)
}

// Default returns the policy used for production model calls.
func Default() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Multiplier: 2.0}
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return errors.Is(err, domain.ErrUpstreamOverloaded)
}

// Do runs op under the policy. Non-retryable errors abort immediately; the
// last error is returned once attempts are exhausted. Context cancellation
// cuts waiting short.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.BaseDelay
	expo.Multiplier = p.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxInterval = 24 * time.Hour
	expo.MaxElapsedTime = 0
	var b backoff.BackOff = backoff.WithMaxRetries(expo, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, delay time.Duration) {
		if p.Notify != nil {
			p.Notify(err, delay)
		}
	}
	return backoff.RetryNotify(wrapped, b, notify)
}
