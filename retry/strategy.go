// Package retry implements the reconnect-backoff strategies the
// connection pool threads into every connection it creates.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Strategy decides whether a failed connection attempt may be retried and,
// if so, how long to wait first. A strategy's attempt counter resets on a
// successful connect.
type Strategy interface {
	// Next returns the wait duration before the next attempt and whether
	// another attempt is permitted at all.
	Next() (time.Duration, bool)
	// Reset clears attempt state after a successful connection.
	Reset()
}

// None never retries.
type None struct{}

func (None) Next() (time.Duration, bool) { return 0, false }
func (None) Reset()                      {}

// Interval retries at a fixed delay, up to an optional attempt limit
// (0 means unlimited).
type Interval struct {
	Delay   time.Duration
	Limit   int
	attempt int
}

// NewInterval returns an Interval strategy with the given delay and an
// optional attempt limit (0 for unlimited).
func NewInterval(delay time.Duration, limit int) *Interval {
	return &Interval{Delay: delay, Limit: limit}
}

func (s *Interval) Next() (time.Duration, bool) {
	if s.Limit > 0 && s.attempt >= s.Limit {
		return 0, false
	}
	s.attempt++
	return s.Delay, true
}

func (s *Interval) Reset() { s.attempt = 0 }

// Exponential retries with a doubling delay capped at MaxInterval, up to an
// optional attempt limit (0 means unlimited). It wraps backoff.ExponentialBackOff
// with randomization disabled so the wait follows min(2^attempt, MaxInterval)
// deterministically, matching the plain formula this strategy is specified by.
type Exponential struct {
	MaxInterval time.Duration
	Limit       int

	attempt int
	backoff *backoff.ExponentialBackOff
}

// NewExponential returns an Exponential strategy capped at maxInterval with
// an optional attempt limit (0 for unlimited).
func NewExponential(maxInterval time.Duration, limit int) *Exponential {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = maxInterval
	b.RandomizationFactor = 0
	return &Exponential{MaxInterval: maxInterval, Limit: limit, backoff: b}
}

func (s *Exponential) Next() (time.Duration, bool) {
	if s.Limit > 0 && s.attempt >= s.Limit {
		return 0, false
	}
	s.attempt++
	d := s.backoff.NextBackOff()
	if d == backoff.Stop {
		return s.MaxInterval, true
	}
	return d, true
}

func (s *Exponential) Reset() {
	s.attempt = 0
	s.backoff.Reset()
}
