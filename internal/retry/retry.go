// Package retry runs calls against flaky external services with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first. Values below 1 mean 1.
	Attempts int
	// BaseDelay is the wait after the first failure; attempt n waits BaseDelay * 2^n.
	BaseDelay time.Duration
	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy waits 1s, 2s, 4s... between tries.
func DefaultPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Second}
}

// Backoff returns the wait after the given zero-based failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Transient reports whether the status is worth retrying (429 or 5xx).
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Classify wraps a StatusError as Permanent unless it is transient. Other
// errors (transport failures, timeouts) are returned unchanged and retried.
func Classify(err error) error {
	var se *StatusError
	if errors.As(err, &se) && !se.Transient() {
		return Permanent(err)
	}
	return err
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run
// out, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt == attempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
