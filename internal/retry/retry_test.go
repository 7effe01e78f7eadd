package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(int) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503, Body: "busy"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), fastPolicy(2), func(int) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(int) error {
		calls++
		return Classify(&StatusError{Code: 401, Body: "nope"})
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 401, se.Code)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, BaseDelay: time.Hour, OnRetry: func(int, time.Duration, error) { cancel() }}

	err := Do(ctx, p, func(int) error { return errors.New("flaky") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDoubles(t *testing.T) {
	p := DefaultPolicy(4)
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
}

func TestStatusErrorTransient(t *testing.T) {
	assert.True(t, (&StatusError{Code: 429}).Transient())
	assert.True(t, (&StatusError{Code: 500}).Transient())
	assert.False(t, (&StatusError{Code: 404}).Transient())
	assert.False(t, IsPermanent(Classify(errors.New("dial tcp: refused"))))
	assert.True(t, IsPermanent(Classify(&StatusError{Code: 400})))
}
