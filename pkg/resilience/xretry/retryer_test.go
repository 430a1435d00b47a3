package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryer(opts ...Option) *Retryer {
	return NewRetryer(append([]Option{WithBackoff(NewFixedBackoff(0))}, opts...)...)
}

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var attempts []int
	r := fastRetryer(WithAttempts(5), WithOnRetry(func(attempt int, _ error) {
		attempts = append(attempts, attempt)
	}))

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	err := fastRetryer(WithAttempts(3)).Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
}

func TestRetryer_PermanentStopsImmediately(t *testing.T) {
	errBad := errors.New("bad input")
	calls := 0
	err := fastRetryer(WithAttempts(5)).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errBad)
	})
	assert.ErrorIs(t, err, errBad)
	assert.Equal(t, 1, calls)

	assert.True(t, IsPermanent(Permanent(errBad)))
	assert.False(t, IsPermanent(errBad))
	assert.False(t, IsPermanent(nil))
	assert.NoError(t, Permanent(nil))
}

func TestRetryer_RetryIf(t *testing.T) {
	errSkip := errors.New("skip")
	calls := 0
	r := fastRetryer(WithAttempts(5), WithRetryIf(func(err error) bool {
		return !errors.Is(err, errSkip)
	}))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errSkip
	})
	assert.ErrorIs(t, err, errSkip)
	assert.Equal(t, 1, calls)
}

func TestRetryer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r := NewRetryer(WithAttempts(0), WithBackoff(NewFixedBackoff(5*time.Millisecond)))
	err := r.Do(ctx, func(context.Context) error { return errors.New("always") })
	require.Error(t, err)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	v, err := DoWithResult(context.Background(), fastRetryer(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 600, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 600, v)
}

func TestRetryer_InvalidArguments(t *testing.T) {
	var nilRetryer *Retryer
	noop := func(context.Context) error { return nil }

	assert.ErrorIs(t, nilRetryer.Do(context.Background(), noop), ErrNilRetryer)
	//nolint:staticcheck // 验证 nil context 被拒绝
	assert.ErrorIs(t, NewRetryer().Do(nil, noop), ErrNilContext)
	assert.ErrorIs(t, NewRetryer().Do(context.Background(), nil), ErrNilFunc)

	_, err := DoWithResult[int](context.Background(), nil, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNilRetryer)
	_, err = DoWithResult[int](context.Background(), NewRetryer(), nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestNewRetryer_IgnoresNilOptions(t *testing.T) {
	r := NewRetryer(nil, WithBackoff(nil), WithRetryIf(nil), WithOnRetry(nil))
	assert.Equal(t, DefaultAttempts, r.attempts)
	assert.NotNil(t, r.backoff)
}
