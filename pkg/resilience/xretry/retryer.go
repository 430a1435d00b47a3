package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// DefaultAttempts 是未设置 WithAttempts 时的最大尝试次数。
const DefaultAttempts = 3

// Retryer 重试执行器，创建后只读，可并发使用。
type Retryer struct {
	attempts int
	backoff  BackoffPolicy
	retryIf  func(error) bool
	onRetry  func(attempt int, err error)
}

// Option 配置 Retryer。
type Option func(*Retryer)

// WithAttempts 设置最大尝试次数（含首次），n <= 0 表示直到成功或 ctx 结束。
func WithAttempts(n int) Option {
	return func(r *Retryer) {
		r.attempts = n
	}
}

// WithBackoff 设置退避策略，nil 被忽略。
func WithBackoff(b BackoffPolicy) Option {
	return func(r *Retryer) {
		if b != nil {
			r.backoff = b
		}
	}
}

// WithRetryIf 设置额外的可重试判断，返回 false 时立即结束。nil 被忽略。
func WithRetryIf(f func(error) bool) Option {
	return func(r *Retryer) {
		if f != nil {
			r.retryIf = f
		}
	}
}

// WithOnRetry 设置每次失败后、等待前的回调，attempt 从 1 开始。nil 被忽略。
func WithOnRetry(f func(attempt int, err error)) Option {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器，默认 3 次尝试、指数退避。
func NewRetryer(opts ...Option) *Retryer {
	r := &Retryer{
		attempts: DefaultAttempts,
		backoff:  NewExponentialBackoff(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Do 执行 fn，失败时按策略重试，返回最后一次的错误。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.check(ctx, fn == nil); err != nil {
		return err
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 是 Do 的带返回值版本。
//
// 设计决策: Go 方法不支持类型参数，因此作为包级函数提供。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := r.check(ctx, fn == nil); err != nil {
		var zero T
		return zero, err
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) check(ctx context.Context, nilFn bool) error {
	switch {
	case r == nil:
		return ErrNilRetryer
	case ctx == nil:
		return ErrNilContext
	case nilFn:
		return ErrNilFunc
	}
	return nil
}

// options 每次调用重建，retry-go 的 Retrier 不可在多次 Do 之间共享。
func (r *Retryer) options(ctx context.Context) []retry.Option {
	backoff := r.backoff
	if backoff == nil {
		backoff = NewExponentialBackoff()
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return backoff.NextDelay(uintToInt(n))
		}),
	}
	if r.attempts <= 0 {
		opts = append(opts, retry.UntilSucceeded())
	} else {
		opts = append(opts, retry.Attempts(uint(r.attempts)))
	}
	if r.retryIf != nil {
		retryIf := r.retryIf
		opts = append(opts, retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && retryIf(err)
		}))
	}
	if r.onRetry != nil {
		onRetry := r.onRetry
		// retry-go 的 n 从 0 开始
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			onRetry(uintToInt(n)+1, err)
		}))
	}
	return opts
}

func uintToInt(n uint) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
