package xretry

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy 计算第 attempt 次失败后（从 1 开始）的等待时长。
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// FixedBackoff 固定延迟。
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定延迟退避，负数视为 0。
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	return &FixedBackoff{delay: max(delay, 0)}
}

// NextDelay 恒返回固定延迟。
func (b *FixedBackoff) NextDelay(int) time.Duration {
	return b.delay
}

// ExponentialBackoff 指数退避：
// delay = min(initial * multiplier^(attempt-1) * (1 ± jitter), maxDelay)
type ExponentialBackoff struct {
	initial    time.Duration
	maxDelay   time.Duration
	multiplier float64
	jitter     float64
}

// ExponentialOption 指数退避配置选项。
type ExponentialOption func(*ExponentialBackoff)

// WithInitialDelay 设置初始延迟，d <= 0 被忽略。
func WithInitialDelay(d time.Duration) ExponentialOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initial = d
		}
	}
}

// WithMaxDelay 设置延迟上限，d <= 0 被忽略。
func WithMaxDelay(d time.Duration) ExponentialOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier 设置增长因子，小于 1 被忽略。
func WithMultiplier(m float64) ExponentialOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithJitter 设置抖动比例，截断到 [0, 1]。
func WithJitter(j float64) ExponentialOption {
	return func(b *ExponentialBackoff) {
		b.jitter = min(max(j, 0), 1)
	}
}

// NewExponentialBackoff 创建指数退避。
// 默认 initial 100ms、maxDelay 5s、multiplier 2、jitter 0.1。
func NewExponentialBackoff(opts ...ExponentialOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initial:    100 * time.Millisecond,
		maxDelay:   5 * time.Second,
		multiplier: 2,
		jitter:     0.1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.maxDelay = max(b.maxDelay, b.initial)
	return b
}

// NextDelay 返回第 attempt 次失败后的等待时长。
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	delay := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if b.jitter > 0 {
		delay *= 1 + (rand.Float64()*2-1)*b.jitter //nolint:gosec // 抖动不需要密码学随机
	}
	// math.Pow 溢出后可能得到 +Inf 或 NaN，NaN 的比较恒为 false
	if math.IsNaN(delay) || delay < 0 || delay >= float64(b.maxDelay) {
		return b.maxDelay
	}
	return time.Duration(delay)
}
