package xpool

import (
	"io"
	"os"

	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
)

// Option 定义 WorkerPool 可选配置函数类型。
type Option func(*options)

type options struct {
	name     string
	capacity int
	logger   xlog.Logger
	observer xmetrics.Observer
	report   io.Writer
}

func defaultOptions() options {
	return options{
		report: os.Stdout,
	}
}

// WithName 设置 pool 名称，用于日志、Report 输出与观测属性。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithQueueCapacity 设置队列上限，0（默认）表示无界。
// 队列达到上限时 Submit 返回 ErrQueueFull。
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithLogger 设置日志记录器，默认使用 xlog.Default()。nil 被忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver 设置观测器，每次任务执行开启一个跨度。默认不观测。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithReportWriter 设置 Report 的输出目标，默认 os.Stdout。nil 被忽略。
func WithReportWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.report = w
		}
	}
}
