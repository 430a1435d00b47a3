package xrun

import (
	"os"
	"syscall"

	"github.com/omeyang/xworkpool/pkg/observability/xlog"
)

// DefaultSignals 返回默认监听的信号（SIGINT、SIGTERM、SIGHUP）。每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}
}

// Option 配置 Group。
type Option func(*options)

type options struct {
	logger    xlog.Logger
	name      string
	signals   []os.Signal
	noSignals bool
}

func defaultOptions() *options {
	return &options{name: "xrun"}
}

// WithLogger 设置生命周期日志记录器，默认 xlog.Default()。nil 被忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，出现在日志的 group 字段。空串被忽略。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖 Run 监听的信号列表，空列表等同于默认值。
func WithSignals(signals ...os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *options) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用 Run 的信号监听。
func WithoutSignalHandler() Option {
	return func(o *options) {
		o.noSignals = true
	}
}
