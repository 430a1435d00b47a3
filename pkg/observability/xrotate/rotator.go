package xrotate

import (
	"fmt"
	"io"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xworkpool/pkg/util/xfile"
)

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口。
//
// Close 后调用 Write 或 Rotate 返回 [ErrClosed]。
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error
	// Rotate 手动触发轮转：关闭当前文件，重命名为备份，创建新文件。
	Rotate() error
}

// 默认值与上限
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// Config 是 lumberjack 轮转配置，零值字段在 NewLumberjack 中使用默认值。
type Config struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	LocalTime  bool
}

// Option lumberjack 配置选项函数
type Option func(*Config)

// WithMaxSize 设置单个日志文件最大大小（MB）
func WithMaxSize(mb int) Option {
	return func(c *Config) { c.MaxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份文件数量
func WithMaxBackups(n int) Option {
	return func(c *Config) { c.MaxBackups = n }
}

// WithMaxAge 设置保留备份的天数
func WithMaxAge(days int) Option {
	return func(c *Config) { c.MaxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份文件
func WithCompress(compress bool) Option {
	return func(c *Config) { c.Compress = compress }
}

// WithLocalTime 设置备份文件名是否使用本地时间（默认 UTC）
func WithLocalTime(local bool) Option {
	return func(c *Config) { c.LocalTime = local }
}

type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的日志轮转器。
// 父目录不存在时自动创建（权限 0750），指向目录的路径返回 xfile.ErrNotFile。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := Config{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path, err := xfile.CheckFilePath(filename)
	if err != nil {
		return nil, fmt.Errorf("xrotate: %w", err)
	}
	if err := xfile.EnsureParentDir(path, xfile.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("xrotate: %w", err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
	}, nil
}

func (c *Config) validate() error {
	if c.MaxSizeMB <= 0 || c.MaxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.MaxSizeMB, maxSizeMB)
	}
	if c.MaxBackups < 0 || c.MaxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.MaxBackups, maxBackups)
	}
	if c.MaxAgeDays < 0 || c.MaxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.MaxAgeDays, maxAgeDays)
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		return ErrNoCleanupPolicy
	}
	return nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return r.logger.Write(p)
}

// Close 关闭轮转器，重复调用返回 ErrClosed。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.logger.Rotate()
}
