package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/robfig/cron/v3"

	"github.com/omeyang/xworkpool/internal/reservoir"
	"github.com/omeyang/xworkpool/pkg/config/xconf"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/resilience/xretry"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
)

// 配置默认值。
const (
	DefaultPoolName        = "tank"
	DefaultWorkers         = 2
	DefaultShutdownTimeout = 30 * time.Second
	DefaultLogFormat       = "text"
	DefaultMaxSizeMB       = 100
	DefaultMaxBackups      = 3
)

// 配置文件读取的重试参数，覆盖编辑器原子替换文件时的短暂缺失窗口。
const (
	loadAttempts = 3
	loadDelay    = 50 * time.Millisecond
)

// statusParser 与调度器使用同一解析器，Validate 才能提前发现无效表达式。
var statusParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config 是 xtank 的完整配置。
type Config struct {
	Pool   PoolConfig   `koanf:"pool"`
	Tank   TankConfig   `koanf:"tank"`
	Log    LogConfig    `koanf:"log"`
	Status StatusConfig `koanf:"status"`
}

// PoolConfig 工作池配置。
type PoolConfig struct {
	Name          string `koanf:"name"`
	Workers       int    `koanf:"workers"`
	QueueCapacity int    `koanf:"queue_capacity"`
	// ShutdownTimeout 是退出时等待排队任务完成的上限，0 表示一直等待。
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// TankConfig 水箱与调节任务配置。
type TankConfig struct {
	reservoir.Limits `koanf:",squash"`

	FillSteps []float64     `koanf:"fill_steps"`
	DrainStep float64       `koanf:"drain_step"`
	StepDelay time.Duration `koanf:"step_delay"`
}

// LogConfig 日志配置。File 为空时输出到标准错误。
type LogConfig struct {
	Level      xlog.Level `koanf:"level"`
	Format     string     `koanf:"format"`
	File       string     `koanf:"file"`
	MaxSizeMB  int        `koanf:"max_size_mb"`
	MaxBackups int        `koanf:"max_backups"`
}

// StatusConfig 周期状态报告配置，Schedule 为空时关闭。
type StatusConfig struct {
	Schedule string `koanf:"schedule"`
}

// DefaultConfig 返回全部默认值。
func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			Name:            DefaultPoolName,
			Workers:         DefaultWorkers,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Tank: TankConfig{
			Limits:    reservoir.DefaultLimits(),
			FillSteps: reservoir.DefaultFillSteps(),
			DrainStep: reservoir.DefaultDrainStep,
			StepDelay: reservoir.DefaultStepDelay,
		},
		Log: LogConfig{
			Level:      xlog.LevelInfo,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
		},
	}
}

// Validate 检查配置取值。
func (c Config) Validate() error {
	var errs []error
	if c.Pool.Workers < 1 || c.Pool.Workers > xpool.MaxWorkers {
		errs = append(errs, fmt.Errorf("pool.workers must be in [1, %d], got %d", xpool.MaxWorkers, c.Pool.Workers))
	}
	if c.Pool.QueueCapacity < 0 || c.Pool.QueueCapacity > xpool.MaxQueueCapacity {
		errs = append(errs, fmt.Errorf("pool.queue_capacity must be in [0, %d], got %d",
			xpool.MaxQueueCapacity, c.Pool.QueueCapacity))
	}
	if c.Pool.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("pool.shutdown_timeout must be >= 0, got %s", c.Pool.ShutdownTimeout))
	}
	if err := c.Tank.Limits.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Tank.FillSteps) == 0 {
		errs = append(errs, errors.New("tank.fill_steps must not be empty"))
	}
	for _, s := range c.Tank.FillSteps {
		if !positive(s) {
			errs = append(errs, fmt.Errorf("tank.fill_steps must be positive, got %v", s))
		}
	}
	if !positive(c.Tank.DrainStep) {
		errs = append(errs, fmt.Errorf("tank.drain_step must be positive, got %v", c.Tank.DrainStep))
	}
	if c.Tank.StepDelay < 0 {
		errs = append(errs, fmt.Errorf("tank.step_delay must be >= 0, got %s", c.Tank.StepDelay))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Log.File != "" && (c.Log.MaxSizeMB <= 0 || c.Log.MaxBackups < 0) {
		errs = append(errs, fmt.Errorf("log rotation needs max_size_mb > 0 and max_backups >= 0, got %d/%d",
			c.Log.MaxSizeMB, c.Log.MaxBackups))
	}
	if c.Status.Schedule != "" {
		if _, err := statusParser.Parse(c.Status.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("status.schedule: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadConfig 读取配置文件，依次应用 overrides 后校验。
// path 为空时只使用默认值，返回的 *xconf.Config 为 nil。
//
// 设计决策: 只有读取失败（文件暂不可读）会重试，解析与解码错误直接返回。
func LoadConfig(ctx context.Context, path string, overrides ...func(*Config)) (Config, *xconf.Config, error) {
	cfg := DefaultConfig()

	var source *xconf.Config
	if path != "" {
		r := xretry.NewRetryer(
			xretry.WithAttempts(loadAttempts),
			xretry.WithBackoff(xretry.NewFixedBackoff(loadDelay)),
			xretry.WithRetryIf(func(err error) bool { return errors.Is(err, xconf.ErrLoadFailed) }),
		)
		var err error
		source, err = xretry.DoWithResult(ctx, r, func(context.Context) (*xconf.Config, error) {
			return xconf.New(path)
		})
		if err != nil {
			return Config{}, nil, err
		}
		if err := decode(source, &cfg); err != nil {
			return Config{}, nil, err
		}
	}

	for _, o := range overrides {
		if o != nil {
			o(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, source, nil
}

// decode 把 source 解码到 cfg 上，未出现的键保留 cfg 原值。
func decode(source *xconf.Config, cfg *Config) error {
	// 切片解码会逐元素覆盖已有值，先清空再回填默认值，避免新旧元素混合。
	defaults := cfg.Tank.FillSteps
	cfg.Tank.FillSteps = nil
	if err := source.Unmarshal("", cfg); err != nil {
		return err
	}
	if cfg.Tank.FillSteps == nil {
		cfg.Tank.FillSteps = slices.Clone(defaults)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// YAML 以配置文件格式输出 c，可直接作为配置文件使用。
func (c Config) YAML() ([]byte, error) {
	m := map[string]any{
		"pool": map[string]any{
			"name":             c.Pool.Name,
			"workers":          c.Pool.Workers,
			"queue_capacity":   c.Pool.QueueCapacity,
			"shutdown_timeout": c.Pool.ShutdownTimeout.String(),
		},
		"tank": map[string]any{
			"min":        c.Tank.Min,
			"max":        c.Tank.Max,
			"target":     c.Tank.Target,
			"fill_steps": c.Tank.FillSteps,
			"drain_step": c.Tank.DrainStep,
			"step_delay": c.Tank.StepDelay.String(),
		},
		"log": map[string]any{
			"level":       c.Log.Level.String(),
			"format":      c.Log.Format,
			"file":        c.Log.File,
			"max_size_mb": c.Log.MaxSizeMB,
			"max_backups": c.Log.MaxBackups,
		},
		"status": map[string]any{
			"schedule": c.Status.Schedule,
		},
	}
	return yaml.Parser().Marshal(m)
}
