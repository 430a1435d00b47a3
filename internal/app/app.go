package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xworkpool/internal/console"
	"github.com/omeyang/xworkpool/internal/reservoir"
	"github.com/omeyang/xworkpool/pkg/config/xconf"
	"github.com/omeyang/xworkpool/pkg/lifecycle/xrun"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
	"github.com/omeyang/xworkpool/pkg/observability/xrotate"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
	"github.com/omeyang/xworkpool/pkg/util/xproc"
)

// Name 是服务名，出现在日志的 service 字段。
const Name = "xtank"

// Options 是 New 的输入。零值可用：无配置文件、读写标准输入输出。
type Options struct {
	// ConfigPath 为空时只使用默认配置，不监视文件。
	ConfigPath string
	// Overrides 在配置文件之后应用，用于命令行参数；每次重载不会重新应用。
	Overrides []func(*Config)

	In        io.Reader // 默认 os.Stdin
	Out       io.Writer // 默认 os.Stdout，水位报告与控制台输出共用
	LogOutput io.Writer // 默认 os.Stderr，log.file 非空时忽略
	// Quiet 关闭控制台提示符，适合管道输入。
	Quiet bool
}

// App 组装水箱模拟的全部组件。
type App struct {
	cfg    Config
	source *xconf.Config

	logger     xlog.LoggerWithLevel
	logCleanup func() error

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	pool       *xpool.WorkerPool
	controller *reservoir.Controller
	console    *console.Console
	status     *statusReporter

	// drained 标记已执行过一次限时排空，Close 不再重复等待。
	drained atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// New 读取配置并创建全部组件，worker 在返回前已启动。
// 返回错误时已释放创建过的资源。调用方负责 Close。
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, source, err := LoadConfig(ctx, opts.ConfigPath, opts.Overrides...)
	if err != nil {
		return nil, err
	}
	in, out, logOut := opts.In, opts.Out, opts.LogOutput
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if logOut == nil {
		logOut = os.Stderr
	}
	out = &syncWriter{w: out}

	a := &App{cfg: cfg, source: source}
	if err := a.init(in, out, logOut, opts.Quiet); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *App) init(in io.Reader, out, logOut io.Writer, quiet bool) error {
	cfg := a.cfg

	b := xlog.New().
		SetLevel(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		SetOutput(logOut).
		SetAttrs(slog.String("service", Name)).
		SetAttrs(xproc.Current().LogAttrs()...)
	if cfg.Log.File != "" {
		b.SetRotation(cfg.Log.File,
			xrotate.WithMaxSize(cfg.Log.MaxSizeMB),
			xrotate.WithMaxBackups(cfg.Log.MaxBackups))
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return fmt.Errorf("app: build logger: %w", err)
	}
	a.logger, a.logCleanup = logger, cleanup

	// 设计决策: 指标由 ManualReader 按需采集，只服务于状态报告，不对外导出；
	// TracerProvider 不挂 exporter，span 仅用于关联。
	reader := sdkmetric.NewManualReader()
	a.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	a.tracerProvider = sdktrace.NewTracerProvider()
	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithTracerProvider(a.tracerProvider),
		xmetrics.WithMeterProvider(a.meterProvider),
		xmetrics.WithInstrumentationName("github.com/omeyang/xworkpool/internal/app"),
	)
	if err != nil {
		return err
	}

	a.pool, err = xpool.New(cfg.Pool.Workers,
		xpool.WithName(cfg.Pool.Name),
		xpool.WithQueueCapacity(cfg.Pool.QueueCapacity),
		xpool.WithLogger(logger),
		xpool.WithObserver(observer),
		xpool.WithReportWriter(out),
	)
	if err != nil {
		return err
	}

	tank := reservoir.NewTank(0)
	a.controller, err = reservoir.NewController(a.pool, tank,
		reservoir.WithLimits(cfg.Tank.Limits),
		reservoir.WithFillSteps(cfg.Tank.FillSteps...),
		reservoir.WithDrainStep(cfg.Tank.DrainStep),
		reservoir.WithStepDelay(cfg.Tank.StepDelay),
		reservoir.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	a.status = &statusReporter{pool: a.pool, tank: tank, reader: reader, logger: logger}

	prompt := console.DefaultPrompt
	if quiet {
		prompt = ""
	}
	a.console = console.New(in, out, a.controller,
		console.WithPrompt(prompt),
		console.WithLogger(logger),
		console.WithStatus(func() string {
			return a.status.Snapshot(context.Background()).String()
		}),
	)
	return nil
}

// Config 返回生效的配置。
func (a *App) Config() Config {
	return a.cfg
}

// Logger 返回应用日志记录器。
func (a *App) Logger() xlog.LoggerWithLevel {
	return a.logger
}

// Pool 返回工作池。
func (a *App) Pool() *xpool.WorkerPool {
	return a.pool
}

// Run 运行控制台、配置监视与状态报告，直到用户退出、输入结束、收到信号或 ctx 结束。
// 返回前 pool 已停止接收任务并等待排队任务完成（受 pool.shutdown_timeout 限制）。
//
// 正常退出（含信号）返回 nil。
func (a *App) Run(ctx context.Context, opts ...xrun.Option) error {
	var drainErr error
	services := []func(ctx context.Context) error{
		a.runConsole,
		xrun.OnStop(func(ctx context.Context) error {
			drainErr = a.drain(ctx)
			return nil
		}),
	}
	if a.source != nil {
		w, err := xconf.NewWatcher(a.source, a.onReload)
		if err != nil {
			a.logger.Warn(ctx, "config watch disabled", xlog.Err(err))
		} else {
			services = append(services, w.Run)
		}
	}
	if a.cfg.Status.Schedule != "" {
		services = append(services, a.status.run(a.cfg.Status.Schedule))
	}

	a.logger.Info(ctx, "started",
		slog.Int("workers", a.pool.Workers()),
		slog.Float64("target", a.cfg.Tank.Target))

	opts = append([]xrun.Option{xrun.WithName(Name), xrun.WithLogger(a.logger)}, opts...)
	err := xrun.RunWithOptions(ctx, opts, services...)

	var sigErr *xrun.SignalError
	switch {
	case errors.Is(err, errQuit):
		err = nil
	case errors.As(err, &sigErr):
		a.logger.Info(ctx, "stopped by signal", slog.String("signal", sigErr.Signal.String()))
		err = nil
	case errors.Is(err, context.Canceled):
		err = nil
	}
	return errors.Join(err, drainErr)
}

func (a *App) runConsole(ctx context.Context) error {
	if err := a.console.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return errQuit
}

func (a *App) drain(ctx context.Context) error {
	a.drained.Store(true)
	if a.cfg.Pool.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Pool.ShutdownTimeout)
		defer cancel()
	}
	start := time.Now()
	if err := a.pool.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "pool drain incomplete",
			slog.Int("pending", a.pool.Pending()), xlog.Err(err))
		return fmt.Errorf("app: drain pool: %w", err)
	}
	a.logger.Info(ctx, "pool drained", xlog.Duration(time.Since(start)))
	return nil
}

// onReload 只热更新日志级别，其余配置需要重启生效。
func (a *App) onReload(source *xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		a.logger.Warn(ctx, "config reload failed, keeping previous", xlog.Err(err))
		return
	}
	var lc LogConfig
	lc.Level = a.logger.GetLevel()
	if err := source.Unmarshal("log", &lc); err != nil {
		a.logger.Warn(ctx, "config reload failed, keeping previous", xlog.Err(err))
		return
	}
	if lc.Level == a.logger.GetLevel() {
		return
	}
	a.logger.SetLevel(lc.Level)
	a.logger.Info(ctx, "log level changed", slog.String("level", lc.Level.String()))
}

// Close 停止 pool 并释放指标、追踪与日志资源。可重复调用。
//
// 设计决策: Run 已做过限时排空时不再排空，排空总时长以 pool.shutdown_timeout 为上限，
// 超时错误只由 Run 报告一次。
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		ctx := context.Background()
		var errs []error
		if a.pool != nil && !a.drained.Load() {
			select {
			case <-a.pool.Done():
			default:
				errs = append(errs, a.drain(ctx))
			}
		}
		if a.meterProvider != nil {
			errs = append(errs, a.meterProvider.Shutdown(ctx))
		}
		if a.tracerProvider != nil {
			errs = append(errs, a.tracerProvider.Shutdown(ctx))
		}
		if a.logCleanup != nil {
			errs = append(errs, a.logCleanup())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// syncWriter 串行化 worker 报告与控制台输出的写入。
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
