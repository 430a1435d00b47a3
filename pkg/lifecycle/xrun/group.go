package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xworkpool/pkg/observability/xlog"
)

// Group 管理一组并发服务。Go、GoWithName、Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *options
}

// NewGroup 创建 Group，返回的 context 在任一服务出错或 Cancel 时取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: o}, egCtx
}

// Go 在新 goroutine 中运行 fn，fn 返回错误时取消整个 Group。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，额外记录服务的启动与退出日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}
		g.opts.logger.Debug(g.ctx, "service starting", attrs...)

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", attrs...)
		}
		return err
	})
}

// Wait 等待所有服务退出，错误语义见包文档。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug(g.causeCtx, "all services stopped", slog.String("group", g.opts.name))

	// causeCtx 未取消说明 Canceled 来自服务内部，不能过滤
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if g.causeCtx.Err() == nil {
		return err
	}
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 以 cause 取消所有服务，Wait 将返回 cause（nil 时返回 nil）。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回服务共享的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// watchSignals 收到信号时以 *SignalError 取消 Group。
func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	defer signal.Stop(ch)

	var sig os.Signal
	select {
	case sig = <-ch:
	case sig = <-testSigChan(ctx):
	case <-ctx.Done():
		return nil
	}
	g.opts.logger.Info(ctx, "received signal",
		slog.String("group", g.opts.name), slog.String("signal", sig.String()))
	g.cancel(&SignalError{Signal: sig})
	return nil
}

func runGroup(ctx context.Context, opts []Option, add func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignals {
		g.Go(g.watchSignals)
	}
	add(g)
	return g.Wait()
}

// Run 运行服务并监听默认信号，收到信号时返回 *SignalError。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// Service 是可由 Group 管理的长期运行组件。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunServices 以 Service 形式运行服务，行为同 RunWithOptions。
func RunServices(ctx context.Context, opts []Option, services ...Service) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			if svc == nil {
				g.Go(func(context.Context) error { return ErrNilService })
				continue
			}
			g.Go(svc.Run)
		}
	})
}

// OnStop 返回一个等待 ctx 结束后执行 fn 的服务。
// fn 收到的 context 不随 Group 取消，由 fn 自行决定超时。
func OnStop(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		<-ctx.Done()
		return fn(context.WithoutCancel(ctx))
	}
}

// testSigChanKey 用于测试时注入信号，避免向测试进程发送真实信号。
type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
