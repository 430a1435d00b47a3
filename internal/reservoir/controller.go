package reservoir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
)

// 默认步进参数。
const (
	DefaultDrainStep = 0.5
	DefaultStepDelay = 500 * time.Millisecond
)

// DefaultFillSteps 返回默认注水口步长（+1 与 +2）。
func DefaultFillSteps() []float64 {
	return []float64{1, 2}
}

// Direction 是一次调节的方向。
type Direction int

// 调节方向。
const (
	Fill Direction = iota + 1
	Drain
)

func (d Direction) String() string {
	switch d {
	case Fill:
		return "fill"
	case Drain:
		return "drain"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Plan 是一次 Handle 提交的结果。
type Plan struct {
	Level     float64
	Direction Direction
	Tasks     []*xpool.Future[float64]
}

// Wait 等待全部任务完成，返回各任务的最终水位。
// ctx 结束时返回 ctx.Err()，任务本身继续运行。
func (p Plan) Wait(ctx context.Context) ([]float64, error) {
	levels := make([]float64, 0, len(p.Tasks))
	var errs []error
	for _, f := range p.Tasks {
		v, err := f.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return levels, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		levels = append(levels, v)
	}
	return levels, errors.Join(errs...)
}

// Option 配置 Controller。
type Option func(*Controller)

// WithLimits 设置边界。
func WithLimits(l Limits) Option {
	return func(c *Controller) { c.limits = l }
}

// WithFillSteps 设置注水口步长，每个步长对应一个并发任务。
func WithFillSteps(steps ...float64) Option {
	copied := append([]float64(nil), steps...)
	return func(c *Controller) { c.fillSteps = copied }
}

// WithDrainStep 设置放水步长（正数）。
func WithDrainStep(step float64) Option {
	return func(c *Controller) { c.drainStep = step }
}

// WithStepDelay 设置每步之后的等待时长，<= 0 表示不等待。
func WithStepDelay(d time.Duration) Option {
	return func(c *Controller) { c.stepDelay = max(d, 0) }
}

// WithReporter 设置水位输出，默认使用 pool 本身。nil 被忽略。
func WithReporter(r Reporter) Option {
	return func(c *Controller) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithLogger 设置日志记录器，默认 xlog.Default()。nil 被忽略。
func WithLogger(l xlog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller 把输入水位转换为提交到 pool 的调节任务。
type Controller struct {
	pool      *xpool.WorkerPool
	tank      *Tank
	reporter  Reporter
	logger    xlog.Logger
	limits    Limits
	fillSteps []float64
	drainStep float64
	stepDelay time.Duration
}

// NewController 创建控制器。tank 为 nil 时新建一个水位为 0 的水箱。
func NewController(pool *xpool.WorkerPool, tank *Tank, opts ...Option) (*Controller, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if tank == nil {
		tank = NewTank(0)
	}
	c := &Controller{
		pool:      pool,
		tank:      tank,
		reporter:  pool,
		limits:    DefaultLimits(),
		fillSteps: DefaultFillSteps(),
		drainStep: DefaultDrainStep,
		stepDelay: DefaultStepDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = xlog.Default()
	}
	if err := c.limits.Validate(); err != nil {
		return nil, err
	}
	if len(c.fillSteps) == 0 {
		return nil, fmt.Errorf("%w: no fill steps", ErrInvalidStep)
	}
	for _, s := range append([]float64{c.drainStep}, c.fillSteps...) {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStep, s)
		}
	}
	return c, nil
}

// Tank 返回被控制的水箱。
func (c *Controller) Tank() *Tank {
	return c.tank
}

// Limits 返回当前边界。
func (c *Controller) Limits() Limits {
	return c.limits
}

// Handle 校验并接受一个输入水位：写入水箱，然后提交调节任务。
//
// 越界时返回 ErrOutOfRange，不提交任何任务。
// 低于目标时每个注水口提交一个任务，否则提交一个放水任务；
// 恰好等于目标时放水任务不做任何调整，立即以原水位完成。
func (c *Controller) Handle(ctx context.Context, level float64) (Plan, error) {
	if err := c.limits.Check(level); err != nil {
		c.logger.Debug(ctx, "level rejected", slog.Float64("level", level), xlog.Err(err))
		return Plan{}, err
	}
	c.tank.Set(level)

	plan := Plan{Level: level, Direction: Drain}
	deltas := []float64{-c.drainStep}
	if level < c.limits.Target {
		plan.Direction = Fill
		deltas = make([]float64, len(c.fillSteps))
		copy(deltas, c.fillSteps)
	}

	for _, d := range deltas {
		f, err := xpool.Submit(c.pool, c.adjust(d))
		if err != nil {
			return plan, fmt.Errorf("reservoir: submit %s task: %w", plan.Direction, err)
		}
		plan.Tasks = append(plan.Tasks, f)
	}
	c.logger.Info(ctx, "level accepted",
		slog.Float64("level", level),
		slog.Float64("target", c.limits.Target),
		slog.String("direction", plan.Direction.String()),
		xlog.Count(len(plan.Tasks)))
	return plan, nil
}

// adjust 返回一个每步调整 delta、直到到达目标的任务。
func (c *Controller) adjust(delta float64) func(ctx context.Context) (float64, error) {
	return func(ctx context.Context) (float64, error) {
		for {
			level, moved := c.tank.Step(delta, c.limits.Target)
			if !moved {
				return level, nil
			}
			c.reporter.Report(ctx, level)
			if err := sleep(ctx, c.stepDelay); err != nil {
				return c.tank.Level(), err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
