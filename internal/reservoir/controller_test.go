package reservoir

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
)

func newPool(t *testing.T) *xpool.WorkerPool {
	t.Helper()
	p, err := xpool.New(2, xpool.WithLogger(xlog.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newController(t *testing.T, pool *xpool.WorkerPool, r Reporter, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithStepDelay(0), WithLogger(xlog.Discard()), WithReporter(r)}, opts...)
	c, err := NewController(pool, nil, opts...)
	require.NoError(t, err)
	return c
}

// levelRecorder 收集 Report 的水位，供 gomock 的 Do 使用。
type levelRecorder struct {
	mu     sync.Mutex
	levels []float64
}

func (r *levelRecorder) record(_ context.Context, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, v.(float64))
}

func TestController_FillBelowTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := NewMockReporter(ctrl)
	rec := &levelRecorder{}
	reporter.EXPECT().Report(gomock.Any(), gomock.Any()).Do(rec.record).MinTimes(1)

	pool := newPool(t)
	c := newController(t, pool, reporter)

	plan, err := c.Handle(context.Background(), 590)
	require.NoError(t, err)
	assert.Equal(t, Fill, plan.Direction)
	assert.InDelta(t, 590.0, plan.Level, 0)
	require.Len(t, plan.Tasks, 2)

	levels, err := plan.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{600, 600}, levels)
	assert.InDelta(t, 600.0, c.Tank().Level(), 0)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, v := range rec.levels {
		assert.Greater(t, v, 590.0)
		assert.LessOrEqual(t, v, 600.0)
	}
	assert.Contains(t, rec.levels, 600.0)
}

func TestController_DrainAboveTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := NewMockReporter(ctrl)
	gomock.InOrder(
		reporter.EXPECT().Report(gomock.Any(), 600.5),
		reporter.EXPECT().Report(gomock.Any(), 600.0),
	)

	c := newController(t, newPool(t), reporter)
	plan, err := c.Handle(context.Background(), 601)
	require.NoError(t, err)
	assert.Equal(t, Drain, plan.Direction)
	require.Len(t, plan.Tasks, 1)

	levels, err := plan.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{600}, levels)
}

func TestController_AtTargetDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := NewMockReporter(ctrl) // 不允许任何 Report 调用

	c := newController(t, newPool(t), reporter)
	plan, err := c.Handle(context.Background(), 600)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)

	v, err := plan.Tasks[0].Wait()
	require.NoError(t, err)
	assert.InDelta(t, 600.0, v, 0)
}

func TestController_OutOfRangeSubmitsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	pool := newPool(t)
	c := newController(t, pool, NewMockReporter(ctrl))

	for _, level := range []float64{-1, -0.01, 1000.5, math.NaN()} {
		plan, err := c.Handle(context.Background(), level)
		assert.ErrorIs(t, err, ErrOutOfRange, "%v", level)
		assert.Empty(t, plan.Tasks)
	}
	assert.Zero(t, pool.Stats().Submitted)
	assert.InDelta(t, 0.0, c.Tank().Level(), 0)
}

func TestController_BoundariesAccepted(t *testing.T) {
	c := newController(t, newPool(t), discardReporter{})

	plan, err := c.Handle(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, Drain, plan.Direction)
	_, err = plan.Wait(context.Background())
	require.NoError(t, err)

	plan, err = c.Handle(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Fill, plan.Direction)
	levels, err := plan.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{600, 600}, levels)
}

func TestController_CustomSteps(t *testing.T) {
	c := newController(t, newPool(t), discardReporter{},
		WithLimits(Limits{Min: 0, Max: 100, Target: 50}),
		WithFillSteps(5),
		WithDrainStep(10))
	assert.Equal(t, Limits{Min: 0, Max: 100, Target: 50}, c.Limits())

	plan, err := c.Handle(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	levels, err := plan.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{50}, levels)

	_, err = c.Handle(context.Background(), 101)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestController_PoolStopped(t *testing.T) {
	pool := newPool(t)
	c := newController(t, pool, discardReporter{})
	require.NoError(t, pool.Close())

	_, err := c.Handle(context.Background(), 10)
	assert.ErrorIs(t, err, xpool.ErrPoolStopped)
}

func TestPlan_WaitContextExpiry(t *testing.T) {
	c := newController(t, newPool(t), discardReporter{}, WithStepDelay(20*time.Millisecond))
	plan, err := c.Handle(context.Background(), 595)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = plan.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	levels, err := plan.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{600, 600}, levels)
}

func TestNewController_Errors(t *testing.T) {
	pool := newPool(t)

	_, err := NewController(nil, nil)
	assert.ErrorIs(t, err, ErrNilPool)

	_, err = NewController(pool, nil, WithLimits(Limits{Min: 1, Max: 0}))
	assert.ErrorIs(t, err, ErrInvalidLimits)

	_, err = NewController(pool, nil, WithFillSteps())
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = NewController(pool, nil, WithFillSteps(1, -2))
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = NewController(pool, nil, WithDrainStep(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidStep)

	c, err := NewController(pool, NewTank(42), nil, WithReporter(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.InDelta(t, 42.0, c.Tank().Level(), 0)
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "fill", Fill.String())
	assert.Equal(t, "drain", Drain.String())
	assert.Equal(t, "Direction(0)", Direction(0).String())
}

type discardReporter struct{}

func (discardReporter) Report(context.Context, any) {}
