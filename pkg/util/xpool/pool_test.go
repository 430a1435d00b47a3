package xpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xworkpool/pkg/context/xctx"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
)

func newTestPool(t *testing.T, workers int, opts ...Option) *WorkerPool {
	t.Helper()
	opts = append([]Option{WithLogger(xlog.Discard())}, opts...)
	p, err := New(workers, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNew_InvalidWorkers(t *testing.T) {
	for _, n := range []int{0, -1, MaxWorkers + 1} {
		p, err := New(n)
		assert.ErrorIs(t, err, ErrInvalidWorkers, "workers=%d", n)
		assert.Nil(t, p)
	}
}

func TestNew_InvalidQueueCapacity(t *testing.T) {
	p, err := New(1, WithQueueCapacity(-1))
	assert.ErrorIs(t, err, ErrInvalidQueueCapacity)
	assert.Nil(t, p)
}

func TestNew_Accessors(t *testing.T) {
	p := newTestPool(t, 3, WithName("tank"), nil)
	assert.Equal(t, 3, p.Workers())
	assert.Equal(t, "tank", p.Name())
	assert.Equal(t, 0, p.Pending())
}

func TestSubmit_AllResultsExactlyOnce(t *testing.T) {
	const m = 500
	p := newTestPool(t, 8)

	var calls [m]atomic.Int32
	futures := make([]*Future[int], m)
	for i := range m {
		f, err := Submit(p, func(context.Context) (int, error) {
			calls[i].Add(1)
			return i * 2, nil
		})
		require.NoError(t, err)
		futures[i] = f
	}

	for i, f := range futures {
		v, err := f.Wait()
		require.NoError(t, err)
		assert.Equal(t, i*2, v)
	}
	require.NoError(t, p.Close())
	for i := range m {
		assert.Equal(t, int32(1), calls[i].Load(), "task %d", i)
	}

	st := p.Stats()
	assert.Equal(t, uint64(m), st.Submitted)
	assert.Equal(t, uint64(m), st.Succeeded)
}

func TestStats_CompletedNeverExceedsSubmitted(t *testing.T) {
	const m = 2000
	p := newTestPool(t, 4)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := p.Stats()
			if done := st.Succeeded + st.Failed + st.Panicked; done > st.Submitted {
				t.Errorf("completed %d > submitted %d", done, st.Submitted)
				return
			}
		}
	}()

	for range m {
		_, err := Submit(p, func(context.Context) (struct{}, error) {
			return struct{}{}, nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())
	close(stop)
	wg.Wait()

	st := p.Stats()
	assert.Equal(t, uint64(m), st.Submitted)
	assert.Equal(t, uint64(m), st.Succeeded)
}

func TestSubmit_SingleWorkerFIFO(t *testing.T) {
	p := newTestPool(t, 1)

	// 占住唯一的 worker，保证后续任务全部进入队列
	gate := make(chan struct{})
	_, err := Exec(p, func(context.Context) error {
		<-gate
		return nil
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	for i := range 20 {
		_, err := Exec(p, func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 20, p.Pending())
	close(gate)
	require.NoError(t, p.Close())

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
}

func TestSubmit_ErrorAndPanicIsolation(t *testing.T) {
	p := newTestPool(t, 1)
	errBoom := errors.New("boom")

	failing, err := Submit(p, func(context.Context) (int, error) { return 0, errBoom })
	require.NoError(t, err)
	panicking, err := Submit(p, func(context.Context) (int, error) { panic("kaboom") })
	require.NoError(t, err)
	panicErr, err := Submit(p, func(context.Context) (int, error) { panic(errBoom) })
	require.NoError(t, err)
	ok, err := Submit(p, func(context.Context) (string, error) { return "still alive", nil })
	require.NoError(t, err)

	_, err = failing.Wait()
	assert.ErrorIs(t, err, errBoom)

	_, err = panicking.Wait()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Contains(t, pe.Error(), "kaboom")
	assert.NoError(t, errors.Unwrap(pe))

	_, err = panicErr.Wait()
	assert.ErrorIs(t, err, errBoom)

	v, err := ok.Wait()
	require.NoError(t, err)
	assert.Equal(t, "still alive", v)

	st := p.Stats()
	assert.Equal(t, uint64(1), st.Failed)
	assert.Equal(t, uint64(2), st.Panicked)
	assert.Equal(t, uint64(1), st.Succeeded)
}

func TestClose_DrainsQueuedTasks(t *testing.T) {
	const k = 50
	p := newTestPool(t, 2)

	gate := make(chan struct{})
	for range 2 {
		_, err := Exec(p, func(context.Context) error {
			<-gate
			return nil
		})
		require.NoError(t, err)
	}

	var ran atomic.Int32
	futures := make([]*Future[struct{}], k)
	for i := range k {
		f, err := Exec(p, func(context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
		futures[i] = f
	}

	closed := make(chan struct{})
	go func() {
		_ = p.Close()
		close(closed)
	}()

	// Close 开始后拒绝新任务，但排空前不返回
	require.Eventually(t, func() bool {
		_, err := Exec(p, func(context.Context) error { return nil })
		return errors.Is(err, ErrPoolStopped)
	}, time.Second, time.Millisecond)
	select {
	case <-closed:
		t.Fatal("Close returned before the queue drained")
	default:
	}

	close(gate)
	<-closed
	assert.Equal(t, int32(k), ran.Load())
	for _, f := range futures {
		_, err, ok := f.TryGet()
		assert.True(t, ok)
		assert.NoError(t, err)
	}
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestSubmit_DelayedAndImmediateResults(t *testing.T) {
	p := newTestPool(t, 2)

	slow, err := Submit(p, func(context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 42, nil
	})
	require.NoError(t, err)
	fast, err := Submit(p, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := slow.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	v, err = fast.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmit_InvalidArguments(t *testing.T) {
	p := newTestPool(t, 1)

	f, err := Submit[int](p, nil)
	assert.ErrorIs(t, err, ErrNilTask)
	assert.Nil(t, f)

	_, err = Exec(p, nil)
	assert.ErrorIs(t, err, ErrNilTask)

	_, err = Submit(nil, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNilPool)
}

func TestSubmit_AfterClose(t *testing.T) {
	p := newTestPool(t, 1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := Submit(p, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestSubmit_QueueFull(t *testing.T) {
	p := newTestPool(t, 1, WithQueueCapacity(2))

	gate := make(chan struct{})
	started := make(chan struct{})
	_, err := Exec(p, func(context.Context) error {
		close(started)
		<-gate
		return nil
	})
	require.NoError(t, err)
	<-started

	for range 2 {
		_, err = Exec(p, func(context.Context) error { return nil })
		require.NoError(t, err)
	}
	_, err = Exec(p, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(gate)
}

func TestShutdown_TimeoutThenDone(t *testing.T) {
	p := newTestPool(t, 1)

	gate := make(chan struct{})
	f, err := Exec(p, func(context.Context) error {
		<-gate
		return nil
	})
	require.NoError(t, err)

	//nolint:staticcheck // 验证 nil context 被拒绝
	assert.ErrorIs(t, p.Shutdown(nil), ErrNilContext)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)

	// 超时后 worker 仍在后台排空
	close(gate)
	<-p.Done()
	_, err, ok := f.TryGet()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestExecute_TaskContext(t *testing.T) {
	p := newTestPool(t, 1, WithName("tank"))

	f, err := Submit(p, func(ctx context.Context) (xctx.Exec, error) {
		return xctx.GetExec(ctx), nil
	})
	require.NoError(t, err)

	got, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, "tank", got.Pool)
	assert.Equal(t, 1, got.WorkerID)
	assert.Equal(t, f.ID(), got.TaskID)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPool(t, 4, WithReportWriter(&buf), WithReportWriter(nil))

	for i := range 100 {
		_, err := Exec(p, func(ctx context.Context) error {
			p.Report(ctx, 600+i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())
	p.Report(context.Background(), "outside")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 101)
	for _, line := range lines[:100] {
		var id, v int
		n, err := fmt.Sscanf(line, "worker %d  %d", &id, &v)
		require.NoError(t, err, line)
		assert.Equal(t, 2, n)
		assert.GreaterOrEqual(t, id, 1)
		assert.LessOrEqual(t, id, 4)
	}
	assert.Equal(t, "worker -  outside", lines[100])
}

func TestReport_WithName(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPool(t, 1, WithName("tank"), WithReportWriter(&buf))
	f, err := Exec(p, func(ctx context.Context) error {
		p.Report(ctx, 601.5)
		return nil
	})
	require.NoError(t, err)
	_, _ = f.Wait()
	assert.Equal(t, "tank worker 1  601.5\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestReport_WriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&logs).SetFormat("json").Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	p, err := New(1, WithLogger(logger), WithReportWriter(failingWriter{}))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	p.Report(context.Background(), 1)
	assert.Contains(t, logs.String(), "report write failed")
}

func TestExecute_PanicIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&logs).SetFormat("json").Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	p, err := New(1, WithLogger(logger), WithName("tank"))
	require.NoError(t, err)
	f, err := Exec(p, func(context.Context) error { panic("bad tap") })
	require.NoError(t, err)
	_, _ = f.Wait()
	require.NoError(t, p.Close())

	out := logs.String()
	assert.Contains(t, out, "task panic recovered")
	assert.Contains(t, out, "bad tap")
	assert.Contains(t, out, `"pool":"tank"`)
	assert.Contains(t, out, f.ID())
}

type recordingObserver struct {
	mu      sync.Mutex
	opts    []xmetrics.SpanOptions
	results []xmetrics.Result
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	o.mu.Lock()
	o.opts = append(o.opts, opts)
	o.mu.Unlock()
	return ctx, recordingSpan{o}
}

type recordingSpan struct{ o *recordingObserver }

func (s recordingSpan) End(r xmetrics.Result) {
	s.o.mu.Lock()
	s.o.results = append(s.o.results, r)
	s.o.mu.Unlock()
}

func TestExecute_Observer(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPool(t, 1, WithObserver(obs), WithName("tank"))

	errBoom := errors.New("boom")
	_, err := Exec(p, func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = Exec(p, func(context.Context) error { return errBoom })
	require.NoError(t, err)
	require.NoError(t, p.Close())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.opts, 2)
	assert.Equal(t, "xpool", obs.opts[0].Component)
	assert.Equal(t, xmetrics.KindConsumer, obs.opts[0].Kind)
	assert.Contains(t, obs.opts[0].Attrs, xmetrics.String("pool", "tank"))
	require.Len(t, obs.results, 2)
	assert.NoError(t, obs.results[0].Err)
	assert.ErrorIs(t, obs.results[1].Err, errBoom)
}
