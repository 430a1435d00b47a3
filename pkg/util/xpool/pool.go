package xpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xworkpool/pkg/context/xctx"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
)

const (
	// MaxWorkers 是 worker 数量上限，防止误配置耗尽资源。
	MaxWorkers = 1 << 16

	// MaxQueueCapacity 是 WithQueueCapacity 的上限。
	MaxQueueCapacity = 1 << 24
)

// Stats 是 pool 的运行计数快照。
type Stats struct {
	Workers   int
	Pending   int
	Submitted uint64
	Succeeded uint64
	Failed    uint64
	Panicked  uint64
}

// WorkerPool 是固定大小的 worker pool，所有 worker 共享一个 FIFO 队列。
//
// 通过 New 创建，创建后 worker 已在运行。零值不可用。
type WorkerPool struct {
	name     string
	workers  int
	capacity int
	logger   xlog.Logger
	observer xmetrics.Observer

	mu       sync.Mutex
	cond     *sync.Cond
	queue    taskQueue
	stopping bool

	// reportMu 只保护 Report 输出，与队列锁分离。
	reportMu  sync.Mutex
	reportOut io.Writer

	submitted atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// New 创建并启动含 workers 个 worker 的 pool。
//
// workers 必须在 [1, 65536] 范围内，否则返回 ErrInvalidWorkers。
func New(workers int, opts ...Option) (*WorkerPool, error) {
	if workers <= 0 || workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidWorkers, workers, MaxWorkers)
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.capacity < 0 || o.capacity > MaxQueueCapacity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, o.capacity)
	}
	logger := o.logger
	if logger == nil {
		logger = xlog.Default()
	}

	p := &WorkerPool{
		name:      o.name,
		workers:   workers,
		capacity:  o.capacity,
		logger:    logger,
		observer:  o.observer,
		reportOut: o.report,
		done:      make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i + 1)
	}
	return p, nil
}

func (p *WorkerPool) enqueue(t task) error {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	if p.capacity > 0 && p.queue.len() >= p.capacity {
		p.mu.Unlock()
		return ErrQueueFull
	}
	p.queue.push(t)
	// 入队前计数，任务对 worker 可见时 Submitted 已包含它
	p.submitted.Add(1)
	p.mu.Unlock()

	p.cond.Signal()
	return nil
}

// worker 循环取任务，队列为空且 pool 关闭时退出。
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for p.queue.len() == 0 && !p.stopping {
			p.cond.Wait()
		}
		t := p.queue.pop()
		p.mu.Unlock()
		if t == nil {
			return
		}
		p.execute(id, t)
	}
}

func (p *WorkerPool) execute(workerID int, t task) {
	// WithExec 仅在 ctx 为 nil 时返回错误。
	ctx, _ := xctx.WithExec(context.Background(), xctx.Exec{
		Pool:     p.name,
		WorkerID: workerID,
		TaskID:   t.taskID(),
	})
	ctx, span := xmetrics.Start(ctx, p.observer, xmetrics.SpanOptions{
		Component: "xpool",
		Operation: "task",
		Kind:      xmetrics.KindConsumer,
		Attrs: []xmetrics.Attr{
			xmetrics.String("pool", p.name),
			xmetrics.Int("worker_id", workerID),
			xmetrics.String("task_id", t.taskID()),
		},
	})

	start := time.Now()
	err := t.run(ctx)
	span.End(xmetrics.Result{Err: err})

	if err == nil {
		p.succeeded.Add(1)
		return
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		p.panicked.Add(1)
		p.logger.Error(ctx, "xpool: task panic recovered",
			slog.Any("panic", pe.Value),
			slog.String("stack", string(pe.Stack)),
			xlog.Duration(time.Since(start)))
		return
	}
	p.failed.Add(1)
	p.logger.Debug(ctx, "xpool: task failed", xlog.Err(err), xlog.Duration(time.Since(start)))
}

// Close 关闭 pool 并阻塞直到队列排空、所有 worker 退出。多次调用安全。
// 实现 io.Closer，恒返回 nil。
func (p *WorkerPool) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown 关闭 pool 并等待排空，ctx 结束时返回 ctx.Err()。
//
// 关闭后不再接受新任务；关闭时刻已在队列中的任务全部执行。
// 超时返回后 worker 继续在后台排空，可通过 Done() 等待。多次调用安全。
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopping = true
		pending := p.queue.len()
		p.mu.Unlock()
		p.cond.Broadcast()

		p.logger.Info(ctx, "xpool: shutting down",
			slog.String(xctx.KeyPool, p.name), xlog.Count(pending))
		go func() {
			p.wg.Wait()
			close(p.done)
		}()
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 返回所有 worker 退出后关闭的 channel。
// 在 Close/Shutdown 调用前永不关闭。
func (p *WorkerPool) Done() <-chan struct{} {
	return p.done
}

// Workers 返回 worker 数量。
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Name 返回 pool 名称。
func (p *WorkerPool) Name() string {
	return p.name
}

// Pending 返回队列中等待执行的任务数（不含正在执行的任务）。
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// Stats 返回运行计数快照，保证 Succeeded+Failed+Panicked 不超过 Submitted。
func (p *WorkerPool) Stats() Stats {
	// 先读完成计数再读 Submitted：任务入队时已计入 Submitted
	s := Stats{
		Workers:   p.workers,
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
	}
	s.Pending = p.Pending()
	s.Submitted = p.submitted.Load()
	return s
}

// Report 输出一行诊断信息 "worker <id>  <value>"。
//
// worker id 取自 ctx（任务 context），不在任务内调用时输出 "worker -"。
// 设置了名称时行首加上 pool 名称。整行在锁内写出，并发调用的行不会交错。
func (p *WorkerPool) Report(ctx context.Context, value any) {
	who := "-"
	if id, ok := xctx.WorkerID(ctx); ok {
		who = fmt.Sprint(id)
	}
	line := fmt.Sprintf("worker %s  %v\n", who, value)
	if p.name != "" {
		line = p.name + " " + line
	}

	p.reportMu.Lock()
	defer p.reportMu.Unlock()
	if _, err := io.WriteString(p.reportOut, line); err != nil {
		p.logger.Warn(ctx, "xpool: report write failed", xlog.Err(err))
	}
}
