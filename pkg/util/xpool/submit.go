package xpool

import (
	"context"

	"github.com/google/uuid"
)

// Submit 将返回 R 的任务加入 pool 队列，立即返回结果句柄。
//
// 任务在某个 worker 上以携带 pool、worker_id、task_id 的 context 执行。
// 任务返回的 error 或 panic（*PanicError）通过 Future 交给调用方。
//
// 错误：
//   - ErrNilPool / ErrNilTask：参数为 nil
//   - ErrPoolStopped：pool 已开始关闭
//   - ErrQueueFull：设置了队列上限且已满
func Submit[R any](p *WorkerPool, fn func(ctx context.Context) (R, error)) (*Future[R], error) {
	if p == nil {
		return nil, ErrNilPool
	}
	if fn == nil {
		return nil, ErrNilTask
	}
	f := newFuture[R](uuid.NewString())
	if err := p.enqueue(&job[R]{fn: fn, future: f}); err != nil {
		return nil, err
	}
	return f, nil
}

// Exec 提交只关心错误的任务，Future 的值恒为 struct{}{}。
func Exec(p *WorkerPool, fn func(ctx context.Context) error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return Submit(p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
