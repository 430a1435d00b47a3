package xpool

import (
	"context"
	"runtime/debug"
)

// Future 是一次任务提交的结果句柄。
//
// 结果（值与错误）只写入一次，写入后对所有读取方可见。
// 多个 goroutine 可以并发调用 Get/Wait/TryGet。
type Future[R any] struct {
	id    string
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any](id string) *Future[R] {
	return &Future[R]{id: id, done: make(chan struct{})}
}

// resolve 写入结果并唤醒等待方，只由执行任务的 worker 调用一次。
func (f *Future[R]) resolve(v R, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

// ID 返回任务 ID，与任务 context 中的 task_id 一致。
func (f *Future[R]) ID() string {
	return f.id
}

// Done 返回任务完成时关闭的 channel，可用于 select。
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait 阻塞直到任务完成，返回任务结果。
func (f *Future[R]) Wait() (R, error) {
	<-f.done
	return f.value, f.err
}

// Get 阻塞直到任务完成或 ctx 结束。
//
// ctx 结束时返回 ctx.Err()，任务本身不受影响，之后仍可再次读取结果。
// 任务已完成时优先返回结果。
func (f *Future[R]) Get(ctx context.Context) (R, error) {
	var zero R
	if ctx == nil {
		return zero, ErrNilContext
	}
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryGet 非阻塞读取结果，任务未完成时 ok 为 false。
func (f *Future[R]) TryGet() (v R, err error, ok bool) { //nolint:revive // ok 放在最后与 map 读取习惯一致
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return v, nil, false
	}
}

// job 绑定任务函数与结果句柄。
type job[R any] struct {
	fn     func(ctx context.Context) (R, error)
	future *Future[R]
}

func (j *job[R]) taskID() string {
	return j.future.id
}

func (j *job[R]) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
			var zero R
			j.future.resolve(zero, err)
		}
	}()
	v, ferr := j.fn(ctx)
	j.future.resolve(v, ferr)
	return ferr
}
