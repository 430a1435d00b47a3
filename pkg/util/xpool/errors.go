package xpool

import (
	"errors"
	"fmt"
)

var (
	// ErrNilPool 表示 pool 参数为 nil。
	ErrNilPool = errors.New("xpool: nil pool")

	// ErrNilTask 表示提交的任务函数为 nil。
	ErrNilTask = errors.New("xpool: task cannot be nil")

	// ErrPoolStopped 表示 pool 已开始关闭，无法提交任务。
	ErrPoolStopped = errors.New("xpool: pool is stopped")

	// ErrQueueFull 表示任务队列已达到 WithQueueCapacity 设置的上限。
	ErrQueueFull = errors.New("xpool: queue is full")

	// ErrInvalidWorkers 表示 worker 数量无效。
	ErrInvalidWorkers = errors.New("xpool: invalid worker count")

	// ErrInvalidQueueCapacity 表示队列容量无效（负数或超过上限）。
	ErrInvalidQueueCapacity = errors.New("xpool: invalid queue capacity")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xpool: nil context")
)

// PanicError 表示任务执行期间发生 panic。
//
// 通过 Future 返回给调用方，可用 errors.As 识别。
// 若 panic 值本身是 error，Unwrap 返回它。
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("xpool: task panicked: %v", e.Value)
}

// Unwrap 返回 error 类型的 panic 值，其他类型返回 nil。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
