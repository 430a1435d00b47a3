package xctx

import (
	"context"
	"errors"
)

// contextKey 包私有类型，避免与其他包的 context key 冲突。
type contextKey string

// 日志属性 Key 常量。
const (
	KeyPool     = "pool"
	KeyWorkerID = "worker_id"
	KeyTaskID   = "task_id"

	execFieldCount = 3
)

const (
	keyPool     = contextKey("xctx:pool")
	keyWorkerID = contextKey("xctx:worker_id")
	keyTaskID   = contextKey("xctx:task_id")
)

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingWorkerID worker_id 缺失（不在 worker 中执行）。
	ErrMissingWorkerID = errors.New("xctx: missing worker_id")

	// ErrMissingTaskID task_id 缺失。
	ErrMissingTaskID = errors.New("xctx: missing task_id")
)

// WithPoolName 将 pool 名称注入 context。
func WithPoolName(ctx context.Context, name string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyPool, name), nil
}

// PoolName 从 context 提取 pool 名称，不存在返回空字符串。
func PoolName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyPool).(string); ok {
		return v
	}
	return ""
}

// WithWorkerID 将 worker 编号注入 context。
func WithWorkerID(ctx context.Context, id int) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyWorkerID, id), nil
}

// WorkerID 从 context 提取 worker 编号。
// ok 为 false 表示当前 context 不属于任何 worker。
func WorkerID(ctx context.Context) (id int, ok bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok = ctx.Value(keyWorkerID).(int)
	return id, ok
}

// RequireWorkerID 与 WorkerID 相同，但缺失时返回 ErrMissingWorkerID。
func RequireWorkerID(ctx context.Context) (int, error) {
	id, ok := WorkerID(ctx)
	if !ok {
		return 0, ErrMissingWorkerID
	}
	return id, nil
}

// WithTaskID 将任务标识注入 context。
func WithTaskID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTaskID, id), nil
}

// TaskID 从 context 提取任务标识，不存在返回空字符串。
func TaskID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyTaskID).(string); ok {
		return v
	}
	return ""
}

// RequireTaskID 与 TaskID 相同，但缺失时返回 ErrMissingTaskID。
func RequireTaskID(ctx context.Context) (string, error) {
	v := TaskID(ctx)
	if v == "" {
		return "", ErrMissingTaskID
	}
	return v, nil
}

// Exec 是一次任务执行的上下文字段集合。
type Exec struct {
	Pool     string
	WorkerID int
	TaskID   string
}

// WithExec 一次性注入 pool、worker_id、task_id。
// Pool 为空时不注入 pool 字段。
func WithExec(ctx context.Context, e Exec) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if e.Pool != "" {
		ctx = context.WithValue(ctx, keyPool, e.Pool)
	}
	ctx = context.WithValue(ctx, keyWorkerID, e.WorkerID)
	if e.TaskID != "" {
		ctx = context.WithValue(ctx, keyTaskID, e.TaskID)
	}
	return ctx, nil
}

// GetExec 批量读取执行上下文字段。
func GetExec(ctx context.Context) Exec {
	id, _ := WorkerID(ctx)
	return Exec{
		Pool:     PoolName(ctx),
		WorkerID: id,
		TaskID:   TaskID(ctx),
	}
}
