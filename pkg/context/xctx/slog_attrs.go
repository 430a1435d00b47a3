package xctx

import (
	"context"
	"log/slog"
)

// AppendExecAttrs 将 context 中的执行信息追加到现有切片。
// 只追加存在的字段，传入预分配切片可避免额外分配。
func AppendExecAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := PoolName(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyPool, v))
	}
	if id, ok := WorkerID(ctx); ok {
		attrs = append(attrs, slog.Int(KeyWorkerID, id))
	}
	if v := TaskID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTaskID, v))
	}
	return attrs
}

// ExecAttrs 从 context 提取执行信息，都不存在时返回 nil。
func ExecAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendExecAttrs(make([]slog.Attr, 0, execFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
