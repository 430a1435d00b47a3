package xlog

import (
	"context"
	"log/slog"

	"github.com/omeyang/xworkpool/pkg/context/xctx"
)

// EnrichHandler 装饰 slog.Handler，在 Handle 时从 context 注入
// pool、worker_id、task_id。context 中缺少的字段直接跳过。
//
// 调用 WithGroup 后注入字段会归入该 group（slog handler 的固有行为）。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler，base 不能为 nil。
func NewEnrichHandler(base slog.Handler) *EnrichHandler {
	return &EnrichHandler{base: base}
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 按 slog 契约先 Clone record 再追加属性。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [3]slog.Attr
	attrs := xctx.AppendExecAttrs(buf[:0], ctx)
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
