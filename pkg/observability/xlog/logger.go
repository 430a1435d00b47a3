package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

var _ LoggerWithLevel = (*xlogger)(nil)

// maxStackSize Stack 捕获的调用栈上限（64KB）
const maxStackSize = 64 * 1024

type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool
}

func newLogger(handler slog.Handler, levelVar *slog.LevelVar) *xlogger {
	return &xlogger{handler: handler, levelVar: levelVar}
}

// log 捕获调用者位置时跳过 runtime.Callers、log 和公开方法三帧，
// extraSkip 供全局函数额外跳过一层。
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		runtime.Callers(3+extraSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	// 日志写入失败不向业务返回
	_ = l.handler.Handle(ctx, r)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs, 0)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs, 0)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs, 0)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs, 0)
}

func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stack(ctx, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) stack(ctx context.Context, msg string, attrs []slog.Attr, extraSkip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	full := make([]slog.Attr, 0, len(attrs)+1)
	full = append(full, attrs...)
	full = append(full, slog.String(KeyStack, CallStack()))
	l.log(ctx, slog.LevelError, msg, full, extraSkip+1)
}

// CallStack 返回当前 goroutine 的调用栈文本，最多 64KB。
func CallStack() string {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) || len(buf) >= maxStackSize {
			return string(buf[:n])
		}
		buf = make([]byte, min(len(buf)*2, maxStackSize))
	}
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{
		handler:   l.handler.WithAttrs(attrs),
		levelVar:  l.levelVar,
		addSource: l.addSource,
	}
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &xlogger{
		handler:   l.handler.WithGroup(name),
		levelVar:  l.levelVar,
		addSource: l.addSource,
	}
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}
