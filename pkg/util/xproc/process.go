// Package xproc 提供当前进程的标识，用于日志固定字段。
package xproc

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Info 是进程标识。
type Info struct {
	PID  int
	Name string // 可执行文件名（不含路径），无法确定时为空
}

var current = sync.OnceValue(func() Info {
	return Info{PID: os.Getpid(), Name: resolveName(os.Executable, os.Args)}
})

// Current 返回当前进程标识，首次调用后缓存。
func Current() Info {
	return current()
}

// LogAttrs 返回 pid 与 process 两个日志属性，Name 为空时省略 process。
func (i Info) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.Int("pid", i.PID)}
	if i.Name != "" {
		attrs = append(attrs, slog.String("process", i.Name))
	}
	return attrs
}

// resolveName 优先使用可执行文件路径（不受 os.Args 修改影响），失败时回退到 args[0]。
func resolveName(executable func() (string, error), args []string) string {
	if exe, err := executable(); err == nil {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(args) == 0 {
		return ""
	}
	return baseName(args[0])
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
