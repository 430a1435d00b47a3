package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是 Watcher 的默认防抖时长。
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrWatch 包装 fsnotify 上报的错误。
	ErrWatch = errors.New("xconf: watch error")

	// ErrWatcherRunning 表示 Run 被重复调用。
	ErrWatcherRunning = errors.New("xconf: watcher already running")
)

// WatchCallback 在每次重载后调用，err 非 nil 表示重载失败（旧配置仍生效）。
type WatchCallback func(cfg *Config, err error)

// WatchOption 配置 Watcher。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时长，窗口内的多次变更只触发一次重载。d <= 0 被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并自动重载。
type Watcher struct {
	cfg      *Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	running  atomic.Bool
}

// NewWatcher 为文件配置创建监视器。调用 Run 开始监视；
// 若最终不调用 Run，需调用 Close 释放资源。
func NewWatcher(cfg *Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.path == "" {
		return nil, ErrNotReloadable
	}
	w := &Watcher{cfg: cfg, callback: callback, debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	// 监视目录而非文件：rename 式保存会让文件级监视失效
	dir := filepath.Dir(cfg.path)
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: add %s: %w", ErrWatch, dir, err), fs.Close())
	}
	w.fs = fs
	return w, nil
}

// Run 阻塞监视直到 ctx 结束，返回前释放 fsnotify 资源。
// ctx 结束视为正常退出，返回 nil。回调在 Run 所在 goroutine 中同步执行。
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrWatcherRunning
	}
	defer func() { _ = w.fs.Close() }()

	name := filepath.Base(w.cfg.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.notify(w.cfg.Reload())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.notify(fmt.Errorf("%w: %w", ErrWatch, err))
		}
	}
}

// Close 释放资源，用于创建后未调用 Run 的情况。
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) notify(err error) {
	if w.callback != nil {
		w.callback(w.cfg, err)
	}
}

// relevant 只关心目标文件的写入、创建与 rename。
func relevant(ev fsnotify.Event, name string) bool {
	if filepath.Base(ev.Name) != name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
