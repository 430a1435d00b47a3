// Package console 实现读取水位输入的交互循环。
//
// 每行输入一个水位数值，交给 Handler 处理；解析失败或越界时输出一行
// "Error! ..." 并继续读取。q、quit、exit 或输入结束（EOF）退出循环，
// ctx 结束时同样退出。status 输出当前状态（需配置 WithStatus）。
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/omeyang/xworkpool/internal/reservoir"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
)

// DefaultPrompt 是默认提示符。
const DefaultPrompt = "level> "

// Handler 处理一个已解析的水位输入。*reservoir.Controller 实现此接口。
type Handler interface {
	Handle(ctx context.Context, level float64) (reservoir.Plan, error)
}

// Option 配置 Console。
type Option func(*Console)

// WithPrompt 设置提示符，空串表示不输出提示符。
func WithPrompt(p string) Option {
	return func(c *Console) { c.prompt = p }
}

// WithStatus 设置 status 命令的输出来源。
func WithStatus(fn func() string) Option {
	return func(c *Console) { c.status = fn }
}

// WithLogger 设置日志记录器，默认 xlog.Default()。nil 被忽略。
func WithLogger(l xlog.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// Console 是行式交互循环。
type Console struct {
	in      io.Reader
	out     io.Writer
	handler Handler
	prompt  string
	status  func() string
	logger  xlog.Logger
}

// New 创建 Console。
func New(in io.Reader, out io.Writer, handler Handler, opts ...Option) *Console {
	c := &Console{in: in, out: out, handler: handler, prompt: DefaultPrompt}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = xlog.Default()
	}
	return c
}

// Run 运行交互循环，直到退出命令、EOF 或 ctx 结束，这些情况均返回 nil。
// 读取输入出错时返回该错误。
//
// 设计决策: 输入在独立 goroutine 中读取，循环通过 select 同时等待输入与 ctx，
// 保证收到信号后立即返回而不被阻塞的读取卡住。读取 goroutine 在输入结束时退出。
func (c *Console) Run(ctx context.Context) error {
	lines, errc := c.startReader(ctx)
	for {
		if c.prompt != "" {
			c.printf("%s", c.prompt)
		}
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return fmt.Errorf("console: read input: %w", err)
		case line, ok := <-lines:
			if !ok {
				// 读取 goroutine 先写 errc 再关闭 lines，两者可能同时就绪
				select {
				case err := <-errc:
					return fmt.Errorf("console: read input: %w", err)
				default:
					return nil
				}
			}
			if c.process(ctx, strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

func (c *Console) startReader(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			errc <- err
		}
	}()
	return lines, errc
}

// process 处理一行输入，返回 true 表示退出。
func (c *Console) process(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "status":
		if c.status != nil {
			c.printf("%s\n", c.status())
			return false
		}
	}

	level, err := strconv.ParseFloat(line, 64)
	if err != nil {
		c.printf("Error! %q is not a number\n", line)
		return false
	}
	plan, err := c.handler.Handle(ctx, level)
	switch {
	case errors.Is(err, reservoir.ErrOutOfRange):
		c.printf("Error! %v is out of range\n", level)
	case err != nil:
		c.logger.Error(ctx, "console: handle level failed", slog.Float64("level", level), xlog.Err(err))
		c.printf("Error! %v\n", err)
	default:
		c.printf("%s to target with %d task(s)\n", plan.Direction, len(plan.Tasks))
	}
	return false
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
