// xtank 是水箱水位模拟程序：从标准输入读取水位，提交注水或放水任务到
// 固定大小的 worker pool，由 worker 把水位调节到目标值并逐步输出。
//
// 用法:
//
//	xtank [全局选项] [命令]
//
// 全局选项:
//
//	-c, --config      配置文件路径（yaml 或 json）
//	-w, --workers     worker 数量，覆盖 pool.workers
//	    --log-level   日志级别 debug|info|warn|error，覆盖 log.level
//	    --log-format  日志格式 text|json，覆盖 log.format
//	    --step-delay  每步调节后的等待时长，覆盖 tank.step_delay
//	-q, --quiet       不输出提示符
//
// 命令:
//
//	run     运行模拟（默认）
//	check   校验配置并输出生效值
//
// 交互输入:
//
//	<数值>             新水位，范围 [tank.min, tank.max]
//	status             输出 pool 与水箱状态
//	q | quit | exit    退出（等待已提交任务完成）
//
// 退出码:
//
//	0: 正常退出（含用户退出、输入结束、SIGINT/SIGTERM）
//	1: 运行错误
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xworkpool/internal/app"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// 退出码。
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := createApp(stdin, stdout, stderr)
	err := cmd.Run(ctx, args)
	if err == nil {
		return exitOK
	}

	var usageErr *usageError
	switch {
	case errors.As(err, &usageErr), errors.Is(err, app.ErrInvalidConfig):
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return exitUsage
	case isCLIUsageError(err):
		// flag 解析器已向 stderr 输出错误详情
		return exitUsage
	default:
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return exitFailure
	}
}

// usageError 表示命令行参数错误。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// isCLIUsageError 识别 urfave/cli 在解析阶段返回的参数错误。
// cli 未导出这些错误类型，只能按消息前缀判断。
func isCLIUsageError(err error) bool {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) && exitCoder.ExitCode() == exitUsage {
		return true
	}
	msg := err.Error()
	for _, prefix := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"invalid boolean",
		"No help topic",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
