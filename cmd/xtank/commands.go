package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xworkpool/internal/app"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
)

// createApp 创建 CLI 应用，输入输出由调用方注入以便测试。
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xtank",
		Usage:     "水箱水位模拟（worker pool 演示）",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（yaml 或 json）",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "worker 数量",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 debug|info|warn|error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 text|json",
			},
			&cli.DurationFlag{
				Name:  "step-delay",
				Usage: "每步调节后的等待时长",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "不输出提示符",
			},
		},
		Commands: []*cli.Command{
			createRunCommand(stdin, stdout, stderr),
			createCheckCommand(stdout),
		},
		DefaultCommand: "run",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func createRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "运行模拟，从标准输入读取水位",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return &usageError{msg: fmt.Sprintf("unexpected argument %q", cmd.Args().First())}
			}
			overrides, err := flagOverrides(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(ctx, app.Options{
				ConfigPath: cmd.String("config"),
				Overrides:  overrides,
				In:         stdin,
				Out:        stdout,
				LogOutput:  stderr,
				Quiet:      cmd.Bool("quiet"),
			})
			if err != nil {
				return err
			}
			return errors.Join(a.Run(ctx), a.Close())
		},
	}
}

func createCheckCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "校验配置并输出生效值",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			overrides, err := flagOverrides(cmd)
			if err != nil {
				return err
			}
			cfg, _, err := app.LoadConfig(ctx, cmd.String("config"), overrides...)
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "# config ok\n%s", data)
			return err
		},
	}
}

// flagOverrides 把显式设置的参数转换为配置覆盖，未设置的参数不覆盖配置文件。
func flagOverrides(cmd *cli.Command) ([]func(*app.Config), error) {
	var overrides []func(*app.Config)
	if cmd.IsSet("workers") {
		n := cmd.Int("workers")
		overrides = append(overrides, func(c *app.Config) { c.Pool.Workers = n })
	}
	if cmd.IsSet("log-level") {
		level, err := xlog.ParseLevel(cmd.String("log-level"))
		if err != nil {
			return nil, &usageError{msg: fmt.Sprintf("--log-level: %v", err)}
		}
		overrides = append(overrides, func(c *app.Config) { c.Log.Level = level })
	}
	if cmd.IsSet("log-format") {
		format := cmd.String("log-format")
		overrides = append(overrides, func(c *app.Config) { c.Log.Format = format })
	}
	if cmd.IsSet("step-delay") {
		d := cmd.Duration("step-delay")
		overrides = append(overrides, func(c *app.Config) { c.Tank.StepDelay = d })
	}
	return overrides, nil
}
