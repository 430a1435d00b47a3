package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xworkpool/internal/reservoir"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
)

// Status 是某一时刻的运行状态。
type Status struct {
	Level float64
	Pool  xpool.Stats
	// Operations 是按结果（ok、error）统计的任务指标，未启用指标时为 nil。
	Operations map[string]int64
}

func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "level=%v workers=%d pending=%d submitted=%d succeeded=%d failed=%d panicked=%d",
		s.Level, s.Pool.Workers, s.Pool.Pending, s.Pool.Submitted, s.Pool.Succeeded, s.Pool.Failed, s.Pool.Panicked)
	keys := make([]string, 0, len(s.Operations))
	for k := range s.Operations {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " ops_%s=%d", k, s.Operations[k])
	}
	return b.String()
}

// statusReporter 汇总 pool、水箱与指标读数。
type statusReporter struct {
	pool   *xpool.WorkerPool
	tank   *reservoir.Tank
	reader sdkmetric.Reader
	logger xlog.Logger
}

// Snapshot 采集当前状态。指标读取失败时记录日志并省略 Operations。
func (s *statusReporter) Snapshot(ctx context.Context) Status {
	st := Status{Level: s.tank.Level(), Pool: s.pool.Stats()}
	if s.reader == nil {
		return st
	}
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		s.logger.Warn(ctx, "collect metrics failed", xlog.Err(err))
		return st
	}
	st.Operations = operationTotals(rm)
	return st
}

func (s *statusReporter) report(ctx context.Context) {
	st := s.Snapshot(ctx)
	attrs := []slog.Attr{
		xlog.Component("status"),
		slog.Float64("water_level", st.Level),
		slog.Int("workers", st.Pool.Workers),
		slog.Int("pending", st.Pool.Pending),
		slog.Uint64("submitted", st.Pool.Submitted),
		slog.Uint64("succeeded", st.Pool.Succeeded),
		slog.Uint64("failed", st.Pool.Failed),
		slog.Uint64("panicked", st.Pool.Panicked),
	}
	for k, v := range st.Operations {
		attrs = append(attrs, slog.Int64("ops_"+k, v))
	}
	s.logger.Info(ctx, "status", attrs...)
}

// run 按 schedule 周期记录状态，直到 ctx 结束。
// 返回时已等待正在执行的报告完成。
func (s *statusReporter) run(schedule string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger := cronLogger{ctx: ctx, logger: s.logger}
		c := cron.New(
			cron.WithParser(statusParser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		)
		if _, err := c.AddFunc(schedule, func() { s.report(ctx) }); err != nil {
			return fmt.Errorf("app: schedule status %q: %w", schedule, err)
		}
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	}
}

// operationTotals 从一次采集中取出 OTel Observer 的操作计数，按 status 汇总。
func operationTotals(rm metricdata.ResourceMetrics) map[string]int64 {
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != xmetrics.MetricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				out[status.AsString()] += dp.Value
			}
		}
	}
	return out
}

// cronLogger 把 cron.Logger 适配到 xlog。
// cron 的 Info 只有调度细节，降为 Debug。
type cronLogger struct {
	ctx    context.Context
	logger xlog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(l.ctx, "cron: "+msg, kvAttrs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(l.ctx, "cron: "+msg, append(kvAttrs(keysAndValues), xlog.Err(err))...)
}

func kvAttrs(kv []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			attrs = append(attrs, slog.String("!BADKEY", key))
			break
		}
		attrs = append(attrs, slog.Any(key, kv[i+1]))
	}
	return attrs
}
