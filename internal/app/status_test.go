package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/omeyang/xworkpool/internal/reservoir"
	"github.com/omeyang/xworkpool/pkg/observability/xlog"
	"github.com/omeyang/xworkpool/pkg/observability/xmetrics"
	"github.com/omeyang/xworkpool/pkg/util/xpool"
)

func newStatusFixture(t *testing.T, logOut io.Writer) (*statusReporter, *xpool.WorkerPool) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	obs, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
	require.NoError(t, err)

	logger, _, err := xlog.New().SetOutput(logOut).SetLevel(xlog.LevelDebug).SetFormat("json").Build()
	require.NoError(t, err)

	pool, err := xpool.New(1, xpool.WithObserver(obs), xpool.WithLogger(xlog.Discard()), xpool.WithReportWriter(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	return &statusReporter{pool: pool, tank: reservoir.NewTank(600), reader: reader, logger: logger}, pool
}

func TestStatusReporter_Snapshot(t *testing.T) {
	s, pool := newStatusFixture(t, io.Discard)

	ok, err := xpool.Submit(pool, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	bad, err := xpool.Submit(pool, func(context.Context) (int, error) { return 0, errors.New("leak") })
	require.NoError(t, err)
	_, _ = ok.Wait()
	_, _ = bad.Wait()
	require.NoError(t, pool.Close())

	st := s.Snapshot(context.Background())
	assert.InDelta(t, 600.0, st.Level, 0)
	assert.Equal(t, uint64(2), st.Pool.Submitted)
	assert.Equal(t, uint64(1), st.Pool.Succeeded)
	assert.Equal(t, uint64(1), st.Pool.Failed)
	assert.Equal(t, map[string]int64{"ok": 1, "error": 1}, st.Operations)

	assert.Equal(t,
		"level=600 workers=1 pending=0 submitted=2 succeeded=1 failed=1 panicked=0 ops_error=1 ops_ok=1",
		st.String())
}

func TestStatusReporter_SnapshotWithoutReader(t *testing.T) {
	s, _ := newStatusFixture(t, io.Discard)
	s.reader = nil
	st := s.Snapshot(context.Background())
	assert.Nil(t, st.Operations)
	assert.NotContains(t, st.String(), "ops_")
}

func TestStatusReporter_CollectFailureLogged(t *testing.T) {
	var logs lockedBuffer
	s, _ := newStatusFixture(t, &logs)
	reader := sdkmetric.NewManualReader()
	s.reader = reader // 未注册到任何 MeterProvider，Collect 失败

	st := s.Snapshot(context.Background())
	assert.Nil(t, st.Operations)
	assert.Contains(t, logs.String(), "collect metrics failed")
}

func TestStatusReporter_RunLogsOnSchedule(t *testing.T) {
	var logs lockedBuffer
	s, _ := newStatusFixture(t, &logs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.run("@every 1s")(ctx) }()

	require.Eventually(t, func() bool {
		out := logs.String()
		return strings.Contains(out, `"msg":"status"`) && strings.Contains(out, `"water_level":600`)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("status reporter did not stop")
	}
}

func TestStatusReporter_RunRejectsBadSchedule(t *testing.T) {
	s, _ := newStatusFixture(t, io.Discard)
	err := s.run("whenever")(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whenever")
}

func TestCronLogger(t *testing.T) {
	var logs lockedBuffer
	logger, _, err := xlog.New().SetOutput(&logs).SetLevel(xlog.LevelDebug).SetFormat("json").Build()
	require.NoError(t, err)
	l := cronLogger{ctx: context.Background(), logger: logger}

	l.Info("start", "entries", 1)
	l.Error(errors.New("boom"), "panic", "job", "status", "dangling")

	out := logs.String()
	assert.Contains(t, out, `"msg":"cron: start"`)
	assert.Contains(t, out, `"entries":1`)
	assert.Contains(t, out, `"msg":"cron: panic"`)
	assert.Contains(t, out, `"job":"status"`)
	assert.Contains(t, out, `"!BADKEY":"dangling"`)
	assert.Contains(t, out, "boom")
}

func TestKVAttrs_NonStringKey(t *testing.T) {
	attrs := kvAttrs([]any{42, "v"})
	require.Len(t, attrs, 1)
	assert.Equal(t, "42", attrs[0].Key)
}
