package xpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_GetContextExpiry(t *testing.T) {
	f := newFuture[int]("t1")
	assert.Equal(t, "t1", f.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	v, err := f.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, v)

	//nolint:staticcheck // 验证 nil context 被拒绝
	_, err = f.Get(nil)
	assert.ErrorIs(t, err, ErrNilContext)

	// 超时不消费结果，之后仍可读取
	f.resolve(600, nil)
	v, err = f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600, v)
}

func TestFuture_ResolvedWinsOverCanceledContext(t *testing.T) {
	f := newFuture[string]("t2")
	f.resolve("done", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := f.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFuture_TryGet(t *testing.T) {
	f := newFuture[int]("t3")
	_, _, ok := f.TryGet()
	assert.False(t, ok)

	errBoom := errors.New("boom")
	f.resolve(0, errBoom)
	_, err, ok := f.TryGet()
	assert.True(t, ok)
	assert.ErrorIs(t, err, errBoom)
}

func TestFuture_ConcurrentReaders(t *testing.T) {
	f := newFuture[float64]("t4")

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = f.Wait()
		}()
	}
	select {
	case <-f.Done():
		t.Fatal("Done closed before resolve")
	default:
	}
	f.resolve(599.5, nil)
	wg.Wait()
	for _, r := range results {
		assert.InDelta(t, 599.5, r, 0)
	}
}
