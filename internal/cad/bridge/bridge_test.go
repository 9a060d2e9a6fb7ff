package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBridge(t *testing.T) (*Bridge, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	b := New(Config{Interval: 5 * time.Millisecond, QueueSize: 128}, nil, metrics)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, b.Running, time.Second, time.Millisecond)
	return b, metrics
}

func TestSubmitReturnsTaskResult(t *testing.T) {
	b, _ := startBridge(t)

	v, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	b := New(Config{Interval: 5 * time.Millisecond, QueueSize: 32}, nil, nil)

	var order []int
	var wg sync.WaitGroup
	for i := range 10 {
		require.NoError(t, b.Post(func(ctx context.Context) (any, error) {
			order = append(order, i)
			return nil, nil
		}))
	}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer wg.Done()
		_ = b.Run(ctx)
	}()

	_, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)
	cancel()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestConcurrentCallersReceiveOwnResults(t *testing.T) {
	b, _ := startBridge(t)

	const callers = 50
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
				return fmt.Sprintf("caller-%d", i), nil
			})
			if err != nil {
				errs <- err
				return
			}
			if v != fmt.Sprintf("caller-%d", i) {
				errs <- fmt.Errorf("caller %d got %v", i, v)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestPanicIsRecoveredAndPumpSurvives(t *testing.T) {
	b, metrics := startBridge(t)

	_, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	v, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "still alive", v)
	assert.Equal(t, 1.0, counterValue(metrics.Completed.WithLabelValues("panic")))
	assert.Equal(t, 1.0, counterValue(metrics.Completed.WithLabelValues("ok")))
}

func TestSubmitFromInsideTaskIsRejected(t *testing.T) {
	b, _ := startBridge(t)

	v, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		_, inner := b.Submit(ctx, func(ctx context.Context) (any, error) { return nil, nil })
		return inner, nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, v.(error), ErrReentrant)
}

func TestPostFromInsideTaskRunsLater(t *testing.T) {
	b, _ := startBridge(t)

	ran := make(chan struct{})
	_, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, b.Post(func(ctx context.Context) (any, error) {
			close(ran)
			return nil, nil
		})
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestAbandonedTaskStillExecutes(t *testing.T) {
	b := New(Config{Interval: 20 * time.Millisecond}, nil, nil)

	executed := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Submit(ctx, func(ctx context.Context) (any, error) {
			close(executed)
			return nil, nil
		})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return b.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = b.Run(runCtx) }()

	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("abandoned task was dropped")
	}
}

func TestSubmitAfterStopReturnsErrClosed(t *testing.T) {
	b := New(Config{Interval: 5 * time.Millisecond}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	require.Eventually(t, b.Running, time.Second, time.Millisecond)
	cancel()
	<-done

	_, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Post(func(ctx context.Context) (any, error) { return nil, nil }), ErrClosed)
	assert.False(t, b.Running())
}

func TestStopLeavesNoAcceptedTaskBehind(t *testing.T) {
	for range 20 {
		b := New(Config{Interval: time.Millisecond, QueueSize: 1024}, nil, nil)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = b.Run(ctx)
		}()
		require.Eventually(t, b.Running, time.Second, time.Millisecond)

		var accepted, ran atomic.Int64
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					_, err := b.Submit(context.Background(), func(ctx context.Context) (any, error) {
						ran.Add(1)
						return nil, nil
					})
					if errors.Is(err, ErrClosed) {
						return
					}
					if err == nil {
						accepted.Add(1)
					}
				}
			}()
		}
		time.Sleep(5 * time.Millisecond)
		cancel()
		wg.Wait()
		<-done

		assert.Zero(t, b.Pending())
		assert.Equal(t, accepted.Load(), ran.Load())
	}
}

func TestRunTwiceFails(t *testing.T) {
	b, _ := startBridge(t)
	assert.Error(t, b.Run(context.Background()))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}
