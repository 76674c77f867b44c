package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdown(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestSubmit_ReturnsValue(t *testing.T) {
	// given
	p := NewPool(2, 10)
	defer shutdown(t, p)

	// when
	future := Submit(p, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	value, err := future.Await(context.Background())

	// then
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestSubmit_PropagatesError(t *testing.T) {
	// given
	p := NewPool(1, 1)
	defer shutdown(t, p)
	expected := errors.New("boom")

	// when
	_, err := Submit(p, context.Background(), func(ctx context.Context) (string, error) {
		return "", expected
	}).Await(context.Background())

	// then
	assert.ErrorIs(t, err, expected)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	// given
	p := NewPool(1, 1)
	defer shutdown(t, p)

	// when
	_, err := Submit(p, context.Background(), func(ctx context.Context) (int, error) {
		panic("unexpected")
	}).Await(context.Background())

	// then
	assert.ErrorIs(t, err, ErrTaskPanic)
}

func TestSubmit_QueueFull(t *testing.T) {
	// given
	p := NewPool(1, 1)
	defer shutdown(t, p)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := func(ctx context.Context) (int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return 0, nil
	}

	first := Submit(p, context.Background(), blocking)
	<-started
	// the dispatcher holds one task waiting for the busy worker, the queue holds another
	var rejected *Future[int]
	require.Eventually(t, func() bool {
		f := Submit(p, context.Background(), blocking)
		select {
		case <-f.Done():
			_, err := f.Await(context.Background())
			if errors.Is(err, ErrQueueFull) {
				rejected = f
				return true
			}
		default:
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// then
	_, err := rejected.Await(context.Background())
	assert.ErrorIs(t, err, ErrQueueFull)
	close(release)
	_, err = first.Await(context.Background())
	assert.NoError(t, err)
}

func TestSubmit_AfterShutdown(t *testing.T) {
	// given
	p := NewPool(1, 1)
	shutdown(t, p)

	// when
	_, err := Submit(p, context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	}).Await(context.Background())

	// then
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestAwait_AbandonDoesNotCancelTask(t *testing.T) {
	// given
	p := NewPool(1, 1)
	defer shutdown(t, p)
	release := make(chan struct{})
	var finished atomic.Bool
	callerCtx, cancel := context.WithCancel(context.Background())

	future := Submit(p, callerCtx, func(ctx context.Context) (int, error) {
		<-release
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		finished.Store(true)
		return 7, nil
	})

	// when
	cancel()
	_, err := future.Await(callerCtx)

	// then
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
	value, err := future.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.True(t, finished.Load())
}

func TestShutdown_WaitsForQueuedTasks(t *testing.T) {
	// given
	p := NewPool(2, 20)
	var completed atomic.Int32
	for i := 0; i < 10; i++ {
		Submit(p, context.Background(), func(ctx context.Context) (struct{}, error) {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
			return struct{}{}, nil
		})
	}

	// when
	shutdown(t, p)

	// then
	assert.Equal(t, int32(10), completed.Load())
}
