package goroutinepool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsTasks(t *testing.T) {
	p := NewPool(2, 10)
	p.Start()
	defer p.Stop(time.Second)

	var ran atomic.Int32
	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(&Task{
			Function: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
			Callback: func(err error) { done <- err },
		}))
	}
	for i := 0; i < 5; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("task did not complete")
		}
	}
	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolRetriesAndRecoversPanics(t *testing.T) {
	p := NewPool(1, 10)
	p.Start()
	defer p.Stop(time.Second)

	var attempts atomic.Int32
	done := make(chan error, 1)
	require.NoError(t, p.Submit(&Task{
		Function: func(ctx context.Context) error {
			if attempts.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
		Retry:    2,
		Callback: func(err error) { done <- err },
	}))
	assert.NoError(t, <-done)
	assert.Equal(t, int32(3), attempts.Load())

	panicked := make(chan error, 1)
	require.NoError(t, p.Submit(&Task{
		Function: func(ctx context.Context) error { panic("boom") },
		Callback: func(err error) { panicked <- err },
	}))
	var panicErr *TaskPanicError
	assert.ErrorAs(t, <-panicked, &panicErr)
}

func TestPoolOverloaded(t *testing.T) {
	p := NewPool(1, 1)
	// not started: the queue fills and stays full
	require.NoError(t, p.SubmitFunc(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.SubmitFunc(func(ctx context.Context) error { return nil }), ErrPoolOverloaded)

	stats := p.GetStats()
	assert.Equal(t, int64(2), stats["total_tasks"])
	assert.Equal(t, int64(1), stats["failed_tasks"])
}

func TestPoolRejectsAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()
	p.Stop(time.Second)

	assert.ErrorIs(t, p.SubmitFunc(func(ctx context.Context) error { return nil }), context.Canceled)
}
