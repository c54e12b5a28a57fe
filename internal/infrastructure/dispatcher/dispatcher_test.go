package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
)

func stop(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
}

func TestFailingTasksDoNotAffectOthers(t *testing.T) {
	p := New(Options{Workers: 2, QueueSize: 8}, nil)
	p.Start(context.Background())

	var ran atomic.Int64
	p.Dispatch(context.Background(),
		sideeffect.Func("fails", func(context.Context) error { return errors.New("boom") }),
		sideeffect.Func("panics", func(context.Context) error { panic("boom") }),
		sideeffect.Func("ok", func(context.Context) error { ran.Add(1); return nil }),
		nil,
	)

	stop(t, p)
	assert.Equal(t, int64(1), ran.Load())
}

func TestDispatchDetachesCancellation(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 1}, nil)
	p.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := make(chan error, 1)
	p.Dispatch(ctx, sideeffect.Func("detached", func(ctx context.Context) error {
		errs <- ctx.Err()
		return nil
	}))

	stop(t, p)
	assert.NoError(t, <-errs)
}

func TestTaskTimeoutInterruptsWait(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 1, TaskTimeout: 20 * time.Millisecond}, nil)
	p.Start(context.Background())

	errs := make(chan error, 1)
	p.Dispatch(context.Background(), sideeffect.Func("slow", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			errs <- nil
		case <-ctx.Done():
			errs <- ctx.Err()
		}
		return nil
	}))

	stop(t, p)
	assert.ErrorIs(t, <-errs, context.DeadlineExceeded)
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 1}, nil)

	var ran atomic.Int64
	task := sideeffect.Func("count", func(context.Context) error { ran.Add(1); return nil })

	done := make(chan struct{})
	go func() {
		p.Dispatch(context.Background(), task, task, task)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full queue")
	}

	p.Start(context.Background())
	stop(t, p)
	assert.Equal(t, int64(1), ran.Load())
}

func TestDispatchAfterStopIsDropped(t *testing.T) {
	p := New(Options{}, nil)
	p.Start(context.Background())
	stop(t, p)

	var ran atomic.Bool
	p.Dispatch(context.Background(), sideeffect.Func("late", func(context.Context) error { ran.Store(true); return nil }))
	assert.False(t, ran.Load())
}

func TestConcurrentDispatch(t *testing.T) {
	p := New(Options{Workers: 4, QueueSize: 256}, nil)
	p.Start(context.Background())

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Dispatch(context.Background(), sideeffect.Func("n", func(context.Context) error { ran.Add(1); return nil }))
		}()
	}
	wg.Wait()

	stop(t, p)
	assert.Equal(t, int64(100), ran.Load())
}
