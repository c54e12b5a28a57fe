package sideeffect

import (
	"context"
	"time"
)

// Task is a best-effort unit of work run off the request path. Its error is
// logged and discarded; tasks are never retried.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Dispatcher accepts tasks without waiting for them to run.
type Dispatcher interface {
	Dispatch(ctx context.Context, tasks ...Task)
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

// Func adapts a function to a Task.
func Func(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// Sleep waits for d or until ctx ends, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
