// Package sideeffecttest runs side-effect tasks synchronously for tests.
package sideeffecttest

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
)

type Result struct {
	Name string
	Err  error
}

// Inline runs each task on Dispatch, in the caller's goroutine, with the
// caller's cancellation detached. Results are kept in dispatch order.
type Inline struct {
	mu      sync.Mutex
	results []Result
}

func (d *Inline) Dispatch(ctx context.Context, tasks ...sideeffect.Task) {
	ctx = context.WithoutCancel(ctx)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		err := t.Run(ctx)
		d.mu.Lock()
		d.results = append(d.results, Result{Name: t.Name(), Err: err})
		d.mu.Unlock()
	}
}

func (d *Inline) Results() []Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Result(nil), d.results...)
}

func (d *Inline) Names() []string {
	var out []string
	for _, r := range d.Results() {
		out = append(out, r.Name)
	}
	return out
}

// Discard accepts tasks and never runs them.
type Discard struct{}

func (Discard) Dispatch(context.Context, ...sideeffect.Task) {}
