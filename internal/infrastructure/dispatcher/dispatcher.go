package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/sideeffect"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"
)

const (
	componentDispatcher = "dispatcher"
	spanPrefix          = "Task."

	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeDropped = "dropped"
)

var ErrStopped = errors.New("dispatcher: stopped")

// Options sizes the pool. Zero values fall back to the defaults.
type Options struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type job struct {
	ctx  context.Context
	task sideeffect.Task
}

// Pool is a bounded worker pool for fire-and-forget tasks. Dispatch never
// blocks: when the queue is full the task is dropped and a warning is logged.
type Pool struct {
	mu      sync.RWMutex
	closed  bool
	queue   chan job
	workers int
	timeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	log       observability.Logger
	tel       observability.Observability
	tracer    observability.Tracer
	tasks     observability.Counter
	durations observability.Histogram
}

func New(opts Options, tel observability.Observability) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 30 * time.Second
	}
	tel = observability.OrNop(tel)

	return &Pool{
		queue:     make(chan job, opts.QueueSize),
		workers:   opts.Workers,
		timeout:   opts.TaskTimeout,
		log:       tel.Logger().With(observability.F("component", componentDispatcher)),
		tel:       tel,
		tracer:    tel.Tracer(),
		tasks:     tel.Metrics().Counter(observability.MSideEffectTasks),
		durations: tel.Metrics().Histogram(observability.MSideEffectTaskDuration),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work()
		}
		logctx.FromOr(ctx, p.log).Info("dispatcher_started",
			observability.F("workers", p.workers),
			observability.F("queue_size", cap(p.queue)),
		)
	})
}

// Stop refuses new tasks and waits for queued ones to finish, or for ctx to end.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("dispatcher_stopped")
		return nil
	case <-ctx.Done():
		p.log.Warn("dispatcher_stop_timeout", observability.F("pending", len(p.queue)))
		return ctx.Err()
	}
}

// Dispatch enqueues tasks and returns immediately. The caller's cancellation
// does not reach the tasks; its span and logger do.
func (p *Pool) Dispatch(ctx context.Context, tasks ...sideeffect.Task) {
	detached := context.WithoutCancel(ctx)

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, t := range tasks {
		if t == nil {
			continue
		}
		if p.closed {
			p.drop(ctx, t, ErrStopped)
			continue
		}
		select {
		case p.queue <- job{ctx: detached, task: t}:
			p.log.Debug("task_enqueued", observability.F("task", t.Name()))
		default:
			p.drop(ctx, t, errors.New("dispatcher: queue full"))
		}
	}
}

func (p *Pool) drop(ctx context.Context, t sideeffect.Task, reason error) {
	p.tasks.Add(1, observability.L("task", t.Name()), observability.L("outcome", outcomeDropped))
	p.log.Warn("task_dropped", append(observability.TraceFields(ctx),
		observability.F("task", t.Name()),
		observability.F("error", reason),
	)...)
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	name := j.task.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(j.ctx, p.timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, spanPrefix+name, attribute.String("task.name", name))
	defer span.End()

	ctx, logger := workerpresentation.WithTaskContext(ctx, p.log, p.tel, trace.SpanContextFromContext(ctx),
		map[string]string{"task": name})

	err := p.safeRun(ctx, j.task, logger)

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("task_failed",
			observability.F("error", err),
			observability.F("latency_seconds", time.Since(start).Seconds()),
		)
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Debug("task_done", observability.F("latency_seconds", time.Since(start).Seconds()))
	}

	p.tasks.Add(1, observability.L("task", name), observability.L("outcome", outcome))
	p.durations.Observe(time.Since(start).Seconds(), observability.L("task", name))
}

func (p *Pool) safeRun(ctx context.Context, t sideeffect.Task, logger observability.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("dispatcher: task panicked: %v", r)
		}
	}()
	return t.Run(ctx)
}

var _ sideeffect.Dispatcher = (*Pool)(nil)
