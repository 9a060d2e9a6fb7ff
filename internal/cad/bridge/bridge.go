// Package bridge hands work from request goroutines to the single goroutine
// that owns the document model.
//
// Callers Submit a Task and block until it has run. The owner goroutine runs
// Run, which wakes on a fixed interval, drains the queue in FIFO order and
// executes each task synchronously. Every dequeued task produces exactly one
// Result, delivered on a reply channel private to its submitter, so
// concurrent callers can never receive each other's results.
//
// A panic inside a task is recovered at the task boundary and returned as an
// error; the pump keeps running. There is no cancellation: a task that has
// been enqueued always runs, even if its submitter stopped waiting.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"cad-bridge/internal/common/logging"

	"github.com/google/uuid"
)

// ============================================================
// Types
// ============================================================

// Task is a unit of work executed on the owner goroutine.
type Task func(ctx context.Context) (any, error)

type Result struct {
	Value any
	Err   error
}

var (
	// ErrReentrant is returned when a task calls Submit: waiting on the pump
	// from the pump would deadlock. Tasks use Post instead.
	ErrReentrant = errors.New("bridge: Submit called from inside a task; use Post")
	ErrClosed    = errors.New("bridge: pump stopped")
	ErrQueueFull = errors.New("bridge: request queue full")
)

type Config struct {
	Interval  time.Duration
	QueueSize int
}

func DefaultConfig() Config {
	return Config{Interval: 500 * time.Millisecond, QueueSize: 64}
}

type envelope struct {
	id       string
	task     Task
	reply    chan Result
	enqueued time.Time
}

type pumpKey struct{}

// ============================================================
// Bridge
// ============================================================

type Bridge struct {
	requests chan envelope
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	startOnce sync.Once
	done      chan struct{} // closed when the pump stops accepting
	stopped   chan struct{} // closed after the final drain

	mu      sync.Mutex
	running bool
	closing bool
	senders sync.WaitGroup // enqueue attempts admitted before closing
}

func New(cfg Config, logger *slog.Logger, metrics *Metrics) *Bridge {
	if logger == nil {
		logger = logging.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	return &Bridge{
		requests: make(chan envelope, cfg.QueueSize),
		interval: cfg.Interval,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Submit enqueues task and blocks until its result is available. ctx only
// bounds the caller's wait; a task already enqueued still runs.
func (b *Bridge) Submit(ctx context.Context, task Task) (any, error) {
	if ctx.Value(pumpKey{}) != nil {
		return nil, ErrReentrant
	}
	env := b.wrap(task)
	if err := b.enqueue(ctx, env, true); err != nil {
		return nil, err
	}

	select {
	case res := <-env.reply:
		return res.Value, res.Err
	case <-b.stopped:
		select {
		case res := <-env.reply:
			return res.Value, res.Err
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		b.logger.Warn("bridge.wait_abandoned", "task_id", env.id, "error", ctx.Err().Error())
		return nil, ctx.Err()
	}
}

// Post enqueues task without waiting for it. It never blocks, so tasks may
// use it to schedule follow-up work.
func (b *Bridge) Post(task Task) error {
	return b.enqueue(context.Background(), b.wrap(task), false)
}

// enqueue sends env to the pump, waiting for queue space only when block is
// set. Sends are admitted under mu so none can land after the final drain.
func (b *Bridge) enqueue(ctx context.Context, env envelope, block bool) error {
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return ErrClosed
	}
	b.senders.Add(1)
	b.mu.Unlock()
	defer b.senders.Done()

	if !block {
		select {
		case b.requests <- env:
		default:
			return ErrQueueFull
		}
	} else {
		select {
		case b.requests <- env:
		case <-b.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.metrics.Submitted.Inc()
	b.metrics.QueueDepth.Inc()
	return nil
}

// closeIntake stops admitting sends and waits for admitted ones to settle.
// Blocked senders see done and give up.
func (b *Bridge) closeIntake() {
	b.mu.Lock()
	b.closing = true
	close(b.done)
	b.mu.Unlock()
	b.senders.Wait()
}

func (b *Bridge) wrap(task Task) envelope {
	return envelope{
		id:       uuid.NewString(),
		task:     task,
		reply:    make(chan Result, 1),
		enqueued: time.Now(),
	}
}

// ============================================================
// Pump
// ============================================================

// Run drives the pump on the calling goroutine until ctx is done, then
// drains whatever is still queued. It may only be called once.
func (b *Bridge) Run(ctx context.Context) error {
	started := false
	b.startOnce.Do(func() { started = true })
	if !started {
		return errors.New("bridge: Run called twice")
	}

	// The pump plays the role of a GUI thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.setRunning(true)
	defer b.setRunning(false)

	taskCtx := context.WithValue(ctx, pumpKey{}, b)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("bridge.pump_started", "interval", b.interval.String())
	for {
		select {
		case <-ctx.Done():
			b.closeIntake()
			n := b.drain(context.WithoutCancel(taskCtx))
			close(b.stopped)
			b.logger.Info("bridge.pump_stopped", "final_drain", n)
			return nil
		case <-ticker.C:
			b.drain(taskCtx)
		}
	}
}

// drain executes queued tasks until the queue is empty.
func (b *Bridge) drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case env := <-b.requests:
			b.metrics.QueueDepth.Dec()
			env.reply <- b.execute(ctx, env)
			n++
		default:
			return n
		}
	}
}

func (b *Bridge) execute(ctx context.Context, env envelope) (res Result) {
	start := time.Now()
	b.metrics.WaitSeconds.Observe(start.Sub(env.enqueued).Seconds())
	defer func() {
		outcome := "ok"
		if r := recover(); r != nil {
			outcome = "panic"
			res = Result{Err: fmt.Errorf("task panicked: %v", r)}
			b.logger.Error("bridge.task_panicked", "task_id", env.id, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		} else if res.Err != nil {
			outcome = "error"
			b.logger.Debug("bridge.task_failed", "task_id", env.id, "error", res.Err.Error())
		}
		b.metrics.Completed.WithLabelValues(outcome).Inc()
		b.metrics.TaskSeconds.Observe(time.Since(start).Seconds())
	}()
	v, err := env.task(ctx)
	return Result{Value: v, Err: err}
}

// ============================================================
// Status
// ============================================================

func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Pending reports how many tasks are waiting for the next pump tick.
func (b *Bridge) Pending() int {
	return len(b.requests)
}

func (b *Bridge) Interval() time.Duration {
	return b.interval
}

func (b *Bridge) setRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}
