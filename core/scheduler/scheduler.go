// Package scheduler - Sync Scheduler
// One consumer goroutine runs every sync and every submitted task, so the engine state
// it owns is never touched concurrently. Producers only enqueue:
//   - Notify for page mutations, load and resize (debounced)
//   - a fixed interval fallback
//   - Submit for pointer events and other state updates
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storformat/internal/config"
	"storformat/internal/logging"
)

// Default timings
const (
	DefaultDebounce = 40 * time.Millisecond
	DefaultInterval = 900 * time.Millisecond
)

// taskQueueSize bounds pending Submit calls before producers block
const taskQueueSize = 64

// Reason says why a sync ran
type Reason string

const (
	ReasonMutation Reason = "mutation"
	ReasonLoad     Reason = "load"
	ReasonResize   Reason = "resize"
	ReasonInterval Reason = "interval"
	ReasonStart    Reason = "start"
)

// SyncFunc is the idempotent sync operation
type SyncFunc func(ctx context.Context, reason Reason)

// Task is work that must run on the consumer
type Task func(ctx context.Context)

// Options configures timings; zero values use the defaults
type Options struct {
	Debounce time.Duration
	Interval time.Duration
}

// OptionsFromConfig reads timings from configuration
func OptionsFromConfig(cfg config.SchedulerConfig) Options {
	return Options{
		Debounce: time.Duration(cfg.DebounceMs) * time.Millisecond,
		Interval: time.Duration(cfg.IntervalMs) * time.Millisecond,
	}
}

// Stats counts scheduler activity
type Stats struct {
	Syncs     int64
	Tasks     int64
	Coalesced int64
	Panics    int64
}

// Scheduler funnels all triggers into one consumer
type Scheduler struct {
	sync     SyncFunc
	debounce time.Duration
	interval time.Duration

	notify chan Reason
	tasks  chan Task
	done   chan struct{}

	syncs     atomic.Int64
	taskCount atomic.Int64
	coalesced atomic.Int64
	panics    atomic.Int64

	log *zap.Logger
}

// New creates a scheduler around sync
func New(sync SyncFunc, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		sync:     sync,
		debounce: opts.Debounce,
		interval: opts.Interval,
		notify:   make(chan Reason, 1),
		tasks:    make(chan Task, taskQueueSize),
		done:     make(chan struct{}),
		log:      logging.Named("scheduler"),
	}
}

// Notify requests a debounced sync. It never blocks; a request made while another is
// pending is folded into it.
func (s *Scheduler) Notify(reason Reason) {
	select {
	case s.notify <- reason:
	default:
		s.coalesced.Add(1)
	}
}

// Submit queues task for the consumer. It returns false once the scheduler has stopped
// or ctx is done.
func (s *Scheduler) Submit(ctx context.Context, task Task) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.tasks <- task:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Stats returns activity counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Syncs:     s.syncs.Load(),
		Tasks:     s.taskCount.Load(),
		Coalesced: s.coalesced.Load(),
		Panics:    s.panics.Load(),
	}
}

// Done is closed when Run has returned
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Run is the consumer loop. It syncs once immediately and returns when ctx is cancelled.
// Run must be called once.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	debounce := time.NewTimer(s.debounce)
	debounce.Stop()
	defer debounce.Stop()
	var debounceC <-chan time.Time
	pending := ReasonMutation

	s.run(ctx, ReasonStart)
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler stopped", zap.Int64("syncs", s.syncs.Load()))
			return

		case reason := <-s.notify:
			if debounceC != nil {
				s.coalesced.Add(1)
			}
			pending = reason
			debounce.Reset(s.debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			s.run(ctx, pending)

		case <-ticker.C:
			s.run(ctx, ReasonInterval)

		case task := <-s.tasks:
			s.runTask(ctx, task)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, reason Reason) {
	if ctx.Err() != nil {
		return
	}
	s.syncs.Add(1)
	defer s.recoverPanic("sync", zap.String("reason", string(reason)))
	s.sync(ctx, reason)
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	s.taskCount.Add(1)
	defer s.recoverPanic("task")
	task(ctx)
}

// recoverPanic keeps the consumer alive when a sync or task panics
func (s *Scheduler) recoverPanic(what string, fields ...zap.Field) {
	if r := recover(); r != nil {
		s.panics.Add(1)
		s.log.Error(what+" panicked", append(fields, zap.Any("panic", r), zap.Stack("stack"))...)
	}
}
