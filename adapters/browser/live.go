package browser

import (
	"context"

	"go.uber.org/zap"

	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/core/scheduler"
	"storformat/internal/logging"
)

// Page is the live page as the watch loop sees it
type Page interface {
	Listen(ctx context.Context, handle func(context.Context, Event)) error
	Redirect(ctx context.Context, target string) error
}

// Live keeps one engine state in step with a live page. Page events become scheduler
// notifications or tasks; every state change runs on the scheduler's goroutine.
type Live struct {
	page     Page
	pipeline *engine.Pipeline
	state    *engine.EngineState
	bridge   *checkout.Bridge
	sched    *scheduler.Scheduler
	log      *zap.Logger
}

// NewLive wires a page to a pipeline. A nil bridge ignores checkout requests.
func NewLive(page Page, pipeline *engine.Pipeline, state *engine.EngineState, bridge *checkout.Bridge, opts scheduler.Options) *Live {
	l := &Live{
		page:     page,
		pipeline: pipeline,
		state:    state,
		bridge:   bridge,
		log:      logging.Named("live"),
	}
	l.sched = scheduler.New(l.sync, opts)
	return l
}

// Scheduler returns the live loop's scheduler
func (l *Live) Scheduler() *scheduler.Scheduler {
	return l.sched
}

// Run listens to the page and syncs until ctx is done
func (l *Live) Run(ctx context.Context) error {
	if err := l.page.Listen(ctx, l.dispatch); err != nil {
		return err
	}
	l.sched.Run(ctx)
	return nil
}

func (l *Live) sync(ctx context.Context, reason scheduler.Reason) {
	report := l.pipeline.Tick(ctx, l.state)
	l.log.Debug("sync",
		zap.String("reason", string(reason)),
		zap.Stringer("phase", report.Phase),
		zap.Bool("presented", report.Presented),
		zap.Int("issues", len(report.Issues)))
}

func (l *Live) dispatch(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventMutation:
		l.sched.Notify(scheduler.ReasonMutation)
	case EventResize:
		l.sched.Notify(scheduler.ReasonResize)
	case EventLoad:
		l.sched.Notify(scheduler.ReasonLoad)
	case EventCheckout:
		l.sched.Submit(ctx, l.checkout)
	default:
		l.sched.Submit(ctx, func(ctx context.Context) {
			changed, err := Apply(ctx, l.state, ev)
			if err != nil {
				l.log.Warn("page event failed", zap.String("type", string(ev.Type)), zap.Error(err))
				return
			}
			if changed {
				l.pipeline.Refresh(ctx, l.state)
			}
		})
	}
}

func (l *Live) checkout(ctx context.Context) {
	if l.bridge == nil {
		return
	}
	target, err := l.bridge.Handoff(ctx, l.state)
	if err != nil {
		l.log.Warn("checkout failed", zap.Error(err))
		return
	}
	if err := l.page.Redirect(ctx, target); err != nil {
		l.log.Warn("checkout redirect failed", zap.String("url", target), zap.Error(err))
	}
}

var _ Page = (*Session)(nil)
