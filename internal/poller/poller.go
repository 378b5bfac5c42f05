// Package poller drives the fetch→dispatch→report cycle on an adaptive,
// self-rescheduling timer.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/ledger"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/nexus"
)

// QueueService is the producer API surface the poller consumes.
// *nexus.Client satisfies it.
type QueueService interface {
	FetchQueue(ctx context.Context, limit int) ([]domain.QueueItem, error)
	ReportStatus(ctx context.Context, id string, status domain.ReportStatus) error
}

// Dispatcher routes one item and returns its outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, item domain.QueueItem) domain.DispatchOutcome
}

// Hooks carries metric callbacks so the poller stays metrics-agnostic.
// Any nil hook is replaced with a no-op.
type Hooks struct {
	OnProcessed    func(action domain.Action, success bool)
	OnDelivered    func(action domain.Action, d time.Duration)
	OnFetchFailure func()
	OnTickSkipped  func()
	OnInterval     func(d time.Duration)
}

// State is a point-in-time snapshot of the poll loop, served by the ops
// status endpoint and asserted on in tests.
type State struct {
	Interval        time.Duration
	BackoffAttempts int
	InFlight        bool
}

type Poller struct {
	client     QueueService
	dispatcher Dispatcher
	ledger     *ledger.Ledger

	baseInterval time.Duration
	maxBackoff   time.Duration
	fetchLimit   int
	logger       *zap.Logger
	hooks        Hooks

	mu       sync.Mutex
	interval time.Duration
	attempts int
	inFlight bool
	started  bool
	timer    *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

func New(
	client QueueService,
	dispatcher Dispatcher,
	lgr *ledger.Ledger,
	baseInterval, maxBackoff time.Duration,
	fetchLimit int,
	logger *zap.Logger,
	hooks Hooks,
) *Poller {
	if hooks.OnProcessed == nil {
		hooks.OnProcessed = func(domain.Action, bool) {}
	}
	if hooks.OnDelivered == nil {
		hooks.OnDelivered = func(domain.Action, time.Duration) {}
	}
	if hooks.OnFetchFailure == nil {
		hooks.OnFetchFailure = func() {}
	}
	if hooks.OnTickSkipped == nil {
		hooks.OnTickSkipped = func() {}
	}
	if hooks.OnInterval == nil {
		hooks.OnInterval = func(time.Duration) {}
	}
	return &Poller{
		client:       client,
		dispatcher:   dispatcher,
		ledger:       lgr,
		baseInterval: baseInterval,
		maxBackoff:   maxBackoff,
		fetchLimit:   fetchLimit,
		logger:       logger,
		hooks:        hooks,
		interval:     baseInterval,
	}
}

// Start begins the poll cycle if it is not already running. The first tick
// fires immediately so queued work is not left waiting a full interval
// after boot.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.timer = time.AfterFunc(0, p.tick)
	p.logger.Info("queue poller started",
		zap.Duration("interval", p.baseInterval),
		zap.Int("fetch_limit", p.fetchLimit),
	)
}

// Stop cancels the pending timer. An in-flight cycle is not interrupted;
// it runs to completion or failure and does not reschedule.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("queue poller stopped")
}

// State returns a snapshot of the poll loop.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Interval:        p.interval,
		BackoffAttempts: p.attempts,
		InFlight:        p.inFlight,
	}
}

// tick is one timer firing. If a cycle is already in flight the tick does
// no work beyond rescheduling — the single-flight guarantee.
func (p *Poller) tick() {
	defer p.reschedule()

	if !p.begin() {
		p.hooks.OnTickSkipped()
		p.logger.Debug("cycle already in flight, skipping tick")
		return
	}
	defer p.end()

	p.cycle(p.ctx)
}

func (p *Poller) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Poller) end() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Poller) reschedule() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.timer = time.AfterFunc(p.interval, p.tick)
}

// cycle performs one unit of work: flush pending status retries, fetch a
// batch, dispatch each item strictly sequentially, report each outcome.
func (p *Poller) cycle(ctx context.Context) {
	p.ledger.Flush(ctx)

	items, err := p.client.FetchQueue(ctx, p.fetchLimit)
	if err != nil {
		p.hooks.OnFetchFailure()
		if nexus.IsNetworkError(err) {
			interval, attempts := p.backoff()
			p.logger.Warn("queue fetch failed, backing off",
				zap.Error(err),
				zap.Int("attempts", attempts),
				zap.Duration("next_interval", interval),
			)
		} else {
			// The producer answered with an error; the connection is fine,
			// so the interval is left alone.
			p.logger.Error("producer rejected queue fetch", zap.Error(err))
		}
		return
	}

	p.resetBackoff()

	if len(items) == 0 {
		return
	}
	p.logger.Info("processing queue batch", zap.Int("count", len(items)))

	// Sequential by design: bounds outbound call rate and preserves the
	// producer's ordering.
	for _, item := range items {
		if item.ID == "" {
			p.logger.Warn("queue item missing id, skipping",
				zap.String("action", string(item.Action)),
			)
			continue
		}
		started := time.Now()
		outcome := p.dispatcher.Dispatch(ctx, item)
		p.hooks.OnProcessed(item.Action, outcome.Success)
		if outcome.Success {
			p.hooks.OnDelivered(item.Action, time.Since(started))
		} else {
			p.logger.Warn("dispatch failed",
				zap.String("id", item.ID),
				zap.String("action", string(item.Action)),
				zap.String("reason", string(outcome.Reason)),
			)
		}
		p.report(ctx, item.ID, outcome.ReportStatus())
	}
}

// report posts one item's outcome. A transport failure parks the update in
// the retry ledger; a producer rejection is dropped permanently.
func (p *Poller) report(ctx context.Context, id string, status domain.ReportStatus) {
	err := p.client.ReportStatus(ctx, id, status)
	if err == nil {
		return
	}
	if nexus.IsNetworkError(err) {
		p.ledger.Enqueue(id, status)
		p.logger.Warn("status report failed, scheduled for retry",
			zap.String("id", id),
			zap.Error(err),
		)
		return
	}
	p.logger.Error("status report rejected, dropping",
		zap.String("id", id),
		zap.Error(err),
	)
}

func (p *Poller) backoff() (time.Duration, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++

	interval := p.maxBackoff
	if p.attempts <= 32 {
		if d := p.baseInterval << p.attempts; d > 0 && d < p.maxBackoff {
			interval = d
		}
	}
	p.interval = interval
	p.hooks.OnInterval(interval)
	return interval, p.attempts
}

func (p *Poller) resetBackoff() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attempts != 0 || p.interval != p.baseInterval {
		p.attempts = 0
		p.interval = p.baseInterval
		p.hooks.OnInterval(p.baseInterval)
	}
}
