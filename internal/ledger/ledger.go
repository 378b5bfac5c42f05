// Package ledger holds pending status-report retries. A report that failed
// at the transport level is parked here and retried with exponential,
// capped backoff at the start of every poll cycle; a report the producer
// rejected outright is dropped permanently.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/nexus"
)

// StatusReporter is the producer API surface the ledger retries against.
// *nexus.Client satisfies it; tests use a scripted fake.
type StatusReporter interface {
	ReportStatus(ctx context.Context, id string, status domain.ReportStatus) error
}

// Record is one pending retry. Attempt counts completed tries; the delay
// before the next one is base·2^(attempt-1), capped at the maximum.
type Record struct {
	ID            string
	Status        domain.ReportStatus
	Attempt       int
	NextAttemptAt time.Time
}

type Ledger struct {
	reporter StatusReporter
	base     time.Duration
	max      time.Duration
	logger   *zap.Logger

	// now is swapped out in tests for deterministic scheduling.
	now func() time.Time

	// The poll loop is the only writer, but the ops snapshot endpoint
	// reads concurrently, so access stays guarded.
	mu      sync.Mutex
	records map[string]*Record

	// Hooks for metrics; nil-safe via New.
	onRetryScheduled func()
	onDropped        func()
}

// Hooks carries the metric callbacks so the ledger stays metrics-agnostic.
type Hooks struct {
	OnRetryScheduled func()
	OnDropped        func()
}

func New(reporter StatusReporter, base, max time.Duration, logger *zap.Logger, hooks Hooks) *Ledger {
	if hooks.OnRetryScheduled == nil {
		hooks.OnRetryScheduled = func() {}
	}
	if hooks.OnDropped == nil {
		hooks.OnDropped = func() {}
	}
	return &Ledger{
		reporter:         reporter,
		base:             base,
		max:              max,
		logger:           logger,
		now:              time.Now,
		records:          make(map[string]*Record),
		onRetryScheduled: hooks.OnRetryScheduled,
		onDropped:        hooks.OnDropped,
	}
}

// Enqueue schedules (or reschedules) a status retry for id. A prior record
// for the same id is replaced, never duplicated: the attempt count carries
// over and grows, and the next attempt time is recomputed from it.
func (l *Ledger) Enqueue(id string, status domain.ReportStatus) {
	if id == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	attempt := 1
	if prior, ok := l.records[id]; ok {
		attempt = prior.Attempt + 1
	}

	// Cap both the exponent and the result so high attempt counts cannot
	// overflow the shift.
	delay := l.max
	if attempt <= 32 {
		if d := l.base << (attempt - 1); d > 0 && d < l.max {
			delay = d
		}
	}

	l.records[id] = &Record{
		ID:            id,
		Status:        status,
		Attempt:       attempt,
		NextAttemptAt: l.now().Add(delay),
	}
	l.onRetryScheduled()

	l.logger.Debug("status retry scheduled",
		zap.String("id", id),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
}

// Flush retries every due record. Success removes the record; another
// transport failure re-enqueues it with grown, capped backoff; a producer
// rejection drops it permanently.
func (l *Ledger) Flush(ctx context.Context) {
	for _, rec := range l.due() {
		err := l.reporter.ReportStatus(ctx, rec.ID, rec.Status)
		switch {
		case err == nil:
			l.remove(rec.ID)
			l.logger.Info("status retry delivered",
				zap.String("id", rec.ID),
				zap.Int("attempt", rec.Attempt),
			)
		case nexus.IsNetworkError(err):
			l.Enqueue(rec.ID, rec.Status)
		default:
			l.remove(rec.ID)
			l.onDropped()
			l.logger.Error("status update permanently failed, dropping",
				zap.String("id", rec.ID),
				zap.Int("attempts", rec.Attempt),
				zap.Error(err),
			)
		}
	}
}

// Size returns the number of pending retries.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Get returns the pending record for id, if any.
func (l *Ledger) Get(id string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (l *Ledger) due() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	var due []Record
	for _, rec := range l.records {
		if !rec.NextAttemptAt.After(now) {
			due = append(due, *rec)
		}
	}
	return due
}

func (l *Ledger) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, id)
}
