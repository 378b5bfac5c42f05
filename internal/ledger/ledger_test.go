package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/nexus"
)

// fakeReporter scripts one error per call, front-to-back; nil = success.
type fakeReporter struct {
	mu    sync.Mutex
	errs  []error
	calls []string
}

func (f *fakeReporter) ReportStatus(_ context.Context, id string, _ domain.ReportStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

var netErr = &nexus.NetworkError{Op: "report status", Err: errors.New("dial tcp: connection refused")}

func newLedger(rep StatusReporter, base, max time.Duration) (*Ledger, *time.Time) {
	l := New(rep, base, max, zap.NewNop(), Hooks{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLedger_EnqueueFirstAttempt(t *testing.T) {
	l, now := newLedger(&fakeReporter{}, 10*time.Second, 300*time.Second)

	l.Enqueue("42", domain.StatusComplete)

	rec, ok := l.Get("42")
	if !ok {
		t.Fatal("expected a record for id 42")
	}
	if rec.Status != domain.StatusComplete {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", rec.Attempt)
	}
	if want := now.Add(10 * time.Second); !rec.NextAttemptAt.Equal(want) {
		t.Errorf("nextAttemptAt = %v, want %v", rec.NextAttemptAt, want)
	}
}

func TestLedger_EnqueueReplacesNeverAppends(t *testing.T) {
	l, now := newLedger(&fakeReporter{}, 10*time.Second, 300*time.Second)

	l.Enqueue("42", domain.StatusComplete)
	l.Enqueue("42", domain.StatusComplete)

	if l.Size() != 1 {
		t.Fatalf("expected exactly one record, got %d", l.Size())
	}
	rec, _ := l.Get("42")
	if rec.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", rec.Attempt)
	}
	if want := now.Add(20 * time.Second); !rec.NextAttemptAt.Equal(want) {
		t.Errorf("nextAttemptAt = %v, want recomputed %v", rec.NextAttemptAt, want)
	}
}

func TestLedger_DelayCapped(t *testing.T) {
	l, _ := newLedger(&fakeReporter{}, 10*time.Second, 300*time.Second)

	// 10s doubles past 300s after 6 enqueues (10,20,40,80,160,320→300).
	for i := 0; i < 6; i++ {
		l.Enqueue("42", domain.StatusFailed)
	}
	rec, _ := l.Get("42")
	if rec.Attempt != 6 {
		t.Fatalf("attempt = %d", rec.Attempt)
	}
	if got := rec.NextAttemptAt.Sub(l.now()); got != 300*time.Second {
		t.Errorf("delay = %v, want capped 300s", got)
	}
}

func TestLedger_EmptyIDIgnored(t *testing.T) {
	l, _ := newLedger(&fakeReporter{}, 10*time.Second, 300*time.Second)
	l.Enqueue("", domain.StatusFailed)
	if l.Size() != 0 {
		t.Fatal("a record without an id must never enter the ledger")
	}
}

func TestLedger_FlushSuccessRemoves(t *testing.T) {
	rep := &fakeReporter{}
	l, now := newLedger(rep, 10*time.Second, 300*time.Second)

	l.Enqueue("42", domain.StatusComplete)
	*now = now.Add(11 * time.Second)

	l.Flush(context.Background())
	if len(rep.calls) != 1 || rep.calls[0] != "42" {
		t.Fatalf("calls = %v", rep.calls)
	}
	if l.Size() != 0 {
		t.Fatal("delivered record should be removed")
	}
}

func TestLedger_FlushSkipsNotDue(t *testing.T) {
	rep := &fakeReporter{}
	l, _ := newLedger(rep, 10*time.Second, 300*time.Second)

	l.Enqueue("42", domain.StatusComplete)

	l.Flush(context.Background())
	if len(rep.calls) != 0 {
		t.Fatalf("record was not due yet, calls = %v", rep.calls)
	}
	if l.Size() != 1 {
		t.Fatal("record should remain pending")
	}
}

func TestLedger_FlushNetworkFailureGrowsBackoff(t *testing.T) {
	rep := &fakeReporter{errs: []error{netErr}}
	l, now := newLedger(rep, 10*time.Second, 300*time.Second)

	l.Enqueue("42", domain.StatusFailed)
	*now = now.Add(11 * time.Second)

	l.Flush(context.Background())

	rec, ok := l.Get("42")
	if !ok {
		t.Fatal("record should have been re-enqueued")
	}
	if rec.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", rec.Attempt)
	}
	if want := now.Add(20 * time.Second); !rec.NextAttemptAt.Equal(want) {
		t.Errorf("nextAttemptAt = %v, want %v", rec.NextAttemptAt, want)
	}
}

func TestLedger_FlushRejectionDropsPermanently(t *testing.T) {
	rep := &fakeReporter{errs: []error{&nexus.APIError{Op: "report status", StatusCode: 404}}}
	dropped := 0
	l := New(rep, 10*time.Second, 300*time.Second, zap.NewNop(), Hooks{
		OnDropped: func() { dropped++ },
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Enqueue("42", domain.StatusFailed)
	now = now.Add(11 * time.Second)

	l.Flush(context.Background())
	if l.Size() != 0 {
		t.Fatal("rejected record must be dropped, not retried")
	}
	if dropped != 1 {
		t.Errorf("dropped hook fired %d times", dropped)
	}

	// A later flush must not resurrect it.
	now = now.Add(time.Hour)
	l.Flush(context.Background())
	if got := len(rep.calls); got != 1 {
		t.Fatalf("expected no further attempts, got %d calls", got)
	}
}
