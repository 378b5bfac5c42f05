package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/ledger"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/nexus"
)

var netErr = &nexus.NetworkError{Op: "fetch queue", Err: errors.New("dial tcp: i/o timeout")}

// fakeClient scripts fetch and report behavior and records the call order.
type fakeClient struct {
	mu         sync.Mutex
	items      []domain.QueueItem
	fetchErr   error
	reportErrs map[string]error
	events     []string
}

func (f *fakeClient) FetchQueue(_ context.Context, _ int) ([]domain.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.items, nil
}

func (f *fakeClient) ReportStatus(_ context.Context, id string, status domain.ReportStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "report:"+id+":"+string(status))
	if err, ok := f.reportErrs[id]; ok {
		return err
	}
	return nil
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == "fetch" {
			n++
		}
	}
	return n
}

type fakeDispatcher struct {
	mu       sync.Mutex
	outcomes map[string]domain.DispatchOutcome
	order    []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, item domain.QueueItem) domain.DispatchOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, item.ID)
	if out, ok := f.outcomes[item.ID]; ok {
		return out
	}
	return domain.Completed()
}

const (
	base = 30 * time.Second
	max  = 300 * time.Second
)

func newTestPoller(client *fakeClient, disp *fakeDispatcher, hooks Hooks) (*Poller, *ledger.Ledger) {
	lgr := ledger.New(client, 10*time.Second, max, zap.NewNop(), ledger.Hooks{})
	p := New(client, disp, lgr, base, max, 20, zap.NewNop(), hooks)
	p.ctx = context.Background() // ticks driven directly, without Start
	return p, lgr
}

func item(id string) domain.QueueItem {
	return domain.QueueItem{ID: id, Action: domain.ActionWarAlert}
}

func TestPoller_SingleFlight(t *testing.T) {
	client := &fakeClient{}
	skipped := 0
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{
		OnTickSkipped: func() { skipped++ },
	})

	if !p.begin() {
		t.Fatal("begin should succeed on an idle poller")
	}

	// A tick while a cycle is in flight must do no fetch/dispatch work.
	p.tick()

	if client.fetchCount() != 0 {
		t.Fatalf("expected no fetch during in-flight tick, got %d", client.fetchCount())
	}
	if skipped != 1 {
		t.Fatalf("skip hook fired %d times", skipped)
	}

	p.end()
	p.tick()
	if client.fetchCount() != 1 {
		t.Fatalf("expected fetch after cycle finished, got %d", client.fetchCount())
	}
}

func TestPoller_BackoffOnNetworkFetchFailure(t *testing.T) {
	client := &fakeClient{fetchErr: netErr}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.tick()
	st := p.State()
	if st.BackoffAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", st.BackoffAttempts)
	}
	if st.Interval != 2*base {
		t.Fatalf("interval = %v, want %v", st.Interval, 2*base)
	}

	p.tick()
	if st := p.State(); st.Interval != 4*base {
		t.Fatalf("interval after second failure = %v, want %v", st.Interval, 4*base)
	}
}

func TestPoller_BackoffCapped(t *testing.T) {
	client := &fakeClient{fetchErr: netErr}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	for i := 0; i < 10; i++ {
		p.tick()
	}
	if st := p.State(); st.Interval != max {
		t.Fatalf("interval = %v, want capped at %v", st.Interval, max)
	}
}

func TestPoller_SuccessResetsBackoff(t *testing.T) {
	client := &fakeClient{fetchErr: netErr}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.tick()
	p.tick()

	client.mu.Lock()
	client.fetchErr = nil
	client.mu.Unlock()

	p.tick()
	st := p.State()
	if st.BackoffAttempts != 0 || st.Interval != base {
		t.Fatalf("state after success = %+v, want reset", st)
	}
}

func TestPoller_EmptyBatchIsNotAnError(t *testing.T) {
	client := &fakeClient{}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.tick()
	if st := p.State(); st.BackoffAttempts != 0 || st.Interval != base {
		t.Fatalf("empty batch changed state: %+v", st)
	}
}

func TestPoller_ApplicationFetchFailureKeepsInterval(t *testing.T) {
	client := &fakeClient{fetchErr: &nexus.APIError{Op: "fetch queue", StatusCode: 500}}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.tick()
	if st := p.State(); st.BackoffAttempts != 0 || st.Interval != base {
		t.Fatalf("application-class failure must not back off: %+v", st)
	}
}

func TestPoller_ItemsWithoutIDNeverDispatched(t *testing.T) {
	client := &fakeClient{items: []domain.QueueItem{
		{Action: domain.ActionWarAlert}, // no id
		item("2"),
	}}
	disp := &fakeDispatcher{}
	p, lgr := newTestPoller(client, disp, Hooks{})

	p.tick()

	if len(disp.order) != 1 || disp.order[0] != "2" {
		t.Fatalf("dispatched = %v, want only item 2", disp.order)
	}
	if lgr.Size() != 0 {
		t.Fatal("no ledger entry may exist for an id-less item")
	}
}

func TestPoller_SequentialOrderPreserved(t *testing.T) {
	client := &fakeClient{items: []domain.QueueItem{item("a"), item("b"), item("c")}}
	disp := &fakeDispatcher{}
	p, _ := newTestPoller(client, disp, Hooks{})

	p.tick()

	want := []string{"a", "b", "c"}
	if len(disp.order) != len(want) {
		t.Fatalf("dispatched %v", disp.order)
	}
	for i := range want {
		if disp.order[i] != want[i] {
			t.Fatalf("order = %v, want %v", disp.order, want)
		}
	}
}

func TestPoller_ReportsOutcomeAfterDispatch(t *testing.T) {
	client := &fakeClient{items: []domain.QueueItem{item("ok"), item("bad")}}
	disp := &fakeDispatcher{outcomes: map[string]domain.DispatchOutcome{
		"bad": domain.Failed(domain.ReasonMissingChannel),
	}}
	p, _ := newTestPoller(client, disp, Hooks{})

	p.tick()

	var reports []string
	for _, e := range client.events {
		if e != "fetch" {
			reports = append(reports, e)
		}
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %v", reports)
	}
	if reports[0] != "report:ok:complete" || reports[1] != "report:bad:failed" {
		t.Fatalf("reports = %v", reports)
	}
}

func TestPoller_DeliveryLatencyObservedOnSuccessOnly(t *testing.T) {
	client := &fakeClient{items: []domain.QueueItem{item("ok"), item("bad")}}
	disp := &fakeDispatcher{outcomes: map[string]domain.DispatchOutcome{
		"bad": domain.Failed(domain.ReasonMissingChannel),
	}}

	type sample struct {
		action domain.Action
		d      time.Duration
	}
	var samples []sample
	p, _ := newTestPoller(client, disp, Hooks{
		OnDelivered: func(action domain.Action, d time.Duration) {
			samples = append(samples, sample{action, d})
		},
	})

	p.tick()

	if len(samples) != 1 {
		t.Fatalf("latency samples = %d, want one for the delivered item", len(samples))
	}
	if samples[0].action != domain.ActionWarAlert {
		t.Errorf("action = %q", samples[0].action)
	}
	if samples[0].d < 0 {
		t.Errorf("duration = %v", samples[0].d)
	}
}

func TestPoller_ReportNetworkFailureEntersLedger(t *testing.T) {
	client := &fakeClient{
		items:      []domain.QueueItem{item("42")},
		reportErrs: map[string]error{"42": &nexus.NetworkError{Op: "report status", Err: errors.New("timeout")}},
	}
	p, lgr := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	before := time.Now()
	p.tick()

	rec, ok := lgr.Get("42")
	if !ok {
		t.Fatal("expected a ledger record for id 42")
	}
	if rec.Status != domain.StatusComplete {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.Attempt != 1 {
		t.Errorf("attempt = %d", rec.Attempt)
	}
	wantAround := before.Add(10 * time.Second)
	if rec.NextAttemptAt.Before(wantAround.Add(-time.Second)) || rec.NextAttemptAt.After(wantAround.Add(2*time.Second)) {
		t.Errorf("nextAttemptAt = %v, want ≈ now+10s", rec.NextAttemptAt)
	}
}

func TestPoller_ReportRejectionNotRetried(t *testing.T) {
	client := &fakeClient{
		items:      []domain.QueueItem{item("42")},
		reportErrs: map[string]error{"42": &nexus.APIError{Op: "report status", StatusCode: 422}},
	}
	p, lgr := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.tick()
	if lgr.Size() != 0 {
		t.Fatal("application-class report failure must not be retried")
	}
}

func TestPoller_DispatchFailureNotRetried(t *testing.T) {
	client := &fakeClient{items: []domain.QueueItem{item("7")}}
	disp := &fakeDispatcher{outcomes: map[string]domain.DispatchOutcome{
		"7": domain.Failed(domain.ReasonMissingChannel),
	}}
	p, lgr := newTestPoller(client, disp, Hooks{})

	p.tick()
	// The failure is reported once; the ledger is only for failed reports.
	if lgr.Size() != 0 {
		t.Fatal("dispatch failures must not create ledger entries")
	}
}

func TestPoller_FlushRunsBeforeFetch(t *testing.T) {
	client := &fakeClient{}
	// Short retry base so the parked record is already due on the next tick.
	lgr := ledger.New(client, time.Millisecond, max, zap.NewNop(), ledger.Hooks{})
	p := New(client, &fakeDispatcher{}, lgr, base, max, 20, zap.NewNop(), Hooks{})
	p.ctx = context.Background()

	lgr.Enqueue("old", domain.StatusFailed)
	time.Sleep(5 * time.Millisecond)

	p.tick()

	if len(client.events) < 2 {
		t.Fatalf("events = %v", client.events)
	}
	if client.events[0] != "report:old:failed" || client.events[1] != "fetch" {
		t.Fatalf("events = %v, want ledger flush before fetch", client.events)
	}
}

func TestPoller_StartStop(t *testing.T) {
	client := &fakeClient{}
	p, _ := newTestPoller(client, &fakeDispatcher{}, Hooks{})

	p.Start(context.Background())
	defer p.Stop()

	// First tick fires immediately.
	deadline := time.After(2 * time.Second)
	for client.fetchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("poller never fetched after Start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	p.Stop()
	if st := p.State(); st.InFlight {
		t.Fatal("no cycle should be in flight after Stop")
	}
}
