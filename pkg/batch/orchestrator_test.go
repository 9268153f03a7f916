package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/javierturcios2607/ingestor/internal/testutil"
	"github.com/javierturcios2607/ingestor/pkg/fetch"
	"github.com/javierturcios2607/ingestor/pkg/notify"
)

// stubDispatcher returns canned outcomes without touching the network.
type stubDispatcher struct {
	mu    sync.Mutex
	calls int
	fn    func(id fetch.Identifier) fetch.Outcome
}

func (s *stubDispatcher) Dispatch(ctx context.Context, id fetch.Identifier) fetch.Outcome {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(id)
}

func (s *stubDispatcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingNotifier captures events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func TestNewRequiresDispatcher(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestRunEmptySequence(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		return fetch.Success(id, 200, nil)
	}}
	o, err := New(stub, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	result, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.Attempted != 0 || len(result.Outcomes) != 0 {
		t.Errorf("empty sequence: attempted=%d outcomes=%d, want 0/0", result.Attempted, len(result.Outcomes))
	}
	if stub.callCount() != 0 {
		t.Errorf("no dispatch should be issued for an empty sequence, got %d", stub.callCount())
	}
}

func TestRunFullAccountingWithDuplicates(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		switch id {
		case "soft":
			return fetch.SoftFailure(id, 404)
		case "hard":
			return fetch.HardFailure(id, errors.New("connection reset"))
		default:
			return fetch.Success(id, 200, map[string]any{"id": string(id)})
		}
	}}
	o, _ := New(stub, nil)

	// duplicates each produce an independent dispatch
	ids := []fetch.Identifier{"1", "2", "2", "soft", "hard", "1"}
	result, err := o.Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.Attempted != len(ids) {
		t.Errorf("Attempted = %d, want %d", result.Attempted, len(ids))
	}
	if len(result.Outcomes) != len(ids) {
		t.Errorf("outcome count = %d, want exactly %d", len(result.Outcomes), len(ids))
	}
	if result.Succeeded != 4 || result.SoftFailed != 1 || result.HardFailed != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/1/1",
			result.Succeeded, result.SoftFailed, result.HardFailed)
	}
	if result.Succeeded+result.Failed() != result.Attempted {
		t.Error("succeeded + failed must equal attempted")
	}
	if stub.callCount() != len(ids) {
		t.Errorf("dispatch calls = %d, want %d", stub.callCount(), len(ids))
	}
}

func TestRunIsolatedFailure(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		if id == "13" {
			return fetch.HardFailure(id, errors.New("simulated fault"))
		}
		return fetch.Success(id, 200, nil)
	}}
	o, _ := New(stub, nil)

	ids := []fetch.Identifier{"11", "12", "13", "14", "15"}
	result, err := o.Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Outcomes) != len(ids) {
		t.Fatalf("one failure must not lose sibling outcomes: got %d, want %d",
			len(result.Outcomes), len(ids))
	}

	seen := make(map[fetch.Identifier]fetch.Class)
	for _, o := range result.Outcomes {
		seen[o.Identifier] = o.Class
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			t.Errorf("missing outcome for identifier %s", id)
		}
	}
	if seen["13"] != fetch.ClassHardFailure {
		t.Errorf("outcome for 13 = %s, want hard failure", seen["13"])
	}
}

func TestRunRejectsEmptyIdentifier(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		return fetch.Success(id, 200, nil)
	}}
	o, _ := New(stub, nil)

	_, err := o.Run(context.Background(), []fetch.Identifier{"1", "", "3"})
	if err == nil {
		t.Fatal("expected error for empty identifier")
	}
	if stub.callCount() != 0 {
		t.Errorf("no dispatch may be issued before validation, got %d", stub.callCount())
	}
}

func TestRunNotifierInvokedOnFailures(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		return fetch.SoftFailure(id, 500)
	}}
	notifier := &recordingNotifier{}
	o, _ := New(stub, notifier)

	if _, err := o.Run(context.Background(), []fetch.Identifier{"1", "2"}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 {
		t.Fatalf("notifier events = %d, want 1", len(notifier.events))
	}
	ev := notifier.events[0]
	if ev.Failed != 2 || ev.Attempted != 2 {
		t.Errorf("event accounting = %d failed / %d attempted, want 2/2", ev.Failed, ev.Attempted)
	}
}

func TestRunNotifierNotInvokedOnCleanRun(t *testing.T) {
	stub := &stubDispatcher{fn: func(id fetch.Identifier) fetch.Outcome {
		return fetch.Success(id, 200, nil)
	}}
	notifier := &recordingNotifier{}
	o, _ := New(stub, notifier)

	if _, err := o.Run(context.Background(), []fetch.Identifier{"1"}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 0 {
		t.Errorf("clean run must not notify, got %d events", len(notifier.events))
	}
}

func TestRunScenarioNotFound(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/items/1", testutil.NewJSONResponse(`{"id": 1}`))
	mock.SetResponse("/items/2", testutil.NewNotFoundResponse())
	mock.SetResponse("/items/3", testutil.NewJSONResponse(`{"id": 3}`))

	cfg := fetch.DefaultConfig(mock.URL() + "/items/")
	cfg.Timeout = 2 * time.Second
	d, err := fetch.New(cfg)
	if err != nil {
		t.Fatalf("fetch.New() failed: %v", err)
	}
	o, _ := New(d, nil)

	result, err := o.Run(context.Background(), []fetch.Identifier{"1", "2", "3"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.Attempted != 3 || result.Succeeded != 2 || result.Failed() != 1 {
		t.Errorf("result = attempted:%d succeeded:%d failed:%d, want 3/2/1",
			result.Attempted, result.Succeeded, result.Failed())
	}
	for _, outcome := range result.Outcomes {
		if outcome.Identifier == "2" {
			if outcome.Class != fetch.ClassSoftFailure || outcome.StatusCode != 404 {
				t.Errorf("outcome for 2 = %s (status %d), want soft failure 404",
					outcome.Class, outcome.StatusCode)
			}
		}
	}
}

func TestRunTimeoutDoesNotBlockSiblings(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/items/1", testutil.NewJSONResponse(`{"id": 1}`))
	mock.SetResponse("/items/2", testutil.NewSlowResponse(`{"id": 2}`, 600*time.Millisecond))
	mock.SetResponse("/items/3", testutil.NewJSONResponse(`{"id": 3}`))

	cfg := fetch.DefaultConfig(mock.URL() + "/items/")
	cfg.Timeout = 150 * time.Millisecond
	d, err := fetch.New(cfg)
	if err != nil {
		t.Fatalf("fetch.New() failed: %v", err)
	}
	o, _ := New(d, nil)

	start := time.Now()
	result, err := o.Run(context.Background(), []fetch.Identifier{"1", "2", "3"})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Outcomes) != 3 {
		t.Fatalf("outcome count = %d, want 3", len(result.Outcomes))
	}
	if result.Succeeded != 2 || result.HardFailed != 1 {
		t.Errorf("counts = %d succeeded / %d hard failed, want 2/1",
			result.Succeeded, result.HardFailed)
	}
	for _, outcome := range result.Outcomes {
		if outcome.Identifier != "2" {
			if outcome.Class != fetch.ClassSuccess {
				t.Errorf("outcome for %s = %s, want success", outcome.Identifier, outcome.Class)
			}
			continue
		}
		if outcome.Class != fetch.ClassHardFailure {
			t.Fatalf("outcome for 2 = %s, want hard failure", outcome.Class)
		}
		if !errors.Is(outcome.Cause, fetch.ErrTimeout) {
			t.Errorf("cause for 2 = %v, want timeout", outcome.Cause)
		}
	}
	// The batch finishes as soon as the slow dispatch hits its deadline;
	// it must not wait out the full 600ms response.
	if elapsed > 450*time.Millisecond {
		t.Errorf("elapsed = %v, slow dispatch held the batch past its deadline", elapsed)
	}
}

func TestRunWaveTiming(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetDefaultDelay(100 * time.Millisecond)

	cfg := fetch.DefaultConfig(mock.URL() + "/items/")
	cfg.MaxConcurrency = 2
	cfg.Timeout = 2 * time.Second
	d, err := fetch.New(cfg)
	if err != nil {
		t.Fatalf("fetch.New() failed: %v", err)
	}
	o, _ := New(d, nil)

	// 5 identifiers at capacity 2 and 100ms each: three waves
	result, err := o.Run(context.Background(), []fetch.Identifier{"1", "2", "3", "4", "5"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.Succeeded != 5 {
		t.Fatalf("succeeded = %d, want 5", result.Succeeded)
	}
	if result.Elapsed < 250*time.Millisecond {
		t.Errorf("elapsed = %v, capacity 2 cannot finish 5x100ms in under 300ms", result.Elapsed)
	}
	if result.Elapsed > 480*time.Millisecond {
		t.Errorf("elapsed = %v, expected roughly three 100ms waves, not sequential execution", result.Elapsed)
	}
	if peak := mock.PeakInFlight(); peak > 2 {
		t.Errorf("peak in-flight = %d, must not exceed capacity 2", peak)
	}
}

func TestResultSuccesses(t *testing.T) {
	result := &Result{
		Outcomes: []fetch.Outcome{
			fetch.Success("1", 200, map[string]any{"id": 1.0}),
			fetch.SoftFailure("2", 404),
			fetch.Success("3", 200, map[string]any{"id": 3.0}),
		},
		Attempted: 3,
		Succeeded: 2,
	}

	payloads := result.Successes()
	if len(payloads) != 2 {
		t.Fatalf("Successes() returned %d payloads, want 2", len(payloads))
	}
}
