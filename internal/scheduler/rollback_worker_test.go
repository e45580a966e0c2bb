package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/state"
)

type fakeRunner struct {
	mu    sync.Mutex
	runs  []RollbackRequest
	gate  chan struct{} // if set, Run blocks until the gate closes
	fail  error
}

func (f *fakeRunner) Run(ctx context.Context, target, rootDomain string, dryRun bool) (*domain.Report, error) {
	f.mu.Lock()
	f.runs = append(f.runs, RollbackRequest{Target: target, Domain: rootDomain, DryRun: dryRun})
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}

	report := &domain.Report{ID: "run-" + target, Target: target, RootDomain: rootDomain, DryRun: dryRun}
	if f.fail != nil {
		report.Error = f.fail.Error()
		return report, f.fail
	}
	report.TargetApplied = true
	return report, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func TestRollbackWorkerRunsRequest(t *testing.T) {
	runner := &fakeRunner{}
	cache := state.NewMemory()
	refresh := make(chan struct{}, 1)
	trigger := make(chan RollbackRequest)

	w := NewRollbackWorker(runner, cache, refresh, logger.New("error", false), trigger)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	trigger <- RollbackRequest{Target: "abcd123", Domain: "example.com"}

	deadline := time.After(2 * time.Second)
	for cache.LastReport() == nil {
		select {
		case <-deadline:
			t.Fatal("worker never stored the run report")
		case <-time.After(10 * time.Millisecond):
		}
	}

	report := cache.LastReport()
	if report.Target != "abcd123" || !report.TargetApplied {
		t.Errorf("stored report = %+v", report)
	}

	select {
	case <-refresh:
	case <-time.After(2 * time.Second):
		t.Error("worker did not nudge the refresher after a successful run")
	}
}

func TestRollbackWorkerBusyWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	runner := &fakeRunner{gate: gate}
	trigger := make(chan RollbackRequest)

	w := NewRollbackWorker(runner, state.NewMemory(), make(chan struct{}, 1),
		logger.New("error", false), trigger)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	trigger <- RollbackRequest{Target: "abcd123", Domain: "example.com"}

	deadline := time.After(2 * time.Second)
	for runner.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never picked up the first request")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// While the first run is in flight nobody receives, which is what
	// lets the admin API answer "busy" with a non-blocking send.
	select {
	case trigger <- RollbackRequest{Target: "ef56789", Domain: "example.com"}:
		t.Error("second request was accepted while the worker was busy")
	default:
	}

	close(gate)
}
