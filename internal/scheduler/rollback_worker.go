package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/state"
)

// RollbackRequest is one queued cutover request.
type RollbackRequest struct {
	Target string
	Domain string
	DryRun bool
}

// CutoverRunner runs one rollback and reports what happened.
type CutoverRunner interface {
	Run(ctx context.Context, target, rootDomain string, dryRun bool) (*domain.Report, error)
}

// RollbackWorker executes queued rollback requests one at a time. The
// trigger channel is unbuffered: a request is accepted only while the
// worker is idle, which is how the admin API reports "busy" instead of
// queueing cutovers behind each other.
type RollbackWorker struct {
	runner         CutoverRunner
	cache          *state.Memory
	refreshTrigger chan<- struct{}
	logger         logger.Logger
	trigger        <-chan RollbackRequest
	stopCh         chan struct{}
}

// NewRollbackWorker creates a new rollback worker.
func NewRollbackWorker(
	runner CutoverRunner,
	cache *state.Memory,
	refreshTrigger chan<- struct{},
	log logger.Logger,
	trigger <-chan RollbackRequest,
) *RollbackWorker {
	return &RollbackWorker{
		runner:         runner,
		cache:          cache,
		refreshTrigger: refreshTrigger,
		logger:         log,
		trigger:        trigger,
		stopCh:         make(chan struct{}),
	}
}

// Start begins consuming rollback requests.
func (w *RollbackWorker) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case req := <-w.trigger:
				w.handle(ctx, req)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the worker. A run already in progress finishes.
func (w *RollbackWorker) Stop() {
	close(w.stopCh)
}

func (w *RollbackWorker) handle(ctx context.Context, req RollbackRequest) {
	w.logger.Info("processing rollback request",
		logger.String("target", req.Target),
		logger.String("root_domain", req.Domain),
		logger.Bool("dry_run", req.DryRun))

	report, err := w.runner.Run(ctx, req.Target, req.Domain, req.DryRun)
	if report != nil {
		w.cache.SetLastReport(report)
	}
	if err != nil {
		// Already logged in detail by the orchestrator.
		return
	}

	// Nudge the refresher so the cache reflects the new claim holder.
	select {
	case w.refreshTrigger <- struct{}{}:
	default:
	}
}
