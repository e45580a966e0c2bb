package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/state"
)

// InstanceRefresher keeps the state cache in sync with the container
// runtime and the manifest directory.
type InstanceRefresher struct {
	lister        state.InstanceLister
	manifests     state.ManifestReader
	cache         *state.Memory
	service       string
	rootDomain    string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewInstanceRefresher creates a new instance refresher.
func NewInstanceRefresher(
	lister state.InstanceLister,
	manifests state.ManifestReader,
	cache *state.Memory,
	service string,
	rootDomain string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *InstanceRefresher {
	return &InstanceRefresher{
		lister:        lister,
		manifests:     manifests,
		cache:         cache,
		service:       service,
		rootDomain:    rootDomain,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs one synchronous refresh, then begins the periodic loop.
// The initial refresh is fatal on error: a serve process that cannot
// see the container runtime has nothing to report.
func (ir *InstanceRefresher) Start(ctx context.Context) error {
	if err := ir.Refresh(ctx); err != nil {
		return fmt.Errorf("initial instance refresh failed: %w", err)
	}

	ticker := time.NewTicker(ir.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ir.Refresh(ctx); err != nil {
					ir.logger.Error("failed to refresh instance state",
						logger.Error(err))
				}
			case <-ir.manualTrigger:
				ir.logger.Info("manual instance refresh triggered")
				if err := ir.Refresh(ctx); err != nil {
					ir.logger.Error("failed to refresh instance state",
						logger.Error(err))
				}
			case <-ir.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher.
func (ir *InstanceRefresher) Stop() {
	close(ir.stopCh)
}

// Refresh rebuilds the cached instance snapshot.
func (ir *InstanceRefresher) Refresh(ctx context.Context) error {
	statuses, err := state.Collect(ctx, ir.lister, ir.manifests, ir.service, ir.rootDomain)
	if err != nil {
		return err
	}

	ir.cache.UpdateInstances(statuses)

	claimed := ""
	for _, status := range statuses {
		if status.HasRootClaim {
			claimed = status.VersionID
			break
		}
	}
	ir.logger.Debug("instance state refreshed",
		logger.Int("running", len(statuses)),
		logger.String("root_claim", claimed))

	return nil
}
