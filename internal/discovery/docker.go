package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
)

// Docker lists versioned instances from the local Docker Engine.
type Docker struct {
	cli  *client.Client
	conv domain.Convention
	log  logger.Logger
}

// Connect builds an Engine client from the environment (DOCKER_HOST et
// al.) with API version negotiation.
func Connect(conv domain.Convention, log logger.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Docker{cli: cli, conv: conv, log: log}, nil
}

// ListRunning returns every running instance matching the naming
// convention. A listing failure aborts the caller's whole operation:
// a partial instance list must never drive a partial routing update.
func (d *Docker) ListRunning(ctx context.Context) ([]domain.Instance, error) {
	summaries, err := d.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Names...)
	}

	instances := FilterNames(names, d.conv)
	d.log.Debug("discovered running instances",
		logger.Int("containers", len(summaries)),
		logger.Int("instances", len(instances)))
	return instances, nil
}

// Ping checks Engine reachability. Used by the readiness probe.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping docker daemon: %w", err)
	}
	return nil
}

// Close releases the client's transport.
func (d *Docker) Close() error {
	return d.cli.Close()
}

// FilterNames keeps the runtime names matching the naming convention,
// deduplicated by version and sorted by VersionID. Pure function so the
// filter is testable without a daemon. Non-matching names are dropped
// silently; guessing at them would create false positives.
func FilterNames(names []string, conv domain.Convention) []domain.Instance {
	seen := make(map[string]bool)
	instances := make([]domain.Instance, 0, len(names))
	for _, name := range names {
		versionID, ok := conv.ParseServiceName(name)
		if !ok || seen[versionID] {
			continue
		}
		seen[versionID] = true
		instances = append(instances, conv.Instance(versionID, true))
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].VersionID < instances[j].VersionID
	})
	return instances
}
