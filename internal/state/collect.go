package state

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
)

// InstanceLister enumerates the running versioned instances.
type InstanceLister interface {
	ListRunning(ctx context.Context) ([]domain.Instance, error)
}

// ManifestReader reads one version's manifest.
type ManifestReader interface {
	Read(versionID string) (*manifest.Document, error)
}

// Collect joins the running instances with their manifest state. A
// missing or unreadable manifest is not an error; it shows up as
// ManifestPresent false on that instance.
func Collect(ctx context.Context, lister InstanceLister, manifests ManifestReader, service, rootDomain string) ([]domain.InstanceStatus, error) {
	instances, err := lister.ListRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list running instances: %w", err)
	}

	statuses := make([]domain.InstanceStatus, 0, len(instances))
	for _, inst := range instances {
		status := domain.InstanceStatus{Instance: inst}

		doc, err := manifests.Read(inst.VersionID)
		if err == nil {
			status.ManifestPresent = true
			if rule, err := doc.Rule(service); err == nil {
				status.HasRootClaim = domain.HasRootClaim(rule, rootDomain)
			}
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}
