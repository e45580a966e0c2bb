package domain

import "strings"

// Instance represents one running deployment of a specific version.
//
// It is NOT tied to Docker or any discovery mechanism. Whatever the
// runtime reports is normalized into this structure.
//
// An Instance is considered uniquely identified by its VersionID.
type Instance struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// VersionID is the opaque short identifier of the deployed version.
	// Example: abcd123 (commit hash)
	VersionID string `json:"version_id"`

	// ServiceName is the runtime display name, derived from VersionID
	// by the naming convention.
	// Example: app-abcd123
	ServiceName string `json:"service_name"`

	// ─────────────────────────────
	// Observation
	// ─────────────────────────────

	// Running reports whether the runtime listed this instance as live.
	Running bool `json:"running"`
}

// InstanceStatus joins an Instance with the claim state read from its
// manifest. Produced by the refresher and the status command.
type InstanceStatus struct {
	Instance

	// ManifestPresent is false for discovered instances whose manifest
	// is missing from the deployment directory (stale or externally
	// managed deployments).
	ManifestPresent bool `json:"manifest_present"`

	// HasRootClaim reports whether this instance's rule currently grants
	// the bare root domain.
	HasRootClaim bool `json:"has_root_claim"`
}

// Convention is the naming convention tying a runtime service name to
// the version it runs: <prefix>-<versionId>.
type Convention struct {
	Prefix string
}

// ServiceName returns the runtime name for a version.
// Example: Convention{Prefix: "app"}.ServiceName("abcd123") -> "app-abcd123"
func (c Convention) ServiceName(versionID string) string {
	return c.Prefix + "-" + versionID
}

// ParseServiceName extracts the version id from a runtime display name.
// Runtimes report names with an optional leading "/", which is ignored.
// Returns false for any name outside the convention; callers must drop
// those silently rather than guess.
func (c Convention) ParseServiceName(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	versionID, ok := strings.CutPrefix(name, c.Prefix+"-")
	if !ok || !ValidVersionID(versionID) {
		return "", false
	}
	return versionID, true
}

// Instance builds the Instance for a version under this convention.
func (c Convention) Instance(versionID string, running bool) Instance {
	return Instance{
		VersionID:   versionID,
		ServiceName: c.ServiceName(versionID),
		Running:     running,
	}
}

// ValidVersionID reports whether s is a plausible version identifier:
// non-empty, alphanumeric only (commit-hash style).
func ValidVersionID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case '0' <= r && r <= '9':
		case 'a' <= r && r <= 'z':
		case 'A' <= r && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
