package domain

import (
	"fmt"
	"strings"
	"time"
)

// Outcome classifies what happened to one non-target instance during a
// rollback run.
type Outcome string

const (
	// OutcomeRevoked: claim removed from the manifest and redeployed.
	OutcomeRevoked Outcome = "revoked"
	// OutcomeSkipped: nothing to do (no manifest, or no rule to revoke).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed: write or apply error; the cutover itself is unaffected.
	OutcomeFailed Outcome = "failed"
)

// OtherResult is the per-instance outcome for one non-target instance.
type OtherResult struct {
	VersionID string  `json:"version_id"`
	Outcome   Outcome `json:"outcome"`
	Detail    string  `json:"detail,omitempty"`
}

// Report is the record of one rollback run.
//
// The target outcome decides overall success. Non-target outcomes are
// best effort and listed individually so operators can see the primary
// guarantee held even when secondary cleanup was incomplete.
type Report struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	RootDomain string    `json:"root_domain"`
	DryRun     bool      `json:"dry_run,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// TargetApplied is true once the target's claim was written and its
	// redeploy confirmed (or, in dry-run mode, would have been).
	TargetApplied bool `json:"target_applied"`

	// Error holds the fatal error that ended the run, if any. It can be
	// set with TargetApplied true: a discovery failure after the cutover
	// leaves the new primary in effect but the run still fails overall.
	Error string `json:"error,omitempty"`

	Others []OtherResult `json:"others"`
}

// Succeeded reports whether the run completed without a fatal error.
// Per-instance failures in Others do not count; they are isolated.
func (r *Report) Succeeded() bool {
	return r.Error == ""
}

// Summary renders the operator-facing outcome, one line per instance.
func (r *Report) Summary() string {
	var b strings.Builder

	header := fmt.Sprintf("🚀 rollback %s -> %s", r.Target, r.RootDomain)
	if r.DryRun {
		header += " (dry run)"
	}
	b.WriteString(header + "\n")

	switch {
	case !r.TargetApplied:
		fmt.Fprintf(&b, "❌ target %s: %s\n", r.Target, r.Error)
	case r.DryRun:
		fmt.Fprintf(&b, "✅ target %s: would grant root claim\n", r.Target)
	default:
		fmt.Fprintf(&b, "✅ target %s: root claim granted\n", r.Target)
	}

	for _, o := range r.Others {
		switch o.Outcome {
		case OutcomeRevoked:
			if r.DryRun {
				fmt.Fprintf(&b, "✅ %s: would revoke root claim\n", o.VersionID)
			} else {
				fmt.Fprintf(&b, "✅ %s: root claim revoked\n", o.VersionID)
			}
		case OutcomeSkipped:
			fmt.Fprintf(&b, "   %s: skipped (%s)\n", o.VersionID, o.Detail)
		case OutcomeFailed:
			fmt.Fprintf(&b, "❌ %s: %s\n", o.VersionID, o.Detail)
		}
	}

	if r.TargetApplied && r.Error != "" {
		fmt.Fprintf(&b, "❌ %s\n", r.Error)
	}

	return strings.TrimRight(b.String(), "\n")
}
