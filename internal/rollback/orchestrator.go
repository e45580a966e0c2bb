package rollback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
)

// ErrTargetManifestMissing means the rollback target has no manifest on
// disk. There is nothing to roll back to, so the run aborts before any
// mutation.
var ErrTargetManifestMissing = errors.New("target manifest missing")

// journalTimeout bounds the best-effort report write so a canceled run
// context cannot prevent journaling.
const journalTimeout = 5 * time.Second

// ManifestStore reads and writes per-version manifests.
type ManifestStore interface {
	Path(versionID string) string
	Read(versionID string) (*manifest.Document, error)
	Write(versionID string, doc *manifest.Document) error
}

// InstanceLister enumerates the running versioned instances.
type InstanceLister interface {
	ListRunning(ctx context.Context) ([]domain.Instance, error)
}

// Applier reconciles one named service to its manifest's declared state.
type Applier interface {
	Apply(ctx context.Context, manifestPath, service string) error
}

// Journal records run reports. Recording is best effort: failures are
// logged, never propagated.
type Journal interface {
	Record(ctx context.Context, report *domain.Report) error
}

// Locker serializes whole runs against the deployment directory.
type Locker interface {
	Acquire() (release func() error, err error)
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	Manifests ManifestStore
	Instances InstanceLister
	Applier   Applier
	Locker    Locker
	Journal   Journal // optional; nil disables run journaling
	Service   string  // compose service key managed inside each manifest
	Logger    logger.Logger
}

// Orchestrator performs the traffic cutover: grant the root claim to
// the target version, then revoke it from every other running instance.
//
// The ordering is the whole point. The target's manifest is written and
// its redeploy confirmed before any other instance is touched, so the
// root domain never has zero owners. A short window with two owners is
// accepted in exchange.
type Orchestrator struct {
	manifests ManifestStore
	instances InstanceLister
	applier   Applier
	locker    Locker
	journal   Journal
	service   string
	log       logger.Logger
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		manifests: opts.Manifests,
		instances: opts.Instances,
		applier:   opts.Applier,
		locker:    opts.Locker,
		journal:   opts.Journal,
		service:   opts.Service,
		log:       opts.Logger,
	}
}

// Run executes one rollback and always returns a report describing what
// happened, alongside the fatal error if the run failed overall.
// Per-instance failures on non-target instances are recorded in the
// report but do not fail the run.
func (o *Orchestrator) Run(ctx context.Context, target, rootDomain string, dryRun bool) (*domain.Report, error) {
	report := &domain.Report{
		ID:         uuid.NewString(),
		Target:     target,
		RootDomain: rootDomain,
		DryRun:     dryRun,
		StartedAt:  time.Now().UTC(),
	}

	o.log.Info("starting rollback",
		logger.String("run_id", report.ID),
		logger.String("target", target),
		logger.String("root_domain", rootDomain),
		logger.Bool("dry_run", dryRun))

	err := o.run(ctx, report)
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
		o.log.Error("rollback failed",
			logger.String("run_id", report.ID),
			logger.String("target", target),
			logger.Bool("target_applied", report.TargetApplied),
			logger.Error(err))
	} else {
		o.log.Info("rollback complete",
			logger.String("run_id", report.ID),
			logger.String("target", target),
			logger.Int("others", len(report.Others)),
			logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	}

	o.record(report)

	return report, err
}

func (o *Orchestrator) run(ctx context.Context, report *domain.Report) error {
	release, err := o.locker.Acquire()
	if err != nil {
		return fmt.Errorf("failed to lock deployment directory: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			o.log.Warn("failed to release deployment directory lock", logger.Error(err))
		}
	}()

	if err := o.cutOver(ctx, report); err != nil {
		return err
	}
	report.TargetApplied = true

	// The exclusion set must come from a complete listing. On failure
	// the run aborts with the cutover already in effect.
	instances, err := o.instances.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to list running instances: %w", err)
	}

	for _, inst := range others(instances, report.Target) {
		report.Others = append(report.Others, o.revoke(ctx, inst.VersionID, report))
	}

	return nil
}

// cutOver grants the root claim to the target and redeploys it. Every
// failure in here is fatal: the new primary is not in effect.
func (o *Orchestrator) cutOver(ctx context.Context, report *domain.Report) error {
	doc, err := o.manifests.Read(report.Target)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTargetManifestMissing, o.manifests.Path(report.Target))
		}
		return fmt.Errorf("failed to read target manifest: %w", err)
	}

	rule := domain.BuildRule(report.Target, report.RootDomain, true)
	if err := doc.SetRule(o.service, rule); err != nil {
		return fmt.Errorf("failed to update target rule: %w", err)
	}

	if report.DryRun {
		o.log.Info("dry run: would grant root claim",
			logger.String("target", report.Target),
			logger.String("rule", rule))
		return nil
	}

	if err := o.manifests.Write(report.Target, doc); err != nil {
		return fmt.Errorf("failed to write target manifest: %w", err)
	}
	if err := o.applier.Apply(ctx, o.manifests.Path(report.Target), o.service); err != nil {
		return fmt.Errorf("failed to redeploy target: %w", err)
	}

	o.log.Info("root claim granted",
		logger.String("target", report.Target),
		logger.String("service", o.service))

	return nil
}

// revoke clears the root claim from one non-target instance. Failures
// are isolated: they are recorded and the loop moves on.
func (o *Orchestrator) revoke(ctx context.Context, versionID string, report *domain.Report) domain.OtherResult {
	result := domain.OtherResult{VersionID: versionID}

	doc, err := o.manifests.Read(versionID)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			result.Outcome = domain.OutcomeSkipped
			result.Detail = "no manifest"
			o.log.Info("skipping instance without manifest", logger.String("version", versionID))
			return result
		}
		result.Outcome = domain.OutcomeFailed
		result.Detail = fmt.Sprintf("failed to read manifest: %v", err)
		o.log.Warn("failed to read instance manifest",
			logger.String("version", versionID), logger.Error(err))
		return result
	}

	rule := domain.BuildRule(versionID, report.RootDomain, false)
	if err := doc.SetRule(o.service, rule); err != nil {
		if errors.Is(err, manifest.ErrServiceNotFound) || errors.Is(err, manifest.ErrRuleNotFound) {
			result.Outcome = domain.OutcomeSkipped
			result.Detail = err.Error()
			o.log.Info("skipping instance without router rule",
				logger.String("version", versionID), logger.String("reason", err.Error()))
			return result
		}
		result.Outcome = domain.OutcomeFailed
		result.Detail = fmt.Sprintf("failed to update rule: %v", err)
		return result
	}

	if report.DryRun {
		result.Outcome = domain.OutcomeRevoked
		return result
	}

	if err := o.manifests.Write(versionID, doc); err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Detail = fmt.Sprintf("failed to write manifest: %v", err)
		o.log.Warn("failed to write instance manifest",
			logger.String("version", versionID), logger.Error(err))
		return result
	}

	if err := o.applier.Apply(ctx, o.manifests.Path(versionID), o.service); err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Detail = err.Error()
		o.log.Warn("failed to redeploy instance",
			logger.String("version", versionID), logger.Error(err))
		return result
	}

	result.Outcome = domain.OutcomeRevoked
	o.log.Info("root claim revoked", logger.String("version", versionID))

	return result
}

// record journals the report. Best effort only.
func (o *Orchestrator) record(report *domain.Report) {
	if o.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := o.journal.Record(ctx, report); err != nil {
		o.log.Warn("failed to record run report",
			logger.String("run_id", report.ID), logger.Error(err))
	}
}

// others filters the target out and pins a deterministic order.
func others(instances []domain.Instance, target string) []domain.Instance {
	out := make([]domain.Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.VersionID == target {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionID < out[j].VersionID })
	return out
}
