package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/logger"
)

// Runner applies one service's declared state through the compose CLI.
type Runner struct {
	bin     string
	timeout time.Duration
	log     logger.Logger
}

func NewRunner(bin string, timeout time.Duration, log logger.Logger) *Runner {
	return &Runner{bin: bin, timeout: timeout, log: log}
}

// Apply reconciles exactly the named service to the manifest's declared
// state (compose -f <path> up -d --no-deps <service>), leaving sibling
// services untouched. Compose recreates nothing when the declared state
// is unchanged, so repeated applies do not disrupt a running instance.
// The call is bounded by the runner's timeout; expiry is a failure,
// never silent success.
func (r *Runner) Apply(ctx context.Context, manifestPath, service string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.bin, applyArgs(manifestPath, service)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("applying service",
		logger.String("service", service),
		logger.String("manifest", manifestPath))

	err := cmd.Run()

	if stdout.Len() > 0 {
		r.log.Debugf("compose stdout: %s", strings.TrimSpace(stdout.String()))
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("failed to apply %s: timed out after %s: %w", service, r.timeout, context.DeadlineExceeded)
		}
		if stderr.Len() > 0 {
			r.log.Errorf("compose stderr: %s", strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("failed to apply %s: %w", service, err)
	}

	if stderr.Len() > 0 {
		// compose narrates progress on stderr even on success
		r.log.Debugf("compose stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}

// applyArgs builds the compose invocation for one service.
func applyArgs(manifestPath, service string) []string {
	return []string{"compose", "-f", manifestPath, "up", "-d", "--no-deps", service}
}
