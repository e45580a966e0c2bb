package cmd

import (
	"context"
	"fmt"

	"github.com/cheynewallace/tabby"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rewind/internal/config"
	"github.com/MrSnakeDoc/rewind/internal/discovery"
	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
	"github.com/MrSnakeDoc/rewind/internal/state"
	"github.com/MrSnakeDoc/rewind/internal/utils"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [root-domain]",
		Short: "Show running instances and which one holds the root claim",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rootDomain := ""
			if len(args) == 1 {
				rootDomain = args[0]
			}
			return runStatus(cmd.Context(), rootDomain)
		},
	}
}

func runStatus(ctx context.Context, rootDomain string) error {
	cfg := config.Load()
	if rootDomain == "" {
		rootDomain = cfg.RootDomain
	}
	if rootDomain == "" {
		return fmt.Errorf("root domain required: pass it as an argument or set REWIND_ROOT_DOMAIN")
	}

	// Table output; keep the logger quiet below warnings.
	log := logger.New("warn", cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	conv := domain.Convention{Prefix: cfg.ServicePrefix}
	docker, err := discovery.Connect(conv, log)
	if err != nil {
		return err
	}
	defer utils.Close(docker)

	manifests := manifest.NewStore(cfg.DeployDir, cfg.ManifestSuffix)
	statuses, err := state.Collect(ctx, docker, manifests, cfg.ServiceName, rootDomain)
	if err != nil {
		return err
	}

	t := tabby.New()
	t.AddHeader("VERSION", "SERVICE", "RUNNING", "MANIFEST", "ROOT CLAIM")
	for _, s := range statuses {
		t.AddLine(s.VersionID, s.ServiceName, yesNo(s.Running), yesNo(s.ManifestPresent), yesNo(s.HasRootClaim))
	}
	t.Print()

	if len(statuses) == 0 {
		fmt.Printf("no running instances match %s-<versionId>\n", cfg.ServicePrefix)
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
