package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rewind/internal/compose"
	"github.com/MrSnakeDoc/rewind/internal/config"
	"github.com/MrSnakeDoc/rewind/internal/discovery"
	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/lock"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
	"github.com/MrSnakeDoc/rewind/internal/rollback"
	redisstore "github.com/MrSnakeDoc/rewind/internal/store/redis"
	"github.com/MrSnakeDoc/rewind/internal/utils"
)

func newRollbackCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rollback <version-id> <root-domain>",
		Short: "Cut root-domain traffic over to a previously deployed version",
		// Arity is validated before config load or any IO, so a usage
		// error has zero side effects.
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if !domain.ValidVersionID(args[0]) {
				return fmt.Errorf("version id must be non-empty alphanumeric, got %q", args[0])
			}
			return runRollback(cmd, args[0], args[1], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"compute and print the cutover without writing manifests or redeploying")

	return cmd
}

func runRollback(cmd *cobra.Command, target, rootDomain string, dryRun bool) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	conv := domain.Convention{Prefix: cfg.ServicePrefix}
	docker, err := discovery.Connect(conv, log)
	if err != nil {
		return err
	}
	defer utils.Close(docker)

	opts := rollback.Options{
		Manifests: manifest.NewStore(cfg.DeployDir, cfg.ManifestSuffix),
		Instances: docker,
		Applier:   compose.NewRunner(cfg.ComposeBin, cfg.ApplyTimeout, log),
		Locker:    lock.New(cfg.DeployDir),
		Service:   cfg.ServiceName,
		Logger:    log,
	}

	if journal, client := dialJournal(cfg, log); journal != nil {
		opts.Journal = journal
		defer utils.MustClose(client, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := rollback.New(opts).Run(ctx, target, rootDomain, dryRun)
	fmt.Fprintln(cmd.OutOrStdout(), report.Summary())

	return err
}

// dialJournal connects the run journal with a single bounded ping. The
// journal must never block a cutover, so an absent or unreachable Redis
// degrades to no journaling with a warning instead of the serve-mode
// retry loop.
func dialJournal(cfg *config.Config, log logger.Logger) (*redisstore.Journal, *goredis.Client) {
	if !cfg.JournalEnabled() {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUser,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDT,
		ReadTimeout:  cfg.RedisRT,
		WriteTimeout: cfg.RedisWT,
		PoolSize:     cfg.RedisPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, run will not be journaled",
			logger.String("addr", cfg.RedisAddr),
			logger.Error(err))
		_ = client.Close()
		return nil, nil
	}

	return redisstore.NewJournal(client, cfg.JournalHistory), client
}
