package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/scheduler"
	"github.com/MrSnakeDoc/rewind/internal/state"
)

// RunJournal is the read side of the run journal.
type RunJournal interface {
	Recent(ctx context.Context, n int) ([]*domain.Report, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to access the admin endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	RootDomain string // default root domain for rollback requests

	State       *state.Memory                   // cached instance snapshot and last report
	Journal     RunJournal                      // nil when journaling is disabled
	RedisClient *redis.Client                   // nil when journaling is disabled
	PingRuntime func(ctx context.Context) error // container runtime liveness probe

	RefreshTrigger  chan struct{}                  // manual state refresh
	RollbackTrigger chan scheduler.RollbackRequest // unbuffered; accepted only while the worker is idle

	RateLimitPerMin int // token refill per client IP per minute on mutating routes
	RateLimitBurst  int
}
