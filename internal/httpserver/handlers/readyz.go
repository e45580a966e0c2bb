package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
)

const probeTimeout = 2 * time.Second

type componentStatus struct {
	OK     bool   `json:"ok"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports readiness. The container runtime is the hard
// dependency: without it no rollback or refresh can run. A journal
// outage only degrades run history.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"docker": checkRuntime(d),
			"redis":  checkRedis(d),
		}

		ready := components["docker"].OK

		if ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:      ready,
			Components: components,
		})
	}
}

func checkRuntime(d deps.Deps) componentStatus {
	if d.PingRuntime == nil {
		return componentStatus{OK: false, Error: "runtime probe not configured"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := d.PingRuntime(ctx); err != nil {
		return componentStatus{OK: false, Impact: "rollback-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Impact: "journal-disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Impact: "run-history-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}
