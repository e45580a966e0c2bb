package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/scheduler"
)

type rollbackPayload struct {
	Version string `json:"version"`
	Domain  string `json:"domain,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// Rollback enqueues a cutover to the rollback worker. The request is
// accepted only while the worker is idle; a run already in flight
// answers 429 so callers never stack cutovers behind each other.
func Rollback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload rollbackPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		if !domain.ValidVersionID(payload.Version) {
			http.Error(w, "version must be a non-empty alphanumeric identifier", http.StatusBadRequest)
			return
		}

		rootDomain := payload.Domain
		if rootDomain == "" {
			rootDomain = d.RootDomain
		}
		if rootDomain == "" {
			http.Error(w, "domain required (no default root domain configured)", http.StatusBadRequest)
			return
		}

		req := scheduler.RollbackRequest{
			Target: payload.Version,
			Domain: rootDomain,
			DryRun: payload.DryRun,
		}

		select {
		case d.RollbackTrigger <- req:
			d.Logger.Info("rollback queued via endpoint",
				logger.String("target", req.Target),
				logger.String("root_domain", req.Domain),
				logger.Bool("dry_run", req.DryRun),
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := fmt.Fprintf(w, "✅ Rollback to %s queued\n", req.Target); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("rollback rejected, a run is already in progress",
				logger.String("target", req.Target),
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ A rollback is already running, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
