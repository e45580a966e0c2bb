package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
)

type instancesResponse struct {
	Instances   []domain.InstanceStatus `json:"instances"`
	Count       int                     `json:"count"`
	LastRefresh string                  `json:"last_refresh"`
	LastRun     *domain.Report          `json:"last_run,omitempty"`
}

// Instances returns the cached instance snapshot, not a live listing;
// the refresher keeps it current.
func Instances(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		statuses := d.State.Instances()
		lastRefresh := "never"
		if t := d.State.LastRefresh(); !t.IsZero() {
			lastRefresh = t.Format("2006-01-02 15:04:05")
		}

		_ = json.NewEncoder(w).Encode(instancesResponse{
			Instances:   statuses,
			Count:       len(statuses),
			LastRefresh: lastRefresh,
			LastRun:     d.State.LastReport(),
		})
	}
}
