package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rewind/internal/logger"
)

const defaultRunsLimit = 10

type runsResponse struct {
	Journal string           `json:"journal"`
	Runs    []*domain.Report `json:"runs"`
}

// Runs returns recent rollback reports from the journal, newest first.
// Accepts ?n= to bound the result.
func Runs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if d.Journal == nil {
			_ = json.NewEncoder(w).Encode(runsResponse{
				Journal: "disabled",
				Runs:    []*domain.Report{},
			})
			return
		}

		n := defaultRunsLimit
		if raw := r.URL.Query().Get("n"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				http.Error(w, "n must be a positive integer", http.StatusBadRequest)
				return
			}
			n = parsed
		}

		runs, err := d.Journal.Recent(r.Context(), n)
		if err != nil {
			d.Logger.Warn("failed to read run journal", logger.Error(err))
			http.Error(w, "journal unavailable", http.StatusServiceUnavailable)
			return
		}

		_ = json.NewEncoder(w).Encode(runsResponse{
			Journal: "enabled",
			Runs:    runs,
		})
	}
}
