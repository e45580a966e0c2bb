package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rewind/internal/domain"
)

// RunTTL bounds how long an individual run report lives even after it
// falls off the trimmed list.
const RunTTL = 30 * 24 * time.Hour

// Journal persists rollback run reports. Recording is best effort by
// contract: a journaling failure is returned to the caller for logging
// and must never fail the run it records.
type Journal struct {
	client  *redis.Client
	history int64
}

// NewJournal creates a Redis-backed journal keeping the most recent
// history runs on the list.
func NewJournal(client *redis.Client, history int) *Journal {
	if history < 1 {
		history = 1
	}
	return &Journal{client: client, history: int64(history)}
}

// Record stores one run report and trims the history list.
func (j *Journal) Record(ctx context.Context, report *domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	pipe := j.client.Pipeline()
	pipe.Set(ctx, RunKey(report.ID), data, RunTTL)
	pipe.LPush(ctx, KeyRunList, report.ID)
	pipe.LTrim(ctx, KeyRunList, 0, j.history-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	return nil
}

// Recent returns up to n run reports, newest first. Entries whose
// report key expired are skipped rather than failing the whole read.
func (j *Journal) Recent(ctx context.Context, n int) ([]*domain.Report, error) {
	if n < 1 || int64(n) > j.history {
		n = int(j.history)
	}

	ids, err := j.client.LRange(ctx, KeyRunList, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get run IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Report{}, nil
	}

	pipe := j.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(ctx, RunKey(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get run reports: %w", err)
	}

	reports := make([]*domain.Report, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Expired reports linger on the list until trimmed out
			continue
		}

		var report domain.Report
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}

		reports = append(reports, &report)
	}

	return reports, nil
}
