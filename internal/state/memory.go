package state

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/domain"
)

// Memory holds the latest observed deployment state for the admin API.
// It is refreshed wholesale by the instance refresher and read by the
// HTTP handlers and the status command.
type Memory struct {
	mu          sync.RWMutex
	statuses    []domain.InstanceStatus
	lastRefresh time.Time
	lastReport  *domain.Report
}

// NewMemory creates an empty state cache.
func NewMemory() *Memory {
	return &Memory{}
}

// UpdateInstances replaces the cached instance snapshot.
func (m *Memory) UpdateInstances(statuses []domain.InstanceStatus) {
	snapshot := make([]domain.InstanceStatus, len(statuses))
	copy(snapshot, statuses)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses = snapshot
	m.lastRefresh = time.Now()
}

// Instances returns a copy of the cached instance snapshot.
func (m *Memory) Instances() []domain.InstanceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]domain.InstanceStatus, len(m.statuses))
	copy(statuses, m.statuses)
	return statuses
}

// Count returns the number of cached instances.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.statuses)
}

// LastRefresh returns the timestamp of the last snapshot replacement.
func (m *Memory) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastRefresh
}

// SetLastReport stores the most recent rollback report.
func (m *Memory) SetLastReport(report *domain.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastReport = report
}

// LastReport returns the most recent rollback report, nil before the
// first run of this process.
func (m *Memory) LastReport() *domain.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastReport
}
