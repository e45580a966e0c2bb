package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rewind/internal/domain"
	"github.com/MrSnakeDoc/rewind/internal/logger"
	"github.com/MrSnakeDoc/rewind/internal/manifest"
	"github.com/MrSnakeDoc/rewind/internal/state"
)

type fakeLister struct {
	mu        sync.Mutex
	instances []domain.Instance
	err       error
}

func (f *fakeLister) ListRunning(ctx context.Context) ([]domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances, f.err
}

func (f *fakeLister) set(instances []domain.Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = instances
}

type fakeReader struct {
	docs map[string]string
}

func (f *fakeReader) Read(versionID string) (*manifest.Document, error) {
	data, ok := f.docs[versionID]
	if !ok {
		return nil, fmt.Errorf("failed to read manifest %s: %w", versionID, manifest.ErrNotFound)
	}
	return manifest.Parse([]byte(data))
}

func instanceManifest(versionID, rule string) string {
	return fmt.Sprintf("services:\n  app:\n    labels:\n      - traefik.http.routers.app-%s.rule=%s\n", versionID, rule)
}

func TestInstanceRefresherRefresh(t *testing.T) {
	lister := &fakeLister{instances: []domain.Instance{
		{VersionID: "abcd123", ServiceName: "app-abcd123", Running: true},
	}}
	reader := &fakeReader{docs: map[string]string{
		"abcd123": instanceManifest("abcd123", "Host(`abcd123.example.com`) || Host(`example.com`) || Host(`www.example.com`)"),
	}}
	cache := state.NewMemory()

	ir := NewInstanceRefresher(lister, reader, cache, "app", "example.com",
		logger.New("error", false), time.Hour, make(chan struct{}, 1))

	if err := ir.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	statuses := cache.Instances()
	if len(statuses) != 1 || !statuses[0].HasRootClaim {
		t.Errorf("cache = %+v, want abcd123 with root claim", statuses)
	}
}

func TestInstanceRefresherStartFatalOnFirstRefresh(t *testing.T) {
	lister := &fakeLister{err: errors.New("docker daemon unreachable")}

	ir := NewInstanceRefresher(lister, &fakeReader{}, state.NewMemory(), "app", "example.com",
		logger.New("error", false), time.Hour, make(chan struct{}, 1))

	if err := ir.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the first refresh fails")
	}
}

func TestInstanceRefresherManualTrigger(t *testing.T) {
	lister := &fakeLister{instances: []domain.Instance{
		{VersionID: "abcd123", ServiceName: "app-abcd123", Running: true},
	}}
	reader := &fakeReader{docs: map[string]string{}}
	cache := state.NewMemory()
	trigger := make(chan struct{}, 1)

	ir := NewInstanceRefresher(lister, reader, cache, "app", "example.com",
		logger.New("error", false), time.Hour, trigger)

	if err := ir.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer ir.Stop()

	if cache.Count() != 1 {
		t.Fatalf("initial refresh cached %d instances, want 1", cache.Count())
	}

	lister.set([]domain.Instance{
		{VersionID: "abcd123", ServiceName: "app-abcd123", Running: true},
		{VersionID: "ef56789", ServiceName: "app-ef56789", Running: true},
	})
	trigger <- struct{}{}

	deadline := time.After(2 * time.Second)
	for cache.Count() != 2 {
		select {
		case <-deadline:
			t.Fatalf("manual trigger did not refresh, cache has %d instances", cache.Count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
