package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	gosync "sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// mockDestination records the exports it is given.
type mockDestination struct {
	name string
	err  error

	mu      gosync.Mutex
	exports []*Export
}

func (d *mockDestination) Name() string { return d.name }

func (d *mockDestination) Publish(_ context.Context, e *Export) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exports = append(d.exports, e)
	return d.err
}

func (d *mockDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.exports)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	_ = ms.CreateIssue(context.Background(), &model.Issue{Key: "AY-1", Type: model.TypeBug, CreatedAt: time.Now().UTC()})

	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(ms, []Destination{dest}, 20*time.Millisecond, discardLogger())
	sched.Start()
	time.Sleep(100 * time.Millisecond)
	sched.Stop()

	// Later ticks see the same content and publish nothing.
	if n := dest.count(); n != 1 {
		t.Fatalf("expected 1 publish, got %d", n)
	}
	if got := dest.exports[0].IssueCount; got != 1 {
		t.Errorf("IssueCount = %d, want 1", got)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newMockStore(), nil, time.Minute, discardLogger())
	sched.Stop()
}

func TestSchedulerPublishesChanges(t *testing.T) {
	ctx := context.Background()
	ms := newMockStore()
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())

	if n := sched.syncOnce(ctx); n != 1 {
		t.Fatalf("first sync wrote %d destinations, want 1", n)
	}
	if n := sched.syncOnce(ctx); n != 0 {
		t.Fatalf("unchanged sync wrote %d destinations, want 0", n)
	}

	_ = ms.SetNewCodePeriod(ctx, &model.NewCodePeriod{Type: model.NewCodeNumberOfDays, Value: "14"})
	if n := sched.syncOnce(ctx); n != 1 {
		t.Fatalf("sync after a settings change wrote %d destinations, want 1", n)
	}
	if got := dest.exports[1].Summary(); got != "0 issues, new code: number of days 14" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestSchedulerRetriesFailedDestination(t *testing.T) {
	ctx := context.Background()
	failing := &mockDestination{name: "down", err: errors.New("unreachable")}
	ok := &mockDestination{name: "up"}
	sched := NewScheduler(newMockStore(), []Destination{failing, ok}, time.Minute, discardLogger())

	// A failing destination does not stop the others.
	if n := sched.syncOnce(ctx); n != 1 {
		t.Fatalf("wrote %d destinations, want 1", n)
	}

	// Only the destination that missed the export is tried again.
	failing.err = nil
	if n := sched.syncOnce(ctx); n != 1 {
		t.Fatalf("wrote %d destinations, want 1", n)
	}
	if failing.count() != 2 || ok.count() != 1 {
		t.Errorf("publishes: failing=%d ok=%d, want 2 and 1", failing.count(), ok.count())
	}
}

func TestSchedulerSnapshotFailureSkipsDestinations(t *testing.T) {
	ms := newMockStore()
	ms.listErr = errList
	dest := &mockDestination{name: "mock"}

	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())
	if n := sched.syncOnce(context.Background()); n != 0 {
		t.Fatalf("wrote %d destinations, want 0", n)
	}
	if n := dest.count(); n != 0 {
		t.Fatalf("expected no publish after a snapshot failure, got %d", n)
	}
}
