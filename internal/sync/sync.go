// Package sync publishes periodic exports of the issue set and the facet
// settings to backup destinations.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/store"
)

// Destination stores exports somewhere outside the database.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Publish stores every part of e.
	Publish(ctx context.Context, e *Export) error
}

// Scheduler takes a snapshot on every tick and publishes it to each
// destination that does not hold the same content yet.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	// published maps a destination index to the digest it last accepted.
	// Only the run goroutine touches it.
	published map[int]string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler publishing to destinations every interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		published:    make(map[int]string),
	}
}

// Start syncs once right away and then on every tick until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.syncOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.syncOnce(ctx)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// syncOnce returns the number of destinations written to.
func (s *Scheduler) syncOnce(ctx context.Context) int {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		s.logger.Error("sync snapshot failed", "err", err)
		return 0
	}
	e, err := snap.Encode()
	if err != nil {
		s.logger.Error("sync encode failed", "err", err)
		return 0
	}

	written, failed := 0, 0
	for i, dest := range s.destinations {
		if s.published[i] == e.Digest {
			continue
		}
		if err := dest.Publish(ctx, e); err != nil {
			failed++
			s.logger.Error("sync publish failed", "destination", dest.Name(), "err", err)
			continue
		}
		s.published[i] = e.Digest
		written++
	}

	if written == 0 && failed == 0 {
		s.logger.Debug("sync skipped, export unchanged", "digest", e.Digest[:12])
		return 0
	}
	s.logger.Info("sync completed", "summary", e.Summary(), "written", written, "failed", failed, "digest", e.Digest[:12])
	return written
}
