package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fundwatch/fundwatch-backend/internal/calendar"
)

// snapshotRetention bounds how far back recorded snapshots are kept.
const snapshotRetention = 90 * 24 * time.Hour

// Scheduler periodically refreshes the watch-list during live trading
// sessions so the snapshot history stays current without a browser open.
type Scheduler struct {
	cron      *cron.Cron
	watchlist *WatchlistService
	snapshots *SnapshotService
	cal       *calendar.Calendar
	spec      string
}

// NewScheduler creates a scheduler running the refresh on the given cron
// spec (standard 5-field syntax).
func NewScheduler(watchlist *WatchlistService, snapshots *SnapshotService, cal *calendar.Calendar, spec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		watchlist: watchlist,
		snapshots: snapshots,
		cal:       cal,
		spec:      spec,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		return err
	}
	// Housekeeping after the afternoon close on weekdays.
	if _, err := s.cron.AddFunc("10 15 * * 1-5", s.prune); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Scheduler started with refresh spec %q", s.spec)
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// refresh estimates every watched fund once. Outside a live session the
// tick is skipped; there is nothing fresher to record.
func (s *Scheduler) refresh() {
	now := time.Now()
	if !s.cal.IsLiveSession(now) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	values := s.watchlist.Values(ctx, now)
	failed := 0
	for _, v := range values {
		if v.Result == nil {
			failed++
		}
	}
	log.Printf("Scheduled refresh: %d funds, %d unavailable", len(values), failed)
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.snapshots.Prune(ctx, snapshotRetention)
	if err != nil {
		log.Printf("Snapshot prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d old snapshots", removed)
	}
}
