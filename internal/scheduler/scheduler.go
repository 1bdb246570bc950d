// Package scheduler drives the periodic jobs: stats refresh on one cadence,
// ranking generation on another, and the daily quota reset at midnight.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/ranking"
	"github.com/kongbai-rgb/tuberank/internal/refresh"
)

// rankingRetentionDays bounds the daily_rankings table; older snapshots are
// pruned during the midnight housekeeping pass.
const rankingRetentionDays = 30

// Scheduler runs both job types on decoupled cadences. Each job type is
// serialized behind its own mutex: a tick that arrives while the previous
// run of the same type is still in flight is skipped, never queued. The two
// job types may overlap with each other.
type Scheduler struct {
	db        *database.DB
	cycle     *refresh.Cycle
	publisher *ranking.Publisher
	ledger    *quota.Ledger

	refreshInterval time.Duration
	rankingInterval time.Duration

	refreshMu sync.Mutex
	rankingMu sync.Mutex
}

// New creates a scheduler over an assembled refresh cycle and publisher.
func New(db *database.DB, cycle *refresh.Cycle, publisher *ranking.Publisher, ledger *quota.Ledger, refreshInterval, rankingInterval time.Duration) *Scheduler {
	return &Scheduler{
		db:              db,
		cycle:           cycle,
		publisher:       publisher,
		ledger:          ledger,
		refreshInterval: refreshInterval,
		rankingInterval: rankingInterval,
	}
}

// Run blocks until the context is cancelled, firing both jobs immediately
// and then on their intervals. A cancelled context stops cleanly between
// operations; the sample store tolerates a cut-short refresh (appends are
// idempotent to retry) and snapshot replaces are transactional, so no
// partial ranking can be observed either way.
func (s *Scheduler) Run(ctx context.Context) error {
	refreshTicker := time.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()
	rankingTicker := time.NewTicker(s.rankingInterval)
	defer rankingTicker.Stop()

	resetTimer := time.NewTimer(untilNextMidnight(time.Now()))
	defer resetTimer.Stop()

	log.Printf("Scheduler running: refresh every %v, ranking every %v", s.refreshInterval, s.rankingInterval)

	s.RunRefresh(ctx)
	s.RunRanking()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refreshTicker.C:
			s.RunRefresh(ctx)
		case <-rankingTicker.C:
			s.RunRanking()
		case <-resetTimer.C:
			s.ledger.Reset()
			log.Println("Daily quota reset")
			s.pruneHistory()
			resetTimer.Reset(untilNextMidnight(time.Now()))
		}
	}
}

// RunRefresh executes one refresh cycle unless one is already running.
func (s *Scheduler) RunRefresh(ctx context.Context) {
	if !s.refreshMu.TryLock() {
		log.Println("Refresh cycle still running, skipping tick")
		return
	}
	defer s.refreshMu.Unlock()

	result, err := s.cycle.Run(ctx, time.Now())
	if err != nil {
		log.Printf("Refresh cycle failed: %v", err)
		return
	}
	log.Printf("Refresh cycle: %d discovered, %d candidates, %d sampled (quota remaining %d)",
		result.Discovered, result.Candidates, result.Collect.Sampled, s.ledger.Remaining())
}

// RunRanking executes one ranking generation cycle unless one is already
// running.
func (s *Scheduler) RunRanking() {
	if !s.rankingMu.TryLock() {
		log.Println("Ranking cycle still running, skipping tick")
		return
	}
	defer s.rankingMu.Unlock()

	if _, err := s.publisher.Generate(time.Now()); err != nil {
		log.Printf("Ranking generation failed, prior snapshot stays authoritative: %v", err)
	}
}

// pruneHistory discards ranking snapshots past the retention window.
func (s *Scheduler) pruneHistory() {
	cutoff := time.Now().AddDate(0, 0, -rankingRetentionDays)
	pruned, err := s.db.PruneRankingsBefore(cutoff)
	if err != nil {
		log.Printf("Ranking history prune failed: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("Pruned %d ranking rows older than %s", pruned, cutoff.Format("2006-01-02"))
	}
}

// untilNextMidnight returns the duration to the next local-midnight
// boundary, which is both the ranking date boundary and the quota reset.
func untilNextMidnight(now time.Time) time.Duration {
	year, month, day := now.Date()
	next := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}
