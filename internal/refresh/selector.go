package refresh

import (
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
)

const (
	// DefaultMaxCandidates bounds a refresh cycle's external-call volume.
	DefaultMaxCandidates = 200

	// momentumThreshold is the trailing-24h observed view increase that
	// qualifies a week-old video for continued sampling.
	momentumThreshold = 1000
)

// Selector chooses which tracked videos are worth re-sampling this cycle.
// Three criteria, unioned in priority order:
//
//  1. published within the last 24 hours (freshness),
//  2. published within the last 7 days with observed trailing-24h momentum,
//  3. present in today's published ranking.
type Selector struct {
	db            *database.DB
	maxCandidates int
}

// NewSelector creates a Selector. maxCandidates <= 0 uses the default cap.
func NewSelector(db *database.DB, maxCandidates int) *Selector {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Selector{db: db, maxCandidates: maxCandidates}
}

// Select returns the deduplicated candidate ids for this cycle, capped at
// the configured maximum. Order is union order: fresh videos first, then
// momentum, then ranked.
func (s *Selector) Select(now time.Time) ([]string, error) {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	fresh, err := s.db.GetVideoIDsPublishedSince(dayAgo)
	if err != nil {
		return nil, err
	}

	momentum, err := s.db.GetMomentumVideoIDs(weekAgo, dayAgo, momentumThreshold)
	if err != nil {
		return nil, err
	}

	ranked, err := s.db.GetRankedVideoIDs(database.Today())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var candidates []string
	for _, group := range [][]string{fresh, momentum, ranked} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
			if len(candidates) >= s.maxCandidates {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}
