// Package ranking computes 24-hour-windowed heat scores and publishes the
// daily top-N per category.
package ranking

import (
	"time"

	"github.com/kongbai-rgb/tuberank/internal/database"
)

// MinViewIncrement is the eligibility gate: a video whose 24h view delta
// falls below it is excluded from ranking entirely for this cycle.
const MinViewIncrement = 100

// Scaling factors applied to rate terms before weighting, so every term
// lands in a comparable magnitude band.
const (
	growthScale      = 10000
	interactionScale = 1000
	recencyScale     = 1000
	watchRatioScale  = 1000
)

// weights is one category's weight vector over the score terms.
type weights struct {
	viewIncrement   float64
	growthRate      float64
	interactionRate float64
	recency         float64 // shorts only
	watchRatio      float64 // long-form only
}

var (
	shortsWeights = weights{
		viewIncrement:   0.40,
		growthRate:      0.30,
		interactionRate: 0.20,
		recency:         0.10,
	}
	longWeights = weights{
		viewIncrement:   0.35,
		growthRate:      0.25,
		interactionRate: 0.25,
		watchRatio:      0.15,
	}
)

// Scored is one video's heat computation for a cycle.
type Scored struct {
	VideoID       string
	Category      database.Category
	Score         float64
	ViewIncrement int64
}

// HeatScore derives a video's windowed heat score from its latest sample
// and its baseline sample (the nearest available at or before now-24h; nil
// means no baseline exists and its counters read as zero).
//
// The view increment is passed through unclamped; providers occasionally
// report decreases and the score simply absorbs them. The only hard
// contract is monotonic non-decrease in viewIncrement, growthRate, and
// interactionRate with the other terms held fixed.
func HeatScore(video database.Video, latest database.StatsSample, baseline *database.StatsSample, now time.Time) (scored Scored, eligible bool) {
	var baseViews int64
	if baseline != nil {
		baseViews = baseline.ViewCount
	}

	viewIncrement := latest.ViewCount - baseViews

	scored = Scored{
		VideoID:       video.ID,
		Category:      video.Category(),
		ViewIncrement: viewIncrement,
	}

	if viewIncrement < MinViewIncrement {
		return scored, false
	}

	var growthRate float64
	if baseViews > 0 {
		growthRate = float64(viewIncrement) / float64(baseViews)
	}

	var interactionRate float64
	if latest.ViewCount > 0 {
		interactionRate = float64(latest.LikeCount+latest.CommentCount) / float64(latest.ViewCount)
	}

	hoursSincePublish := now.Sub(video.PublishedAt).Hours()
	if hoursSincePublish < 1 {
		hoursSincePublish = 1
	}

	w := longWeights
	if video.IsShort {
		w = shortsWeights
	}

	score := float64(viewIncrement)*w.viewIncrement +
		growthRate*growthScale*w.growthRate +
		interactionRate*interactionScale*w.interactionRate

	if video.IsShort {
		recency := 1 / (hoursSincePublish + 1)
		score += recency * recencyScale * w.recency
	} else {
		watchRatio := interactionRate * 10
		if watchRatio > 1 {
			watchRatio = 1
		}
		score += watchRatio * watchRatioScale * w.watchRatio
	}

	scored.Score = score
	return scored, true
}
