// Package services – ScoreService
//
// This file implements the batch score recomputation. An external scheduler
// (cron hitting the admin endpoint) triggers one pass; the pass first
// refreshes the rolling 7-day counters from the event log, then recomputes
// the bounded popularity score for every listing from its counters and age.
//
// The computation is pure given the counters, so an interrupted run leaves
// no residual corruption: the next run recomputes everything from current
// state. There is deliberately no per-listing transaction.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/rank"
	"github.com/tbourn/go-directory-backend/internal/repo"
)

// RollingWindow is the width of the views7d/clicks7d window.
const RollingWindow = 7 * 24 * time.Hour

// ScoreService recomputes listing popularity scores.
type ScoreService struct {
	// DB is the database handle used for the scoring pass.
	DB *gorm.DB

	// Now is the clock used for age and window math. Nil means time.Now;
	// tests pin it to fixed instants.
	Now func() time.Time
}

// now returns the service clock, defaulting to the wall clock.
func (s *ScoreService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// RecomputeAll refreshes the rolling counters and rewrites the score of
// every listing, returning the number of listings updated.
//
// Score writes honor the context: a cancelled pass stops early, which is
// safe because each write carries a complete, independently valid score.
// Listings with no counters row score as zero engagement — the formula is
// total and the +2 age offset keeps the denominator non-zero, so every row
// gets a score.
func (s *ScoreService) RecomputeAll(ctx context.Context) (int, error) {
	now := s.now()

	if err := repo.RefreshRollingCounters(ctx, s.DB, now.Add(-RollingWindow)); err != nil {
		return 0, err
	}

	inputs, err := repo.AllScoringInputs(ctx, s.DB)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		score := rank.Score(in.Upvotes, in.Views7d, in.Clicks7d, rank.AgeDays(in.CreatedAt, now))
		if err := repo.UpdateListingScore(ctx, s.DB, in.ID, score); err != nil {
			return updated, err
		}
		updated++
	}

	log.Info().Int("listings", updated).Msg("score recomputation pass complete")
	return updated, nil
}
