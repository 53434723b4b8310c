// Package services – UpvoteService
//
// This file implements the UpvoteService, the exactly-once-per-user vote
// flip. A toggle call either creates the (user, listing) membership row and
// increments the upvotes counter, or deletes the row and decrements the
// counter (floored at zero) — both halves commit in one transaction or not
// at all. Re-invocation flips state again: toggle semantics, not an
// idempotent "add".
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
	"github.com/tbourn/go-directory-backend/internal/repo"
)

// UpvoteService implements the transactional upvote toggle.
type UpvoteService struct {
	// DB is the database handle used for all vote operations.
	DB *gorm.DB
}

// Toggle flips the vote state of userID on listingID and returns the new
// state (true when the call added a vote).
//
// Semantics and validation:
//   - userID must be a resolved identity; anonymous callers get
//     ErrIdentityRequired. Visitors cannot vote.
//   - listingID must reference an existing, non-deleted listing; otherwise
//     ErrListingNotFound.
//   - There is no "already upvoted" error: an existing vote is the trigger
//     for removal.
//
// On the add path an upvote InteractionEvent is appended as well, so the
// time-series charts see vote activity without a second writer owning the
// upvotes counter.
func (s *UpvoteService) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrIdentityRequired
	}

	var upvoted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetListing(ctx, tx, listingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}

		_, err := repo.GetUpvote(ctx, tx, userID, listingID)
		switch {
		case err == nil:
			// Active vote: remove it.
			if err := repo.DeleteUpvote(ctx, tx, userID, listingID); err != nil {
				return err
			}
			if err := repo.IncrementCounter(ctx, tx, listingID, repo.FieldUpvotes, -1); err != nil {
				return err
			}
			upvoted = false
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			// No vote yet: add one.
			if err := repo.CreateUpvote(ctx, tx, userID, listingID); err != nil {
				return err
			}
			if err := repo.IncrementCounter(ctx, tx, listingID, repo.FieldUpvotes, 1); err != nil {
				return err
			}
			if _, err := repo.CreateEvent(ctx, tx, listingID, userID, domain.EventUpvote); err != nil {
				return err
			}
			upvoted = true
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return upvoted, nil
}
