// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Upvote
// relation. Membership is keyed by (user_id, listing_id); the composite
// primary key, not application logic, guarantees one vote per user per
// listing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// GetUpvote fetches the active vote of userID on listingID, or ErrNotFound
// when the user has no vote there.
func GetUpvote(ctx context.Context, db *gorm.DB, userID, listingID string) (*domain.Upvote, error) {
	var u domain.Upvote
	err := db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUpvote inserts a vote row. A duplicate insert violates the composite
// primary key and surfaces as a DB error; the toggle checks membership first
// inside its transaction, so a violation indicates a bug, not user input.
func CreateUpvote(ctx context.Context, db *gorm.DB, userID, listingID string) error {
	u := &domain.Upvote{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(u).Error
}

// DeleteUpvote removes the vote of userID on listingID. Returns ErrNotFound
// when no such vote exists.
func DeleteUpvote(ctx context.Context, db *gorm.DB, userID, listingID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&domain.Upvote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUpvotes returns the number of active votes on a listing. The Upvote
// relation, not the event log, is the source of truth for rebuilding the
// upvotes counter, since the log keeps upvote events for votes later removed.
func CountUpvotes(ctx context.Context, db *gorm.DB, listingID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Where("listing_id = ?", listingID).
		Count(&n).Error
	return n, err
}
