// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// InteractionEvent log: inserts, the per-day dedupe lookup, and the window
// counts used by the rolling-counter refresh and by counter rebuilds.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// CreateEvent appends one interaction event for the given listing, visitor,
// and kind. CreatedAt is set to UTC. The row is immutable once written.
func CreateEvent(ctx context.Context, db *gorm.DB, listingID, visitorID, kind string) (*domain.InteractionEvent, error) {
	ev := &domain.InteractionEvent{
		ID:        uuid.NewString(),
		ListingID: listingID,
		VisitorID: visitorID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// HasEventSince reports whether at least one event of the given kind exists
// for (listingID, visitorID) with CreatedAt >= since. This is the dedupe
// lookup backing the once-per-visitor-per-day rule; it is served by the
// (listing_id, visitor_id, kind) index.
func HasEventSince(ctx context.Context, db *gorm.DB, listingID, visitorID, kind string, since time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.InteractionEvent{}).
		Where("listing_id = ? AND visitor_id = ? AND kind = ? AND created_at >= ?",
			listingID, visitorID, kind, since).
		Count(&n).Error
	return n > 0, err
}

// CountEventsSince returns the number of events of one kind for a listing
// with CreatedAt >= since. Used to refresh the rolling 7-day counters.
func CountEventsSince(ctx context.Context, db *gorm.DB, listingID, kind string, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.InteractionEvent{}).
		Where("listing_id = ? AND kind = ? AND created_at >= ?", listingID, kind, since).
		Count(&n).Error
	return n, err
}

// CountEvents returns the all-time number of events of one kind for a
// listing. Used when rebuilding a counters row from the log.
func CountEvents(ctx context.Context, db *gorm.DB, listingID, kind string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.InteractionEvent{}).
		Where("listing_id = ? AND kind = ?", listingID, kind).
		Count(&n).Error
	return n, err
}

// RefreshRollingCounters recomputes views7d and clicks7d for every counters
// row from the event log in a single bulk statement. since is the window
// start (normally now minus seven days). Rows whose listing had no events in
// the window drop to zero, which is the correct rolling behavior.
func RefreshRollingCounters(ctx context.Context, db *gorm.DB, since time.Time) error {
	return db.WithContext(ctx).Exec(`
UPDATE aggregate_counters SET
  views7d = (
    SELECT COUNT(*) FROM interaction_events e
    WHERE e.listing_id = aggregate_counters.listing_id
      AND e.kind = ? AND e.created_at >= ?
  ),
  clicks7d = (
    SELECT COUNT(*) FROM interaction_events e
    WHERE e.listing_id = aggregate_counters.listing_id
      AND e.kind = ? AND e.created_at >= ?
  )`,
		domain.EventView, since, domain.EventVisit, since,
	).Error
}
