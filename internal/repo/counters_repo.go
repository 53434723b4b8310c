// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the AggregateCounters accessors. The
// increment path is a single upsert statement with column arithmetic so that
// concurrent writers never race an application-level read-modify-write.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// Counter field names accepted by IncrementCounter.
const (
	FieldViews       = "views"
	FieldVisits      = "visits"
	FieldUpvotes     = "upvotes"
	FieldImpressions = "impressions"
)

// ErrUnknownCounterField is returned when IncrementCounter is given a field
// outside the Field* whitelist. Field names are interpolated into SQL, so the
// whitelist is load-bearing, not cosmetic.
var ErrUnknownCounterField = errors.New("unknown counter field")

// GetCounters fetches the counters row for a listing, or ErrNotFound when no
// event has ever touched it (the row is created lazily).
func GetCounters(ctx context.Context, db *gorm.DB, listingID string) (*domain.AggregateCounters, error) {
	var c domain.AggregateCounters
	if err := db.WithContext(ctx).Where("listing_id = ?", listingID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementCounter applies delta to one counter field of a listing as a
// single atomic upsert: if no counters row exists it is created with the
// field at max(delta, 0); otherwise the column is adjusted in place with
// `field = field + delta`. The upvotes column additionally floors at zero
// (`MAX(upvotes + delta, 0)`) to tolerate ordering anomalies.
//
// delta is expected to be +1 or -1; negative deltas are only meaningful for
// upvotes.
func IncrementCounter(ctx context.Context, db *gorm.DB, listingID, field string, delta int64) error {
	var update clause.Expr
	switch field {
	case FieldViews, FieldVisits, FieldImpressions:
		update = gorm.Expr(field+" + ?", delta)
	case FieldUpvotes:
		// SQLite scalar MAX; keeps the counter non-negative at the SQL level.
		update = gorm.Expr("MAX("+field+" + ?, 0)", delta)
	default:
		return ErrUnknownCounterField
	}

	initial := delta
	if initial < 0 {
		initial = 0
	}
	now := time.Now().UTC()

	return db.WithContext(ctx).
		Model(&domain.AggregateCounters{}).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "listing_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				field:        update,
				"updated_at": now,
			}),
		}).
		Create(map[string]any{
			"listing_id": listingID,
			field:        initial,
			"updated_at": now,
		}).Error
}

// ReplaceCounters writes a full counters row, inserting or overwriting the
// existing one. Used by the rebuild-from-events reconciliation.
func ReplaceCounters(ctx context.Context, db *gorm.DB, c *domain.AggregateCounters) error {
	c.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listing_id"}},
			UpdateAll: true,
		}).
		Create(c).Error
}

// ScoringInput is one row of the joined listing/counters scan consumed by the
// score recomputation pass.
type ScoringInput struct {
	ID        string
	CreatedAt time.Time
	Upvotes   int64
	Views7d   int64
	Clicks7d  int64
}

// AllScoringInputs returns, for every live listing, the fields the score
// formula needs. Listings without a counters row come back with zero
// engagement, which the formula treats as a valid input.
func AllScoringInputs(ctx context.Context, db *gorm.DB) ([]ScoringInput, error) {
	var rows []ScoringInput
	err := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Select(`listings.id,
			listings.created_at,
			COALESCE(c.upvotes, 0)  AS upvotes,
			COALESCE(c.views7d, 0)  AS views7d,
			COALESCE(c.clicks7d, 0) AS clicks7d`).
		Joins("LEFT JOIN aggregate_counters c ON c.listing_id = listings.id").
		Scan(&rows).Error
	return rows, err
}
