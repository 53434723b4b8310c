// Package domain defines the persistence models for listings, interaction
// events, aggregate counters, and upvotes. These types are mapped with GORM
// and form the core data layer of the directory application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Listing lifecycle statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Interaction event kinds.
const (
	EventView       = "view"
	EventVisit      = "visit"
	EventUpvote     = "upvote"
	EventImpression = "impression"
)

// Listing represents a directory entry for a third-party tool, owned by the
// submitting account. Content fields are mutated by the owner; Score is
// written only by the batch score recomputation; FeaturedUntil is set by the
// external featured-placement workflow.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Slug: immutable URL identifier, unique across all listings.
//   - Status: lifecycle state (pending → approved|rejected).
//   - Score: bounded popularity score in [0, 10], recomputed periodically.
//   - FeaturedUntil: when set and in the future, the listing sorts first.
//   - CreatedAt: used as the listing age anchor for score decay.
//   - DeletedAt: soft deletion marker (events cascade with the row).
type Listing struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Slug          string         `json:"slug"           gorm:"type:varchar(120);not null;uniqueIndex"`
	OwnerID       string         `json:"owner_id"       gorm:"type:varchar(64);not null;index:idx_owner_listings"`
	Name          string         `json:"name"           gorm:"type:varchar(120);not null"`
	Tagline       string         `json:"tagline"        gorm:"type:varchar(255)"`
	Description   string         `json:"description"    gorm:"type:text"`
	URL           string         `json:"url"            gorm:"type:varchar(500);not null"`
	Category      string         `json:"category"       gorm:"type:varchar(64);not null;index"`
	Pricing       string         `json:"pricing"        gorm:"type:varchar(32);not null;index"`
	Status        string         `json:"status"         gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','rejected')"`
	Score         float64        `json:"score"          gorm:"not null;default:0"`
	FeaturedUntil *time.Time     `json:"featured_until,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Listing.
func (Listing) TableName() string { return "listings" }

// IsFeatured reports whether the listing has an active featured placement
// at the given instant.
func (l *Listing) IsFeatured(now time.Time) bool {
	return l.FeaturedUntil != nil && l.FeaturedUntil.After(now)
}

// InteractionEvent is an append-only record of a single visitor interaction
// with a listing. Rows are never updated or deleted except via cascading
// listing deletion. The event log doubles as the per-day dedupe ledger and
// as the source of truth for rebuilding counters.
//
// VisitorID is an opaque per-browser token, not an authenticated principal.
type InteractionEvent struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ListingID string    `json:"listing_id" gorm:"type:char(36);not null;index:idx_events_listing_kind_time,priority:1;index:idx_events_dedupe,priority:1"`
	VisitorID string    `json:"visitor_id" gorm:"type:varchar(64);not null;index:idx_events_dedupe,priority:2"`
	Kind      string    `json:"kind"       gorm:"type:varchar(16);not null;index:idx_events_listing_kind_time,priority:2;index:idx_events_dedupe,priority:3;check:kind IN ('view','visit','upvote','impression')"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_events_listing_kind_time,priority:3"`

	// Listing is the parent row. Events are cascade-deleted with it.
	Listing Listing `json:"-" gorm:"foreignKey:ListingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for InteractionEvent.
func (InteractionEvent) TableName() string { return "interaction_events" }

// AggregateCounters is the denormalized per-listing counter row, created
// lazily on first event. Cumulative counters only grow, except Upvotes which
// may step down by one per vote removal (floored at zero in SQL). Views7d
// and Clicks7d are rolling 7-day windows refreshed by the score batch job.
type AggregateCounters struct {
	ListingID   string    `json:"listing_id"  gorm:"type:char(36);primaryKey"`
	Views       int64     `json:"views"       gorm:"not null;default:0"`
	Visits      int64     `json:"visits"      gorm:"not null;default:0"`
	Upvotes     int64     `json:"upvotes"     gorm:"not null;default:0"`
	Impressions int64     `json:"impressions" gorm:"not null;default:0"`
	Views7d     int64     `json:"views_7d"    gorm:"column:views7d;not null;default:0"`
	Clicks7d    int64     `json:"clicks_7d"   gorm:"column:clicks7d;not null;default:0"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for AggregateCounters.
func (AggregateCounters) TableName() string { return "aggregate_counters" }

// Upvote records an active vote by a user on a listing. The composite
// primary key enforces at most one upvote per user per listing structurally.
// Rows are created and deleted by the toggle, never updated.
type Upvote struct {
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);primaryKey"`
	ListingID string    `json:"listing_id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// Listing is the voted row. Upvotes are cascade-deleted with it.
	Listing Listing `json:"-" gorm:"foreignKey:ListingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Upvote.
func (Upvote) TableName() string { return "upvotes" }

// ValidEventKind reports whether k is one of the four interaction kinds.
func ValidEventKind(k string) bool {
	switch k {
	case EventView, EventVisit, EventUpvote, EventImpression:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known listing lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
