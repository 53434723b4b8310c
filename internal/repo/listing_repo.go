// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Listing
// model, including the ranked/filtered query composition used by the public
// directory pages.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a listing is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Sort keys accepted by ListListingsPage.
const (
	SortLatest   = "latest"
	SortHot      = "hot"
	SortTrending = "trending"
	SortUpvotes  = "upvotes"
	SortViews    = "views"
)

// ListingFilters narrows a directory query. Zero-valued fields are ignored.
// The service layer is responsible for deciding which statuses a caller may
// see; the repository applies whatever it is given.
type ListingFilters struct {
	Category string
	Pricing  string
	Search   string // case-insensitive substring over name/description/url
	Status   string
	OwnerID  string
}

// CreateListing inserts a new Listing row. The listing ID is a randomly
// generated UUID (string), CreatedAt is set to UTC, and the status starts
// as pending. Slug uniqueness is enforced by the database.
func CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) (*domain.Listing, error) {
	l.ID = uuid.NewString()
	l.Status = domain.StatusPending
	l.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// GetListing fetches a single listing by its ID regardless of status.
// Soft-deleted rows are excluded. Returns ErrNotFound if missing.
func GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListingBySlug fetches a single listing by its slug. Returns ErrNotFound
// if missing.
func GetListingBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListingContent updates the owner-editable content fields of a listing
// owned by ownerID. If no rows are affected (listing missing or not owned by
// ownerID), it returns ErrNotFound.
func UpdateListingContent(ctx context.Context, db *gorm.DB, id, ownerID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateListingStatus moves a listing to a new lifecycle status.
// Returns ErrNotFound when the listing does not exist.
func UpdateListingStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateListingFeaturedUntil sets (or clears, with nil) the featured window
// of a listing. Returns ErrNotFound when the listing does not exist.
func UpdateListingFeaturedUntil(ctx context.Context, db *gorm.DB, id string, until *time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		Update("featured_until", until)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateListingScore writes the recomputed popularity score for a listing.
// Missing rows are not an error here; the scoring pass skips nothing and a
// listing deleted mid-run simply receives no update.
func UpdateListingScore(ctx context.Context, db *gorm.DB, id string, score float64) error {
	return db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		Update("score", score).Error
}

// CountListings returns the number of listings matching the filters,
// ignoring pagination.
func CountListings(ctx context.Context, db *gorm.DB, f ListingFilters) (int64, error) {
	var total int64
	err := applyListingFilters(db.WithContext(ctx).Model(&domain.Listing{}), f).
		Count(&total).Error
	return total, err
}

// ListListingsPage returns one page of listings matching the filters, ordered
// by the requested sort key. Ordering is a two-level key: listings whose
// featured window covers now always come first, then the chosen sort applies,
// with listing id as the final tie-break so pagination is deterministic.
//
// Sort keys that read counters (trending, upvotes, views) LEFT JOIN the
// aggregate_counters row; listings without counters sort as all-zero.
func ListListingsPage(ctx context.Context, db *gorm.DB, f ListingFilters, sort string, now time.Time, offset, limit int) ([]domain.Listing, error) {
	var key string
	switch sort {
	case SortLatest:
		key = "listings.created_at DESC"
	case SortHot:
		key = "listings.score DESC"
	case SortTrending:
		key = "(COALESCE(c.views7d, 0) + 5 * COALESCE(c.clicks7d, 0)) DESC, listings.score DESC"
	case SortUpvotes:
		key = "COALESCE(c.upvotes, 0) DESC"
	case SortViews:
		key = "COALESCE(c.views, 0) DESC"
	default:
		return nil, ErrUnknownSort
	}

	orderSQL := "CASE WHEN listings.featured_until IS NOT NULL AND listings.featured_until > ? THEN 1 ELSE 0 END DESC, " +
		key + ", listings.id ASC"

	var out []domain.Listing
	q := applyListingFilters(db.WithContext(ctx).Model(&domain.Listing{}), f).
		Joins("LEFT JOIN aggregate_counters c ON c.listing_id = listings.id").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                orderSQL,
			Vars:               []any{now},
			WithoutParentheses: true,
		}}).
		Offset(offset).
		Limit(limit)
	err := q.Find(&out).Error
	return out, err
}

// ErrUnknownSort is returned when a sort key is not one of the Sort* values.
// The service layer validates sorts at the boundary, so reaching this from a
// handler indicates a programming error rather than bad user input.
var ErrUnknownSort = errors.New("unknown sort key")

// applyListingFilters composes the WHERE clause shared by CountListings and
// ListListingsPage. Search is a case-insensitive substring match with OR
// semantics across name, description, and url.
func applyListingFilters(q *gorm.DB, f ListingFilters) *gorm.DB {
	if f.Category != "" {
		q = q.Where("listings.category = ?", f.Category)
	}
	if f.Pricing != "" {
		q = q.Where("listings.pricing = ?", f.Pricing)
	}
	if f.Status != "" {
		q = q.Where("listings.status = ?", f.Status)
	}
	if f.OwnerID != "" {
		q = q.Where("listings.owner_id = ?", f.OwnerID)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where(
			"LOWER(listings.name) LIKE ? OR LOWER(listings.description) LIKE ? OR LOWER(listings.url) LIKE ?",
			like, like, like,
		)
	}
	return q
}
