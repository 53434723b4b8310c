// Package services – QueryService
//
// This file implements the ranked query engine serving the public directory
// pages. It validates and normalizes query options, scopes visibility
// (public callers see approved listings only; owners see their own rows in
// any status), and delegates filter/sort/pagination composition to the
// repository. Currently-featured listings always sort first; within each
// tier the chosen sort applies, tie-broken by listing id so repeated calls
// paginate deterministically.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
	"github.com/tbourn/go-directory-backend/internal/repo"
)

// Pagination bounds. MaxPageSize is a hard cap; requests beyond it are
// clamped, not rejected.
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// QueryOptions carries the caller-supplied knobs of a directory query.
type QueryOptions struct {
	Category string
	Pricing  string
	Search   string
	Status   string // owner queries only; ignored for public callers
	Sort     string // one of repo.Sort*; empty means hot
	Page     int    // 1-indexed
	PageSize int
}

// QueryResult is one page of ranked listings plus pagination metadata.
type QueryResult struct {
	Listings []domain.Listing `json:"listings"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
	HasMore  bool             `json:"has_more"`
}

// QueryService serves filtered, sorted, paginated listing queries.
type QueryService struct {
	// DB is the database handle used for queries.
	DB *gorm.DB

	// Now is the clock used for the featured-window comparison. Nil means
	// time.Now; tests pin it.
	Now func() time.Time
}

// now returns the service clock, defaulting to the wall clock.
func (s *QueryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Query serves a public directory query. Visibility is fixed to approved
// listings; any Status in opts is ignored. An empty result set is a valid,
// successful response.
func (s *QueryService) Query(ctx context.Context, opts QueryOptions) (*QueryResult, error) {
	opts.Status = domain.StatusApproved
	return s.run(ctx, "", opts)
}

// QueryOwner serves an owner's view of their own listings, in any lifecycle
// status unless opts.Status narrows it. The handler layer is responsible for
// resolving ownerID from the authenticated identity.
func (s *QueryService) QueryOwner(ctx context.Context, ownerID string, opts QueryOptions) (*QueryResult, error) {
	if ownerID == "" {
		return nil, ErrIdentityRequired
	}
	if opts.Status != "" && !domain.ValidStatus(opts.Status) {
		return nil, ErrInvalidStatus
	}
	return s.run(ctx, ownerID, opts)
}

// run normalizes pagination, validates the sort key, and executes the
// count + page pair against the repository.
func (s *QueryService) run(ctx context.Context, ownerID string, opts QueryOptions) (*QueryResult, error) {
	sort := opts.Sort
	if sort == "" {
		sort = repo.SortHot
	}
	switch sort {
	case repo.SortLatest, repo.SortHot, repo.SortTrending, repo.SortUpvotes, repo.SortViews:
	default:
		return nil, ErrInvalidSort
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	offset := (page - 1) * size

	f := repo.ListingFilters{
		Category: opts.Category,
		Pricing:  opts.Pricing,
		Search:   opts.Search,
		Status:   opts.Status,
		OwnerID:  ownerID,
	}

	total, err := repo.CountListings(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}

	res := &QueryResult{
		Listings: []domain.Listing{},
		Page:     page,
		PageSize: size,
		Total:    total,
	}
	if total == 0 || int64(offset) >= total {
		return res, nil
	}

	items, err := repo.ListListingsPage(ctx, s.DB, f, sort, s.now(), offset, size)
	if err != nil {
		return nil, err
	}
	res.Listings = items
	res.HasMore = int64(offset+len(items)) < total
	return res, nil
}
