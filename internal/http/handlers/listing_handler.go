// Listing HTTP handlers.
//
// This file exposes REST endpoints for listing resources:
//   - GET    /listings            (ranked public query)
//   - GET    /listings/mine       (owner query, any status)
//   - POST   /listings            (submit)
//   - GET    /listings/{slug}     (fetch one)
//   - PUT    /listings/{id}       (owner edit)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-directory-backend/internal/domain"
	"github.com/tbourn/go-directory-backend/internal/services"
	"github.com/tbourn/go-directory-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ListingService defines listing lifecycle operations consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must honor
// the provided context for cancellation and timeouts.
type ListingService interface {
	// Submit creates a new pending listing owned by ownerID.
	Submit(ctx context.Context, ownerID string, in services.SubmitInput) (*domain.Listing, error)
	// Update edits owner-editable content fields.
	Update(ctx context.Context, ownerID, listingID string, in services.UpdateInput) error
	// GetBySlug fetches one listing respecting status visibility.
	GetBySlug(ctx context.Context, slug, viewerID string) (*domain.Listing, error)
	// SetStatus moves a listing through the moderation lifecycle.
	SetStatus(ctx context.Context, listingID, status string) error
	// Feature sets or clears the featured window.
	Feature(ctx context.Context, listingID string, until *time.Time) error
}

// QueryService defines the ranked directory query consumed by HTTP handlers.
type QueryService interface {
	// Query serves the public, approved-only directory page.
	Query(ctx context.Context, opts services.QueryOptions) (*services.QueryResult, error)
	// QueryOwner serves an owner's view of their own listings.
	QueryOwner(ctx context.Context, ownerID string, opts services.QueryOptions) (*services.QueryResult, error)
}

// EventService defines interaction tracking operations consumed by HTTP handlers.
type EventService interface {
	// Record validates and idempotently persists one interaction event.
	Record(ctx context.Context, listingID, visitorID, kind string, dedupePerDay bool) (*services.TrackResult, error)
	// RebuildCounters reconciles a counters row against the event log.
	RebuildCounters(ctx context.Context, listingID string) (*domain.AggregateCounters, error)
}

// UpvoteService defines the vote toggle consumed by HTTP handlers.
type UpvoteService interface {
	// Toggle flips the caller's vote and returns the new state.
	Toggle(ctx context.Context, userID, listingID string) (bool, error)
}

// ScoreService defines the batch rescoring trigger consumed by the admin API.
type ScoreService interface {
	// RecomputeAll refreshes rolling counters and rewrites every score.
	RecomputeAll(ctx context.Context) (int, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for listings, events, votes, and admin
// operations. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	listingSvc ListingService
	querySvc   QueryService
	eventSvc   EventService
	upvoteSvc  UpvoteService
	scoreSvc   ScoreService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(listingSvc ListingService, querySvc QueryService, eventSvc EventService, upvoteSvc UpvoteService, scoreSvc ScoreService) *Handlers {
	return &Handlers{
		listingSvc: listingSvc,
		querySvc:   querySvc,
		eventSvc:   eventSvc,
		upvoteSvc:  upvoteSvc,
		scoreSvc:   scoreSvc,
	}
}

// userID extracts the resolved user id from Gin context (set by upstream
// identity middleware). If absent, it falls back to the "X-User-ID" header.
// An empty result means the caller is anonymous; handlers that require an
// identity reject that themselves.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// SubmitListingRequest is the JSON payload for submitting a listing.
type SubmitListingRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120" example:"Acme Deploy"`
	Tagline     string `json:"tagline" binding:"max=255" example:"One-click deploys for side projects"`
	Description string `json:"description" example:"Acme Deploy ships your repo to production..."`
	URL         string `json:"url" binding:"required,url" example:"https://acmedeploy.dev"`
	Category    string `json:"category" binding:"required" example:"devops"`
	Pricing     string `json:"pricing" binding:"required" example:"freemium"`
}

// UpdateListingRequest is the JSON payload for editing a listing. Absent
// fields are left unchanged.
type UpdateListingRequest struct {
	Name        *string `json:"name,omitempty"`
	Tagline     *string `json:"tagline,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Category    *string `json:"category,omitempty"`
	Pricing     *string `json:"pricing,omitempty"`
}

// queryOptions parses the shared directory query parameters.
func queryOptions(c *gin.Context) services.QueryOptions {
	return services.QueryOptions{
		Category: strings.TrimSpace(c.Query("category")),
		Pricing:  strings.TrimSpace(c.Query("pricing")),
		Search:   strings.TrimSpace(c.Query("q")),
		Status:   strings.TrimSpace(c.Query("status")),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Page:     utils.AtoiDefault(c.Query("page"), 1),
		PageSize: utils.AtoiDefault(c.Query("page_size"), services.DefaultPageSize),
	}
}

// ListListings godoc
// @ID          listListings
// @Summary     Browse the directory (ranked, paginated)
// @Description Returns approved listings filtered by category/pricing/search, ordered by the requested sort. Currently-featured listings always come first.
// @Tags        Listings
// @Produce     json
//
// @Param       category  query  string  false "Category filter (exact)"    example(devops)
// @Param       pricing   query  string  false "Pricing filter (exact)"     example(freemium)
// @Param       q         query  string  false "Substring search over name/description/url"
// @Param       sort      query  string  false "latest | hot | trending | upvotes | views" example(hot)
// @Param       page      query  int     false "1-indexed page"             example(1)
// @Param       page_size query  int     false "Page size (max 50)"         example(20)
//
// @Success     200  {object} services.QueryResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid sort"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings [get]
func (h *Handlers) ListListings(c *gin.Context) {
	res, err := h.querySvc.Query(c.Request.Context(), queryOptions(c))
	if err != nil {
		switch err {
		case services.ErrInvalidSort:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sort must be one of: latest, hot, trending, upvotes, views")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeQueryFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// ListMyListings godoc
// @ID          listMyListings
// @Summary     List the caller's own listings (any status)
// @Tags        Listings
// @Produce     json
//
// @Param       X-User-ID header string true "Resolved user ID" example(user123)
// @Param       status    query  string false "Optional status filter" example(pending)
//
// @Success     200  {object} services.QueryResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid sort or status"
// @Failure     401  {object} handlers.ErrorResponse "Anonymous caller"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings/mine [get]
func (h *Handlers) ListMyListings(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "identity required")
		return
	}
	res, err := h.querySvc.QueryOwner(c.Request.Context(), uid, queryOptions(c))
	if err != nil {
		switch err {
		case services.ErrInvalidSort:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sort must be one of: latest, hot, trending, upvotes, views")
		case services.ErrInvalidStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of: pending, approved, rejected")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeQueryFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// SubmitListing godoc
// @ID          submitListing
// @Summary     Submit a new listing
// @Description Creates a pending listing owned by the caller. The slug is derived from the name and must be unique.
// @Tags        Listings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID header string true "Resolved user ID" example(user123)
// @Param       body      body   handlers.SubmitListingRequest true "Listing content"
//
// @Success     201  {object} domain.Listing
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Anonymous caller"
// @Failure     409  {object} handlers.ErrorResponse "Slug already in use"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings [post]
func (h *Handlers) SubmitListing(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "identity required")
		return
	}
	var req SubmitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid listing payload")
		return
	}

	l, err := h.listingSvc.Submit(c.Request.Context(), uid, services.SubmitInput{
		Name:        req.Name,
		Tagline:     req.Tagline,
		Description: req.Description,
		URL:         req.URL,
		Category:    req.Category,
		Pricing:     req.Pricing,
	})
	if err != nil {
		switch err {
		case services.ErrEmptyName, services.ErrEmptyURL:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrSlugTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "a listing with this name already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, l)
}

// GetListing godoc
// @ID          getListing
// @Summary     Fetch one listing by slug
// @Description Non-approved listings are visible only to their owner.
// @Tags        Listings
// @Produce     json
//
// @Param       slug path string true "Listing slug" example(acme-deploy)
//
// @Success     200  {object} domain.Listing
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings/{slug} [get]
func (h *Handlers) GetListing(c *gin.Context) {
	l, err := h.listingSvc.GetBySlug(c.Request.Context(), c.Param("slug"), userID(c))
	if err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, l)
}

// UpdateListing godoc
// @ID          updateListing
// @Summary     Edit a listing's content fields
// @Tags        Listings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID header string true "Resolved user ID" example(user123)
// @Param       id        path   string true "Listing ID (UUID)" format(uuid)
// @Param       body      body   handlers.UpdateListingRequest true "Fields to change"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Anonymous caller"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings/{id} [put]
func (h *Handlers) UpdateListing(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "identity required")
		return
	}
	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid listing payload")
		return
	}

	err := h.listingSvc.Update(c.Request.Context(), uid, c.Param("id"), services.UpdateInput{
		Name:        req.Name,
		Tagline:     req.Tagline,
		Description: req.Description,
		URL:         req.URL,
		Category:    req.Category,
		Pricing:     req.Pricing,
	})
	if err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		case services.ErrNotOwner:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "listing not owned by caller")
		case services.ErrEmptyName, services.ErrEmptyURL:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
