// Interaction event HTTP handlers.
//
// This file exposes the REST endpoint for recording visitor interactions:
//   - POST /listings/{id}/events
//
// The visitor identity is an opaque per-browser token supplied by the
// client; it carries no authentication guarantee and is used purely as a
// correlation key for per-day dedupe and time-series charts.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-directory-backend/internal/services"
)

// RecordEventRequest is the JSON payload for recording an interaction event.
type RecordEventRequest struct {
	// VisitorID is the opaque per-browser token.
	VisitorID string `json:"visitor_id" binding:"required,min=1,max=64" example:"v-8f14e45f"`
	// Kind is one of: view, visit, upvote, impression.
	Kind string `json:"kind" binding:"required,oneof=view visit upvote impression" example:"view"`
	// Dedupe requests the once-per-visitor-per-day rule (the view flow sets it).
	Dedupe bool `json:"dedupe" example:"true"`
}

// RecordEvent godoc
// @ID          recordEvent
// @Summary     Record a visitor interaction event
// @Description Appends one event and bumps the listing's counters. With dedupe set, a repeat event of the same kind from the same visitor on the same day is acknowledged but not counted.
// @Tags        Events
// @Accept      json
// @Produce     json
//
// @Param       id   path  string true "Listing ID (UUID)" format(uuid)
// @Param       body body  handlers.RecordEventRequest true "Event payload"
//
// @Success     200  {object} services.TrackResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings/{id}/events [post]
func (h *Handlers) RecordEvent(c *gin.Context) {
	var req RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be one of: view, visit, upvote, impression")
		return
	}

	res, err := h.eventSvc.Record(c.Request.Context(), c.Param("id"), req.VisitorID, req.Kind, req.Dedupe)
	if err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		case services.ErrEmptyVisitor, services.ErrInvalidEventKind:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTrackFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// ToggleUpvote godoc
// @ID          toggleUpvote
// @Summary     Toggle the caller's upvote on a listing
// @Description Adds the vote when absent, removes it when present. The membership row and the counter change commit together.
// @Tags        Votes
// @Produce     json
//
// @Param       X-User-ID header string true "Resolved user ID" example(user123)
// @Param       id        path   string true "Listing ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ToggleUpvoteResponse
// @Failure     401  {object} handlers.ErrorResponse "Anonymous caller"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /listings/{id}/upvote [post]
func (h *Handlers) ToggleUpvote(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "identity required")
		return
	}

	upvoted, err := h.upvoteSvc.Toggle(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		switch err {
		case services.ErrIdentityRequired:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "identity required")
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeToggleFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ToggleUpvoteResponse{Upvoted: upvoted})
}

// ToggleUpvoteResponse reports the vote state after a toggle.
type ToggleUpvoteResponse struct {
	Upvoted bool `json:"upvoted"`
}
