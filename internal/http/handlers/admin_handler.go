// Admin HTTP handlers.
//
// These endpoints sit behind the admin bearer token and are invoked by the
// external collaborators of the ranking engine: the scheduler (score
// recomputation), the moderation surface (status changes), the payment
// workflow (featured placement), and operators (counter reconciliation).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-directory-backend/internal/services"
)

// SetStatusRequest is the JSON payload for a moderation decision.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected" example:"approved"`
}

// FeatureRequest is the JSON payload for setting a featured window.
// A null until clears the placement.
type FeatureRequest struct {
	Until *time.Time `json:"until" example:"2026-10-01T00:00:00Z"`
}

// RecomputeScoresResponse reports the size of a completed scoring pass.
type RecomputeScoresResponse struct {
	Updated int `json:"updated"`
}

// RecomputeScores godoc
// @ID          recomputeScores
// @Summary     Recompute every listing's popularity score
// @Description Refreshes the rolling 7-day counters from the event log, then rewrites the score of every listing. Invoked by the external scheduler; safe to re-run at any time.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
//
// @Success     200  {object} handlers.RecomputeScoresResponse
// @Failure     401  {object} handlers.ErrorResponse "Missing or wrong admin token"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /admin/scores/recompute [post]
func (h *Handlers) RecomputeScores(c *gin.Context) {
	n, err := h.scoreSvc.RecomputeAll(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRescoreFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RecomputeScoresResponse{Updated: n})
}

// SetListingStatus godoc
// @ID          setListingStatus
// @Summary     Approve or reject a listing
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminToken
//
// @Param       id   path  string true "Listing ID (UUID)" format(uuid)
// @Param       body body  handlers.SetStatusRequest true "New status"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid status"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /admin/listings/{id}/status [put]
func (h *Handlers) SetListingStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of: pending, approved, rejected")
		return
	}
	if err := h.listingSvc.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		case services.ErrInvalidStatus:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of: pending, approved, rejected")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// FeatureListing godoc
// @ID          featureListing
// @Summary     Set or clear a listing's featured window
// @Description While the window covers now, the listing sorts before all non-featured listings in every sort order.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminToken
//
// @Param       id   path  string true "Listing ID (UUID)" format(uuid)
// @Param       body body  handlers.FeatureRequest true "Featured window end; null clears"
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /admin/listings/{id}/feature [put]
func (h *Handlers) FeatureListing(c *gin.Context) {
	var req FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid feature payload")
		return
	}
	if err := h.listingSvc.Feature(c.Request.Context(), c.Param("id"), req.Until); err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// RebuildCounters godoc
// @ID          rebuildCounters
// @Summary     Rebuild a listing's counters from the event log
// @Description Reconciliation for counter drift: replays the append-only event log (and the upvote relation) into a fresh counters row.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
//
// @Param       id path string true "Listing ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.AggregateCounters
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /admin/listings/{id}/rebuild-counters [post]
func (h *Handlers) RebuildCounters(c *gin.Context) {
	counters, err := h.eventSvc.RebuildCounters(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch err {
		case services.ErrListingNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, counters)
}
