// Package services – EventService
//
// This file implements the EventService, which ingests visitor interaction
// events (views, visits, upvotes, impressions) against listings. It enforces
// the at-most-one-counted-event-per-visitor-per-day rule for deduplicated
// kinds and keeps the denormalized AggregateCounters row in step with the
// append-only event log, inside a single transaction per call.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
	"github.com/tbourn/go-directory-backend/internal/repo"
)

// TrackResult reports whether an event was counted and, when it was not,
// a machine-readable reason.
type TrackResult struct {
	Tracked bool   `json:"tracked"`
	Reason  string `json:"reason,omitempty"`
}

// ReasonAlreadyViewedToday is returned when the per-day dedupe suppresses a
// repeated event from the same visitor.
const ReasonAlreadyViewedToday = "already_viewed_today"

// EventService records interaction events and maintains aggregate counters.
// It is context-aware and opens one transaction per recorded event so the
// log append and the counter bump commit together.
type EventService struct {
	// DB is the database handle used for all event operations.
	DB *gorm.DB
}

// counterFieldFor maps an event kind to the counters column it feeds.
// The upvote kind maps to nothing: the upvotes counter has a single writer,
// the UpvoteService, so recorded upvote events only land in the log.
func counterFieldFor(kind string) (string, bool) {
	switch kind {
	case domain.EventView:
		return repo.FieldViews, true
	case domain.EventVisit:
		return repo.FieldVisits, true
	case domain.EventImpression:
		return repo.FieldImpressions, true
	}
	return "", false
}

// Record validates and idempotently persists one interaction event.
//
// Semantics and validation:
//   - listingID must reference an existing, non-deleted listing; otherwise
//     ErrListingNotFound.
//   - visitorID is an opaque token, minimum length 1; otherwise ErrEmptyVisitor.
//   - kind must be one of the four event kinds; otherwise ErrInvalidEventKind.
//   - When dedupePerDay is set (the view flow uses it), an event of the same
//     (listing, visitor, kind) recorded since local start-of-day suppresses
//     the write and the call returns Tracked=false with a reason.
//
// The dedupe is a read-then-conditionally-write check with no unique index
// behind it: two near-simultaneous duplicates can both pass it and both
// count. That is an accepted analytics tradeoff, kept deliberately.
//
// On success exactly one event row is inserted and, for counted kinds, the
// matching counter column is bumped with a single atomic upsert — both in
// one transaction, so a store failure applies neither.
func (s *EventService) Record(ctx context.Context, listingID, visitorID, kind string, dedupePerDay bool) (*TrackResult, error) {
	if strings.TrimSpace(visitorID) == "" {
		return nil, ErrEmptyVisitor
	}
	if !domain.ValidEventKind(kind) {
		return nil, ErrInvalidEventKind
	}

	var res TrackResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetListing(ctx, tx, listingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}

		if dedupePerDay {
			since := startOfDay(time.Now())
			seen, err := repo.HasEventSince(ctx, tx, listingID, visitorID, kind, since)
			if err != nil {
				return err
			}
			if seen {
				res = TrackResult{Tracked: false, Reason: ReasonAlreadyViewedToday}
				return nil
			}
		}

		if _, err := repo.CreateEvent(ctx, tx, listingID, visitorID, kind); err != nil {
			return err
		}
		if field, ok := counterFieldFor(kind); ok {
			if err := repo.IncrementCounter(ctx, tx, listingID, field, 1); err != nil {
				return err
			}
		}
		res = TrackResult{Tracked: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RebuildCounters reconciles the counters row of one listing against the
// event log (and the Upvote relation for the vote count), atomically
// replacing whatever the row currently holds. The log is the source of
// truth; counters are a derived cache, so a drifted row can always be
// regenerated from here.
func (s *EventService) RebuildCounters(ctx context.Context, listingID string) (*domain.AggregateCounters, error) {
	var out *domain.AggregateCounters
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetListing(ctx, tx, listingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}

		since := time.Now().UTC().AddDate(0, 0, -7)
		c := &domain.AggregateCounters{ListingID: listingID}

		var err error
		if c.Views, err = repo.CountEvents(ctx, tx, listingID, domain.EventView); err != nil {
			return err
		}
		if c.Visits, err = repo.CountEvents(ctx, tx, listingID, domain.EventVisit); err != nil {
			return err
		}
		if c.Impressions, err = repo.CountEvents(ctx, tx, listingID, domain.EventImpression); err != nil {
			return err
		}
		if c.Upvotes, err = repo.CountUpvotes(ctx, tx, listingID); err != nil {
			return err
		}
		if c.Views7d, err = repo.CountEventsSince(ctx, tx, listingID, domain.EventView, since); err != nil {
			return err
		}
		if c.Clicks7d, err = repo.CountEventsSince(ctx, tx, listingID, domain.EventVisit, since); err != nil {
			return err
		}

		if err := repo.ReplaceCounters(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// startOfDay returns midnight of the day containing t, in t's location.
// Visitors dedupe against the server's calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
