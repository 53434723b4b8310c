package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

func TestUpvoteService_ToggleValidation(t *testing.T) {
	db := newTestDB(t)
	svc := &UpvoteService{DB: db}
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "  ", "whatever"); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("anonymous toggle: got %v", err)
	}
	if _, err := svc.Toggle(ctx, "u1", "ghost"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("missing listing: got %v", err)
	}
}

func TestUpvoteService_ToggleFlipsState(t *testing.T) {
	db := newTestDB(t)
	svc := &UpvoteService{DB: db}
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{})

	// On.
	up, err := svc.Toggle(ctx, "u1", l.ID)
	if err != nil || !up {
		t.Fatalf("toggle on: up=%v err=%v", up, err)
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 1 {
		t.Fatalf("upvotes after on = %d, want 1", c.Upvotes)
	}
	var events int64
	db.Model(&domain.InteractionEvent{}).
		Where("listing_id = ? AND kind = ?", l.ID, domain.EventUpvote).
		Count(&events)
	if events != 1 {
		t.Fatalf("upvote events after on = %d, want 1", events)
	}

	// Off.
	up, err = svc.Toggle(ctx, "u1", l.ID)
	if err != nil || up {
		t.Fatalf("toggle off: up=%v err=%v", up, err)
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 0 {
		t.Fatalf("upvotes after off = %d, want 0", c.Upvotes)
	}
	if err := db.First(&domain.Upvote{}, "user_id = ? AND listing_id = ?", "u1", l.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("vote row should be gone, got %v", err)
	}

	// On again: toggle, not a one-shot.
	if up, err = svc.Toggle(ctx, "u1", l.ID); err != nil || !up {
		t.Fatalf("toggle back on: up=%v err=%v", up, err)
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 1 {
		t.Fatalf("upvotes after re-on = %d, want 1", c.Upvotes)
	}
}

func TestUpvoteService_IndependentUsers(t *testing.T) {
	db := newTestDB(t)
	svc := &UpvoteService{DB: db}
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{})

	for _, u := range []string{"u1", "u2", "u3"} {
		if up, err := svc.Toggle(ctx, u, l.ID); err != nil || !up {
			t.Fatalf("toggle %s: up=%v err=%v", u, up, err)
		}
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 3 {
		t.Fatalf("upvotes = %d, want 3", c.Upvotes)
	}

	if _, err := svc.Toggle(ctx, "u2", l.ID); err != nil {
		t.Fatalf("u2 toggle off: %v", err)
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 2 {
		t.Fatalf("upvotes after one removal = %d, want 2", c.Upvotes)
	}
}

func TestUpvoteService_DecrementFlooredAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := &UpvoteService{DB: db}
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{})

	// A vote row exists but the counter was lost (drift). Removing the vote
	// must not drive the counter negative.
	if err := db.Create(&domain.Upvote{UserID: "u1", ListingID: l.ID}).Error; err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	up, err := svc.Toggle(ctx, "u1", l.ID)
	if err != nil || up {
		t.Fatalf("toggle off drifted vote: up=%v err=%v", up, err)
	}
	if c := getCounters(t, db, l.ID); c.Upvotes != 0 {
		t.Fatalf("upvotes = %d, want 0 (floored)", c.Upvotes)
	}
}
