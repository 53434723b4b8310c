package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// seedEvent inserts an event with an explicit timestamp.
func seedEvent(t *testing.T, db *gorm.DB, listingID, visitorID, kind string, at time.Time) {
	t.Helper()
	ev := domain.InteractionEvent{
		ID: uuid.NewString(), ListingID: listingID, VisitorID: visitorID,
		Kind: kind, CreatedAt: at,
	}
	if err := db.Create(&ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestCreateEvent_PersistsRow(t *testing.T) {
	db := newTestDB(t)
	seedListing(t, db, domain.Listing{ID: "l1", Slug: "tool-a", OwnerID: "u1"})

	ev, err := CreateEvent(context.Background(), db, "l1", "v1", domain.EventView)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID == "" || ev.Kind != domain.EventView {
		t.Fatalf("unexpected event: %+v", ev)
	}

	var got domain.InteractionEvent
	if err := db.First(&got, "id = ?", ev.ID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if got.ListingID != "l1" || got.VisitorID != "v1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestHasEventSince_WindowAndKeyScoping(t *testing.T) {
	db := newTestDB(t)
	seedListing(t, db, domain.Listing{ID: "l1", Slug: "tool-a", OwnerID: "u1"})

	now := time.Now().UTC()
	dayStart := now.Add(-2 * time.Hour)
	seedEvent(t, db, "l1", "v1", domain.EventView, now.Add(-1*time.Hour)) // in window
	seedEvent(t, db, "l1", "v1", domain.EventView, now.Add(-26*time.Hour)) // yesterday

	ctx := context.Background()
	if ok, err := HasEventSince(ctx, db, "l1", "v1", domain.EventView, dayStart); err != nil || !ok {
		t.Fatalf("expected hit for in-window event, ok=%v err=%v", ok, err)
	}
	// Different visitor, kind, and listing all miss.
	if ok, _ := HasEventSince(ctx, db, "l1", "v2", domain.EventView, dayStart); ok {
		t.Fatal("unexpected hit for other visitor")
	}
	if ok, _ := HasEventSince(ctx, db, "l1", "v1", domain.EventVisit, dayStart); ok {
		t.Fatal("unexpected hit for other kind")
	}
	if ok, _ := HasEventSince(ctx, db, "l2", "v1", domain.EventView, dayStart); ok {
		t.Fatal("unexpected hit for other listing")
	}
	// Only yesterday's event falls outside the window.
	if ok, _ := HasEventSince(ctx, db, "l1", "v1", domain.EventView, now.Add(-30*time.Minute)); ok {
		t.Fatal("unexpected hit for narrower window")
	}
}

func TestCountEvents_AllTimeAndWindowed(t *testing.T) {
	db := newTestDB(t)
	seedListing(t, db, domain.Listing{ID: "l1", Slug: "tool-a", OwnerID: "u1"})

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedEvent(t, db, "l1", "v1", domain.EventView, now.Add(-time.Duration(i)*time.Hour))
	}
	seedEvent(t, db, "l1", "v1", domain.EventView, now.AddDate(0, 0, -10))
	seedEvent(t, db, "l1", "v1", domain.EventVisit, now)

	ctx := context.Background()
	if n, _ := CountEvents(ctx, db, "l1", domain.EventView); n != 4 {
		t.Fatalf("all-time views = %d, want 4", n)
	}
	if n, _ := CountEventsSince(ctx, db, "l1", domain.EventView, now.AddDate(0, 0, -7)); n != 3 {
		t.Fatalf("windowed views = %d, want 3", n)
	}
}

func TestRefreshRollingCounters_Bulk(t *testing.T) {
	db := newTestDB(t)
	seedListing(t, db, domain.Listing{ID: "l1", Slug: "tool-a", OwnerID: "u1"})
	seedListing(t, db, domain.Listing{ID: "l2", Slug: "tool-b", OwnerID: "u1"})

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -7)

	// l1: two recent views, one stale view, one recent visit.
	seedEvent(t, db, "l1", "v1", domain.EventView, now.Add(-time.Hour))
	seedEvent(t, db, "l1", "v2", domain.EventView, now.Add(-2*time.Hour))
	seedEvent(t, db, "l1", "v1", domain.EventView, now.AddDate(0, 0, -9))
	seedEvent(t, db, "l1", "v1", domain.EventVisit, now.Add(-time.Hour))

	ctx := context.Background()
	// Counters rows exist with stale window values.
	if err := ReplaceCounters(ctx, db, &domain.AggregateCounters{ListingID: "l1", Views: 3, Visits: 1, Views7d: 99, Clicks7d: 99}); err != nil {
		t.Fatalf("seed counters l1: %v", err)
	}
	if err := ReplaceCounters(ctx, db, &domain.AggregateCounters{ListingID: "l2", Views7d: 5, Clicks7d: 5}); err != nil {
		t.Fatalf("seed counters l2: %v", err)
	}

	if err := RefreshRollingCounters(ctx, db, since); err != nil {
		t.Fatalf("RefreshRollingCounters: %v", err)
	}

	c1, _ := GetCounters(ctx, db, "l1")
	if c1.Views7d != 2 || c1.Clicks7d != 1 {
		t.Fatalf("l1 window = (%d,%d), want (2,1)", c1.Views7d, c1.Clicks7d)
	}
	// Cumulative columns untouched.
	if c1.Views != 3 || c1.Visits != 1 {
		t.Fatalf("l1 cumulative changed: %+v", c1)
	}
	// l2 had no events in the window: rolls to zero.
	c2, _ := GetCounters(ctx, db, "l2")
	if c2.Views7d != 0 || c2.Clicks7d != 0 {
		t.Fatalf("l2 window = (%d,%d), want (0,0)", c2.Views7d, c2.Clicks7d)
	}
}
