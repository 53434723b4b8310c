package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

func TestIncrementCounter_CreatesRowOnFirstTouch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := IncrementCounter(ctx, db, "l1", FieldViews, 1); err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	c, err := GetCounters(ctx, db, "l1")
	if err != nil {
		t.Fatalf("GetCounters: %v", err)
	}
	if c.Views != 1 || c.Visits != 0 || c.Upvotes != 0 || c.Impressions != 0 {
		t.Fatalf("unexpected counters after first touch: %+v", c)
	}
}

func TestIncrementCounter_AtomicAddOnExistingRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := IncrementCounter(ctx, db, "l1", FieldVisits, 1); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	c, _ := GetCounters(ctx, db, "l1")
	if c.Visits != 5 {
		t.Fatalf("visits = %d, want 5", c.Visits)
	}
	// Other columns stay untouched.
	if c.Views != 0 || c.Upvotes != 0 {
		t.Fatalf("unrelated columns changed: %+v", c)
	}
}

func TestIncrementCounter_UpvotesFloorAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Decrement before any increment: first touch creates the row at 0,
	// repeated decrements must not push it negative.
	for i := 0; i < 3; i++ {
		if err := IncrementCounter(ctx, db, "l1", FieldUpvotes, -1); err != nil {
			t.Fatalf("decrement %d: %v", i, err)
		}
	}
	c, _ := GetCounters(ctx, db, "l1")
	if c.Upvotes != 0 {
		t.Fatalf("upvotes = %d, want 0 (floored)", c.Upvotes)
	}

	if err := IncrementCounter(ctx, db, "l1", FieldUpvotes, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	c, _ = GetCounters(ctx, db, "l1")
	if c.Upvotes != 1 {
		t.Fatalf("upvotes = %d, want 1", c.Upvotes)
	}
}

func TestIncrementCounter_RejectsUnknownField(t *testing.T) {
	db := newTestDB(t)
	err := IncrementCounter(context.Background(), db, "l1", "score; DROP TABLE listings", 1)
	if !errors.Is(err, ErrUnknownCounterField) {
		t.Fatalf("expected ErrUnknownCounterField, got %v", err)
	}
}

func TestGetCounters_NotFoundWhenNeverTouched(t *testing.T) {
	db := newTestDB(t)
	_, err := GetCounters(context.Background(), db, "ghost")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestReplaceCounters_Overwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = IncrementCounter(ctx, db, "l1", FieldViews, 1)
	want := &domain.AggregateCounters{
		ListingID: "l1", Views: 10, Visits: 4, Upvotes: 2, Impressions: 50,
		Views7d: 7, Clicks7d: 3,
	}
	if err := ReplaceCounters(ctx, db, want); err != nil {
		t.Fatalf("ReplaceCounters: %v", err)
	}
	got, _ := GetCounters(ctx, db, "l1")
	if got.Views != 10 || got.Visits != 4 || got.Upvotes != 2 ||
		got.Impressions != 50 || got.Views7d != 7 || got.Clicks7d != 3 {
		t.Fatalf("counters not replaced: %+v", got)
	}
}
