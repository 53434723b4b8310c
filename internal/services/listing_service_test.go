package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

func TestListingService_Slugify(t *testing.T) {
	svc := NewListingService(nil)
	cases := map[string]string{
		"Acme Deploy":            "acme-deploy",
		"  spaced   out  ":       "spaced-out",
		"Café Déjà Vu":           "cafe-deja-vu",
		"C++ & Go!!":             "c-go",
		"---already---slugged--": "already-slugged",
		"ALLCAPS2000":            "allcaps2000",
	}
	for in, want := range cases {
		if got := svc.Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListingService_SlugifyClipsLength(t *testing.T) {
	svc := NewListingService(nil)
	svc.SlugMaxLen = 10
	got := svc.Slugify("a very long listing name indeed")
	if len(got) > 10 || strings.HasSuffix(got, "-") {
		t.Fatalf("clipped slug %q exceeds limit or ends in hyphen", got)
	}
}

func TestListingService_Submit(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "", SubmitInput{Name: "X", URL: "https://x"}); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("anonymous submit: got %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", SubmitInput{Name: "   ", URL: "https://x"}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", SubmitInput{Name: "X"}); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("missing url: got %v", err)
	}

	l, err := svc.Submit(ctx, "u1", SubmitInput{
		Name:     "  Acme   Deploy  ",
		Tagline:  " ship faster ",
		URL:      " https://acme.example ",
		Category: " DevOps ",
		Pricing:  "Free",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if l.Slug != "acme-deploy" || l.Name != "Acme Deploy" {
		t.Fatalf("normalization: slug=%q name=%q", l.Slug, l.Name)
	}
	if l.Category != "devops" || l.Pricing != "free" || l.Tagline != "ship faster" {
		t.Fatalf("field normalization: %+v", l)
	}
	if l.Status != domain.StatusPending {
		t.Fatalf("new listing status = %q, want pending", l.Status)
	}
	if l.Score != 0 || l.FeaturedUntil != nil {
		t.Fatalf("ranking fields should start zeroed: %+v", l)
	}
}

func TestListingService_SubmitSlugCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()

	in := SubmitInput{Name: "Acme Deploy", URL: "https://acme.example"}
	if _, err := svc.Submit(ctx, "u1", in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Different owner, different casing, same slug.
	if _, err := svc.Submit(ctx, "u2", SubmitInput{Name: "ACME deploy", URL: "https://other.example"}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("colliding submit: got %v", err)
	}
}

func TestListingService_Update(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{OwnerID: "u1", Name: "Before", Tagline: "old"})

	strp := func(s string) *string { return &s }

	if err := svc.Update(ctx, "u1", "ghost", UpdateInput{Name: strp("X")}); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("missing listing: got %v", err)
	}
	if err := svc.Update(ctx, "intruder", l.ID, UpdateInput{Name: strp("X")}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign update: got %v", err)
	}
	if err := svc.Update(ctx, "u1", l.ID, UpdateInput{Name: strp("   ")}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("blanked name: got %v", err)
	}
	if err := svc.Update(ctx, "u1", l.ID, UpdateInput{URL: strp(" ")}); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("blanked url: got %v", err)
	}

	// Nil fields stay untouched; set fields land.
	if err := svc.Update(ctx, "u1", l.ID, UpdateInput{Name: strp("After"), Pricing: strp("PAID")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	var got domain.Listing
	db.First(&got, "id = ?", l.ID)
	if got.Name != "After" || got.Pricing != "paid" || got.Tagline != "old" {
		t.Fatalf("partial update: %+v", got)
	}
	if got.Slug != l.Slug {
		t.Fatalf("slug changed on rename: %q -> %q", l.Slug, got.Slug)
	}

	// No fields set is a no-op, not an error.
	if err := svc.Update(ctx, "u1", l.ID, UpdateInput{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
}

func TestListingService_GetBySlugVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()

	seedListing(t, db, domain.Listing{Slug: "live", OwnerID: "u1"})
	seedListing(t, db, domain.Listing{Slug: "draft", OwnerID: "u1", Status: domain.StatusPending})

	if _, err := svc.GetBySlug(ctx, "live", ""); err != nil {
		t.Fatalf("approved listing visible to anyone: %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "draft", "u1"); err != nil {
		t.Fatalf("pending listing visible to owner: %v", err)
	}
	// Non-owners get the same answer as for a slug that never existed.
	if _, err := svc.GetBySlug(ctx, "draft", "u2"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("pending listing leaked to non-owner: %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "nope", ""); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("unknown slug: got %v", err)
	}
}

func TestListingService_SetStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{Status: domain.StatusPending})

	if err := svc.SetStatus(ctx, l.ID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status: got %v", err)
	}
	if err := svc.SetStatus(ctx, "ghost", domain.StatusApproved); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("missing listing: got %v", err)
	}
	if err := svc.SetStatus(ctx, l.ID, domain.StatusApproved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	var got domain.Listing
	db.First(&got, "id = ?", l.ID)
	if got.Status != domain.StatusApproved {
		t.Fatalf("status = %q, want approved", got.Status)
	}
}

func TestListingService_Feature(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)
	ctx := context.Background()
	l := seedListing(t, db, domain.Listing{})

	until := time.Now().UTC().Add(72 * time.Hour)
	if err := svc.Feature(ctx, "ghost", &until); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("missing listing: got %v", err)
	}
	if err := svc.Feature(ctx, l.ID, &until); err != nil {
		t.Fatalf("Feature: %v", err)
	}
	var got domain.Listing
	db.First(&got, "id = ?", l.ID)
	if got.FeaturedUntil == nil || !got.IsFeatured(time.Now().UTC()) {
		t.Fatalf("featured window not set: %+v", got)
	}

	if err := svc.Feature(ctx, l.ID, nil); err != nil {
		t.Fatalf("clear feature: %v", err)
	}
	// GORM leaves pointer fields untouched when scanning NULL, so a reused
	// destination struct would retain the previous FeaturedUntil value.
	got = domain.Listing{}
	db.First(&got, "id = ?", l.ID)
	if got.FeaturedUntil != nil {
		t.Fatalf("featured window not cleared: %+v", got)
	}
}
