package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// newTestDB opens a throwaway SQLite database in a temp dir with the full
// directory schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(
		&domain.Listing{},
		&domain.InteractionEvent{},
		&domain.AggregateCounters{},
		&domain.Upvote{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedListing inserts a listing with sensible defaults for fields the test
// does not care about.
func seedListing(t *testing.T, db *gorm.DB, l domain.Listing) domain.Listing {
	t.Helper()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Slug == "" {
		l.Slug = l.ID[:8]
	}
	if l.OwnerID == "" {
		l.OwnerID = "owner-1"
	}
	if l.Status == "" {
		l.Status = domain.StatusApproved
	}
	if l.Name == "" {
		l.Name = l.Slug
	}
	if l.URL == "" {
		l.URL = "https://" + l.Slug + ".example"
	}
	if l.Category == "" {
		l.Category = "devops"
	}
	if l.Pricing == "" {
		l.Pricing = "free"
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed listing %s: %v", l.ID, err)
	}
	return l
}

// seedEvent inserts one interaction event at an explicit instant so window
// math is deterministic.
func seedEvent(t *testing.T, db *gorm.DB, listingID, visitorID, kind string, at time.Time) {
	t.Helper()
	ev := domain.InteractionEvent{
		ID:        uuid.NewString(),
		ListingID: listingID,
		VisitorID: visitorID,
		Kind:      kind,
		CreatedAt: at,
	}
	if err := db.Create(&ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

// getCounters loads the counters row for a listing, failing the test when it
// is absent.
func getCounters(t *testing.T, db *gorm.DB, listingID string) domain.AggregateCounters {
	t.Helper()
	var c domain.AggregateCounters
	if err := db.First(&c, "listing_id = ?", listingID).Error; err != nil {
		t.Fatalf("load counters for %s: %v", listingID, err)
	}
	return c
}
