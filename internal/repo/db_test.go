package repo

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-directory-backend/internal/domain"
)

// newTestDB opens a throwaway SQLite database in a temp dir and migrates the
// requested models (all directory models when none are given).
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) == 0 {
		migrate = []any{
			&domain.Listing{},
			&domain.InteractionEvent{},
			&domain.AggregateCounters{},
			&domain.Upvote{},
		}
	}
	if err := db.AutoMigrate(migrate...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedListing inserts a listing with explicit fields so tests control
// ordering and age deterministically.
func seedListing(t *testing.T, db *gorm.DB, l domain.Listing) domain.Listing {
	t.Helper()
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

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "no-such-dir", "x.db")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := newTestDB(t, &domain.Listing{}) // partial on purpose
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"listings", "interaction_events", "aggregate_counters", "upvotes"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table %q after AutoMigrate", table)
		}
	}
}
