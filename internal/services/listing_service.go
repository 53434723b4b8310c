// Package services – ListingService
//
// This file implements the ListingService, which manages the submission and
// editing lifecycle of directory listings. It normalizes names, derives the
// immutable URL slug, enforces ownership on edits, and exposes the two
// externally-driven mutations: moderation (status) and featured placement.
//
// The ranking engine proper (events, counters, scores, ranked queries) lives
// in the sibling services; this one only keeps the rows they operate on.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-directory-backend/internal/domain"
	"github.com/tbourn/go-directory-backend/internal/repo"
)

// SubmitInput is the owner-supplied content of a new listing.
type SubmitInput struct {
	Name        string
	Tagline     string
	Description string
	URL         string
	Category    string
	Pricing     string
}

// UpdateInput carries owner-editable fields; nil pointers leave the stored
// value untouched. Slug, status, score, and the featured window are never
// owner-editable.
type UpdateInput struct {
	Name        *string
	Tagline     *string
	Description *string
	URL         *string
	Category    *string
	Pricing     *string
}

// ListingService provides listing lifecycle operations.
type ListingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
	// SlugMaxLen caps generated slugs by rune length.
	SlugMaxLen int
}

// NewListingService constructs a ListingService with sane length defaults.
func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{DB: db, NameMaxLen: 120, SlugMaxLen: 80}
}

// Submit creates a new pending listing owned by ownerID. The slug is derived
// from the normalized name; a collision with an existing slug yields
// ErrSlugTaken (the submitter picks a more distinctive name).
func (s *ListingService) Submit(ctx context.Context, ownerID string, in SubmitInput) (*domain.Listing, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrIdentityRequired
	}
	name := normalizeName(in.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(in.URL) == "" {
		return nil, ErrEmptyURL
	}

	l := &domain.Listing{
		Slug:        s.Slugify(name),
		OwnerID:     ownerID,
		Name:        s.clip(name),
		Tagline:     strings.TrimSpace(in.Tagline),
		Description: strings.TrimSpace(in.Description),
		URL:         strings.TrimSpace(in.URL),
		Category:    strings.TrimSpace(strings.ToLower(in.Category)),
		Pricing:     strings.TrimSpace(strings.ToLower(in.Pricing)),
	}
	created, err := repo.CreateListing(ctx, s.DB, l)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return created, nil
}

// Update edits the content fields of a listing on behalf of ownerID.
// Returns ErrListingNotFound when the listing does not exist and ErrNotOwner
// when it belongs to someone else.
func (s *ListingService) Update(ctx context.Context, ownerID, listingID string, in UpdateInput) error {
	l, err := repo.GetListing(ctx, s.DB, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if l.OwnerID != ownerID {
		return ErrNotOwner
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := normalizeName(*in.Name)
		if name == "" {
			return ErrEmptyName
		}
		fields["name"] = s.clip(name)
	}
	if in.Tagline != nil {
		fields["tagline"] = strings.TrimSpace(*in.Tagline)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.URL != nil {
		if strings.TrimSpace(*in.URL) == "" {
			return ErrEmptyURL
		}
		fields["url"] = strings.TrimSpace(*in.URL)
	}
	if in.Category != nil {
		fields["category"] = strings.TrimSpace(strings.ToLower(*in.Category))
	}
	if in.Pricing != nil {
		fields["pricing"] = strings.TrimSpace(strings.ToLower(*in.Pricing))
	}
	if len(fields) == 0 {
		return nil
	}
	return repo.UpdateListingContent(ctx, s.DB, listingID, ownerID, fields)
}

// GetBySlug fetches one listing for display. Non-approved listings are
// visible only to their owner; everyone else gets ErrListingNotFound rather
// than a hint that the slug exists.
func (s *ListingService) GetBySlug(ctx context.Context, slug, viewerID string) (*domain.Listing, error) {
	l, err := repo.GetListingBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if l.Status != domain.StatusApproved && l.OwnerID != viewerID {
		return nil, ErrListingNotFound
	}
	return l, nil
}

// SetStatus moves a listing through its moderation lifecycle. Invoked from
// the admin surface only.
func (s *ListingService) SetStatus(ctx context.Context, listingID, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := repo.UpdateListingStatus(ctx, s.DB, listingID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	return nil
}

// Feature sets (or clears, with nil) the featured window of a listing. The
// payment workflow owns the decision; this service just records it.
func (s *ListingService) Feature(ctx context.Context, listingID string, until *time.Time) error {
	if err := repo.UpdateListingFeaturedUntil(ctx, s.DB, listingID, until); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	return nil
}

// Slugify derives a URL slug from a listing name: decompose, strip combining
// marks, lowercase, collapse everything non-alphanumeric into single
// hyphens, and clip to the configured length.
func (s *ListingService) Slugify(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if s.SlugMaxLen > 0 && utf8.RuneCountInString(slug) > s.SlugMaxLen {
		slug = strings.Trim(string([]rune(slug)[:s.SlugMaxLen]), "-")
	}
	return slug
}

// clip truncates a listing name to the configured maximum rune length.
func (s *ListingService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// normalizeName trims whitespace and collapses multiple spaces to one.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
