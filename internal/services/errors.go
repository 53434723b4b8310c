// Package services defines the business logic for listings, interaction
// tracking, voting, scoring, and ranked queries. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrListingNotFound indicates that the referenced listing does not exist,
	// has been deleted, or is not visible to the current caller.
	ErrListingNotFound = errors.New("listing not found")

	// ErrSlugTaken is returned when a submitted listing name normalizes to a
	// slug that already exists.
	ErrSlugTaken = errors.New("slug already in use")

	// ErrNotOwner is returned when a caller attempts to mutate a listing they
	// do not own.
	ErrNotOwner = errors.New("listing not owned by caller")

	// ErrIdentityRequired is returned when an operation that needs a resolved
	// user identity (e.g. the upvote toggle) is invoked anonymously.
	ErrIdentityRequired = errors.New("authenticated identity required")

	// ErrInvalidEventKind is returned when an interaction event kind is not
	// one of view, visit, upvote, or impression.
	ErrInvalidEventKind = errors.New("invalid event kind")

	// ErrEmptyVisitor is returned when an event is recorded without a visitor
	// token.
	ErrEmptyVisitor = errors.New("visitor id is empty")

	// ErrInvalidSort is returned when a query requests an unknown sort key.
	ErrInvalidSort = errors.New("invalid sort key")

	// ErrInvalidStatus is returned when a lifecycle status value is outside
	// the allowed set.
	ErrInvalidStatus = errors.New("invalid listing status")

	// ErrEmptyName is returned when a listing submission has no usable name.
	ErrEmptyName = errors.New("listing name is empty")

	// ErrEmptyURL is returned when a listing submission has no URL.
	ErrEmptyURL = errors.New("listing url is empty")
)
