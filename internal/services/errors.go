// Package services defines the business logic for slug resolution, redirect
// decisions, and the administration of destinations and aliases.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Destination and alias errors.
var (
	// ErrDestinationNotFound indicates that the destination does not exist,
	// was deleted, or is not owned by the current user.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrAliasNotFound indicates that the alias does not exist or was deleted.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrPermanentDestination is returned when updating or deleting a
	// destination that was created as permanent.
	ErrPermanentDestination = errors.New("permanent destinations can not be changed")

	// ErrInvalidURL is returned when a destination URL does not parse as an
	// absolute URL with a scheme and a host.
	ErrInvalidURL = errors.New("url must be an absolute URL")

	// ErrNothingToUpdate is returned for an update request with no fields.
	ErrNothingToUpdate = errors.New("no fields to update")
)

// Slug errors.
var (
	// ErrInvalidSlug is the parent of every slug validation error.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrReservedSlug is returned for slugs under the reserved api/ prefix.
	ErrReservedSlug = errors.New("slug must not start with api/")

	// ErrSlugChars is returned for slugs containing '?' or '#'.
	ErrSlugChars = errors.New("slug must not contain '?' or '#'")
)

// SlugConflictError reports that a slug is already used by another record,
// live or deleted. Kind names the record kind holding it.
type SlugConflictError struct {
	Slug string
	Kind string
}

func (e *SlugConflictError) Error() string {
	return "slug " + quote(e.Slug) + " is already used by " + e.Kind
}

func quote(s string) string { return "\"" + s + "\"" }
