package services

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// reservedPrefix is owned by the administrative API.
const reservedPrefix = "api/"

// reservedRoots are served by fixed routes that shadow the redirect path.
var reservedRoots = []string{"health", "metrics", "swagger"}

// NormalizeSlug canonicalizes an already-decoded path or slug: Unicode NFC,
// then exactly one leading and one trailing '/' removed. "/" and "" both
// become the empty slug.
func NormalizeSlug(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	return s
}

// ValidateSlug normalizes slug and checks it can be stored. The empty slug
// is valid and maps the bare root path.
func ValidateSlug(slug string) (string, error) {
	slug = NormalizeSlug(slug)
	if strings.ContainsAny(slug, "?#") {
		return "", fmt.Errorf("%w: %w", ErrInvalidSlug, ErrSlugChars)
	}
	if isReserved(slug) {
		return "", fmt.Errorf("%w: %w", ErrInvalidSlug, ErrReservedSlug)
	}
	return slug, nil
}

func isReserved(slug string) bool {
	if strings.HasPrefix(slug, reservedPrefix) || slug+"/" == reservedPrefix {
		return true
	}
	root, _, _ := strings.Cut(slug, "/")
	return slices.Contains(reservedRoots, root)
}
