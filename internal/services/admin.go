package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Invalidator drops cached resolutions. Admin writes call it with every slug
// whose resolution changed, after the write committed.
type Invalidator interface {
	Invalidate(slug string)
}

// invalidate calls c.Invalidate for each slug; a nil c is a no-op.
func invalidate(c Invalidator, slugs ...string) {
	if c == nil {
		return
	}
	for _, s := range slugs {
		c.Invalidate(s)
	}
}

// slugClaims serializes the namespace check and the insert of every create
// in this process. Each table's unique index only covers its own rows.
var slugClaims sync.Mutex

// claimSlug runs insert once slug is known to be free. A check error or
// *SlugConflictError is returned without calling insert.
func claimSlug(ctx context.Context, store ResolutionStore, slug string, insert func() error) error {
	slugClaims.Lock()
	defer slugClaims.Unlock()
	if err := ensureSlugFree(ctx, store, slug); err != nil {
		return err
	}
	return insert()
}

// ensureSlugFree reports a *SlugConflictError when slug already belongs to a
// destination or alias, deleted ones included.
func ensureSlugFree(ctx context.Context, store ResolutionStore, slug string) error {
	summary, err := FetchSummary(ctx, store, slug)
	if err != nil {
		return err
	}
	if summary == nil {
		return nil
	}
	kind := "destination"
	if summary.Alias != nil {
		kind = "alias"
	}
	return &SlugConflictError{Slug: slug, Kind: kind}
}

// validateURL checks raw is an absolute URL and returns it trimmed.
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}
