// Package services – RedirectService
//
// This file implements the redirect decision engine. Decide turns a raw
// request path and query into an Outcome: the HTTP status, the Location to
// send for redirects, and a short user-facing message for error pages.
//
// Decide never performs I/O beyond the cache lookup. Hit recording is handed
// to a HitScheduler that must not block; its errors never change the outcome.
package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// User-facing messages for non-redirect outcomes. They never carry internal
// error detail.
const (
	MsgInvalidUTF8     = "URL contains invalid UTF-8 characters"
	MsgInvalidEncoding = "URL contains invalid percent-encoding"
	MsgNotFound        = "Page not found"
	MsgGone            = "Page no longer exists"
	MsgInternal        = "Internal server error"
)

// Resolver looks a normalized slug up, typically through the slug cache.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (*domain.Summary, error)
}

// HitScheduler accepts hits for asynchronous recording without blocking.
type HitScheduler interface {
	Enqueue(h domain.Hit) error
}

// Outcome is the result of a redirect decision.
type Outcome struct {
	// Status is one of 307, 308, 400, 404, 410 or 500.
	Status int
	// Location is set for 307 and 308 only.
	Location string
	// Message is set for every non-redirect status.
	Message string
	// Slug is the normalized slug, empty when decoding failed.
	Slug string
	// Err carries the internal cause of a 500 for logging. It is never shown
	// to the client.
	Err error
}

// IsRedirect reports whether the outcome is a 307 or 308.
func (o Outcome) IsRedirect() bool {
	return o.Status == http.StatusTemporaryRedirect || o.Status == http.StatusPermanentRedirect
}

// RedirectService decides how to answer a request on the redirect path.
type RedirectService struct {
	// Cache resolves slugs.
	Cache Resolver
	// Hits receives one hit per resolved (found or gone) slug.
	Hits HitScheduler
	// Now returns the hit timestamp; defaults to time.Now.
	Now func() time.Time
}

// NewRedirectService constructs a RedirectService.
func NewRedirectService(c Resolver, h HitScheduler) *RedirectService {
	return &RedirectService{Cache: c, Hits: h, Now: time.Now}
}

// Decide computes the outcome for a request.
//
// rawPath is the request path as sent on the wire (still percent-encoded);
// rawQuery is the query string without the leading '?'. clientIP and
// userAgent are recorded on the hit when non-empty.
func (s *RedirectService) Decide(ctx context.Context, rawPath, rawQuery, clientIP, userAgent string) Outcome {
	span := trace.SpanFromContext(ctx)

	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return Outcome{Status: http.StatusBadRequest, Message: MsgInvalidEncoding}
	}
	if !utf8.ValidString(decoded) {
		return Outcome{Status: http.StatusBadRequest, Message: MsgInvalidUTF8}
	}
	slug := NormalizeSlug(decoded)
	span.SetAttributes(attribute.String("redirect.slug", slug))

	summary, err := s.Cache.Resolve(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return Outcome{Status: http.StatusInternalServerError, Message: MsgInternal, Slug: slug, Err: err}
	}
	if summary == nil {
		span.SetAttributes(attribute.String("redirect.result", "not_found"))
		return Outcome{Status: http.StatusNotFound, Message: MsgNotFound, Slug: slug}
	}
	span.SetAttributes(
		attribute.String("redirect.result", summary.Kind.String()),
		attribute.String("redirect.destination_id", summary.Destination.ID),
	)

	s.schedule(summary, clientIP, userAgent)

	if summary.IsGone() {
		return Outcome{Status: http.StatusGone, Message: MsgGone, Slug: slug}
	}

	dest := summary.Destination
	location := dest.URL
	if dest.ForwardQueryParameters {
		location = ForwardQuery(location, rawQuery)
	}
	status := http.StatusTemporaryRedirect
	if dest.IsPermanent {
		status = http.StatusPermanentRedirect
	}
	return Outcome{Status: status, Location: location, Slug: slug}
}

// schedule hands a hit to the pipeline. Failures are accounted for by the
// pipeline itself.
func (s *RedirectService) schedule(summary *domain.Summary, clientIP, userAgent string) {
	if s.Hits == nil {
		return
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	_ = s.Hits.Enqueue(domain.Hit{
		DestinationID: summary.Destination.ID,
		AliasID:       summary.AliasID(),
		IPAddress:     optional(clientIP),
		UserAgent:     optional(userAgent),
		CreatedAt:     now().UTC(),
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ForwardQuery merges rawQuery into target. Parameters already present on
// target win: an incoming parameter is appended only when target carries no
// parameter of the same name. Appended parameters keep their incoming order,
// repetition and raw encoding. An unparsable target is returned unchanged.
func ForwardQuery(target, rawQuery string) string {
	if rawQuery == "" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	existing := make(map[string]struct{})
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair != "" {
			existing[paramName(pair)] = struct{}{}
		}
	}

	var extra []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		if _, ok := existing[paramName(pair)]; ok {
			continue
		}
		extra = append(extra, pair)
	}
	if len(extra) == 0 {
		return target
	}

	if u.RawQuery == "" {
		u.RawQuery = strings.Join(extra, "&")
	} else {
		u.RawQuery += "&" + strings.Join(extra, "&")
	}
	u.ForceQuery = false
	return u.String()
}

// paramName returns the decoded name of a "name=value" query pair.
func paramName(pair string) string {
	name, _, _ := strings.Cut(pair, "=")
	if dec, err := url.QueryUnescape(name); err == nil {
		return dec
	}
	return name
}
