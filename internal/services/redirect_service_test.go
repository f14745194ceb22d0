package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// ----- Fakes -----

type fakeResolver struct {
	summaries map[string]*domain.Summary
	err       error
	slugs     []string
}

func (r *fakeResolver) Resolve(_ context.Context, slug string) (*domain.Summary, error) {
	r.slugs = append(r.slugs, slug)
	if r.err != nil {
		return nil, r.err
	}
	return r.summaries[slug], nil
}

type fakeScheduler struct {
	hits []domain.Hit
	err  error
}

func (s *fakeScheduler) Enqueue(h domain.Hit) error {
	s.hits = append(s.hits, h)
	return s.err
}

func newRedirect(sum map[string]*domain.Summary) (*RedirectService, *fakeResolver, *fakeScheduler) {
	res := &fakeResolver{summaries: sum}
	sch := &fakeScheduler{}
	svc := NewRedirectService(res, sch)
	svc.Now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }
	return svc, res, sch
}

// ----- Tests -----

func TestDecide_TemporaryAndPermanent(t *testing.T) {
	svc, _, sch := newRedirect(map[string]*domain.Summary{
		"tmp":  domain.NewDestinationFound(domain.Destination{ID: "d1", URL: "https://example.com/t"}),
		"perm": domain.NewDestinationFound(domain.Destination{ID: "d2", URL: "https://example.com/p", IsPermanent: true}),
	})

	o := svc.Decide(context.Background(), "/tmp", "", "203.0.113.9", "curl/8")
	if o.Status != http.StatusTemporaryRedirect || o.Location != "https://example.com/t" || !o.IsRedirect() {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	o = svc.Decide(context.Background(), "/perm/", "", "", "")
	if o.Status != http.StatusPermanentRedirect || o.Location != "https://example.com/p" {
		t.Fatalf("unexpected outcome: %+v", o)
	}

	if len(sch.hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(sch.hits))
	}
	h := sch.hits[0]
	if h.DestinationID != "d1" || h.AliasID != nil || *h.IPAddress != "203.0.113.9" || *h.UserAgent != "curl/8" {
		t.Fatalf("unexpected first hit: %+v", h)
	}
	if !h.CreatedAt.Equal(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Fatalf("hit time should be captured at decision time, got %v", h.CreatedAt)
	}
	if sch.hits[1].IPAddress != nil || sch.hits[1].UserAgent != nil {
		t.Fatalf("empty client data should be recorded as NULL: %+v", sch.hits[1])
	}
}

func TestDecide_NotFound_NoHit(t *testing.T) {
	svc, _, sch := newRedirect(nil)
	o := svc.Decide(context.Background(), "/nope", "", "", "")
	if o.Status != http.StatusNotFound || o.Message != MsgNotFound || o.Location != "" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if len(sch.hits) != 0 {
		t.Fatalf("no hit should be recorded for 404, got %d", len(sch.hits))
	}
}

func TestDecide_GoneStillRecordsExactlyOneHit(t *testing.T) {
	dead := domain.Destination{ID: "d1", URL: "https://example.com/", DeletedAt: deletedAt()}
	live := domain.Destination{ID: "d2", URL: "https://example.com/"}
	alias := domain.Alias{ID: "a1", DestinationID: "d2", DeletedAt: deletedAt()}
	svc, _, sch := newRedirect(map[string]*domain.Summary{
		"dead":  domain.NewDestinationGone(dead, nil),
		"alias": domain.NewAliasGone(alias, live),
	})

	o := svc.Decide(context.Background(), "/dead", "", "", "")
	if o.Status != http.StatusGone || o.Location != "" || o.Message != MsgGone {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if len(sch.hits) != 1 || sch.hits[0].DestinationID != "d1" {
		t.Fatalf("expected exactly one hit for d1, got %+v", sch.hits)
	}

	o = svc.Decide(context.Background(), "/alias", "", "", "")
	if o.Status != http.StatusGone {
		t.Fatalf("deleted alias should be 410, got %+v", o)
	}
	if len(sch.hits) != 2 || sch.hits[1].AliasID == nil || *sch.hits[1].AliasID != "a1" {
		t.Fatalf("alias hit should carry alias id, got %+v", sch.hits)
	}
}

func TestDecide_AliasRedirectsToDestination(t *testing.T) {
	d := domain.Destination{ID: "d1", URL: "https://example.com/docs"}
	svc, _, sch := newRedirect(map[string]*domain.Summary{
		"d": domain.NewAliasFound(domain.Alias{ID: "a1", DestinationID: "d1"}, d),
	})
	o := svc.Decide(context.Background(), "/d", "", "", "")
	if o.Status != http.StatusTemporaryRedirect || o.Location != "https://example.com/docs" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if *sch.hits[0].AliasID != "a1" {
		t.Fatalf("expected alias id on hit")
	}
}

func TestDecide_DecodingAndNormalization(t *testing.T) {
	svc, res, _ := newRedirect(nil)

	if o := svc.Decide(context.Background(), "/%c0", "", "", ""); o.Status != http.StatusBadRequest || o.Message != MsgInvalidUTF8 {
		t.Fatalf("invalid UTF-8: %+v", o)
	}
	if o := svc.Decide(context.Background(), "/%zz", "", "", ""); o.Status != http.StatusBadRequest {
		t.Fatalf("invalid escape: %+v", o)
	}
	if len(res.slugs) != 0 {
		t.Fatalf("decode failures must not reach the cache, got %v", res.slugs)
	}

	svc.Decide(context.Background(), "/%20", "", "", "")
	svc.Decide(context.Background(), "/%F0%9F%A6%80", "", "", "")
	svc.Decide(context.Background(), "/cafe%CC%81", "", "", "")
	svc.Decide(context.Background(), "/a+b", "", "", "")
	svc.Decide(context.Background(), "/", "", "", "")
	want := []string{" ", "\U0001F980", "caf\u00e9", "a+b", ""}
	if len(res.slugs) != len(want) {
		t.Fatalf("resolved slugs = %q; want %q", res.slugs, want)
	}
	for i := range want {
		if res.slugs[i] != want[i] {
			t.Fatalf("slug %d = %q; want %q", i, res.slugs[i], want[i])
		}
	}
}

func TestDecide_StoreErrorIsGeneric500(t *testing.T) {
	svc, res, sch := newRedirect(nil)
	res.err = errors.New("pq: password authentication failed for user admin")

	o := svc.Decide(context.Background(), "/x", "", "", "")
	if o.Status != http.StatusInternalServerError || o.Message != MsgInternal {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if o.Err == nil {
		t.Fatalf("internal cause should be kept for logging")
	}
	if len(sch.hits) != 0 {
		t.Fatalf("no hit on error")
	}
}

func TestDecide_SchedulingErrorDoesNotChangeOutcome(t *testing.T) {
	svc, _, sch := newRedirect(map[string]*domain.Summary{
		"x": domain.NewDestinationFound(domain.Destination{ID: "d1", URL: "https://example.com/"}),
	})
	sch.err = errors.New("queue full")
	if o := svc.Decide(context.Background(), "/x", "", "", ""); o.Status != http.StatusTemporaryRedirect {
		t.Fatalf("scheduling failure leaked into outcome: %+v", o)
	}
}

func TestDecide_QueryForwarding(t *testing.T) {
	fwd := func(url string) *domain.Summary {
		return domain.NewDestinationFound(domain.Destination{ID: "d", URL: url, ForwardQueryParameters: true})
	}
	svc, _, _ := newRedirect(map[string]*domain.Summary{
		"root":  fwd("https://www.example.com/"),
		"paged": fwd("https://www.example.com/something?page=1"),
		"plain": domain.NewDestinationFound(domain.Destination{ID: "p", URL: "https://www.example.com/something?page=1"}),
	})

	cases := []struct {
		path, query, want string
	}{
		{"/root", "foo=bar", "https://www.example.com/?foo=bar"},
		{"/root", "", "https://www.example.com/"},
		{"/paged", "foo=bar", "https://www.example.com/something?page=1&foo=bar"},
		{"/paged", "page=2", "https://www.example.com/something?page=1"},
		{"/paged", "page=2&page=3", "https://www.example.com/something?page=1"},
		{"/paged", "page=2&foo=bar&foo=baz", "https://www.example.com/something?page=1&foo=bar&foo=baz"},
		{"/plain", "foo=bar", "https://www.example.com/something?page=1"},
	}
	for _, tc := range cases {
		o := svc.Decide(context.Background(), tc.path, tc.query, "", "")
		if o.Location != tc.want {
			t.Fatalf("%s?%s -> %q; want %q", tc.path, tc.query, o.Location, tc.want)
		}
	}
}

func TestForwardQuery_Edges(t *testing.T) {
	cases := []struct {
		target, query, want string
	}{
		{"https://e.com/#frag", "a=1", "https://e.com/?a=1#frag"},
		{"https://e.com/?x=1", "a=%20b&&x=2", "https://e.com/?x=1&a=%20b"},
		{"https://e.com/?q%5B%5D=1", "q[]=2", "https://e.com/?q%5B%5D=1"},
		{"https://e.com/", "flag", "https://e.com/?flag"},
		{"::not a url", "a=1", "::not a url"},
	}
	for _, tc := range cases {
		if got := ForwardQuery(tc.target, tc.query); got != tc.want {
			t.Fatalf("ForwardQuery(%q, %q) = %q; want %q", tc.target, tc.query, got, tc.want)
		}
	}
}
