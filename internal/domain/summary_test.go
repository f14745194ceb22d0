package domain

import (
	"testing"
	"time"
)

func TestSummaryKind_String(t *testing.T) {
	cases := map[SummaryKind]string{
		DestinationFound: "destination_found",
		DestinationGone:  "destination_gone",
		AliasFound:       "alias_found",
		AliasGone:        "alias_gone",
		SummaryKind(0):   "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("SummaryKind(%d).String() = %q; want %q", k, got, want)
		}
	}
}

func TestSummary_Constructors(t *testing.T) {
	now := time.Now().UTC()
	d := Destination{ID: "d1", Slug: "docs", URL: "https://example.com/"}
	a := Alias{ID: "a1", Slug: "d", DestinationID: "d1"}

	s := NewDestinationFound(d)
	if s.Kind != DestinationFound || s.Alias != nil || s.IsGone() || s.AliasID() != nil {
		t.Fatalf("unexpected DestinationFound summary: %+v", s)
	}

	s = NewAliasFound(a, d)
	if s.Kind != AliasFound || s.IsGone() {
		t.Fatalf("unexpected AliasFound summary: %+v", s)
	}
	if id := s.AliasID(); id == nil || *id != "a1" {
		t.Fatalf("AliasID = %v; want a1", id)
	}

	a.DeletedAt = &now
	s = NewAliasGone(a, d)
	if s.Kind != AliasGone || !s.IsGone() {
		t.Fatalf("unexpected AliasGone summary: %+v", s)
	}

	d.DeletedAt = &now
	s = NewDestinationGone(d, nil)
	if s.Kind != DestinationGone || !s.IsGone() || s.AliasID() != nil {
		t.Fatalf("unexpected DestinationGone summary: %+v", s)
	}
	s = NewDestinationGone(d, &a)
	if id := s.AliasID(); id == nil || *id != "a1" {
		t.Fatalf("DestinationGone via alias should carry alias id, got %v", id)
	}
}

func TestSummary_SnapshotIsCopied(t *testing.T) {
	d := Destination{ID: "d1", URL: "https://example.com/"}
	a := Alias{ID: "a1"}
	s := NewAliasFound(a, d)
	d.URL = "https://changed.example/"
	a.ID = "changed"
	if s.Destination.URL != "https://example.com/" || s.Alias.ID != "a1" {
		t.Fatalf("summary should hold copies, got %+v / %+v", s.Destination, s.Alias)
	}
}
