package services

import (
	"context"
	"fmt"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// ResolutionStore is the point-lookup contract the redirect path needs from
// durable storage. Every lookup ignores soft delete and returns (nil, nil)
// when nothing matches.
type ResolutionStore interface {
	FindDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error)
	FindDestinationByID(ctx context.Context, id string) (*domain.Destination, error)
	FindAliasBySlug(ctx context.Context, slug string) (*domain.Alias, error)
}

// FetchSummary resolves slug against the store.
//
// Destinations are consulted first. When the slug names an alias, its
// destination's deletion dominates: a deleted destination yields
// DestinationGone even when the alias is live, and only a deleted alias of a
// live destination yields AliasGone. A nil summary means no match.
func FetchSummary(ctx context.Context, store ResolutionStore, slug string) (*domain.Summary, error) {
	dest, err := store.FindDestinationBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find destination by slug: %w", err)
	}
	if dest != nil {
		if dest.IsDeleted() {
			return domain.NewDestinationGone(*dest, nil), nil
		}
		return domain.NewDestinationFound(*dest), nil
	}

	alias, err := store.FindAliasBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find alias by slug: %w", err)
	}
	if alias == nil {
		return nil, nil
	}

	dest, err = store.FindDestinationByID(ctx, alias.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("find destination of alias: %w", err)
	}
	if dest == nil {
		return nil, fmt.Errorf("alias %s references missing destination %s", alias.ID, alias.DestinationID)
	}

	switch {
	case dest.IsDeleted():
		a := *alias
		return domain.NewDestinationGone(*dest, &a), nil
	case alias.IsDeleted():
		return domain.NewAliasGone(*alias, *dest), nil
	default:
		return domain.NewAliasFound(*alias, *dest), nil
	}
}
