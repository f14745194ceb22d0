// Package services – AliasService
//
// This file implements alias administration: creating, listing and soft
// deleting alternative slugs for a destination. Alias slugs share one
// namespace with destination slugs.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/repo"
)

// AliasRepo defines the repository contract required by AliasService.
type AliasRepo interface {
	// GetDestination fetches a live destination owned by userID.
	GetDestination(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Destination, error)

	// CreateAlias inserts an alias; repo.ErrDuplicate on slug collision.
	CreateAlias(ctx context.Context, db *gorm.DB, a *domain.Alias) (*domain.Alias, error)

	// ListAliases returns the live aliases of a destination.
	ListAliases(ctx context.Context, db *gorm.DB, destinationID string) ([]domain.Alias, error)

	// GetAlias fetches a live alias within its destination.
	GetAlias(ctx context.Context, db *gorm.DB, id, destinationID string) (*domain.Alias, error)

	// SoftDeleteAlias marks a live alias deleted.
	SoftDeleteAlias(ctx context.Context, db *gorm.DB, id, destinationID string, at time.Time) error
}

// AliasService provides alias administration.
type AliasService struct {
	DB    *gorm.DB
	Repo  AliasRepo
	Store ResolutionStore
	Cache Invalidator
	Now   func() time.Time
}

// NewAliasService constructs an AliasService.
func NewAliasService(db *gorm.DB, r AliasRepo, store ResolutionStore, cache Invalidator) *AliasService {
	return &AliasService{DB: db, Repo: r, Store: store, Cache: cache, Now: time.Now}
}

// Create adds an alias slug to a live destination owned by userID.
func (s *AliasService) Create(ctx context.Context, userID, destinationID, slug string) (*domain.Alias, error) {
	if err := s.ensureDestination(ctx, userID, destinationID); err != nil {
		return nil, err
	}
	slug, err := ValidateSlug(slug)
	if err != nil {
		return nil, err
	}

	var a *domain.Alias
	err = claimSlug(ctx, s.Store, slug, func() (err error) {
		a, err = s.Repo.CreateAlias(ctx, s.DB, &domain.Alias{
			UserID:        userID,
			Slug:          slug,
			DestinationID: destinationID,
		})
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, &SlugConflictError{Slug: slug, Kind: "alias"}
	}
	if err != nil {
		return nil, err
	}

	invalidate(s.Cache, slug)
	return a, nil
}

// List returns the live aliases of a destination owned by userID.
func (s *AliasService) List(ctx context.Context, userID, destinationID string) ([]domain.Alias, error) {
	if err := s.ensureDestination(ctx, userID, destinationID); err != nil {
		return nil, err
	}
	items, err := s.Repo.ListAliases(ctx, s.DB, destinationID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Alias{}
	}
	return items, nil
}

// Delete soft-deletes an alias. Afterwards its slug resolves to 410.
func (s *AliasService) Delete(ctx context.Context, userID, destinationID, aliasID string) error {
	if err := s.ensureDestination(ctx, userID, destinationID); err != nil {
		return err
	}
	a, err := s.Repo.GetAlias(ctx, s.DB, aliasID, destinationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAliasNotFound
	}
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	if s.Now != nil {
		at = s.Now().UTC()
	}
	if err := s.Repo.SoftDeleteAlias(ctx, s.DB, aliasID, destinationID, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAliasNotFound
		}
		return err
	}

	invalidate(s.Cache, a.Slug)
	return nil
}

func (s *AliasService) ensureDestination(ctx context.Context, userID, destinationID string) error {
	_, err := s.Repo.GetDestination(ctx, s.DB, destinationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDestinationNotFound
	}
	return err
}
