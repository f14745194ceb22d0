// Package services – DestinationService
//
// This file implements the administrative use-cases for destinations:
// create, read, paginated listing, update, soft delete and hit statistics.
// It validates slugs and URLs, detects slug conflicts across destinations
// and aliases, protects permanent destinations from change, and invalidates
// the slug cache after each committed write.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/repo"
)

// DestinationRepo defines the repository contract required by
// DestinationService.
type DestinationRepo interface {
	// CreateDestination inserts a destination; repo.ErrDuplicate on slug collision.
	CreateDestination(ctx context.Context, db *gorm.DB, d *domain.Destination) (*domain.Destination, error)

	// GetDestination fetches a live destination owned by userID.
	GetDestination(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Destination, error)

	// CountDestinations returns the number of live destinations for pagination.
	CountDestinations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListDestinationsPage returns a page of live destinations.
	ListDestinationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Destination, error)

	// UpdateDestination applies a partial update to a live destination.
	UpdateDestination(ctx context.Context, db *gorm.DB, id, userID string, p repo.DestinationPatch) error

	// SoftDeleteDestination marks a live destination deleted.
	SoftDeleteDestination(ctx context.Context, db *gorm.DB, id, userID string, at time.Time) error

	// ListAliasSlugs returns every alias slug of a destination, deleted included.
	ListAliasSlugs(ctx context.Context, db *gorm.DB, destinationID string) ([]string, error)

	// HitStats returns the hit count and latest hit time of a destination.
	HitStats(ctx context.Context, db *gorm.DB, destinationID string) (int64, *time.Time, error)
}

// CreateDestinationInput carries the fields of a new destination.
type CreateDestinationInput struct {
	Slug                   string
	URL                    string
	IsPermanent            bool
	ForwardQueryParameters bool
}

// UpdateDestinationInput carries a partial update; nil fields are unchanged.
type UpdateDestinationInput struct {
	URL                    *string
	IsPermanent            *bool
	ForwardQueryParameters *bool
}

// HitSummary aggregates the hits of one destination.
type HitSummary struct {
	DestinationID string     `json:"destination_id"`
	Hits          int64      `json:"hits"`
	LastHitAt     *time.Time `json:"last_hit_at,omitempty"`
}

// DestinationService provides destination administration.
type DestinationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the destination repository used by this service.
	Repo DestinationRepo
	// Store answers slug conflict lookups.
	Store ResolutionStore
	// Cache is invalidated after every committed write.
	Cache Invalidator
	// Now returns the soft-delete timestamp; defaults to time.Now.
	Now func() time.Time
}

// NewDestinationService constructs a DestinationService.
func NewDestinationService(db *gorm.DB, r DestinationRepo, store ResolutionStore, cache Invalidator) *DestinationService {
	return &DestinationService{DB: db, Repo: r, Store: store, Cache: cache, Now: time.Now}
}

// Create validates in and inserts a destination owned by userID.
//
// Errors: wrapped ErrInvalidSlug, ErrInvalidURL, *SlugConflictError, or the
// underlying DB error.
func (s *DestinationService) Create(ctx context.Context, userID string, in CreateDestinationInput) (*domain.Destination, error) {
	slug, err := ValidateSlug(in.Slug)
	if err != nil {
		return nil, err
	}
	target, err := validateURL(in.URL)
	if err != nil {
		return nil, err
	}

	var d *domain.Destination
	err = claimSlug(ctx, s.Store, slug, func() (err error) {
		d, err = s.Repo.CreateDestination(ctx, s.DB, &domain.Destination{
			UserID:                 userID,
			Slug:                   slug,
			URL:                    target,
			IsPermanent:            in.IsPermanent,
			ForwardQueryParameters: in.ForwardQueryParameters,
		})
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, &SlugConflictError{Slug: slug, Kind: "destination"}
	}
	if err != nil {
		return nil, err
	}

	// A negative entry may be cached for the slug.
	invalidate(s.Cache, slug)
	return d, nil
}

// Get returns a live destination owned by userID.
func (s *DestinationService) Get(ctx context.Context, userID, id string) (*domain.Destination, error) {
	d, err := s.Repo.GetDestination(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDestinationNotFound
	}
	return d, err
}

// ListPage returns a page of live destinations for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *DestinationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Destination, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountDestinations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Destination{}, 0, nil
	}

	items, err := s.Repo.ListDestinationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Update applies in to a live, non-permanent destination and returns the
// updated row. The destination's slug and every alias slug are invalidated,
// since alias resolutions embed the destination.
func (s *DestinationService) Update(ctx context.Context, userID, id string, in UpdateDestinationInput) (*domain.Destination, error) {
	if in.URL == nil && in.IsPermanent == nil && in.ForwardQueryParameters == nil {
		return nil, ErrNothingToUpdate
	}
	patch := repo.DestinationPatch{IsPermanent: in.IsPermanent, ForwardQueryParameters: in.ForwardQueryParameters}
	if in.URL != nil {
		target, err := validateURL(*in.URL)
		if err != nil {
			return nil, err
		}
		patch.URL = &target
	}

	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d.IsPermanent {
		return nil, ErrPermanentDestination
	}
	affected, err := s.affectedSlugs(ctx, d)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateDestination(ctx, s.DB, id, userID, patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDestinationNotFound
		}
		return nil, err
	}
	invalidate(s.Cache, affected...)
	return s.Get(ctx, userID, id)
}

// Delete soft-deletes a live, non-permanent destination. Afterwards its slug
// and every alias slug resolve to 410.
func (s *DestinationService) Delete(ctx context.Context, userID, id string) error {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if d.IsPermanent {
		return ErrPermanentDestination
	}
	affected, err := s.affectedSlugs(ctx, d)
	if err != nil {
		return err
	}

	if err := s.Repo.SoftDeleteDestination(ctx, s.DB, id, userID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDestinationNotFound
		}
		return err
	}
	invalidate(s.Cache, affected...)
	return nil
}

// Stats returns hit statistics for a destination owned by userID.
func (s *DestinationService) Stats(ctx context.Context, userID, id string) (*HitSummary, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	count, last, err := s.Repo.HitStats(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return &HitSummary{DestinationID: id, Hits: count, LastHitAt: last}, nil
}

// affectedSlugs lists every slug whose resolution embeds d. It runs before
// the write so a failed listing leaves nothing committed and nothing stale.
func (s *DestinationService) affectedSlugs(ctx context.Context, d *domain.Destination) ([]string, error) {
	aliases, err := s.Repo.ListAliasSlugs(ctx, s.DB, d.ID)
	if err != nil {
		return nil, err
	}
	return append([]string{d.Slug}, aliases...), nil
}

func (s *DestinationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
