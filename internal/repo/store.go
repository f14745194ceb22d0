package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// Store adapts the repository functions to the point-lookup contract used
// by the redirect path. Lookups ignore soft delete and report absence as
// (nil, nil) rather than ErrNotFound.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// FindDestinationBySlug implements services.ResolutionStore.
func (s *Store) FindDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	return absentAsNil(FindDestinationBySlug(ctx, s.DB, slug))
}

// FindDestinationByID implements services.ResolutionStore.
func (s *Store) FindDestinationByID(ctx context.Context, id string) (*domain.Destination, error) {
	return absentAsNil(FindDestinationByID(ctx, s.DB, id))
}

// FindAliasBySlug implements services.ResolutionStore.
func (s *Store) FindAliasBySlug(ctx context.Context, slug string) (*domain.Alias, error) {
	return absentAsNil(FindAliasBySlug(ctx, s.DB, slug))
}

// RecordHit implements hits.Recorder.
func (s *Store) RecordHit(ctx context.Context, h *domain.Hit) error {
	return CreateHit(ctx, s.DB, h)
}

func absentAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
