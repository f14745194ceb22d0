// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Alias
// model. Aliases follow the same soft-delete and error conventions as
// destinations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// CreateAlias inserts a with a fresh UUID and UTC timestamps.
// It returns ErrDuplicate when the slug is already taken.
func CreateAlias(ctx context.Context, db *gorm.DB, a *domain.Alias) (*domain.Alias, error) {
	now := time.Now().UTC()
	row := *a
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.DeletedAt = nil
	if err := db.WithContext(ctx).Omit("Destination").Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &row, nil
}

// FindAliasBySlug returns the alias with the given slug, deleted or not,
// or ErrNotFound.
func FindAliasBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Alias, error) {
	var a domain.Alias
	if err := db.WithContext(ctx).Where("slug = ?", slug).Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAliases returns the live aliases of a destination, oldest first.
func ListAliases(ctx context.Context, db *gorm.DB, destinationID string) ([]domain.Alias, error) {
	var out []domain.Alias
	err := db.WithContext(ctx).
		Where("destination_id = ? AND deleted_at IS NULL", destinationID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListAliasSlugs returns the slug of every alias of a destination,
// including deleted ones.
func ListAliasSlugs(ctx context.Context, db *gorm.DB, destinationID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Alias{}).
		Where("destination_id = ?", destinationID).
		Pluck("slug", &out).Error
	return out, err
}

// GetAlias fetches a live alias by id within its destination, or ErrNotFound.
func GetAlias(ctx context.Context, db *gorm.DB, id, destinationID string) (*domain.Alias, error) {
	var a domain.Alias
	err := db.WithContext(ctx).
		Where("id = ? AND destination_id = ? AND deleted_at IS NULL", id, destinationID).
		Take(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SoftDeleteAlias stamps deleted_at on a live alias. It returns ErrNotFound
// when no row matched.
func SoftDeleteAlias(ctx context.Context, db *gorm.DB, id, destinationID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Alias{}).
		Where("id = ? AND destination_id = ? AND deleted_at IS NULL", id, destinationID).
		Updates(map[string]any{"deleted_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
