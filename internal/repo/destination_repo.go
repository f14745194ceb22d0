// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Destination model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a destination is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A slug collision on insert is reported as ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
//
// Soft delete is an explicit nullable deleted_at column. Slug and ID lookups
// used by the redirect path see deleted rows; the admin listing and the
// owner-scoped getters do not.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// CreateDestination inserts d with a fresh UUID and UTC timestamps.
// It returns ErrDuplicate when the slug is already taken.
func CreateDestination(ctx context.Context, db *gorm.DB, d *domain.Destination) (*domain.Destination, error) {
	now := time.Now().UTC()
	row := *d
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.DeletedAt = nil
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &row, nil
}

// FindDestinationBySlug returns the destination with the given slug,
// deleted or not, or ErrNotFound.
func FindDestinationBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Destination, error) {
	var d domain.Destination
	if err := db.WithContext(ctx).Where("slug = ?", slug).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDestinationByID returns the destination with the given id, deleted or
// not, or ErrNotFound.
func FindDestinationByID(ctx context.Context, db *gorm.DB, id string) (*domain.Destination, error) {
	var d domain.Destination
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDestination fetches a live destination by id and owner, or ErrNotFound.
func GetDestination(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Destination, error) {
	var d domain.Destination
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		Take(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountDestinations returns the number of live destinations owned by userID.
func CountDestinations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Destination{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Count(&total).Error
	return total, err
}

// ListDestinationsPage returns a page of live destinations owned by userID,
// most recent first. Use CountDestinations for pagination metadata.
func ListDestinationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Destination, error) {
	var out []domain.Destination
	err := db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DestinationPatch lists the mutable destination fields; nil leaves a field
// unchanged.
type DestinationPatch struct {
	URL                    *string
	IsPermanent            *bool
	ForwardQueryParameters *bool
}

// UpdateDestination applies p to the live destination id owned by userID.
// It returns ErrNotFound when no row matched.
func UpdateDestination(ctx context.Context, db *gorm.DB, id, userID string, p DestinationPatch) error {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if p.URL != nil {
		fields["url"] = *p.URL
	}
	if p.IsPermanent != nil {
		fields["is_permanent"] = *p.IsPermanent
	}
	if p.ForwardQueryParameters != nil {
		fields["forward_query_parameters"] = *p.ForwardQueryParameters
	}
	res := db.WithContext(ctx).
		Model(&domain.Destination{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteDestination stamps deleted_at on the live destination id owned
// by userID. It returns ErrNotFound when no row matched.
func SoftDeleteDestination(ctx context.Context, db *gorm.DB, id, userID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Destination{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		Updates(map[string]any{"deleted_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
