// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over recorded
// hits, used by the admin stats endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// HitStats returns the number of hits recorded for a destination (through
// its slug or any alias) and the time of the latest one.
//
// Return values:
//   - count:   total hits for destinationID
//   - lastHit: pointer to the greatest CreatedAt, or nil if no rows
//   - err:     database error, if any
func HitStats(ctx context.Context, db *gorm.DB, destinationID string) (count int64, lastHit *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Hit{}).Where("destination_id = ?", destinationID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Hit{}).
		Where("destination_id = ?", destinationID).
		Select("created_at").Order("created_at DESC").Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
