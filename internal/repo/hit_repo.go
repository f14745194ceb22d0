package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// CreateHit appends a hit row. CreatedAt is written as given; an empty ID
// is replaced with a fresh UUID.
func CreateHit(ctx context.Context, db *gorm.DB, h *domain.Hit) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(h).Error
}
