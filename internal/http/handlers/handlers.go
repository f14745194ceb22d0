// Package handlers wires HTTP endpoints to the application services.
//
// Two surfaces live here:
//   - the redirect path (Redirect), mounted as the router's NoRoute fallback
//     for GET and HEAD, answering with 307/308 or a small HTML page;
//   - the admin JSON API for destinations and aliases under the API base path.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/http/middleware"
	"github.com/tbourn/go-redirect-service/internal/services"
	"github.com/tbourn/go-redirect-service/internal/utils"
)

//
// Service contracts (context-aware)
//

// RedirectService decides the response for a request on the redirect path.
type RedirectService interface {
	// Decide never fails; errors are reported through the outcome.
	Decide(ctx context.Context, rawPath, rawQuery, clientIP, userAgent string) services.Outcome
}

// DestinationService defines destination administration consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DestinationService interface {
	Create(ctx context.Context, userID string, in services.CreateDestinationInput) (*domain.Destination, error)
	Get(ctx context.Context, userID, id string) (*domain.Destination, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Destination, int64, error)
	Update(ctx context.Context, userID, id string, in services.UpdateDestinationInput) (*domain.Destination, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID, id string) (*services.HitSummary, error)
}

// AliasService defines alias administration consumed by HTTP handlers.
type AliasService interface {
	Create(ctx context.Context, userID, destinationID, slug string) (*domain.Alias, error)
	List(ctx context.Context, userID, destinationID string) ([]domain.Alias, error)
	Delete(ctx context.Context, userID, destinationID, aliasID string) error
}

// IdempotencyRecorder stores the resource created under an Idempotency-Key so
// that middleware.IdempotencyValidator can detect replays.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Handlers groups the redirect endpoint and the admin endpoints. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	redirect RedirectService
	dests    DestinationService
	aliases  AliasService
	idem     IdempotencyRecorder
}

// New constructs and returns a Handlers instance bound to the given services.
// idem may be nil, which disables recording of idempotent creates.
func New(redirect RedirectService, dests DestinationService, aliases AliasService, idem IdempotencyRecorder) *Handlers {
	return &Handlers{redirect: redirect, dests: dests, aliases: aliases, idem: idem}
}

// userID resolves the caller that owns admin writes.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		maxPageSize,
	)
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
