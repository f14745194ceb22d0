// Destination HTTP handlers.
//
// This file exposes REST endpoints for destination resources:
//   - POST   /destinations              (create, Idempotency-Key aware)
//   - GET    /destinations              (list, paginated)
//   - GET    /destinations/{id}         (read)
//   - PATCH  /destinations/{id}         (partial update)
//   - DELETE /destinations/{id}         (soft delete)
//   - GET    /destinations/{id}/stats   (hit statistics)
//
// Every successful write invalidates the slug cache before the response is
// sent, so the next redirect observes it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/http/middleware"
	"github.com/tbourn/go-redirect-service/internal/services"
)

//
// DTOs
//

// CreateDestinationRequest is the JSON payload for creating a destination.
type CreateDestinationRequest struct {
	// Slug is the path the destination answers on; leading and trailing
	// slashes are trimmed. The empty slug maps the bare root.
	Slug string `json:"slug" example:"docs/intro"`
	// URL is the absolute redirect target.
	URL string `json:"url" binding:"required" example:"https://example.com/docs/intro"`
	// IsPermanent answers 308 instead of 307 and freezes the destination.
	IsPermanent bool `json:"is_permanent" example:"false"`
	// ForwardQueryParameters merges the request query into the target.
	ForwardQueryParameters bool `json:"forward_query_parameters" example:"true"`
}

// UpdateDestinationRequest is the JSON payload for a partial update. Absent
// fields are left unchanged.
type UpdateDestinationRequest struct {
	URL                    *string `json:"url,omitempty" example:"https://example.com/docs/v2"`
	IsPermanent            *bool   `json:"is_permanent,omitempty" example:"false"`
	ForwardQueryParameters *bool   `json:"forward_query_parameters,omitempty" example:"true"`
}

// ListDestinationsResponse wraps a page of destinations and pagination information.
type ListDestinationsResponse struct {
	Destinations []domain.Destination `json:"destinations"`
	Pagination   Pagination           `json:"pagination"`
}

// validID checks a path id is a UUID.
func validID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateDestination godoc
// @ID          createDestination
// @Summary     Create a destination
// @Description Creates a slug → URL mapping for the current user. Slugs are unique across destinations and aliases, including deleted ones. Supports idempotent retries via the Idempotency-Key header.
// @Tags        Destinations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateDestinationRequest  true  "Create destination payload"
//
// @Success     201  {object}  domain.Destination
// @Header      201  {string}  Idempotency-Replayed  "true when the response replays an earlier create"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid slug or URL"
// @Failure     409  {object}  handlers.ErrorResponse  "Slug in use"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /destinations [post]
func (h *Handlers) CreateDestination(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Replay path: serve the destination the first request created.
	if id, replay := middleware.ReplayResourceID(c); replay {
		if d, err := h.dests.Get(ctx, uid, id); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusCreated, d)
			return
		}
	}

	var req CreateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	d, err := h.dests.Create(ctx, uid, services.CreateDestinationInput{
		Slug:                   req.Slug,
		URL:                    req.URL,
		IsPermanent:            req.IsPermanent,
		ForwardQueryParameters: req.ForwardQueryParameters,
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}

	h.remember(c, uid, d.ID, http.StatusCreated)
	ok(c, http.StatusCreated, d)
}

// ListDestinations godoc
// @ID          listDestinations
// @Summary     List destinations (paginated)
// @Description Returns a page of the user's live destinations, newest first.
// @Tags        Destinations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDestinationsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations [get]
func (h *Handlers) ListDestinations(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.dests.ListPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Destination{}
	}

	ok(c, http.StatusOK, ListDestinationsResponse{
		Destinations: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}

// GetDestination godoc
// @ID          getDestination
// @Summary     Get a destination
// @Tags        Destinations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Destination
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Router      /destinations/{id} [get]
func (h *Handlers) GetDestination(c *gin.Context) {
	id, valid := validID(c, "id")
	if !valid {
		return
	}
	d, err := h.dests.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateDestination godoc
// @ID          updateDestination
// @Summary     Update a destination
// @Description Partially updates a destination. Permanent destinations can not be updated. The slug is immutable.
// @Tags        Destinations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateDestinationRequest  true  "Fields to change"
//
// @Success     200  {object} domain.Destination
// @Failure     400  {object} handlers.ErrorResponse "Invalid input or permanent destination"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id} [patch]
func (h *Handlers) UpdateDestination(c *gin.Context) {
	id, valid := validID(c, "id")
	if !valid {
		return
	}
	var req UpdateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	d, err := h.dests.Update(c.Request.Context(), userID(c), id, services.UpdateDestinationInput{
		URL:                    req.URL,
		IsPermanent:            req.IsPermanent,
		ForwardQueryParameters: req.ForwardQueryParameters,
	})
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDestination godoc
// @ID          deleteDestination
// @Summary     Delete a destination
// @Description Soft-deletes a destination. Its slug and every alias slug then answer 410 Gone and stay reserved.
// @Tags        Destinations
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Permanent destination"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id} [delete]
func (h *Handlers) DeleteDestination(c *gin.Context) {
	id, valid := validID(c, "id")
	if !valid {
		return
	}
	if err := h.dests.Delete(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

// DestinationStats godoc
// @ID          destinationStats
// @Summary     Hit statistics of a destination
// @Description Returns the number of recorded hits and the time of the latest one. Hits are written asynchronously, so very recent ones may be missing.
// @Tags        Destinations
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
//
// @Success     200  {object} services.HitSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id}/stats [get]
func (h *Handlers) DestinationStats(c *gin.Context) {
	id, valid := validID(c, "id")
	if !valid {
		return
	}
	st, err := h.dests.Stats(c.Request.Context(), userID(c), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, st)
}

// remember records an idempotent create, best effort.
func (h *Handlers) remember(c *gin.Context, uid, resourceID string, status int) {
	key, present := middleware.GetIdempotencyKey(c)
	if !present || h.idem == nil {
		return
	}
	if err := h.idem.Remember(c.Request.Context(), uid, c.FullPath(), key, resourceID, status); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Str("idempotency_key", key).Msg("failed to record idempotency key")
	}
}
