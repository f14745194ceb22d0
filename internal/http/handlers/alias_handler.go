// Alias HTTP handlers.
//
// This file exposes REST endpoints for the aliases of a destination:
//   - POST   /destinations/{id}/aliases             (create)
//   - GET    /destinations/{id}/aliases             (list live aliases)
//   - DELETE /destinations/{id}/aliases/{alias_id}  (soft delete)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

// CreateAliasRequest is the JSON payload for creating an alias.
type CreateAliasRequest struct {
	// Slug is the alternative path; same rules as destination slugs.
	Slug string `json:"slug" binding:"required" example:"intro"`
}

// ListAliasesResponse wraps the aliases of one destination.
type ListAliasesResponse struct {
	Aliases []domain.Alias `json:"aliases"`
}

// CreateAlias godoc
// @ID          createAlias
// @Summary     Add an alias to a destination
// @Description Registers an alternative slug that redirects to the destination. Alias slugs share the namespace of destination slugs.
// @Tags        Aliases
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
// @Param       body       body    handlers.CreateAliasRequest  true  "Alias payload"
//
// @Success     201  {object} domain.Alias
// @Failure     400  {object} handlers.ErrorResponse "Invalid slug"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Failure     409  {object} handlers.ErrorResponse "Slug in use"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id}/aliases [post]
func (h *Handlers) CreateAlias(c *gin.Context) {
	destID, valid := validID(c, "id")
	if !valid {
		return
	}
	var req CreateAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug required")
		return
	}

	a, err := h.aliases.Create(c.Request.Context(), userID(c), destID, req.Slug)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListAliases godoc
// @ID          listAliases
// @Summary     List the aliases of a destination
// @Tags        Aliases
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ListAliasesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Destination not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id}/aliases [get]
func (h *Handlers) ListAliases(c *gin.Context) {
	destID, valid := validID(c, "id")
	if !valid {
		return
	}
	items, err := h.aliases.List(c.Request.Context(), userID(c), destID)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Alias{}
	}
	ok(c, http.StatusOK, ListAliasesResponse{Aliases: items})
}

// DeleteAlias godoc
// @ID          deleteAlias
// @Summary     Delete an alias
// @Description Soft-deletes an alias. Its slug then answers 410 Gone and stays reserved.
// @Tags        Aliases
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Destination ID (UUID)"  format(uuid)
// @Param       alias_id   path    string  true  "Alias ID (UUID)"        format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Destination or alias not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /destinations/{id}/aliases/{alias_id} [delete]
func (h *Handlers) DeleteAlias(c *gin.Context) {
	destID, valid := validID(c, "id")
	if !valid {
		return
	}
	aliasID, valid := validID(c, "alias_id")
	if !valid {
		return
	}
	if err := h.aliases.Delete(c.Request.Context(), userID(c), destID, aliasID); err != nil {
		failService(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
