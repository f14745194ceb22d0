// Package handlers holds the Gin handlers for the redirect path and the
// admin API.
//
// Admin endpoints answer errors with ErrorResponse and a stable code from
// errors.go; 5xx responses are logged with the request's logger and their
// cause never reaches the client. The redirect path answers with small HTML
// pages instead (errorPage).
//
//	HTTP/1.1 409 Conflict
//	{"request_id":"4f0c…","code":"slug_in_use","message":"slug \"/docs\" is already used by alias"}
package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/tbourn/go-redirect-service/internal/http/middleware"
	"github.com/tbourn/go-redirect-service/internal/services"
)

// ErrorResponse is the JSON error envelope of the admin API.
type ErrorResponse struct {
	// Echo of X-Request-ID.
	RequestID string `json:"request_id,omitempty" example:"4f0c2a8e-1d2b-4c47-9a55-0d7c3b9e6f10"`
	Code      string `json:"code" example:"slug_in_use"`
	Message   string `json:"message" example:"slug \"/docs\" is already used by alias"`
}

// fail writes the envelope and aborts. Statuses >= 500 are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router's fallbacks answer with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// failService maps a service error onto the error envelope. Unknown errors
// become a 500 with fallbackCode; their text is logged, never returned.
func failService(c *gin.Context, err error, fallbackCode string) {
	var conflict *services.SlugConflictError
	switch {
	case errors.As(err, &conflict):
		fail(c, http.StatusConflict, ErrCodeSlugInUse, conflict.Error())
	case errors.Is(err, services.ErrInvalidSlug):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlug, err.Error())
	case errors.Is(err, services.ErrInvalidURL):
		fail(c, http.StatusBadRequest, ErrCodeInvalidURL, err.Error())
	case errors.Is(err, services.ErrNothingToUpdate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrPermanentDestination):
		fail(c, http.StatusBadRequest, ErrCodePermanentDestination, "permanent destinations can not be updated or deleted")
	case errors.Is(err, services.ErrDestinationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "destination not found")
	case errors.Is(err, services.ErrAliasNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "alias not found")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, fallbackCode, "internal server error")
	}
}

// errorPages renders the redirect path's error responses. Messages are
// fixed strings chosen by the redirect service; html/template escapes them
// regardless.
var errorPages = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Status}} {{.Title}}</title>
<style>body{font-family:sans-serif;margin:4rem auto;max-width:32rem;color:#222}</style></head>
<body><h1>{{.Status}}</h1><p>{{.Message}}</p></body>
</html>
`))

// errorPage writes an HTML error page and aborts the chain.
func errorPage(c *gin.Context, status int, msg string) {
	c.Render(status, render.HTML{
		Template: errorPages,
		Name:     "error",
		Data: gin.H{
			"Status":  status,
			"Title":   http.StatusText(status),
			"Message": msg,
		},
	})
	c.Abort()
}
