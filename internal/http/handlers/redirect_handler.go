// Redirect HTTP handler.
//
// Every request no other route claims lands here. GET and HEAD are resolved
// through the redirect service; anything else is answered with 405.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-redirect-service/internal/http/middleware"
)

// Redirect answers a request on the redirect path.
//
// Outcomes:
//   - 307 / 308 with Location for live destinations and aliases
//   - 410 for deleted destinations and aliases
//   - 404 for unknown slugs
//   - 400 when the path does not decode to valid UTF-8
//   - 500 when the store failed; the cause is logged, never shown
//
// The response never waits for the hit to be written.
func (h *Handlers) Redirect(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
		return
	}

	o := h.redirect.Decide(
		c.Request.Context(),
		c.Request.URL.EscapedPath(),
		c.Request.URL.RawQuery,
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	middleware.ObserveRedirect(o.Status)

	if o.Err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(o.Err).
			Str("slug", o.Slug).
			Int("status", o.Status).
			Msg("redirect lookup failed")
	}

	if o.IsRedirect() {
		c.Redirect(o.Status, o.Location)
		return
	}
	errorPage(c, o.Status, o.Message)
}
