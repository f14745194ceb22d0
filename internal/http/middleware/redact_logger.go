// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger writes one zerolog line per request. Bodies are never
// logged. Slug paths and forwarded query strings come straight from clients,
// so emails, phone numbers and UUIDs in them are replaced before the line is
// written, and credential headers are masked. This lowers the chance of PII
// in logs; it does not remove it.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders names headers logged as "[REDACTED]" on top of Authorization,
// Cookie and Set-Cookie. Names are case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

// redactor holds the compiled patterns and the header mask set.
type redactor struct {
	uuidRE  *regexp.Regexp
	emailRE *regexp.Regexp
	phoneRE *regexp.Regexp
	masked  map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{
		uuidRE:  regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`),
		emailRE: regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`),
		// Digits only, so UUID hex groups stay out; "212 555 1212", "(212) 555-1212".
		phoneRE: regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`),
		masked: map[string]struct{}{
			"authorization": {},
			"cookie":        {},
			"set-cookie":    {},
		},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// scrub redacts IDs, then emails, then phone numbers (the loosest pattern).
// UUIDs go first so the phone pattern cannot match their digit groups.
func (r *redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	out := r.uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = r.emailRE.ReplaceAllString(out, "[REDACTED:email]")
	return r.phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
}

// headers flattens h with masked and scrubbed values.
func (r *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.scrub(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger logs each request as "http_request" and leaves a
// request-scoped logger under "logger" for LoggerFrom. The path field is the
// route pattern, or the scrubbed raw path on the redirect fallback. 4xx logs
// at warn; 5xx or attached gin errors log at error.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	red := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = red.scrub(c.Request.URL.Path)
		}
		safeQuery := truncate(red.scrub(c.Request.URL.RawQuery), maxQueryLogLength)
		safeHeaders := red.headers(c.Request.Header)

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		uid, _ := c.Get("userID")

		l := log.With().
			Str("request_id", reqID).
			Str("user_id", asString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set("logger", &l)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
