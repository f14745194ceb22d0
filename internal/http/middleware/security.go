// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The router installs it twice: once for
// every response, and once with DefaultErrorPageCSP in front of the redirect
// fallback so the HTML error pages get a locked-down policy. Redirect targets
// see the Referrer-Policy of the redirecting response, which defaults to
// "no-referrer".
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultErrorPageCSP locks the HTML error pages down to inline styles.
const DefaultErrorPageCSP = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'"

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only. Turn
	// it on only when traffic is HTTPS end-to-end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when not positive.
	HSTSMaxAge time.Duration
	// NoStore disables caching (Cache-Control, Pragma, Expires).
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ReferrerPolicy overrides "no-referrer".
	ReferrerPolicy string
	// ContentSecurityPolicy is sent verbatim when set.
	ContentSecurityPolicy string
}

// SecurityHeaders returns a middleware that sets a fixed set of hardening
// headers before the rest of the chain runs.
//
// X-Content-Type-Options, X-Frame-Options and Referrer-Policy are always
// sent; the others follow SecurityOptions. When the response already carries
// X-Request-ID, it is added to Access-Control-Expose-Headers without
// dropping what CORS put there.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := staticSecurityHeaders(opt)

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range static {
			h[k] = append([]string(nil), v...)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		c.Next()
	}
}

func staticSecurityHeaders(opt SecurityOptions) http.Header {
	referrer := opt.ReferrerPolicy
	if referrer == "" {
		referrer = "no-referrer"
	}
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", referrer)
	if opt.ContentSecurityPolicy != "" {
		h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
	}
	if opt.EnablePolicy {
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
	}
	if opt.NoStore {
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	}
	return h
}

// exposeHeader appends name to Access-Control-Expose-Headers unless it is
// already listed (case-insensitive).
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, name)
		return
	}
	for _, tok := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), name) {
			return
		}
	}
	h.Set(key, cur+", "+name)
}

// isHTTPS reports whether the request arrived over TLS, directly or through
// a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
