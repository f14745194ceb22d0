// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key handling for destination creation.
// IdempotencyValidator checks the header, asks a lookup whether the same
// (user, scope, key) already created a destination, and records the answer
// in the Gin context. Handlers read it back with GetIdempotencyKey, IsReplay
// and ReplayResourceID; recording a fresh create is left to the handler.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	// ctxKeyIdempotency holds the idempotency state of the request.
	ctxKeyIdempotency = "idempotency"
	// ctxKeyUserID is set by upstream authentication, when there is one.
	ctxKeyUserID = "userID"
	// headerUserID identifies the caller when no authentication ran.
	headerUserID = "X-User-ID"
	// anonymousUser owns writes made without any identity.
	anonymousUser = "demo-user"

	defaultKeyMaxLen = 200
)

// defaultKeyPattern accepts token characters plus a few common separators.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// idempotencyState is what the validator learned about one request. A
// non-empty resourceID marks a replay.
type idempotencyState struct {
	key        string
	resourceID string
}

func stateFrom(c *gin.Context) idempotencyState {
	v, _ := c.Get(ctxKeyIdempotency)
	st, _ := v.(idempotencyState)
	return st
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	st := stateFrom(c)
	return st.key, st.key != ""
}

// IsReplay reports whether the key was already used to create a resource.
func IsReplay(c *gin.Context) bool { return stateFrom(c).resourceID != "" }

// ReplayResourceID returns the ID of the destination the first request
// created. ok is false unless the request is a replay.
func ReplayResourceID(c *gin.Context) (id string, ok bool) {
	id = stateFrom(c).resourceID
	return id, id != ""
}

// UserID resolves the caller: the "userID" context value set by
// authentication, then the X-User-ID header, then "demo-user".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(headerUserID)); h != "" {
			return h
		}
	}
	return anonymousUser
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 mean 200.
	MaxLen int
	// Pattern restricts the key alphabet. Nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope names what the request writes to. Nil means the matched route
	// pattern (c.FullPath()).
	Scope func(c *gin.Context) string
}

// IdempotencyLookup reports the resource a still-valid record for
// (userID, scope, key) points to. Expiry is the lookup's business; now is
// passed so every caller agrees on the clock. Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID string, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header and marks
// replays.
//
// Without the header the request passes through untouched. A key that is
// too long or uses characters outside the pattern is rejected with 400
// "bad_idempotency_key". Otherwise the key is stored for the handler, and a
// lookup hit marks the request as a replay of the stored resource. Lookup
// failures are logged and the request proceeds as a first attempt.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultKeyMaxLen
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultKeyPattern
	}
	scopeOf := opts.Scope
	if scopeOf == nil {
		scopeOf = (*gin.Context).FullPath
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		st := idempotencyState{key: key}
		if lookup != nil {
			id, exists, err := lookup(c.Request.Context(), UserID(c), scopeOf(c), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case exists:
				st.resourceID = id
			}
		}
		c.Set(ctxKeyIdempotency, st)
		c.Next()
	}
}
