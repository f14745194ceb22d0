package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// lookupCall captures one IdempotencyLookup invocation.
type lookupCall struct {
	userID, scope, key string
	now                time.Time
}

// fakeLookup answers from a fixed map keyed by idempotency key.
type fakeLookup struct {
	known map[string]string
	err   error
	calls []lookupCall
}

func (f *fakeLookup) lookup(_ context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
	f.calls = append(f.calls, lookupCall{userID, scope, key, now})
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.known[key]
	return id, ok, nil
}

// seen is what the create handler observed about the request.
type seen struct {
	key      string
	hasKey   bool
	replay   bool
	resource string
}

func idemEngine(opts IdempotencyOptions, lookup IdempotencyLookup, out *seen) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.POST("/api/v1/destinations", IdempotencyValidator(opts, lookup), func(c *gin.Context) {
		out.key, out.hasKey = GetIdempotencyKey(c)
		out.replay = IsReplay(c)
		out.resource, _ = ReplayResourceID(c)
		c.Status(http.StatusCreated)
	})
	return r
}

func postDestination(r http.Handler, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/destinations", strings.NewReader(`{"slug":"docs","url":"https://example.com"}`))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_WithoutKeySkipsLookup(t *testing.T) {
	fl := &fakeLookup{}
	var got seen
	w := postDestination(idemEngine(IdempotencyOptions{}, fl.lookup, &got), nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	if len(fl.calls) != 0 {
		t.Fatalf("lookup called without a key: %+v", fl.calls)
	}
	if got.hasKey || got.replay || got.resource != "" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	cases := map[string]struct {
		opts IdempotencyOptions
		key  string
	}{
		"too long for default":  {IdempotencyOptions{}, strings.Repeat("k", 201)},
		"too long for custom":   {IdempotencyOptions{MaxLen: 8}, "create-docs"},
		"space":                 {IdempotencyOptions{}, "create docs"},
		"slash":                 {IdempotencyOptions{}, "create/docs"},
		"custom pattern digits": {IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fl := &fakeLookup{}
			var got seen
			w := postDestination(idemEngine(tc.opts, fl.lookup, &got), map[string]string{
				HeaderIdempotencyKey: tc.key,
				requestIDHeader:      "rid-bad-key",
			})

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] != "rid-bad-key" {
				t.Fatalf("body=%v", body)
			}
			if len(fl.calls) != 0 {
				t.Fatalf("lookup called for a rejected key")
			}
		})
	}
}

func TestIdempotencyValidator_AcceptsBoundaryKeys(t *testing.T) {
	for _, key := range []string{strings.Repeat("k", 200), "a.b_c~d-e:f", "550e8400-e29b-41d4-a716-446655440000"} {
		var got seen
		w := postDestination(idemEngine(IdempotencyOptions{}, nil, &got), map[string]string{HeaderIdempotencyKey: key})
		if w.Code != http.StatusCreated {
			t.Fatalf("key %q: status=%d", key, w.Code)
		}
		if !got.hasKey || got.key != key || got.replay {
			t.Fatalf("key %q: state=%+v", key, got)
		}
	}
}

func TestIdempotencyValidator_FirstAttemptAndReplay(t *testing.T) {
	fl := &fakeLookup{known: map[string]string{"retry-1": "d-42"}}
	var got seen
	r := idemEngine(IdempotencyOptions{}, fl.lookup, &got)

	before := time.Now().UTC()
	postDestination(r, map[string]string{HeaderIdempotencyKey: "fresh-1", "X-User-ID": "alice"})
	if !got.hasKey || got.replay || got.resource != "" {
		t.Fatalf("first attempt state=%+v", got)
	}

	postDestination(r, map[string]string{HeaderIdempotencyKey: "retry-1", "X-User-ID": "alice"})
	if !got.replay || got.resource != "d-42" {
		t.Fatalf("replay state=%+v", got)
	}

	if len(fl.calls) != 2 {
		t.Fatalf("lookup calls=%d", len(fl.calls))
	}
	c := fl.calls[1]
	if c.userID != "alice" || c.scope != "/api/v1/destinations" || c.key != "retry-1" {
		t.Fatalf("lookup args=%+v", c)
	}
	if c.now.Before(before) || c.now.Location() != time.UTC {
		t.Fatalf("lookup clock=%v", c.now)
	}
}

func TestIdempotencyValidator_CustomScope(t *testing.T) {
	fl := &fakeLookup{}
	var got seen
	opts := IdempotencyOptions{Scope: func(*gin.Context) string { return "destinations" }}
	postDestination(idemEngine(opts, fl.lookup, &got), map[string]string{HeaderIdempotencyKey: "k1"})

	if len(fl.calls) != 1 || fl.calls[0].scope != "destinations" || fl.calls[0].userID != anonymousUser {
		t.Fatalf("lookup calls=%+v", fl.calls)
	}
}

func TestIdempotencyValidator_LookupErrorIsAMiss(t *testing.T) {
	buf := withCapturedLogger(t)
	fl := &fakeLookup{known: map[string]string{"k1": "d-1"}, err: errors.New("database is locked")}
	var got seen
	w := postDestination(idemEngine(IdempotencyOptions{}, fl.lookup, &got), map[string]string{HeaderIdempotencyKey: "k1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	if got.replay || !got.hasKey {
		t.Fatalf("state=%+v", got)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("lookup failure not logged:\n%s", buf.String())
	}
}

func TestAccessors_WithoutValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/destinations", nil)

	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("key reported without validator")
	}
	if IsReplay(c) {
		t.Fatalf("replay reported without validator")
	}
	if _, ok := ReplayResourceID(c); ok {
		t.Fatalf("resource reported without validator")
	}

	c.Set(ctxKeyIdempotency, "garbage")
	if IsReplay(c) {
		t.Fatalf("foreign context value treated as replay")
	}
}

func TestUserID_Resolution(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := UserID(c); got != anonymousUser {
		t.Fatalf("anonymous = %q", got)
	}
	c.Request.Header.Set(headerUserID, "  bob ")
	if got := UserID(c); got != "bob" {
		t.Fatalf("header = %q", got)
	}
	c.Set(ctxKeyUserID, 7)
	if got := UserID(c); got != "bob" {
		t.Fatalf("non-string context value should be ignored, got %q", got)
	}
	c.Set(ctxKeyUserID, "carol")
	if got := UserID(c); got != "carol" {
		t.Fatalf("context = %q", got)
	}
}
