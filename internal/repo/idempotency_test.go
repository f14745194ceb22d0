package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

const (
	scopeCreateDest  = "/api/v1/destinations"
	scopeCreateAlias = "/api/v1/destinations/:id/aliases"
)

func TestIdempotency_RoundTrip(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	before := time.Now().UTC()
	rec, err := CreateIdempotency(ctx, db, "ops", scopeCreateDest, "retry-1", "d-42", 201, 10*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ResourceID != "d-42" || rec.Status != 201 {
		t.Fatalf("created = %+v", rec)
	}
	if ttl := rec.ExpiresAt.Sub(rec.CreatedAt); ttl != 10*time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	if rec.CreatedAt.Before(before) {
		t.Fatalf("created_at %v before %v", rec.CreatedAt, before)
	}

	got, err := GetIdempotency(ctx, db, "ops", scopeCreateDest, "retry-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.ResourceID != "d-42" {
		t.Fatalf("got %+v; want %+v", got, rec)
	}
}

func TestGetIdempotency_Misses(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "ops", scopeCreateDest, "retry-2", "d-7", 201, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC()

	cases := []struct {
		name             string
		user, scope, key string
		at               time.Time
	}{
		{"blank scope", "ops", "  ", "retry-2", now},
		{"blank key", "ops", scopeCreateDest, "", now},
		{"other route", "ops", scopeCreateAlias, "retry-2", now},
		{"other user", "marketing", scopeCreateDest, "retry-2", now},
		{"unknown key", "ops", scopeCreateDest, "retry-3", now},
		{"expires exactly now", "ops", scopeCreateDest, "retry-2", rec.ExpiresAt},
		{"past expiry", "ops", scopeCreateDest, "retry-2", rec.ExpiresAt.Add(time.Second)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetIdempotency(ctx, db, tc.user, tc.scope, tc.key, tc.at)
			if !errors.Is(err, ErrNotFound) || got != nil {
				t.Fatalf("got (%+v, %v); want ErrNotFound", got, err)
			}
		})
	}
}

func TestCreateIdempotency_Duplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "ops", scopeCreateAlias, "k", "a-1", 201, time.Hour); err != nil {
		t.Fatalf("first: %v", err)
	}
	rec, err := CreateIdempotency(ctx, db, "ops", scopeCreateAlias, "k", "a-2", 201, time.Hour)
	if !errors.Is(err, ErrDuplicate) || rec != nil {
		t.Fatalf("second = (%+v, %v); want ErrDuplicate", rec, err)
	}

	// The original resource stays the recorded outcome.
	got, err := GetIdempotency(ctx, db, "ops", scopeCreateAlias, "k", time.Now().UTC())
	if err != nil || got.ResourceID != "a-1" {
		t.Fatalf("get = (%+v, %v)", got, err)
	}
}

func TestCreateIdempotency_StorageError(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, err := CreateIdempotency(context.Background(), db, "ops", scopeCreateDest, "k", "d-1", 201, time.Hour)
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v; want a storage error", err)
	}
	if _, err := GetIdempotency(context.Background(), db, "ops", scopeCreateDest, "k", time.Now()); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("get err = %v; want a storage error", err)
	}
}
