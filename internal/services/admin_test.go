package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

func TestClaimSlug_ConcurrentCreatesAcrossTables(t *testing.T) {
	st := newFakeStore()
	st.addDest(domain.Destination{ID: "d-1", Slug: "docs", URL: "https://example.com/"})
	ctx := context.Background()

	// Half the callers insert a destination, half an alias, all for "promo".
	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		inserted  int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := claimSlug(ctx, st, "promo", func() error {
				if i%2 == 0 {
					st.addDest(domain.Destination{ID: "d-promo", Slug: "promo", URL: "https://example.com/promo"})
				} else {
					st.addAlias(domain.Alias{ID: "a-promo", Slug: "promo", DestinationID: "d-1"})
				}
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			var ce *SlugConflictError
			switch {
			case err == nil:
				inserted++
			case errors.As(err, &ce):
				conflicts++
			default:
				t.Errorf("claimSlug: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if inserted != 1 || conflicts != callers-1 {
		t.Fatalf("inserted=%d conflicts=%d; want 1 and %d", inserted, conflicts, callers-1)
	}
}

func TestClaimSlug_CheckFailureSkipsInsert(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("store down")

	called := false
	err := claimSlug(context.Background(), st, "promo", func() error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("err=%v called=%v; want error and no insert", err, called)
	}
}
