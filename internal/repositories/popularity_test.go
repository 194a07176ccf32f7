package repositories

import (
	"testing"
	"time"

	"github.com/hollowtree-labs/harmonia/internal/services"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

func newTestRepo(t *testing.T, ttl time.Duration) *PopularityRepository {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Setup(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	return NewPopularityRepository(db, ttl)
}

func TestPopularityRepository(t *testing.T) {
	t.Run("Miss On Empty Cache", func(t *testing.T) {
		repo := newTestRepo(t, 0)
		_, ok, err := repo.Get("mbid-unknown")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("Put Then Get", func(t *testing.T) {
		repo := newTestRepo(t, 0)
		want := services.Popularity{ArtistMBID: "mbid-plaid", TotalListenCount: 1500, TotalUserCount: 320}
		if err := repo.Put(want); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, ok, err := repo.Get("mbid-plaid")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		repo := newTestRepo(t, 0)
		repo.Put(services.Popularity{ArtistMBID: "mbid-plaid", TotalListenCount: 1})
		repo.Put(services.Popularity{ArtistMBID: "mbid-plaid", TotalListenCount: 2, TotalUserCount: 3})

		got, ok, _ := repo.Get("mbid-plaid")
		if !ok || got.TotalListenCount != 2 || got.TotalUserCount != 3 {
			t.Errorf("expected overwritten row, got %+v ok=%v", got, ok)
		}
	})

	t.Run("Expired Entry Is A Miss", func(t *testing.T) {
		repo := newTestRepo(t, time.Hour)
		repo.Put(services.Popularity{ArtistMBID: "mbid-old", TotalListenCount: 10})

		// Shift the clock past the TTL.
		repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, ok, err := repo.Get("mbid-old")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expired entry should be a miss")
		}
	})
}
