package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hollowtree-labs/harmonia/internal/services"
)

// DefaultPopularityTTL is how long a cached popularity row stays fresh.
const DefaultPopularityTTL = 24 * time.Hour

// PopularityRepository caches per-artist popularity lookups in sqlite.
type PopularityRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewPopularityRepository creates a repository over an open database.
//
// ttl <= 0 falls back to [DefaultPopularityTTL].
func NewPopularityRepository(db *sql.DB, ttl time.Duration) *PopularityRepository {
	if ttl <= 0 {
		ttl = DefaultPopularityTTL
	}
	return &PopularityRepository{db: db, ttl: ttl, now: time.Now}
}

// Get returns the cached popularity for the MBID if present and fresh.
func (r *PopularityRepository) Get(mbid string) (services.Popularity, bool, error) {
	var (
		p         services.Popularity
		fetchedAt time.Time
	)

	row := r.db.QueryRow(
		"SELECT artist_mbid, listen_count, user_count, fetched_at FROM popularity_cache WHERE artist_mbid = ?",
		mbid,
	)
	if err := row.Scan(&p.ArtistMBID, &p.TotalListenCount, &p.TotalUserCount, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.Popularity{}, false, nil
		}
		return services.Popularity{}, false, fmt.Errorf("failed to read popularity cache: %w", err)
	}

	if r.now().Sub(fetchedAt) > r.ttl {
		return services.Popularity{}, false, nil
	}

	return p, true, nil
}

// Put upserts a popularity row, stamping it with the current time.
func (r *PopularityRepository) Put(p services.Popularity) error {
	_, err := r.db.Exec(
		`INSERT INTO popularity_cache (artist_mbid, listen_count, user_count, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(artist_mbid) DO UPDATE SET
			listen_count = excluded.listen_count,
			user_count = excluded.user_count,
			fetched_at = excluded.fetched_at`,
		p.ArtistMBID, p.TotalListenCount, p.TotalUserCount, r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write popularity cache: %w", err)
	}
	return nil
}
