// package repositories provides the sqlite-backed popularity-lookup cache.
//
// ListenBrainz popularity numbers move slowly, and a discovery run issues one
// lookup per candidate. Caching them keeps repeated runs over similar seed
// sets from hammering the API and makes load-more requests near instant.
package repositories

import (
	"database/sql"
	"fmt"
)

const popularitySchema = `
CREATE TABLE IF NOT EXISTS popularity_cache (
	artist_mbid  TEXT PRIMARY KEY,
	listen_count INTEGER NOT NULL,
	user_count   INTEGER NOT NULL,
	fetched_at   TIMESTAMP NOT NULL
);`

// Setup creates the cache tables if they do not exist.
func Setup(db *sql.DB) error {
	if _, err := db.Exec(popularitySchema); err != nil {
		return fmt.Errorf("failed to create popularity_cache table: %w", err)
	}
	return nil
}
