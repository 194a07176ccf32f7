// package services defines clients for the external HTTP APIs
//
// Lidarr, ListenBrainz (similar-artists + popularity), MusicBrainz
package services

import (
	"context"
	"fmt"

	"github.com/hollowtree-labs/harmonia/internal/models"
)

// LibraryManager is the interface for the Lidarr music-library service.
type LibraryManager interface {
	// ListArtists retrieves every artist tracked by Lidarr, unselected.
	ListArtists(ctx context.Context) ([]models.TrackedArtist, error)

	// AddArtist looks up canonical metadata for the MBID and issues a create
	// request to Lidarr. Mapped upstream outcomes (already present, invalid
	// path, generic failure) are returned as a result, not an error.
	AddArtist(ctx context.Context, mbid string) (AddResult, error)

	// LoadProfiles fetches the metadata/quality profile and root folder
	// options for the settings form. Returns empty options without error when
	// Lidarr is not configured or unreachable.
	LoadProfiles(ctx context.Context) (models.ProfileOptions, error)

	// TestConnection validates candidate credentials without touching the
	// persisted settings. Profile options are returned on success.
	TestConnection(ctx context.Context, address, apiKey string) (models.ProfileOptions, bool)
}

// Similarity is the interface for the artist recommendation service.
type Similarity interface {
	// SimilarArtists queries for artists similar to any of the seed MBIDs.
	SimilarArtists(ctx context.Context, seedMBIDs []string) ([]SimilarArtist, error)

	// Popularity retrieves listen and listener counts for a single artist.
	Popularity(ctx context.Context, mbid string) (Popularity, error)
}

// Metadata is the interface for the canonical artist-metadata lookup.
type Metadata interface {
	// ArtistName resolves an MBID to the artist's canonical name.
	ArtistName(ctx context.Context, mbid string) (string, error)
}

// AddResult is the outcome of an add-artist attempt.
type AddResult struct {
	Name   string
	MBID   string
	Status models.AddStatus
}

// SimilarArtist is one recommendation returned by the similarity API.
type SimilarArtist struct {
	Name          string  `json:"name"`
	ArtistMBID    string  `json:"artist_mbid"`
	ReferenceMBID string  `json:"reference_mbid"`
	Score         float64 `json:"score"`
}

// Popularity carries the listen statistics for one artist.
type Popularity struct {
	ArtistMBID       string `json:"artist_mbid"`
	TotalListenCount int    `json:"total_listen_count"`
	TotalUserCount   int    `json:"total_user_count"`
}

// APIError carries an upstream non-success HTTP status and the raw body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}
