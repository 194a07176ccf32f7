// ListenBrainz implementation of [Similarity]
//
// Uses the labs similar-artists endpoint and the v1 popularity endpoint.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultListenBrainzAPIURL  = "https://api.listenbrainz.org"
	defaultListenBrainzLabsURL = "https://labs.api.listenbrainz.org"

	// similarArtistsAlgorithm selects the precomputed session-based model on
	// the labs endpoint. The endpoint rejects unknown algorithm identifiers,
	// so this string must match a published dataset exactly.
	similarArtistsAlgorithm = "session_based_days_7500_session_300_contribution_5_threshold_10_limit_100_filter_True_skip_30"
)

type similarArtistsQuery struct {
	ArtistMBIDs []string `json:"artist_mbids"`
	Algorithm   string   `json:"algorithm"`
}

type popularityQuery struct {
	ArtistMBIDs []string `json:"artist_mbids"`
}

// ListenBrainzService implements [Similarity] against the public
// ListenBrainz API. Outbound calls share a rate limiter so a discovery run
// iterating hundreds of candidates stays inside the service's limits.
type ListenBrainzService struct {
	apiURL     string
	labsURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewListenBrainzService creates a new ListenBrainz client.
//
// Empty URLs fall back to the public endpoints; rps <= 0 falls back to five
// requests per second.
func NewListenBrainzService(apiURL, labsURL string, client *http.Client, rps float64, logger *log.Logger) *ListenBrainzService {
	if apiURL == "" {
		apiURL = defaultListenBrainzAPIURL
	}
	if labsURL == "" {
		labsURL = defaultListenBrainzLabsURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if rps <= 0 {
		rps = 5.0
	}

	return &ListenBrainzService{
		apiURL:     apiURL,
		labsURL:    labsURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// postJSON sends a JSON payload and decodes the JSON response.
func (s *ListenBrainzService) postJSON(ctx context.Context, apiURL string, payload, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// SimilarArtists queries the labs endpoint once with the full seed set.
func (s *ListenBrainzService) SimilarArtists(ctx context.Context, seedMBIDs []string) ([]SimilarArtist, error) {
	payload := []similarArtistsQuery{{
		ArtistMBIDs: seedMBIDs,
		Algorithm:   similarArtistsAlgorithm,
	}}

	var similar []SimilarArtist
	if err := s.postJSON(ctx, s.labsURL+"/similar-artists/json", payload, &similar); err != nil {
		return nil, err
	}

	return similar, nil
}

// Popularity retrieves listen statistics for a single artist.
func (s *ListenBrainzService) Popularity(ctx context.Context, mbid string) (Popularity, error) {
	payload := popularityQuery{ArtistMBIDs: []string{mbid}}

	var stats []Popularity
	if err := s.postJSON(ctx, s.apiURL+"/1/popularity/artist", payload, &stats); err != nil {
		return Popularity{}, err
	}

	if len(stats) == 0 {
		return Popularity{}, fmt.Errorf("%w: no popularity data for %s", shared.ErrArtistNotFound, mbid)
	}

	return stats[0], nil
}
