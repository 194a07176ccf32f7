// MusicBrainz implementation of [Metadata]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

const defaultMusicBrainzURL = "https://musicbrainz.org"

// MusicBrainzService implements [Metadata] against the MusicBrainz ws/2 API.
type MusicBrainzService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewMusicBrainzService creates a new MusicBrainz client.
//
// MusicBrainz rejects requests without a descriptive User-Agent, so one is
// always sent.
func NewMusicBrainzService(baseURL string, client *http.Client, logger *log.Logger) *MusicBrainzService {
	if baseURL == "" {
		baseURL = defaultMusicBrainzURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &MusicBrainzService{
		baseURL:    baseURL,
		userAgent:  fmt.Sprintf("%s/%s ( %s )", shared.AppName, shared.AppVersion, shared.AppURL),
		httpClient: client,
		logger:     logger,
	}
}

// ArtistName resolves an MBID to the artist's canonical name.
func (s *MusicBrainzService) ArtistName(ctx context.Context, mbid string) (string, error) {
	endpoint := fmt.Sprintf("%s/ws/2/artist/%s?fmt=json", s.baseURL, mbid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var artist struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &artist); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if artist.Name == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrArtistNotFound, mbid)
	}

	return artist.Name, nil
}
