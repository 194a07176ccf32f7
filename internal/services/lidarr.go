// Lidarr API implementation of [LibraryManager]
//
// Lidarr API response types based on https://lidarr.audio/docs/api/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/models"
	"github.com/hollowtree-labs/harmonia/internal/settings"
	"github.com/hollowtree-labs/harmonia/internal/shared"
	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds the settings-form lookups, which must stay snappy even
// when the main API timeout is configured high.
const probeTimeout = 10 * time.Second

type lidarrArtist struct {
	ArtistName      string `json:"artistName"`
	ForeignArtistID string `json:"foreignArtistId"`
}

type lidarrAddOptions struct {
	SearchForMissingAlbums bool `json:"searchForMissingAlbums"`
}

type lidarrAddPayload struct {
	ArtistName        string           `json:"ArtistName"`
	QualityProfileID  int              `json:"qualityProfileId"`
	MetadataProfileID int              `json:"metadataProfileId"`
	RootFolderPath    string           `json:"rootFolderPath"`
	ForeignArtistID   string           `json:"foreignArtistId"`
	Monitored         bool             `json:"monitored"`
	AddOptions        lidarrAddOptions `json:"addOptions"`
}

type lidarrFieldError struct {
	ErrorMessage string `json:"errorMessage"`
}

// LidarrService implements [LibraryManager] against the Lidarr v1 REST API.
//
// Connection parameters are read from the settings store on every call so a
// settings update takes effect without restarting.
type LidarrService struct {
	settings   *settings.Store
	metadata   Metadata
	httpClient *http.Client
	logger     *log.Logger
}

// NewLidarrService creates a new Lidarr client.
func NewLidarrService(store *settings.Store, metadata Metadata, client *http.Client, logger *log.Logger) *LidarrService {
	if client == nil {
		client = http.DefaultClient
	}
	return &LidarrService{
		settings:   store,
		metadata:   metadata,
		httpClient: client,
		logger:     logger,
	}
}

// doRequest performs an authenticated request against the Lidarr API and
// decodes the JSON response. Non-2xx statuses return an [*APIError] carrying
// the status and raw body.
func (s *LidarrService) doRequest(ctx context.Context, method, apiURL, apiKey string, timeout time.Duration, body, result any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListArtists retrieves every tracked artist from Lidarr.
func (s *LidarrService) ListArtists(ctx context.Context) ([]models.TrackedArtist, error) {
	st := s.settings.Current()

	var remote []lidarrArtist
	endpoint := st.LidarrAddress + "/api/v1/artist"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, st.LidarrAPIKey, st.Timeout(), nil, &remote); err != nil {
		return nil, err
	}

	artists := make([]models.TrackedArtist, 0, len(remote))
	for _, a := range remote {
		artists = append(artists, models.TrackedArtist{
			Name: a.ArtistName,
			MBID: a.ForeignArtistID,
		})
	}

	return artists, nil
}

// AddArtist resolves the MBID to a canonical name and creates the artist in
// Lidarr with the configured profiles and root folder.
//
// The dry-run setting short-circuits the create request and synthesizes a
// success so the workflow can be exercised without mutating Lidarr.
func (s *LidarrService) AddArtist(ctx context.Context, mbid string) (AddResult, error) {
	st := s.settings.Current()

	name, err := s.metadata.ArtistName(ctx, mbid)
	if err != nil {
		return AddResult{}, fmt.Errorf("artist lookup failed: %w", err)
	}

	result := AddResult{Name: name, MBID: mbid}

	if st.DryRunAddingToLidarr {
		s.logger.Info("dry run: skipping Lidarr create request", "artist", name)
		result.Status = models.StatusAdded
		return result, nil
	}

	payload := lidarrAddPayload{
		ArtistName:        name,
		QualityProfileID:  st.QualityProfileID,
		MetadataProfileID: st.MetadataProfileID,
		RootFolderPath:    st.RootFolderPath,
		ForeignArtistID:   mbid,
		Monitored:         true,
		AddOptions:        lidarrAddOptions{SearchForMissingAlbums: st.SearchForMissingAlbums},
	}

	endpoint := st.LidarrAddress + "/api/v1/artist"
	err = s.doRequest(ctx, http.MethodPost, endpoint, st.LidarrAPIKey, st.Timeout(), payload, nil)
	if err == nil {
		s.logger.Info("artist added to Lidarr", "artist", name)
		result.Status = models.StatusAdded
		return result, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return AddResult{}, err
	}

	result.Status = classifyAddError(apiErr.Body)
	s.logger.Error("failed to add artist to Lidarr", "artist", name, "status", result.Status, "message", upstreamErrorMessage(apiErr.Body))
	return result, nil
}

// classifyAddError maps a Lidarr validation response body to an [models.AddStatus].
func classifyAddError(body string) models.AddStatus {
	msg := upstreamErrorMessage(body)
	switch {
	case strings.Contains(msg, "already been added"):
		return models.StatusAlreadyPresent
	case strings.Contains(msg, "configured for an existing artist"):
		return models.StatusAlreadyPresent
	case strings.Contains(msg, "Invalid Path"):
		return models.StatusInvalidPath
	default:
		return models.StatusFailed
	}
}

// upstreamErrorMessage extracts the first errorMessage from a Lidarr
// validation response body.
func upstreamErrorMessage(body string) string {
	var fields []lidarrFieldError
	if err := json.Unmarshal([]byte(body), &fields); err != nil || len(fields) == 0 {
		return "Error Unknown"
	}
	if fields[0].ErrorMessage == "" {
		return "No Error Message Returned"
	}
	return fields[0].ErrorMessage
}

// LoadProfiles fetches the profile and root folder options for the settings
// form. Returns empty options when Lidarr is not configured or the status
// probe fails; the settings form simply renders without choices.
func (s *LidarrService) LoadProfiles(ctx context.Context) (models.ProfileOptions, error) {
	st := s.settings.Current()
	if st.LidarrAddress == "" {
		return models.ProfileOptions{}, nil
	}

	if err := s.doRequest(ctx, http.MethodGet, st.LidarrAddress+"/api/v1/system/status", st.LidarrAPIKey, probeTimeout, nil, nil); err != nil {
		s.logger.Error("Lidarr status probe failed", "err", err)
		return models.ProfileOptions{}, nil
	}

	return s.fetchProfiles(ctx, st.LidarrAddress, st.LidarrAPIKey)
}

// TestConnection validates candidate credentials without persisting them.
func (s *LidarrService) TestConnection(ctx context.Context, address, apiKey string) (models.ProfileOptions, bool) {
	if err := s.doRequest(ctx, http.MethodGet, address+"/api/v1/system/status", apiKey, probeTimeout, nil, nil); err != nil {
		s.logger.Error("Lidarr connection test failed", "err", err)
		return models.ProfileOptions{}, false
	}

	opts, err := s.fetchProfiles(ctx, address, apiKey)
	if err != nil {
		s.logger.Error("Lidarr profile fetch failed during connection test", "err", err)
		return models.ProfileOptions{}, false
	}

	return opts, true
}

// fetchProfiles retrieves the three auxiliary lookups in parallel.
func (s *LidarrService) fetchProfiles(ctx context.Context, address, apiKey string) (models.ProfileOptions, error) {
	var opts models.ProfileOptions

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.doRequest(ctx, http.MethodGet, address+"/api/v1/metadataprofile", apiKey, probeTimeout, nil, &opts.MetadataProfiles)
	})
	g.Go(func() error {
		return s.doRequest(ctx, http.MethodGet, address+"/api/v1/qualityprofile", apiKey, probeTimeout, nil, &opts.QualityProfiles)
	})
	g.Go(func() error {
		return s.doRequest(ctx, http.MethodGet, address+"/api/v1/rootfolder", apiKey, probeTimeout, nil, &opts.RootFolders)
	})

	if err := g.Wait(); err != nil {
		return models.ProfileOptions{}, err
	}

	return opts, nil
}
