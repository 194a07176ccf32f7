// package discovery implements the similar-artist discovery run.
//
// A run is a thin sequential workflow: one similarity lookup over the full
// seed set, a duplicate filter against the tracked library, then a
// per-candidate popularity enrichment loop that streams each accepted
// candidate to the UI as it lands. Cancellation is cooperative, checked once
// per candidate; a failure enriching one candidate never aborts the run.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/formatter"
	"github.com/hollowtree-labs/harmonia/internal/library"
	"github.com/hollowtree-labs/harmonia/internal/models"
	"github.com/hollowtree-labs/harmonia/internal/repositories"
	"github.com/hollowtree-labs/harmonia/internal/services"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

// Engine runs the discovery workflow against the similarity service.
type Engine struct {
	lib        *library.Library
	similarity services.Similarity
	cache      *repositories.PopularityRepository // optional
	emitter    events.Emitter
	logger     *log.Logger
}

// NewEngine creates a discovery engine. cache may be nil to disable the
// popularity cache.
func NewEngine(lib *library.Library, similarity services.Similarity, cache *repositories.PopularityRepository, emitter events.Emitter, logger *log.Logger) *Engine {
	return &Engine{
		lib:        lib,
		similarity: similarity,
		cache:      cache,
		emitter:    emitter,
		logger:     logger,
	}
}

// Run executes one discovery pass over the seed set.
//
// The caller must have opened the run gate. Run refuses to start when the
// gate is closed or another run is in flight. Whatever happens, the gate is
// closed, the busy flag cleared, and finished_finding emitted on the way out
// so the UI never hangs.
func (e *Engine) Run(ctx context.Context, seeds []string) error {
	if !e.lib.Running() {
		return shared.ErrStopped
	}
	if !e.lib.BeginSearch() {
		return shared.ErrSearchRunning
	}

	defer func() {
		e.lib.EndSearch()
		e.emitter.Emit(events.FinishedFinding, nil)
	}()

	e.lib.ClearCandidates()
	e.emitter.Emit(events.Clear, nil)

	e.logger.Info("searching for similar artists", "seeds", len(seeds))

	similar, err := e.similarity.SimilarArtists(ctx, seeds)
	if err != nil {
		e.logger.Error("similar-artists lookup failed", "err", err)
		return fmt.Errorf("similar-artists lookup: %w", err)
	}

	if len(similar) == 0 {
		e.emitter.Emit(events.ToastMessage, models.Toast{
			Title:   "No similar artists",
			Message: "No similar artists found.",
		})
		return shared.ErrNoSimilarArtists
	}

	// Seed MBID → tracked name, for the Similar_To attribution.
	seedNames := make(map[string]string)
	for _, a := range e.lib.Tracked() {
		seedNames[a.MBID] = a.Name
	}

	for _, artist := range similar {
		if ctx.Err() != nil || !e.lib.Running() {
			e.logger.Info("discovery run stopped", "found", len(e.lib.Candidates()))
			break
		}

		if e.lib.HasTracked(artist.ArtistMBID) {
			continue
		}

		stats, err := e.popularity(ctx, artist.ArtistMBID)
		if err != nil {
			e.logger.Error("popularity lookup failed", "artist", artist.Name, "err", err)
			continue
		}

		candidate := models.CandidateArtist{
			Name:       artist.Name,
			MBID:       artist.ArtistMBID,
			SimilarTo:  formatter.SimilarToLabel(seedNames[artist.ReferenceMBID]),
			Popularity: formatter.ListenLabel(stats.TotalListenCount),
			Followers:  formatter.FollowerLabel(stats.TotalUserCount),
		}

		if e.lib.AppendCandidate(candidate) {
			e.emitter.Emit(events.MoreArtistsLoaded, []models.CandidateArtist{candidate})
		}
	}

	return nil
}

// popularity fetches listen statistics, consulting the cache first.
func (e *Engine) popularity(ctx context.Context, mbid string) (services.Popularity, error) {
	if e.cache != nil {
		if stats, ok, err := e.cache.Get(mbid); err == nil && ok {
			return stats, nil
		} else if err != nil {
			e.logger.Error("popularity cache read failed", "mbid", mbid, "err", err)
		}
	}

	stats, err := e.similarity.Popularity(ctx, mbid)
	if err != nil {
		return services.Popularity{}, err
	}
	if stats.ArtistMBID == "" {
		stats.ArtistMBID = mbid
	}

	if e.cache != nil {
		if err := e.cache.Put(stats); err != nil {
			e.logger.Error("popularity cache write failed", "mbid", mbid, "err", err)
		}
	}

	return stats, nil
}

// IsExpectedStop reports whether a run error is one of the clean terminal
// conditions rather than a real failure.
func IsExpectedStop(err error) bool {
	return errors.Is(err, shared.ErrStopped) ||
		errors.Is(err, shared.ErrNoSimilarArtists) ||
		errors.Is(err, shared.ErrSearchRunning)
}
