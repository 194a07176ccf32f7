// package app wires the workflow together and implements the inbound
// command surface of the realtime channel.
//
// One App is constructed at process entry and handed every collaborator it
// needs; nothing in here is a package-level singleton. Each command handler
// is safe to run on its own background goroutine.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/discovery"
	"github.com/hollowtree-labs/harmonia/internal/events"
	"github.com/hollowtree-labs/harmonia/internal/library"
	"github.com/hollowtree-labs/harmonia/internal/models"
	"github.com/hollowtree-labs/harmonia/internal/services"
	"github.com/hollowtree-labs/harmonia/internal/settings"
	"github.com/hollowtree-labs/harmonia/internal/shared"
)

// App is the application context for the discovery service.
type App struct {
	settings *settings.Store
	lib      *library.Library
	lidarr   services.LibraryManager
	engine   *discovery.Engine
	emitter  events.Emitter
	logger   *log.Logger

	mu  sync.Mutex
	run *runHandle
}

// runHandle identifies one accepted engine run and its cancel func.
type runHandle struct {
	cancel context.CancelFunc
}

// Opts contains the collaborators an App needs.
type Opts struct {
	Settings *settings.Store
	Library  *library.Library
	Lidarr   services.LibraryManager
	Engine   *discovery.Engine
	Emitter  events.Emitter
	Logger   *log.Logger
}

// New creates the application context.
func New(opts Opts) *App {
	return &App{
		settings: opts.Settings,
		lib:      opts.Library,
		lidarr:   opts.Lidarr,
		engine:   opts.Engine,
		emitter:  opts.Emitter,
		logger:   opts.Logger,
	}
}

// SideBarOpened re-sends the current tracked list and run state if a refresh
// has already happened; a browser opening the sidebar before the first
// refresh gets nothing.
func (a *App) SideBarOpened() {
	tracked := a.lib.Tracked()
	if len(tracked) == 0 {
		return
	}
	a.emitter.Emit(events.SidebarUpdate, models.SidebarUpdate{
		Status:  "Success",
		Data:    tracked,
		Running: a.lib.Running(),
	})
}

// RefreshArtists performs a full tracked-artist refresh from Lidarr, marking
// every entry's selection to checked, and notifies the sidebar either way.
func (a *App) RefreshArtists(ctx context.Context, checked bool) {
	a.logger.Info("getting artists from Lidarr")

	artists, err := a.lidarr.ListArtists(ctx)
	if err != nil {
		a.logger.Error("failed to list Lidarr artists", "err", err)

		update := models.SidebarUpdate{Status: "Error", Code: 500, Data: err.Error(), Running: a.lib.Running()}
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			update.Code = apiErr.StatusCode
			update.Data = apiErr.Body
		}
		a.emitter.Emit(events.SidebarUpdate, update)
		return
	}

	a.lib.ReplaceTracked(artists, checked)
	a.emitter.Emit(events.SidebarUpdate, models.SidebarUpdate{
		Status:  "Success",
		Data:    a.lib.Tracked(),
		Running: a.lib.Running(),
	})
}

// Start marks the selection, builds the seed set, and runs the discovery
// engine. An empty selection closes the gate and reports the error without
// invoking the engine.
func (a *App) Start(ctx context.Context, selectedIDs []string) {
	seeds := a.lib.MarkSelected(selectedIDs)
	if len(seeds) == 0 {
		a.logger.Error("startup error: no Lidarr artists selected")
		a.lib.SetRunning(false)
		a.emitter.Emit(events.SidebarUpdate, models.SidebarUpdate{
			Status:  "Error",
			Code:    "No Lidarr Artists Selected",
			Data:    a.lib.Tracked(),
			Running: false,
		})
		return
	}

	a.lib.SetLastSeeds(seeds)
	a.runEngine(ctx, seeds)
}

// LoadMore re-invokes the discovery engine with the last seed set.
func (a *App) LoadMore(ctx context.Context) {
	seeds := a.lib.LastSeeds()
	if len(seeds) == 0 {
		a.emitter.Emit(events.ToastMessage, models.Toast{
			Title:   "Nothing to load",
			Message: "Run a search first.",
		})
		return
	}
	a.runEngine(ctx, seeds)
}

// runEngine opens the gate and executes one discovery pass with a
// cancellable context so Stop can interrupt the per-candidate loop.
//
// The stored cancel func belongs to whichever run the engine accepted; a
// refused overlapping run restores the previous one so Stop still reaches
// the run that is actually in flight.
func (a *App) runEngine(ctx context.Context, seeds []string) {
	runCtx, cancel := context.WithCancel(ctx)
	run := &runHandle{cancel: cancel}

	a.mu.Lock()
	prev := a.run
	a.run = run
	a.mu.Unlock()
	defer cancel()

	a.lib.SetRunning(true)
	err := a.engine.Run(runCtx, seeds)
	if errors.Is(err, shared.ErrSearchRunning) {
		a.mu.Lock()
		if a.run == run {
			a.run = prev
		}
		a.mu.Unlock()
	}
	if err != nil && !discovery.IsExpectedStop(err) {
		a.logger.Error("discovery run failed", "err", err)
	}
}

// Stop unconditionally closes the run gate; the engine observes this at its
// next per-candidate check.
func (a *App) Stop() {
	a.mu.Lock()
	run := a.run
	a.mu.Unlock()
	if run != nil {
		run.cancel()
	}
	a.lib.SetRunning(false)
}

// AddArtist attempts to add the candidate to Lidarr and refreshes its card.
func (a *App) AddArtist(ctx context.Context, mbid string) {
	result, err := a.lidarr.AddArtist(ctx, mbid)
	if err != nil {
		a.logger.Error("failed to add artist", "mbid", mbid, "err", err)
		a.emitter.Emit(events.ToastMessage, models.Toast{
			Title:   "Failed to add artist",
			Message: err.Error(),
		})
		return
	}

	if result.Status == models.StatusAdded {
		a.lib.InsertTracked(models.TrackedArtist{Name: result.Name, MBID: result.MBID})
	}

	if candidate, ok := a.lib.SetCandidateStatus(result.MBID, result.Status); ok {
		a.emitter.Emit(events.RefreshArtist, candidate)
	}
}

// Connect increments the client counter and replays any already-found
// candidates to the newly connected session.
func (a *App) Connect() {
	if candidates := a.lib.Candidates(); len(candidates) > 0 {
		a.emitter.Emit(events.MoreArtistsLoaded, candidates)
	}
	a.lib.ClientConnected()
}

// Disconnect decrements the client counter.
func (a *App) Disconnect() {
	a.lib.ClientDisconnected()
}

// AutoStart arms the one-shot deferred first sync if configured. Returns the
// timer so the caller can stop it on shutdown, or nil when not configured.
func (a *App) AutoStart() *time.Timer {
	st := a.settings.Current()
	if !st.AutoStart {
		return nil
	}

	delay := time.Duration(st.AutoStartDelay) * time.Second
	a.logger.Info("auto start armed", "delay", delay)

	return time.AfterFunc(delay, func() {
		ctx := context.Background()
		a.RefreshArtists(ctx, true)

		var ids []string
		for _, artist := range a.lib.Tracked() {
			ids = append(ids, artist.MBID)
		}
		a.Start(ctx, ids)
	})
}
