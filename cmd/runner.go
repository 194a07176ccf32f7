package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hollowtree-labs/harmonia/internal/app"
	"github.com/hollowtree-labs/harmonia/internal/discovery"
	"github.com/hollowtree-labs/harmonia/internal/library"
	"github.com/hollowtree-labs/harmonia/internal/repositories"
	"github.com/hollowtree-labs/harmonia/internal/server"
	"github.com/hollowtree-labs/harmonia/internal/services"
	"github.com/hollowtree-labs/harmonia/internal/settings"
	"github.com/hollowtree-labs/harmonia/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Runner holds the dependencies for CLI commands and provides a method per
// command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Serve assembles the full service and runs the HTTP server until SIGINT or
// SIGTERM, then drains with a deadline.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store := settings.NewStore(config.Storage.ConfigDir, r.logger)
	lib := library.New()

	var cache *repositories.PopularityRepository
	db, err := shared.NewDatabase(config.Storage.CachePath)
	if err != nil {
		r.logger.Warn("popularity cache disabled", "err", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, 4, 2)
		if err := repositories.Setup(db); err != nil {
			r.logger.Warn("popularity cache disabled", "err", err)
		} else {
			cache = repositories.NewPopularityRepository(db, repositories.DefaultPopularityTTL)
		}
	}

	musicbrainz := services.NewMusicBrainzService(config.Upstream.MusicBrainzURL, nil, r.logger)
	lidarr := services.NewLidarrService(store, musicbrainz, nil, r.logger)
	listenbrainz := services.NewListenBrainzService(
		config.Upstream.ListenBrainzAPIURL,
		config.Upstream.ListenBrainzLabsURL,
		nil,
		config.Upstream.RateLimit,
		r.logger,
	)

	dispatcher := server.NewDispatcher(r.logger)
	hub := server.NewHub(dispatcher, r.logger)
	engine := discovery.NewEngine(lib, listenbrainz, cache, hub, r.logger)

	application := app.New(app.Opts{
		Settings: store,
		Library:  lib,
		Lidarr:   lidarr,
		Engine:   engine,
		Emitter:  hub,
		Logger:   r.logger,
	})
	application.Register(dispatcher)

	if timer := application.AutoStart(); timer != nil {
		defer timer.Stop()
	}

	addr := config.Addr()
	if listen := cmd.String("listen"); listen != "" {
		addr = listen
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: server.NewRouter(hub, r.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	application.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	dispatcher.Wait()
	return nil
}

// Setup writes the starter config file and creates the cache database so a
// first `serve` starts clean.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		if errors.Is(err, shared.ErrInvalidConfig) {
			r.logger.Warn("config file already exists, leaving it alone", "path", path)
		} else {
			return err
		}
	} else {
		r.logger.Info("wrote starter config", "path", path)
	}

	config := r.config
	if loaded, err := shared.LoadConfig(path); err == nil {
		config = loaded
	}

	if err := os.MkdirAll(filepath.Dir(config.Storage.CachePath), 0755); err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Storage.CachePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.Setup(db); err != nil {
		return err
	}

	r.logger.Info("cache database ready", "path", config.Storage.CachePath)
	return nil
}

// loadConfig re-reads the config file named by the command flag, falling back
// to the runner's config when the file is absent.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	loaded, err := shared.LoadConfig(path)
	if err != nil {
		return r.config
	}
	return loaded
}
