// Command camdeck indexes TeslaCam recordings and plays every camera of a
// clip in lockstep.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/camdeck/internal/adapters/driven/config/file"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/drives"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/ffmpeg"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/fswatch"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/metrics"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/player"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/playlist"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/camdeck/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/camdeck/internal/adapters/driving/cli"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/services"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; CAMDECK_HOME may be set there.
	_ = godotenv.Load()

	// --verbose is applied once cobra has parsed flags.
	log := logger.New(os.Stderr, false)

	home, err := file.HomeDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
		return err
	}

	var (
		catalogue  driven.ClipCatalogue
		history    driven.ScanHistory
		schedStore driven.SchedulerStore
	)
	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		log.Warn("Index database unavailable, keeping the index in memory: %v", err)
		mem := memory.NewCatalogue()
		catalogue, history = mem, mem
	} else {
		defer store.Close()
		catalogue, history = store.Catalogue(), store.Catalogue()
		schedStore = store.Tasks()
	}

	met := metrics.New()
	locator := drives.NewLocator("", log)

	index := services.NewIndexService(
		services.IndexConfig{Roots: settings.Storage.Roots, Discover: settings.Storage.Discover},
		services.NewAssembler(log),
		locator,
		catalogue,
		history,
		met,
		log,
	)

	var (
		renderer driven.Renderer
		prober   driven.Prober
	)
	if err := ffmpeg.Available(settings.Renderer.FFmpegPath); err != nil {
		log.Debug("Rendering disabled: %v", err)
	} else {
		renderer = ffmpeg.NewRenderer(settings.Renderer.FFmpegPath, "", log)
	}
	if err := ffmpeg.Available(settings.Renderer.FFprobePath); err != nil {
		log.Debug("Probing disabled, segments use the placeholder duration: %v", err)
	} else {
		prober = ffmpeg.NewProber(settings.Renderer.FFprobePath)
	}

	clock := player.SystemClock{}
	factory := player.NewFactory(player.Config{
		Kind:     settings.Player.Kind,
		Command:  settings.Player.Command,
		Prober:   prober,
		Clock:    clock,
		Fallback: settings.Playback.PlaceholderDuration,
		Logger:   log,
	})
	playback := services.NewPlaybackService(index, factory, clock, settings.Playback.Options(), met, log)

	var render *services.RenderService
	if renderer != nil {
		render = services.NewRenderService(index, renderer, services.RenderConfig{
			Composition:   settings.Renderer.Composition,
			Overlays:      settings.Playback.Cameras,
			BufferTimeout: settings.Renderer.BufferTimeout,
		}, met, log)
	}

	watcher := fswatch.NewWatcher(fswatch.Config{MinInterval: settings.Watch.MinInterval, Logger: log})
	defer watcher.Close()

	var scheduler *services.Scheduler
	if schedStore != nil {
		scheduler = services.NewScheduler(settings.Scheduler, schedStore, index, log)
	}

	svc := cli.Services{
		Index:           index,
		Watch:           services.NewWatchService(index, watcher, log),
		Playback:        playback,
		Playlist:        services.NewPlaylistService(index, playlist.NewEncoder(), prober, settings.Playback.PlaceholderDuration, log),
		Settings:        settingsService,
		SchedulerConfig: settings.Scheduler,
		Metrics:         met.Handler(func() { met.SetClipsIndexed(index.Current().Len()) }),
		Middleware:      []func(next http.Handler) http.Handler{metrics.RequestMiddleware(met)},
		Usage: func(ctx context.Context, path string) (cli.DiskUsage, error) {
			u, err := locator.Usage(ctx, path)
			if err != nil {
				return cli.DiskUsage{}, err
			}
			return cli.DiskUsage{Fstype: u.Fstype, Total: u.Total, Free: u.Free, UsedPercent: u.UsedPercent}, nil
		},
		Logger: log,
	}
	// Leave the interfaces nil rather than holding typed nil pointers.
	if render != nil {
		svc.Render = render
	}
	if scheduler != nil {
		svc.Scheduler = scheduler
	}

	cli.SetVersion(version)
	cli.SetServices(svc)
	return cli.Execute()
}
