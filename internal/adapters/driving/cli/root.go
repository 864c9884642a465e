// Package cli provides the camdeck command line built on cobra.
package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// version is set at build time through SetVersion.
var version = "dev"

// UsageFunc reports disk usage for the volume holding path.
type UsageFunc func(ctx context.Context, path string) (DiskUsage, error)

// DiskUsage is the capacity of a storage volume.
type DiskUsage struct {
	Fstype      string
	Total       uint64
	Free        uint64
	UsedPercent float64
}

// Services holds everything the commands run against. Unset services make
// the commands that need them fail with a "not configured" error.
type Services struct {
	Index     driving.IndexService
	Watch     driving.WatchService
	Playback  driving.PlaybackService
	Render    driving.RenderService
	Playlist  driving.PlaylistService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	SchedulerConfig domain.SchedulerConfig

	// Metrics serves /metrics under `camdeck serve`.
	Metrics http.Handler

	// Middleware wraps every HTTP request under `camdeck serve`.
	Middleware []func(http.Handler) http.Handler

	// Usage adds capacity figures to `camdeck roots`.
	Usage UsageFunc

	Logger *logger.Logger
}

var (
	indexService    driving.IndexService
	watchService    driving.WatchService
	playbackService driving.PlaybackService
	renderService   driving.RenderService
	playlistService driving.PlaylistService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig
	metricsHandler  http.Handler
	httpMiddleware  []func(http.Handler) http.Handler
	diskUsage       UsageFunc
	appLogger       = logger.Nop()
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "camdeck",
	Short: "Index and play back dashcam clips",
	Long: `camdeck indexes TeslaCam recordings into clips and plays every camera of a
clip in lockstep.

Storage roots come from ~/.camdeck/config.toml and, unless disabled, from
TeslaCam folders on mounted drives.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose || os.Getenv("CAMDECK_VERBOSE") != "" {
			appLogger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// SetServices installs the services the commands use.
func SetServices(s Services) {
	indexService = s.Index
	watchService = s.Watch
	playbackService = s.Playback
	renderService = s.Render
	playlistService = s.Playlist
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	metricsHandler = s.Metrics
	httpMiddleware = s.Middleware
	diskUsage = s.Usage
	appLogger = s.Logger
	if appLogger == nil {
		appLogger = logger.Nop()
	}
}

// SetVersion sets the version reported by `camdeck version`.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, falling back to Background
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
