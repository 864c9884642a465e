package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/camdeck/internal/adapters/driving/httpapi"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve clips over HTTP",
	Long: `Starts an HTTP server exposing the clip index.

Endpoints:
  GET  /api/clips                              clips, newest first
  GET  /api/clips/{id}                         one clip with every chunk
  GET  /api/clips/{id}/{camera}/playlist.m3u8  HLS playlist of one camera
  GET  /api/clips/{id}/stream/{chunk}          composed chunk as MPEG-TS
  GET  /media/{id}/{camera}/{chunk}            segment file
  GET  /api/playback                           playback session status
  POST /api/scan                               rescan storage roots
  GET  /metrics                                Prometheus metrics
       /mcp                                    MCP over streamable HTTP`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rescan when storage roots change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errIndexNotConfigured
	}

	ctx := commandContext(cmd)
	if _, err := ensureIndex(ctx); err != nil {
		appLogger.Warn("Initial scan: %v", err)
	}

	mcpServer, err := newMCPServer()
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(indexService, playlistService, playbackService, appLogger)
	if renderService != nil {
		handler.WithRender(renderService)
	}
	router := httpapi.NewRouter(httpapi.Config{
		Handler:    handler,
		Metrics:    metricsHandler,
		MCP:        mcpServer.Handler(),
		Middleware: httpMiddleware,
		Logger:     appLogger,
	})

	stopScheduler := startScheduler(ctx)
	defer stopScheduler()

	if watchService != nil && (serveWatch || watchEnabled()) {
		go func() {
			if err := watchService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Warn("Watch stopped: %v", err)
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d clips on %s\n", indexService.Current().Len(), serveAddr)
	return httpapi.ListenAndServe(ctx, serveAddr, router, appLogger)
}

func watchEnabled() bool {
	if settingsService == nil {
		return false
	}
	settings, err := settingsService.Get()
	return err == nil && settings.Watch.Enabled
}
