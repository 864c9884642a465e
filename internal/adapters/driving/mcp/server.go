// Package mcp exposes the clip index and the playback session over the
// Model Context Protocol, so assistants can browse recordings.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// ErrMissingIndexService is returned by NewServer without an index.
var ErrMissingIndexService = errors.New("mcp: index service is required")

const instructions = `camdeck indexes TeslaCam recordings. Use list_clips to find clips,
get_clip for the chunks and cameras of one clip, and playback_status while
a playback session is running. Clip summaries are also exposed as resources.`

// Config wires a Server to the core.
type Config struct {
	Index driving.IndexService

	// Playback adds the playback_status tool when set.
	Playback driving.PlaybackService

	// Version is reported to clients. Defaults to "dev".
	Version string

	Logger *logger.Logger
}

// Server answers MCP requests from the clip index.
type Server struct {
	cfg    Config
	log    *logger.Logger
	server *mcp.Server
}

// NewServer registers every tool and resource for cfg.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Index == nil {
		return nil, ErrMissingIndexService
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg: cfg,
		log: log,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "camdeck", Version: cfg.Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdin and stdout until ctx ends. With
// verbose logging the JSON-RPC traffic is copied to the log output.
func (s *Server) Run(ctx context.Context) error {
	var transport mcp.Transport = &mcp.StdioTransport{}
	if s.log.IsVerbose() {
		transport = &mcp.LoggingTransport{Transport: transport, Writer: s.log.Writer()}
	}
	return s.server.Run(ctx, transport)
}

// Handler serves the streamable HTTP transport. Every session shares this
// server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// RunHTTP listens on addr until ctx ends.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("mcp http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp http shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
