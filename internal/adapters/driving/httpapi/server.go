package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/camdeck/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Config wires the router.
type Config struct {
	Handler *Handler

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// MCP serves the streamable MCP endpoint at /mcp when set.
	MCP http.Handler

	// Middleware runs around every request, outermost first.
	Middleware []func(http.Handler) http.Handler

	Logger *logger.Logger
}

// NewRouter builds the chi router.
func NewRouter(cfg Config) chi.Router {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	h := cfg.Handler

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", h.Scan)
		r.Get("/playback", h.PlaybackStatus)
		r.Route("/clips", func(r chi.Router) {
			r.Get("/", h.ListClips)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClip)
				r.Get("/{camera}/playlist.m3u8", h.GetPlaylist)
				r.Get("/stream/{chunk}", h.StreamChunk)
			})
		})
	})
	r.Get("/media/{id}/{camera}/{chunk}", h.GetMedia)

	return r
}

// RequestLogger logs each request at debug level.
func RequestLogger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("%s %s %d %dB %s", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Millisecond))
		})
	}
}

// ListenAndServe serves handler on addr until ctx is cancelled, then drains
// open connections.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("HTTP server listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
