package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// streamPoll is how long the stream waits for the renderer to write more.
const streamPoll = 100 * time.Millisecond

// WithRender enables GET /api/clips/{id}/stream/{chunk}.
func (h *Handler) WithRender(render driving.RenderService) *Handler {
	h.render = render
	return h
}

// StreamChunk handles GET /api/clips/{id}/stream/{chunk}. The chunk is
// composed on the fly and sent as MPEG-TS while the renderer writes it;
// the optional primary query parameter picks the full-frame camera. The
// renderer is stopped when the response ends or the client goes away.
func (h *Handler) StreamChunk(w http.ResponseWriter, r *http.Request) {
	if h.render == nil {
		h.writeError(w, http.StatusServiceUnavailable, errors.New("rendering not available"))
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "chunk"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("chunk: %w", domain.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	stream, err := h.render.Stream(ctx, chi.URLParam(r, "id"), n, r.URL.Query().Get("primary"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			h.logger.Debug("Stopping stream: %v", err)
		}
	}()

	w.Header().Set("Content-Type", "video/mp2t")
	w.WriteHeader(http.StatusOK)
	if err := follow(ctx, w, stream); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("Streaming chunk %d: %v", n, err)
	}
}

// follow copies the stream's output file to w as it grows, until the
// renderer exits and the file is drained, or ctx ends.
func follow(ctx context.Context, w io.Writer, stream driving.RenderStream) error {
	f, err := os.Open(stream.Output())
	if err != nil {
		return err
	}
	defer f.Close()

	flusher, _ := w.(http.Flusher)
	done := stream.Done()
	for {
		n, err := io.Copy(w, f)
		if err != nil {
			return err
		}
		if n > 0 && flusher != nil {
			flusher.Flush()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			// One more pass picks up whatever was written before exit.
			done = nil
			continue
		default:
		}
		if done == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			done = nil
		case <-time.After(streamPoll):
		}
	}
}
