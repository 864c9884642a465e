package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Handler exposes camdeck's HTTP endpoints.
type Handler struct {
	index    driving.IndexService
	playlist driving.PlaylistService
	playback driving.PlaybackService
	render   driving.RenderService
	logger   *logger.Logger
}

// NewHandler creates a handler. playlist and playback may be nil, in which
// case their endpoints answer 503.
func NewHandler(
	index driving.IndexService,
	playlist driving.PlaylistService,
	playback driving.PlaybackService,
	log *logger.Logger,
) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{index: index, playlist: playlist, playback: playback, logger: log}
}

type clipsResponse struct {
	Clips   []domain.ClipSummary `json:"clips"`
	Total   int                  `json:"total"`
	Partial bool                 `json:"partial"`
	BuiltAt string               `json:"built_at,omitempty"`
}

type scanResponse struct {
	Clips int          `json:"clips"`
	Roots []rootReport `json:"roots"`
}

type rootReport struct {
	Root    string   `json:"root"`
	Clips   int      `json:"clips"`
	Error   string   `json:"error,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListClips handles GET /api/clips. The optional camera query parameter
// keeps only clips that recorded that camera.
func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	idx := h.index.Current()
	clips := domain.FilterByCamera(idx.Clips(), r.URL.Query().Get("camera"))

	resp := clipsResponse{
		Clips:   make([]domain.ClipSummary, len(clips)),
		Total:   len(clips),
		Partial: idx.Partial(),
	}
	for i := range clips {
		resp.Clips[i] = domain.Summarise(clips[i])
	}
	if !idx.BuiltAt().IsZero() {
		resp.BuiltAt = idx.BuiltAt().Format("2006-01-02T15:04:05Z07:00")
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetClip handles GET /api/clips/{id}.
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.clip(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, domain.Detail(clip))
}

// GetPlaylist handles GET /api/clips/{id}/{camera}/playlist.m3u8.
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	if h.playlist == nil {
		h.writeError(w, http.StatusServiceUnavailable, errors.New("playlists not available"))
		return
	}
	clipID := chi.URLParam(r, "id")
	camera := chi.URLParam(r, "camera")

	data, contentType, err := h.playlist.Playlist(r.Context(), clipID, camera, MediaURI)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// GetMedia handles GET /media/{id}/{camera}/{chunk} by serving the segment
// file itself. Range requests are honoured.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.clip(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "chunk"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("chunk: %w", domain.ErrInvalidInput))
		return
	}
	chunk, ok := clip.Chunk(n)
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("chunk %d: %w", n, domain.ErrNotFound))
		return
	}
	seg, ok := chunk.Segment(chi.URLParam(r, "camera"))
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("camera: %w", domain.ErrNotFound))
		return
	}
	http.ServeFile(w, r, seg.Path)
}

// Scan handles POST /api/scan by rescanning every configured root.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	idx, err := h.index.Scan(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := scanResponse{Clips: idx.Len()}
	for _, rep := range idx.Reports() {
		rr := rootReport{Root: rep.Root, Clips: rep.Clips}
		if rep.Err != nil {
			rr.Error = rep.Err.Error()
		}
		for _, s := range rep.Skipped {
			rr.Skipped = append(rr.Skipped, s.Path)
		}
		resp.Roots = append(resp.Roots, rr)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// PlaybackStatus handles GET /api/playback.
func (h *Handler) PlaybackStatus(w http.ResponseWriter, _ *http.Request) {
	if h.playback == nil {
		h.writeError(w, http.StatusServiceUnavailable, errors.New("playback not available"))
		return
	}
	h.writeJSON(w, http.StatusOK, newPlaybackView(h.playback.Status()))
}

func (h *Handler) clip(w http.ResponseWriter, r *http.Request) (domain.Clip, bool) {
	id := chi.URLParam(r, "id")
	clip, ok := h.index.Current().Clip(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("clip %s: %w", id, domain.ErrNotFound))
		return domain.Clip{}, false
	}
	return clip, true
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrScanInProgress):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Warn("Request failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("Writing response: %v", err)
	}
}

// MediaURI names a segment by its /media route.
func MediaURI(clip domain.Clip, chunk int, seg domain.Segment) string {
	return fmt.Sprintf("/media/%s/%s/%d", clip.ID, seg.Camera, chunk)
}
