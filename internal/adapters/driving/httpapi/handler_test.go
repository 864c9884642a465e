package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

var testTime = time.Date(2023, 2, 23, 14, 6, 15, 0, time.UTC)

// stubIndex serves a fixed index.
type stubIndex struct {
	driving.IndexService
	idx     *domain.StorageIndex
	scanErr error
}

func (s *stubIndex) Current() *domain.StorageIndex {
	if s.idx == nil {
		return domain.EmptyIndex()
	}
	return s.idx
}

func (s *stubIndex) Scan(_ context.Context, _ ...string) (*domain.StorageIndex, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.Current(), nil
}

// stubPlaylist records the request and returns a canned body.
type stubPlaylist struct {
	clipID, camera string
	uri            string
	err            error
}

func (s *stubPlaylist) Playlist(
	_ context.Context, clipID, camera string, uri driving.SegmentURIFunc,
) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	s.clipID, s.camera = clipID, camera
	clip := domain.Clip{ID: clipID}
	s.uri = uri(clip, 2, domain.Segment{Camera: camera})
	return []byte("#EXTM3U\n"), "application/vnd.apple.mpegurl", nil
}

type stubPlayback struct {
	driving.PlaybackService
	status domain.PlaybackStatus
}

func (s *stubPlayback) Status() domain.PlaybackStatus { return s.status }

// testClip builds a one-chunk clip whose segments exist under dir.
func testClip(t *testing.T, dir, id string, cameras ...string) domain.Clip {
	t.Helper()
	segs := make(map[string]domain.Segment, len(cameras))
	for _, cam := range cameras {
		path := filepath.Join(dir, domain.FormatSegmentName(testTime, cam, "mp4"))
		require.NoError(t, os.WriteFile(path, []byte("video-"+cam), 0o600))
		segs[cam] = domain.Segment{Path: path, Timestamp: testTime, Camera: cam, Ext: "mp4"}
	}
	return domain.Clip{
		ID:        id,
		Dir:       dir,
		Name:      id,
		Timestamp: testTime,
		Chunks:    []domain.Chunk{{Timestamp: testTime, Segments: segs}},
	}
}

func newTestRouter(t *testing.T, playlist driving.PlaylistService) (chi.Router, *stubIndex) {
	t.Helper()
	dir := t.TempDir()
	index := &stubIndex{idx: domain.NewStorageIndex([]domain.Clip{
		testClip(t, dir, "clip-1", "front", "back"),
	}, []domain.RootReport{{Root: dir, Clips: 1}}, testTime)}
	h := NewHandler(index, playlist, &stubPlayback{status: domain.PlaybackStatus{
		ClipID: "clip-1",
		Active: true,
		Feeds:  []domain.FeedStatus{{Camera: "front", Primary: true, State: domain.FeedPlaying}},
	}}, nil)
	return NewRouter(Config{Handler: h}), index
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ListClips(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/clips")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp clipsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Clips, 1)
	assert.Equal(t, "clip-1", resp.Clips[0].ID)
	assert.Equal(t, []string{"back", "front"}, resp.Clips[0].Cameras)
	assert.False(t, resp.Partial)
	assert.NotEmpty(t, resp.BuiltAt)
}

func TestHandler_ListClips_CameraFilter(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/clips?camera=pillar")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp clipsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Clips)
}

func TestHandler_GetClip(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/clips/clip-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var detail domain.ClipDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "clip-1", detail.ID)
	require.Len(t, detail.ChunkList, 1)
	assert.Contains(t, detail.ChunkList[0].Segments, "back")
}

func TestHandler_GetClip_NotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/clips/missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestHandler_GetPlaylist(t *testing.T) {
	playlist := &stubPlaylist{}
	r, _ := newTestRouter(t, playlist)

	rec := serve(r, http.MethodGet, "/api/clips/clip-1/back/playlist.m3u8")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "#EXTM3U"))
	assert.Equal(t, "clip-1", playlist.clipID)
	assert.Equal(t, "back", playlist.camera)
	assert.Equal(t, "/media/clip-1/back/2", playlist.uri)
}

func TestHandler_GetPlaylist_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown camera", domain.ErrNotFound, http.StatusNotFound},
		{"bad input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"other", errors.New("encoder broke"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &stubPlaylist{err: tt.err})

			rec := serve(r, http.MethodGet, "/api/clips/clip-1/front/playlist.m3u8")

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandler_GetPlaylist_Unavailable(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/clips/clip-1/front/playlist.m3u8")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_GetMedia(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/media/clip-1/back/0")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video-back", rec.Body.String())
}

func TestHandler_GetMedia_Errors(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		target string
		status int
	}{
		{"/media/missing/front/0", http.StatusNotFound},
		{"/media/clip-1/front/x", http.StatusBadRequest},
		{"/media/clip-1/front/5", http.StatusNotFound},
		{"/media/clip-1/pillar/0", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(r, http.MethodGet, tt.target).Code)
		})
	}
}

func TestHandler_Scan(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodPost, "/api/scan")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Clips)
	require.Len(t, resp.Roots, 1)
	assert.Equal(t, 1, resp.Roots[0].Clips)
}

func TestHandler_Scan_InProgress(t *testing.T) {
	r, index := newTestRouter(t, nil)
	index.scanErr = domain.ErrScanInProgress

	rec := serve(r, http.MethodPost, "/api/scan")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_PlaybackStatus(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/api/playback")

	require.Equal(t, http.StatusOK, rec.Code)
	var view playbackView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Active)
	require.Len(t, view.Feeds, 1)
	assert.Equal(t, domain.FeedPlaying.String(), view.Feeds[0].State)
}

func TestMediaURI(t *testing.T) {
	uri := MediaURI(domain.Clip{ID: "abc"}, 3, domain.Segment{Camera: "left_repeater"})
	assert.Equal(t, "/media/abc/left_repeater/3", uri)
}
