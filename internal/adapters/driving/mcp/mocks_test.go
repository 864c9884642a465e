package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	idx *domain.StorageIndex
}

func (m *mockIndexService) Scan(_ context.Context, _ ...string) (*domain.StorageIndex, error) {
	return m.Current(), nil
}

func (m *mockIndexService) ScanAsync(_ context.Context, _ ...string) <-chan driving.ScanResult {
	ch := make(chan driving.ScanResult, 1)
	ch <- driving.ScanResult{Index: m.Current()}
	return ch
}

func (m *mockIndexService) Load(_ context.Context) (*domain.StorageIndex, error) {
	return m.Current(), nil
}

func (m *mockIndexService) Current() *domain.StorageIndex {
	if m.idx == nil {
		return domain.EmptyIndex()
	}
	return m.idx
}

func (m *mockIndexService) Roots(_ context.Context) ([]string, error) { return nil, nil }

func (m *mockIndexService) History(_ context.Context, _ int) ([]domain.ScanRun, error) {
	return nil, nil
}

func (m *mockIndexService) Scanning() bool { return false }

func (m *mockIndexService) Subscribe(_ func(*domain.StorageIndex)) func() { return func() {} }

// mockPlaybackService is a mock implementation of driving.PlaybackService.
type mockPlaybackService struct {
	status domain.PlaybackStatus
}

func (m *mockPlaybackService) Start(_ context.Context, _ string, _ domain.PlaybackOptions) (string, error) {
	return "session", nil
}

func (m *mockPlaybackService) Stop() error { return nil }

func (m *mockPlaybackService) Status() domain.PlaybackStatus { return m.status }

func (m *mockPlaybackService) Subscribe(_ func(domain.PlaybackStatus)) func() { return func() {} }

var testTime = time.Date(2023, 2, 23, 14, 6, 15, 0, time.UTC)

func testClip(id, name string, ts time.Time, cameras ...string) domain.Clip {
	segs := make(map[string]domain.Segment, len(cameras))
	for _, cam := range cameras {
		segs[cam] = domain.Segment{
			Path:      "/clips/" + id + "/" + domain.FormatSegmentName(ts, cam, "mp4"),
			Timestamp: ts,
			Camera:    cam,
			Ext:       "mp4",
		}
	}
	return domain.Clip{
		ID:        id,
		Dir:       "/clips/" + id,
		Name:      name,
		Timestamp: ts,
		Chunks:    []domain.Chunk{{Timestamp: ts, Segments: segs}},
	}
}

func testIndex() *domain.StorageIndex {
	return domain.NewStorageIndex([]domain.Clip{
		testClip("clip-1", "older", testTime, "front"),
		testClip("clip-2", "newer", testTime.Add(time.Hour), "front", "back"),
	}, nil, testTime)
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	server, err := NewServer(cfg)
	require.NoError(t, err)
	return server
}
