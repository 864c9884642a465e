package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// Shared fixture times.
var (
	chunk1Time = time.Date(2023, 2, 23, 14, 6, 15, 0, time.UTC)
	chunk2Time = time.Date(2023, 2, 23, 14, 7, 15, 0, time.UTC)
)

// touch creates an empty file (and its parents) under root.
func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, r)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
}

// writeFile creates a file with content under root.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// segmentFiles returns segment file names for every camera at ts.
func segmentFiles(dir string, ts time.Time, cameras ...string) []string {
	files := make([]string, 0, len(cameras))
	for _, cam := range cameras {
		files = append(files, filepath.Join(dir, domain.FormatSegmentName(ts, cam, "mp4")))
	}
	return files
}

// buildMockStorage lays out a TeslaCam-like tree:
//
//	Mocks/2023-02-23_14-16-15/                         2 chunks, 4 cameras, event.json, thumb.png
//	Mocks/Missing Left Camera Angle on Second Chunk/   2 chunks, 7 files
//	Mocks/No Front Angle/                              segments, but never a front camera
//	Mocks/Custom Folder Name/                          1 chunk, event.json only timestamp source
//	Mocks/Empty/                                       nothing
func buildMockStorage(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	all := domain.DefaultCameras()

	named := filepath.Join("Mocks", "2023-02-23_14-16-15")
	touch(t, root, segmentFiles(named, chunk1Time, all...)...)
	touch(t, root, segmentFiles(named, chunk2Time, all...)...)
	touch(t, root, filepath.Join(named, "thumb.png"))
	writeFile(t, root, filepath.Join(named, "event.json"),
		`{"timestamp":"2023-02-23T14:16:00","city":"Austin","reason":"user_interaction_dashcam_icon_tapped","camera":"0"}`)

	missing := filepath.Join("Mocks", "Missing Left Camera Angle on Second Chunk")
	touch(t, root, segmentFiles(missing, chunk1Time, all...)...)
	touch(t, root, segmentFiles(missing, chunk2Time, "front", "back", "right_repeater")...)

	noFront := filepath.Join("Mocks", "No Front Angle")
	touch(t, root, segmentFiles(noFront, chunk1Time, "back", "left_repeater")...)
	touch(t, root, segmentFiles(noFront, chunk2Time, "back")...)

	custom := filepath.Join("Mocks", "Custom Folder Name")
	touch(t, root, segmentFiles(custom, chunk1Time, "front", "back")...)
	writeFile(t, root, filepath.Join(custom, "event.json"),
		`{"timestamp":"2023-06-03T15:54:27","city":"Taylor","est_lat":"30.6075","est_lon":"-97.4812","reason":"user_interaction_honk","camera":"0"}`)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "Mocks", "Empty"), 0o755))
	return root
}
