package domain

import (
	"path/filepath"
	"regexp"
	"time"
)

// SegmentTimeLayout is the timestamp layout used in segment file names and
// clip directory names.
const SegmentTimeLayout = "2006-01-02_15-04-05"

// DisplayTimeLayout is how a clip's timestamp is shown when it becomes the
// clip's display name.
const DisplayTimeLayout = "01/02/2006 15:04:05"

var (
	segmentPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})-(.+)\.([^.]+)$`)
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`)
)

// Segment is one camera's recording file for one time slice.
// Segments are only created from file names that match the naming
// pattern; they are never constructed from partial data.
type Segment struct {
	// Path is the full path of the media file.
	Path string

	// Timestamp is the wall-clock start time encoded in the file name.
	// It carries no zone and is stored as UTC.
	Timestamp time.Time

	// Camera is the free-form camera identifier, e.g. "front".
	Camera string

	// Ext is the file extension without the leading dot.
	Ext string
}

// Name returns the segment's file name.
func (s Segment) Name() string {
	return filepath.Base(s.Path)
}

// ParseSegmentName extracts the timestamp, camera and extension from a
// segment file name. ok is false when the name does not match the pattern
// or the timestamp is not a real calendar time.
func ParseSegmentName(name string) (ts time.Time, camera, ext string, ok bool) {
	m := segmentPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", "", false
	}
	ts, err := time.Parse(SegmentTimeLayout, m[1])
	if err != nil {
		return time.Time{}, "", "", false
	}
	return ts, m[2], m[3], true
}

// FormatSegmentName is the inverse of ParseSegmentName.
func FormatSegmentName(ts time.Time, camera, ext string) string {
	return ts.Format(SegmentTimeLayout) + "-" + camera + "." + ext
}

// NewSegment builds a Segment from a file path, or reports false if the
// file name is not a segment name.
func NewSegment(path string) (Segment, bool) {
	ts, camera, ext, ok := ParseSegmentName(filepath.Base(path))
	if !ok {
		return Segment{}, false
	}
	return Segment{Path: path, Timestamp: ts, Camera: camera, Ext: ext}, true
}

// ParseDirTimestamp finds the first valid timestamp embedded anywhere in a
// directory name.
func ParseDirTimestamp(name string) (time.Time, bool) {
	for _, candidate := range timestampPattern.FindAllString(name, -1) {
		if ts, err := time.Parse(SegmentTimeLayout, candidate); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
