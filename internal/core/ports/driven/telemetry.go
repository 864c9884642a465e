package driven

import "time"

// Telemetry records operational metrics.
type Telemetry interface {
	// ScanCompleted records a finished scan.
	ScanCompleted(clips, failedRoots int, took time.Duration)

	// SegmentAdvanced records a feed moving on to a new segment.
	SegmentAdvanced(camera string, preloaded bool)

	// PlaybackFailed records a surface failure.
	PlaybackFailed(camera string)

	// RenderFailed records a renderer failure.
	RenderFailed()
}
