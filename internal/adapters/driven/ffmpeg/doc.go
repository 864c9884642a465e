// Package ffmpeg drives the ffmpeg and ffprobe command-line tools.
//
// Renderer composes one chunk into a single picture: the primary camera
// fills the frame and up to four overlay cameras are scaled, labelled and
// drawn in the corners. Cameras a chunk lacks are replaced by a black
// lavfi source. Prober reads media durations through ffprobe.
package ffmpeg
