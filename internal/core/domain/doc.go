// Package domain holds camdeck's vocabulary: segments, chunks and clips
// recovered from a TeslaCam tree, the StorageIndex snapshot built from
// them, and the status a multi-camera playback session reports.
//
// A Segment is one camera's file for one time slice. Segments sharing a
// timestamp form a Chunk, which is only valid when the front camera is
// present. A Clip is the ordered run of chunks found in one directory,
// and a StorageIndex orders every clip newest first.
//
// Nothing here does I/O, and the package imports only the standard
// library; every other layer builds on these types.
package domain
