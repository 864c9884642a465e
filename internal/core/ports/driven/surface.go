package driven

// Surface is one playback slot: something that can open a media file, play
// it and stop. Implementations report progress through SurfaceEvents and
// must never call back synchronously from Open, Play or Stop.
type Surface interface {
	// Open starts loading path. Opened or Failed follows.
	Open(path string)

	// Play starts playing the opened media. Ended or Failed follows.
	Play()

	// Stop halts playback and releases the loaded media. No further events
	// are reported for the media that was loaded.
	Stop()

	// SetVisible shows or hides the surface.
	SetVisible(visible bool)
}

// SurfaceEvents receives a surface's progress. Every callback names the
// path it refers to so stale events can be recognised.
type SurfaceEvents interface {
	// Opened reports that path is loaded and ready to play.
	Opened(path string)

	// Ended reports that path played to completion.
	Ended(path string)

	// Failed reports that path could not be opened or played.
	Failed(path string, err error)
}

// SurfaceFactory creates surfaces. dispatch must be used to deliver every
// event so that events reach the playback loop's goroutine.
type SurfaceFactory interface {
	NewSurface(camera string, events SurfaceEvents, dispatch func(func())) Surface
}
