package domain

import "time"

const unknownDescription = "Unknown"

// PlayerKind selects the playback surface implementation.
type PlayerKind string

// Available player kinds.
const (
	// PlayerClock plays segments against a timer sized from the probed
	// media duration. Nothing is displayed.
	PlayerClock PlayerKind = "clock"

	// PlayerExec launches an external player process per segment.
	PlayerExec PlayerKind = "exec"
)

// IsValid returns true if the player kind is recognised.
func (k PlayerKind) IsValid() bool {
	switch k {
	case PlayerClock, PlayerExec:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k PlayerKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the player kind.
func (k PlayerKind) Description() string {
	switch k {
	case PlayerClock:
		return "Clock (headless, timed from media duration)"
	case PlayerExec:
		return "External player process"
	default:
		return unknownDescription
	}
}

// AllPlayerKinds returns every supported player kind.
func AllPlayerKinds() []PlayerKind {
	return []PlayerKind{PlayerClock, PlayerExec}
}

// StorageSettings configures where clips are looked for.
type StorageSettings struct {
	// Roots are explicitly configured storage roots.
	Roots []string

	// Discover adds TeslaCam folders found on mounted drives.
	Discover bool
}

// PlaybackSettings configures playback sessions.
type PlaybackSettings struct {
	Cameras             []string
	Primary             string
	PlaceholderDuration time.Duration
}

// Options converts the settings into session options.
func (p PlaybackSettings) Options() PlaybackOptions {
	return PlaybackOptions{
		Cameras:             p.Cameras,
		Primary:             p.Primary,
		PlaceholderDuration: p.PlaceholderDuration,
	}.Normalise()
}

// PlayerSettings configures the playback surface.
type PlayerSettings struct {
	Kind PlayerKind

	// Command is the external player and its arguments. The segment path is
	// appended.
	Command []string
}

// RendererSettings configures the external media tool.
type RendererSettings struct {
	FFmpegPath    string
	FFprobePath   string
	Composition   Composition
	BufferTimeout time.Duration
}

// IsConfigured returns true if both tool paths are set.
func (r RendererSettings) IsConfigured() bool {
	return r.FFmpegPath != "" && r.FFprobePath != ""
}

// WatchSettings configures filesystem watching.
type WatchSettings struct {
	Enabled     bool
	MinInterval time.Duration
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Storage   StorageSettings
	Playback  PlaybackSettings
	Player    PlayerSettings
	Renderer  RendererSettings
	Watch     WatchSettings
	Scheduler SchedulerConfig
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Discover: true,
		},
		Playback: PlaybackSettings{
			Cameras:             DefaultCameras(),
			Primary:             MandatoryCamera,
			PlaceholderDuration: DefaultPlaceholderDuration,
		},
		Player: PlayerSettings{
			Kind:    PlayerClock,
			Command: []string{"ffplay", "-autoexit", "-loglevel", "error"},
		},
		Renderer: RendererSettings{
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
			Composition:   DefaultComposition(),
			BufferTimeout: 30 * time.Second,
		},
		Watch: WatchSettings{
			MinInterval: 10 * time.Second,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}
