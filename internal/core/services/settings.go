package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/camdeck/internal/core/domain"
	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyStorageRoots       = "storage.roots"
	keyStorageDiscover    = "storage.discover"
	keyPlaybackCameras    = "playback.cameras"
	keyPlaybackPrimary    = "playback.primary"
	keyPlaceholderSeconds = "playback.placeholder_seconds"
	keyPlayerKind         = "player.kind"
	keyPlayerCommand      = "player.command"
	keyFFmpegPath         = "renderer.ffmpeg_path"
	keyFFprobePath        = "renderer.ffprobe_path"
	keyResolution         = "renderer.resolution"
	keyPadding            = "renderer.padding"
	keyDurationSeconds    = "renderer.duration_seconds"
	keyBufferTimeout      = "renderer.buffer_timeout_seconds"
	keyWatchEnabled       = "watch.enabled"
	keyWatchMinInterval   = "watch.min_interval_seconds"
	keySchedulerEnabled   = "scheduler.enabled"
	keyRescanIntervalMins = "scheduler.rescan_interval_minutes"
)

// SettingsService reads application settings from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or unusable values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	comp := defaults.Renderer.Composition
	if w, h, ok := parseResolution(s.getString(keyResolution, "")); ok {
		comp.TileWidth, comp.TileHeight = w, h
	}
	comp.Padding = s.getInt(keyPadding, comp.Padding)
	comp.Duration = s.getSeconds(keyDurationSeconds, comp.Duration)

	rescan := defaults.Scheduler.Task(domain.TaskIDStorageRescan)
	rescan.Interval = s.getMinutes(keyRescanIntervalMins, rescan.Interval)

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Roots:    s.getStringSlice(keyStorageRoots, nil),
			Discover: s.getBool(keyStorageDiscover, defaults.Storage.Discover),
		},
		Playback: domain.PlaybackSettings{
			Cameras:             s.getStringSlice(keyPlaybackCameras, defaults.Playback.Cameras),
			Primary:             s.getString(keyPlaybackPrimary, defaults.Playback.Primary),
			PlaceholderDuration: s.getSeconds(keyPlaceholderSeconds, defaults.Playback.PlaceholderDuration),
		},
		Player: domain.PlayerSettings{
			Kind:    s.getPlayerKind(defaults.Player.Kind),
			Command: s.getCommand(keyPlayerCommand, defaults.Player.Command),
		},
		Renderer: domain.RendererSettings{
			FFmpegPath:    s.getString(keyFFmpegPath, defaults.Renderer.FFmpegPath),
			FFprobePath:   s.getString(keyFFprobePath, defaults.Renderer.FFprobePath),
			Composition:   comp,
			BufferTimeout: s.getSeconds(keyBufferTimeout, defaults.Renderer.BufferTimeout),
		},
		Watch: domain.WatchSettings{
			Enabled:     s.getBool(keyWatchEnabled, defaults.Watch.Enabled),
			MinInterval: s.getSeconds(keyWatchMinInterval, defaults.Watch.MinInterval),
		},
		Scheduler: domain.SchedulerConfig{
			Enabled: s.getBool(keySchedulerEnabled, defaults.Scheduler.Enabled),
			Tasks:   map[string]domain.TaskConfig{
				domain.TaskIDStorageRescan: rescan,
			},
		},
	}

	return settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Validate reports configured values that cannot be used as given.
// Get still returns usable settings when Validate fails.
func (s *SettingsService) Validate() error {
	var errs []error

	if kind := s.getString(keyPlayerKind, ""); kind != "" && !domain.PlayerKind(kind).IsValid() {
		errs = append(errs, fmt.Errorf("%s: unknown player %q", keyPlayerKind, kind))
	}
	if res := s.getString(keyResolution, ""); res != "" {
		if _, _, ok := parseResolution(res); !ok {
			errs = append(errs, fmt.Errorf("%s: expected WIDTHxHEIGHT, got %q", keyResolution, res))
		}
	}
	if v, set := s.configStore.Lookup(keyPlaybackCameras); set {
		if cams, _ := stringsValue(v); len(cams) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one camera required", keyPlaybackCameras))
		}
	}
	for _, key := range []string{keyPlaceholderSeconds, keyPadding, keyDurationSeconds, keyBufferTimeout, keyWatchMinInterval, keyRescanIntervalMins} {
		v, set := s.configStore.Lookup(key)
		if !set {
			continue
		}
		if n, ok := intValue(v); !ok {
			errs = append(errs, fmt.Errorf("%s: expected a whole number, got %v", key, v))
		} else if n < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", key))
		}
	}
	for _, key := range []string{keyStorageDiscover, keyWatchEnabled, keySchedulerEnabled} {
		if v, set := s.configStore.Lookup(key); set {
			if _, ok := boolValue(v); !ok {
				errs = append(errs, fmt.Errorf("%s: expected true or false, got %v", key, v))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
}

func (s *SettingsService) getString(key, defaultVal string) string {
	v, _ := s.configStore.Lookup(key)
	if str, ok := stringValue(v); ok && str != "" {
		return str
	}
	return defaultVal
}

// getInt treats zero and negative values as unset.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	v, _ := s.configStore.Lookup(key)
	if n, ok := intValue(v); ok && n > 0 {
		return n
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	v, _ := s.configStore.Lookup(key)
	if b, ok := boolValue(v); ok {
		return b
	}
	return defaultVal
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	v, _ := s.configStore.Lookup(key)
	if list, ok := stringsValue(v); ok && len(list) > 0 {
		return list
	}
	return defaultVal
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	return time.Duration(s.getInt(key, int(defaultVal/time.Second))) * time.Second
}

func (s *SettingsService) getMinutes(key string, defaultVal time.Duration) time.Duration {
	return time.Duration(s.getInt(key, int(defaultVal/time.Minute))) * time.Minute
}

// getCommand accepts either a list or a single space-separated string.
func (s *SettingsService) getCommand(key string, defaultVal []string) []string {
	v, _ := s.configStore.Lookup(key)
	if str, ok := v.(string); ok {
		if fields := strings.Fields(str); len(fields) > 0 {
			return fields
		}
		return defaultVal
	}
	return s.getStringSlice(key, defaultVal)
}

func (s *SettingsService) getPlayerKind(defaultVal domain.PlayerKind) domain.PlayerKind {
	kind := domain.PlayerKind(s.getString(keyPlayerKind, ""))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func parseResolution(s string) (int, int, bool) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(s)), "%dx%d", &w, &h); err != nil {
		return 0, 0, false
	}
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
