package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show application settings",
	Long: `Shows the effective settings: values from the config file with defaults
filled in. Settings are read from the config file and never written.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.ConfigPath())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Roots: %s\n", listOrNone(settings.Storage.Roots))
	cmd.Printf("  Discover drives: %s\n", yesNo(settings.Storage.Discover))
	cmd.Println()

	cmd.Println("[Playback]")
	cmd.Printf("  Cameras: %s\n", strings.Join(settings.Playback.Cameras, ", "))
	cmd.Printf("  Primary: %s\n", settings.Playback.Primary)
	cmd.Printf("  Placeholder: %s\n", settings.Playback.PlaceholderDuration)
	cmd.Println()

	cmd.Println("[Player]")
	cmd.Printf("  Kind: %s\n", settings.Player.Kind.Description())
	cmd.Printf("  Command: %s\n", strings.Join(settings.Player.Command, " "))
	cmd.Println()

	comp := settings.Renderer.Composition
	cmd.Println("[Renderer]")
	cmd.Printf("  ffmpeg: %s\n", settings.Renderer.FFmpegPath)
	cmd.Printf("  ffprobe: %s\n", settings.Renderer.FFprobePath)
	cmd.Printf("  Tile: %s, padding %d\n", comp.Resolution(), comp.Padding)
	cmd.Printf("  Duration limit: %s\n", comp.Duration)
	cmd.Printf("  Buffer timeout: %s\n", settings.Renderer.BufferTimeout)
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Watch.Enabled))
	cmd.Printf("  Min interval: %s\n", settings.Watch.MinInterval)
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Scheduler.Enabled))
	for _, id := range slices.Sorted(maps.Keys(settings.Scheduler.Tasks)) {
		task := settings.Scheduler.Tasks[id]
		cmd.Printf("  %s: every %s (%s)\n", id, task.Interval, enabledDisabled(task.Enabled))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Printf("Edit %s to fix configuration issues.\n", settingsService.ConfigPath())
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func enabledDisabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
