// Package driving defines the operations the CLI, TUI, HTTP API and MCP
// server call on the core: building the clip index, playing clips, rendering
// chunks and exporting playlists.
//
// Implementations live in internal/core/services.
package driving
