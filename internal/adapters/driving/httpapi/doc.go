// Package httpapi serves the clip index, HLS playlists and segment media
// over HTTP, alongside Prometheus metrics and the streamable MCP endpoint.
package httpapi
