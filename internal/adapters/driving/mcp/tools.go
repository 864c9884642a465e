package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

// defaultListLimit caps list_clips when the caller gives no limit.
const defaultListLimit = 50

// ListClipsInput is the input schema for the list_clips tool.
type ListClipsInput struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of clips to return (default 50)"`
	Camera string `json:"camera,omitempty" jsonschema:"only return clips recorded by this camera, e.g. front"`
}

// ListClipsOutput is the output schema for the list_clips tool.
type ListClipsOutput struct {
	Clips   []domain.ClipSummary `json:"clips"`
	Count   int                  `json:"count"`
	Total   int                  `json:"total"`
	Partial bool                 `json:"partial"`
}

// GetClipInput is the input schema for the get_clip tool.
type GetClipInput struct {
	ID string `json:"id" jsonschema:"the clip ID returned by list_clips"`
}

// GetClipOutput is the output schema for the get_clip tool.
type GetClipOutput struct {
	Clip domain.ClipDetail `json:"clip"`
}

// PlaybackStatusInput is the input schema for the playback_status tool.
type PlaybackStatusInput struct{}

// PlaybackStatusOutput is the output schema for the playback_status tool.
type PlaybackStatusOutput struct {
	Active     bool         `json:"active"`
	ClipID     string       `json:"clip_id,omitempty"`
	ClipName   string       `json:"clip_name,omitempty"`
	ChunkIndex int          `json:"chunk_index"`
	ChunkCount int          `json:"chunk_count"`
	Exhausted  bool         `json:"exhausted"`
	Feeds      []FeedOutput `json:"feeds,omitempty"`
}

// FeedOutput is one camera feed in PlaybackStatusOutput.
type FeedOutput struct {
	Camera  string `json:"camera"`
	Primary bool   `json:"primary"`
	State   string `json:"state"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_clips",
		Description: "List indexed dashcam clips, newest first",
	}, s.handleListClips)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_clip",
		Description: "Show one clip's chunks, cameras and event metadata",
	}, s.handleGetClip)

	if s.cfg.Playback != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "playback_status",
			Description: "Report the running playback session",
		}, s.handlePlaybackStatus)
	}
}

func (s *Server) handleListClips(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListClipsInput,
) (*mcp.CallToolResult, ListClipsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	idx := s.cfg.Index.Current()
	clips := domain.FilterByCamera(idx.Clips(), input.Camera)
	total := len(clips)
	if len(clips) > limit {
		clips = clips[:limit]
	}

	output := ListClipsOutput{
		Clips:   make([]domain.ClipSummary, len(clips)),
		Count:   len(clips),
		Total:   total,
		Partial: idx.Partial(),
	}
	for i := range clips {
		output.Clips[i] = domain.Summarise(clips[i])
	}

	return nil, output, nil
}

func (s *Server) handleGetClip(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetClipInput,
) (*mcp.CallToolResult, GetClipOutput, error) {
	clip, ok := s.cfg.Index.Current().Clip(input.ID)
	if !ok {
		return nil, GetClipOutput{}, fmt.Errorf("clip %s: %w", input.ID, domain.ErrNotFound)
	}
	return nil, GetClipOutput{Clip: domain.Detail(clip)}, nil
}

func (s *Server) handlePlaybackStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ PlaybackStatusInput,
) (*mcp.CallToolResult, PlaybackStatusOutput, error) {
	st := s.cfg.Playback.Status()
	output := PlaybackStatusOutput{
		Active:     st.Active,
		ClipID:     st.ClipID,
		ClipName:   st.ClipName,
		ChunkIndex: st.ChunkIndex,
		ChunkCount: st.ChunkCount,
		Exhausted:  st.Exhausted,
	}
	for _, f := range st.Feeds {
		fo := FeedOutput{
			Camera:  f.Camera,
			Primary: f.Primary,
			State:   f.State.String(),
			Path:    f.Path,
		}
		if f.Err != nil {
			fo.Error = f.Err.Error()
		}
		output.Feeds = append(output.Feeds, fo)
	}
	return nil, output, nil
}
