package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/camdeck/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for camdeck resources.
	uriScheme = "camdeck://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "clips",
		Name:        "clips",
		Description: "Every indexed clip, newest first",
		MIMEType:    "application/json",
	}, s.handleClipsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "clips/{clipId}",
		Name:        "clip",
		Description: "Chunks and cameras of a specific clip",
		MIMEType:    "application/json",
	}, s.handleClipResource)
}

// handleClipsResource returns every clip in the current index.
func (s *Server) handleClipsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	clips := s.cfg.Index.Current().Clips()
	infos := make([]domain.ClipSummary, len(clips))
	for i := range clips {
		infos[i] = domain.Summarise(clips[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleClipResource returns one clip in detail.
func (s *Server) handleClipResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	clipID := extractClipID(req.Params.URI)
	if clipID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	clip, ok := s.cfg.Index.Current().Clip(clipID)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, domain.Detail(clip))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractClipID extracts the clip ID from a URI like camdeck://clips/{clipId}.
func extractClipID(uri string) string {
	const prefix = uriScheme + "clips/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
