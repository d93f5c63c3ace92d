// ABOUTME: MCP resource implementations for moody.
// ABOUTME: Provides moody://recent and moody://stats resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/moody/internal/insights"
)

const (
	recentURI = "moody://recent"
	statsURI  = "moody://stats"
)

func (s *Server) registerResources() {
	// moody://recent - last 10 entries
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Entries",
		Description: "Last 10 logged entries with their values",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	// moody://stats - overview, per-metric stats and correlations
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "Statistics",
		Description: "Logging overview, per-metric trends and correlations",
		MIMEType:    "application/json",
	}, s.handleStatsResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	entries, err := s.repo.ListEntries(ctx, s.owner, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	out := make([]entryOutput, len(entries))
	for i, e := range entries {
		out[i] = entryView(e)
	}
	return jsonResource(recentURI, map[string]any{
		"owner":   s.owner,
		"entries": out,
	})
}

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snap, err := s.loader.Load(ctx, s.owner, insights.All)
	if err != nil {
		return nil, err
	}
	return jsonResource(statsURI, statsView(snap, s.now()))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
