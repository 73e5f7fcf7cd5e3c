package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"subete://summary",
			"Repo Summary",
			mcplib.WithResourceDescription("Program, language and project counts"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSummaryResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"subete://projects",
			"Project List",
			mcplib.WithResourceDescription("All approved projects"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleProjectsResource,
	)
}

func (s *Server) handleSummaryResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	return jsonResource(req.Params.URI, s.repo.Summarize())
}

func (s *Server) handleProjectsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	return jsonResource(req.Params.URI, s.projectViews())
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
