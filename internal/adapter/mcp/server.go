// Package mcp exposes the repo graph to MCP clients over stdio.
package mcp

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/subete/internal/domain/repo"
)

// ServerConfig holds MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// Server wraps the mcp-go server with the repo graph it answers from.
type Server struct {
	cfg       ServerConfig
	mcpServer *mcpserver.MCPServer
	repo      *repo.Repo

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewServer creates an MCP server with all tools and resources registered.
// A nil rng is replaced by a randomly seeded one.
func NewServer(cfg ServerConfig, r *repo.Repo, rng *rand.Rand) *Server {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Server{
		cfg:  cfg,
		repo: r,
		rng:  rng,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Serve speaks MCP on the given streams until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return mcpserver.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}
