// ABOUTME: MCP server setup for the vitals observation store.
// ABOUTME: Wraps MCP server with the orchestrating service and repository.
package mcp

import (
	"context"

	"github.com/harperreed/vitals/internal/health"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with service and storage access.
type Server struct {
	mcpServer *mcp.Server
	svc       *health.Service
	repo      storage.Repository
}

// NewServer creates a new MCP server over the given service and repository.
func NewServer(svc *health.Service, repo storage.Repository) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "vitals",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		repo:      repo,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
