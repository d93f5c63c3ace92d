// ABOUTME: MCP server setup for the moody metric tracker.
// ABOUTME: Wraps the MCP server with a storage Repository scoped to one owner.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/moody/internal/insights"
	"github.com/harperreed/moody/internal/storage"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	owner     string
	loader    *insights.Loader
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewServer creates a new MCP server acting for owner.
func NewServer(repo storage.Repository, owner string, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "moody",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		owner:     owner,
		loader:    insights.NewLoader(repo, log, time.Local),
		log:       log.WithField("component", "mcp"),
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.WithField("owner", s.owner).Debug("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
