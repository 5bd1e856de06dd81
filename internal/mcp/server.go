// Package mcp exposes the workspace operations as MCP tools.
package mcp

import (
	"log/slog"

	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config contains server configuration.
type Config struct {
	Services    transport.Services
	Resolver    identity.Resolver
	AuthEnabled bool
	// TransportMode is "stdio" or "http".
	TransportMode string
	// LocalIdentity is the caller when auth is off or over stdio.
	LocalIdentity identity.Identity
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "appforge",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and never authenticates.
	auth := noAuthMiddleware(cfg.LocalIdentity)
	if cfg.TransportMode == TransportHTTP && cfg.AuthEnabled {
		auth = authMiddleware(cfg.Resolver)
	}
	server.AddReceivingMiddleware(auth, workspaceMiddleware(), trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
