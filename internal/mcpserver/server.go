// Package mcpserver exposes the crew's tracker operations as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const Name = "agentcrew"

func New(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	tools.Register(s)
	return s
}

// Serve speaks MCP on in/out until ctx is cancelled or in is closed. Protocol
// errors go to logger; out carries nothing but MCP frames.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger.Named("mcp")))
	return stdio.Listen(ctx, in, out)
}

const instructions = "agentcrew simulates an engineering team. Every tool takes a persona id " +
	"(see crew_personas). Use crew_task to assign work, crew_complete to finish it, " +
	"crew_improve to log a suggestion and crew_status, crew_metrics, crew_report or " +
	"crew_activity to inspect a persona."
