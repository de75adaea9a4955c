package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agentcrew/internal/mcpserver"
	"agentcrew/internal/persona"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the crew as MCP tools over stdio",
		Long: `Starts an MCP server on stdin/stdout. All personas share one store, so a
task assigned through crew_task can be completed later through crew_complete.

When personas_file is set in the config, edits to it are picked up without a
restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	tools, err := mcpserver.NewTools(a.crew, a.reporter)
	if err != nil {
		return err
	}
	s := mcpserver.New(tools, version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Closing stdin ends the session and takes the watcher down with it.
		defer cancel()
		a.logger.Info("mcp server listening on stdio", zap.String("version", version))
		err := mcpserver.Serve(gctx, s, a.stdin, a.stdout, a.logger)
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	})

	if a.cfg.PersonasFile != "" {
		g.Go(func() error {
			return persona.Watch(gctx, a.cfg.PersonasFile, a.logger, a.crew.ReplaceRegistry)
		})
	}

	return g.Wait()
}
