package main

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/vadimtrunov/moviecenter/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It starts an MCP server over stdin/stdout so an assistant can browse the
// catalog and manage the watchlist. Logs go to stderr; stdout carries the protocol.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := setupCommandLogger(cfg, os.Stderr)
			svc, err := initServices(cfg, logger, ephemeral)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog:   svc.catalog,
				Watchlist: svc.watchlist,
				Lottery:   svc.lottery,
			}, version, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
