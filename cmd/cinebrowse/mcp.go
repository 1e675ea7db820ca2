package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/vadimtrunov/cinebrowse/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It exposes the movie browsing tools to an MCP client over stdin/stdout.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, st, err := setup()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			srv := mcpserver.NewServer(mcpserver.Deps{Store: st}, version, logger)
			return srv.ServeStdio(ctx)
		},
	}
}
