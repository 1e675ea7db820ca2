package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cinebrowse",
		Short: "Browse movies from TMDb",
		Long: "Cinebrowse lists, searches, and shows movies from The Movie Database.\n" +
			"Use it from the terminal, as a Telegram bot, or as an MCP server.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/cinebrowse.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newMoviesCmd(),
		newMovieCmd(),
		newGenresCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Cinebrowse v%s\n", version)
		},
	}
}
