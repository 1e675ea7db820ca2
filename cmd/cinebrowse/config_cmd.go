package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd returns the "config" subcommand group for configuration management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

// newConfigValidateCmd returns the "config validate" subcommand that checks config file validity.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleSuccess.Render("✓ Configuration is valid"))
			auth := "api key"
			if cfg.TMDb.AccessToken != "" {
				auth = "access token"
			}
			fmt.Fprintln(out, styleDim.Render("  tmdb auth: "+auth))
			if cfg.Telegram != nil {
				fmt.Fprintln(out, styleDim.Render(fmt.Sprintf("  telegram: enabled (%d allowed users)", len(cfg.Telegram.AllowedUserIDs))))
			}
			return nil
		},
	}
}
