package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/vadimtrunov/moviecenter/internal/config"
)

// newConfigCmd returns the "config" subcommand group for configuration management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(newConfigValidateCmd(), newConfigShowCmd())
	return cmd
}

// newConfigValidateCmd returns the "config validate" subcommand that checks config file validity.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(configPath); err != nil {
				fmt.Println(styleDim.Render(fmt.Sprintf("  %s not found, using defaults and environment", configPath)))
			}
			fmt.Println(styleSuccess.Render("✓ Configuration is valid"))
			fmt.Println(styleDim.Render(fmt.Sprintf("  TMDb:      %s", sanitizeURL(cfg.TMDb.BaseURL))))
			fmt.Println(styleDim.Render(fmt.Sprintf("  Watchlist: %s", cfg.Storage.Path)))
			fmt.Println(styleDim.Render(fmt.Sprintf("  Logs:      %s", cfg.App.DataDir)))
			return nil
		},
	}
}

// newConfigShowCmd returns the "config show" subcommand that prints the
// effective configuration with defaults and environment overrides applied.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			out, err := renderConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// renderConfig marshals cfg to YAML with the API key masked.
func renderConfig(cfg *config.Config) ([]byte, error) {
	masked := *cfg
	if masked.TMDb.APIKey != "" {
		masked.TMDb.APIKey = "********"
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("render configuration: %w", err)
	}
	return out, nil
}
