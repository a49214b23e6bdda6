package cmd

import (
	"fmt"
	"strings"

	"github.com/saple-ai/saple-cli/internal/config"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Configure the server URL, identity provider and other settings for the Saple CLI",
	}
	cmd.AddCommand(
		newConfigSetServerCmd(),
		newConfigSetAuthCmd(),
		newConfigShowCmd(),
		newConfigLogoutCmd(),
	)
	return cmd
}

// updateConfig loads the config file, applies fn and saves it back.
func updateConfig(cmd *cobra.Command, fn func(cfg *config.Config)) (string, error) {
	path := configPath(cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	fn(cfg)

	if err := config.Save(cfg, path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}

func newConfigSetServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-server [url]",
		Short: "Set the Saple API server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL := strings.TrimSuffix(args[0], "/")
			path, err := updateConfig(cmd, func(cfg *config.Config) {
				cfg.ServerURL = serverURL
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Server URL updated to: %s\n", serverURL)
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", path)
			return nil
		},
	}
}

func newConfigSetAuthCmd() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "set-auth [issuer-url]",
		Short: "Set the identity provider used by 'saple login'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer := strings.TrimSuffix(args[0], "/")
			path, err := updateConfig(cmd, func(cfg *config.Config) {
				cfg.AuthURL = issuer
				if clientID != "" {
					cfg.ClientID = clientID
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Identity provider set to: %s\n", issuer)
			if clientID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Client ID set to: %s\n", clientID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client id registered for the CLI")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			cfg, err := config.LoadWithEnv(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			printer, err := getPrinter(cmd)
			if err != nil {
				return err
			}
			return printer.Print(cfg, ui.Table{
				Header: []string{"Setting", "Value"},
				Rows: [][]string{
					{"Server URL", cfg.ServerURL},
					{"Identity Provider", cfg.IssuerURL()},
					{"Client ID", cfg.ClientID},
					{"Debug", fmt.Sprintf("%v", cfg.Debug)},
					{"HTTP Timeout", cfg.RequestTimeout().String()},
					{"Rate Limit", fmt.Sprintf("%g/s (burst %d)", cfg.HTTP.RateLimit, cfg.HTTP.Burst)},
					{"Completion Cache", fmt.Sprintf("%v (ttl %s)", cfg.Cache.Enabled, cfg.CacheTTL())},
					{"Preview Address", cfg.Preview.Addr},
					{"Config File", path},
					{"Credentials File", config.CredentialsPath()},
				},
			})
		},
	}
}

func newConfigLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}
