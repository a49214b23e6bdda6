package cmd

import (
	"fmt"

	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/workspace"
	"github.com/spf13/cobra"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage your workspace",
		Long:    "Every account needs a workspace before agents can be created. Show the current one or create it.",
	}
	cmd.AddCommand(newWorkspaceCurrentCmd(), newWorkspaceCreateCmd())
	return cmd
}

func workspaceTable(ws *api.Workspace) ui.Table {
	return ui.Table{
		Header: []string{"ID", "Name", "Created"},
		Rows:   [][]string{{ws.ID, ws.Name, ws.CreatedAt}},
	}
}

func newWorkspaceCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getClient(cmd)
			if err != nil {
				return err
			}
			printer, err := getPrinter(cmd)
			if err != nil {
				return err
			}

			ws, err := c.CurrentWorkspace(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get workspace: %w", err)
			}
			if ws == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No workspace yet.")
				fmt.Fprintln(cmd.OutOrStdout(), "\nCreate one with: saple workspace create <name>")
				return nil
			}
			return printer.Print(ws, workspaceTable(ws))
		},
	}
}

func newWorkspaceCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create your workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printer, err := getPrinter(cmd)
			if err != nil {
				return err
			}
			log := getLogger(cmd, cfg)

			ws, err := workspace.New(newAPIClient(cmd, cfg), nil, log).Create(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to create workspace: %w", err)
			}

			if printer.Format() == ui.FormatTable {
				fmt.Fprintf(cmd.OutOrStdout(), "Workspace %q created.\n\n", ws.Name)
			}
			return printer.Print(ws, workspaceTable(ws))
		},
	}
}
