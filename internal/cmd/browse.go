package cmd

import (
	"fmt"

	"github.com/saple-ai/saple-cli/internal/tui"
	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive TUI for browsing agents and their files",
		Long: `Launch an interactive terminal UI for browsing agents and their training files.

The TUI provides:
- Vim-style keybindings (j/k for up/down, Enter to open an agent)
- Training shortcut (press t on an agent)
- Refresh (press r)
- Help panel (press ? to toggle)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := getLogger(cmd, cfg)
			c := newAPIClient(cmd, cfg)

			if _, err := ensureWorkspace(cmd.Context(), c, log); err != nil {
				return err
			}

			if err := tui.Run(c, cfg.RequestTimeout(), log); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}
}
