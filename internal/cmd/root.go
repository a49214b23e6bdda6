package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/saple-ai/saple-cli/internal/completion"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "saple",
		Short: "CLI for the Saple AI agent platform",
		Long: `Command-line interface for building and managing Saple AI agents.

Create an agent, upload its training files, train it, configure how its chat
widget looks and get the embed snippet, interactively or from scripts. Listing
commands support table, json and yaml output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.saple/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Saple API server URL")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	_ = rootCmd.RegisterFlagCompletionFunc("output", completion.OutputFormatCompletionFunc())

	rootCmd.AddCommand(
		newLoginCmd(),
		newStatusCmd(),
		newLogoutCmd(),
		newConfigCmd(),
		newWorkspaceCmd(),
		newAgentsCmd(),
		newBrowseCmd(),
		newCompletionCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI. It is called by main.main().
// Interrupts cancel the command context so in-flight requests stop.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
