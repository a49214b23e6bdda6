package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/auth"
	"github.com/saple-ai/saple-cli/internal/cache"
	"github.com/saple-ai/saple-cli/internal/completion"
	"github.com/saple-ai/saple-cli/internal/config"
	"github.com/saple-ai/saple-cli/internal/logging"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// isInteractive reports whether prompts can be shown. Tests replace it.
var isInteractive = func() bool {
	return ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
}

// configPath resolves --config, SAPLE_CONFIG and the default location.
func configPath(cmd *cobra.Command) string {
	flagPath, _ := cmd.Flags().GetString("config")
	return config.DiscoverPath(flagPath)
}

// loadConfig loads the config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.ServerURL = server
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("no server URL configured. Set SAPLE_SERVER_URL or run: saple config set-server <url>")
	}
	return cfg, nil
}

func useColor(cmd *cobra.Command, cfg *config.Config) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return cfg.ShouldUseColor(noColor) && ui.Colors(noColor)
}

func getLogger(cmd *cobra.Command, cfg *config.Config) *zap.Logger {
	return logging.New(logging.Options{
		Debug:   cfg.Debug,
		NoColor: !useColor(cmd, cfg),
		Writer:  cmd.ErrOrStderr(),
	})
}

func getTheme(cmd *cobra.Command, cfg *config.Config) ui.Theme {
	return ui.NewTheme(useColor(cmd, cfg))
}

func getPrinter(cmd *cobra.Command) (*ui.Printer, error) {
	output, _ := cmd.Flags().GetString("output")
	format, err := ui.ParseFormat(output)
	if err != nil {
		return nil, err
	}
	return ui.NewPrinter(cmd.OutOrStdout(), format), nil
}

func newOIDCClient(cfg *config.Config) *auth.Client {
	return auth.NewClient(cfg.ClientID, cfg.RequestTimeout())
}

// getClient creates an API client authenticated with the stored session.
func getClient(cmd *cobra.Command) (*api.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newAPIClient(cmd, cfg), nil
}

func newAPIClient(cmd *cobra.Command, cfg *config.Config) *api.Client {
	log := getLogger(cmd, cfg)
	tokens := auth.NewSource(config.CredentialsPath(), cfg.IssuerURL(), newOIDCClient(cfg), log)

	return api.New(api.Options{
		BaseURL:   cfg.ServerURL,
		Tokens:    tokens,
		Timeout:   cfg.RequestTimeout(),
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
		Logger:    log,
	})
}

// ensureWorkspace runs the workspace bootstrap, prompting for a name when
// the terminal is interactive.
func ensureWorkspace(ctx context.Context, c *api.Client, log *zap.Logger) (*api.Workspace, error) {
	var prompt workspace.Prompter
	if isInteractive() {
		prompt = workspace.PrompterFunc(promptWorkspaceName)
	}
	return workspace.New(c, prompt, log).Ensure(ctx)
}

func promptWorkspaceName(ctx context.Context, problems []string) (string, error) {
	var name string
	desc := "You need a workspace before creating agents."
	if len(problems) > 0 {
		desc = strings.Join(problems, "\n")
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Workspace name").
			Description(desc).
			Value(&name).
			Validate(workspace.ValidateName),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", workspace.ErrCancelled
	}
	return name, err
}

// agentIDCompletion completes agent ids as the first argument.
func agentIDCompletion() completion.Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completionSource(cmd).AgentIDs()(cmd, args, toComplete)
	}
}

// fileIDCompletion completes an agent id then one of its file ids.
func fileIDCompletion() completion.Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completionSource(cmd).FileIDs()(cmd, args, toComplete)
	}
}

// completionSource wires completions to the API and the completion cache.
func completionSource(cmd *cobra.Command) *completion.Source {
	src := &completion.Source{
		Client: func(cmd *cobra.Command) (completion.Agents, error) {
			c, err := getClient(cmd)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	cfg, err := config.LoadWithEnv(configPath(cmd))
	if err != nil {
		return src
	}
	src.Timeout = cfg.CompletionTimeout()
	if cfg.Cache.Enabled {
		if m, err := cache.NewManager("", cfg.CacheTTL()); err == nil {
			src.Cache = m
		}
	}
	return src
}

// clearCompletionCache drops cached ids after a command changes them.
func clearCompletionCache(keys ...string) {
	m, err := cache.NewManager("", 0)
	if err != nil {
		return
	}
	for _, k := range keys {
		_ = m.Clear(k)
	}
}
