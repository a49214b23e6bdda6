// Package completion provides shell completion functionality for the CLI.
package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/cache"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/wizard"
	"github.com/spf13/cobra"
)

// Func is the signature cobra expects for ValidArgsFunction and flag completion.
type Func func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// Agents is the part of the API client completions query.
type Agents interface {
	ListBots(ctx context.Context) ([]api.Bot, error)
	ListFiles(ctx context.Context, botID string) ([]api.File, error)
}

// Source builds dynamic completions backed by the API and an optional cache.
type Source struct {
	// Cache is nil when caching is disabled.
	Cache   *cache.Manager
	Timeout time.Duration
	// Client returns the API client for the command being completed.
	Client func(cmd *cobra.Command) (Agents, error)
}

// ValidOutputFormats returns valid values for --output flag completion.
func ValidOutputFormats() []string {
	out := make([]string, len(ui.Formats))
	for i, f := range ui.Formats {
		out[i] = string(f)
	}
	return out
}

// OutputFormatCompletionFunc returns a completion function for --output.
func OutputFormatCompletionFunc() Func {
	return Static(ValidOutputFormats()...)
}

// MediaTypeCompletionFunc completes --media-type.
func MediaTypeCompletionFunc() Func {
	values := make([]string, len(wizard.MediaTypes))
	for i, m := range wizard.MediaTypes {
		values[i] = string(m)
	}
	return Static(values...)
}

// ModelCompletionFunc completes --model.
func ModelCompletionFunc() Func {
	return Static(wizard.Models...)
}

// FontCompletionFunc completes --font.
func FontCompletionFunc() Func {
	return Static(wizard.Fonts...)
}

// Static completes from a fixed list.
func Static(values ...string) Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return filterCompletions(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// NoCompletion returns an empty completion function.
func NoCompletion() Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// Error returns a completion function that shows an error message.
func Error(err error) Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{fmt.Sprintf("Error: %v", err)}, cobra.ShellCompDirectiveError
	}
}

// AgentIDs completes the first positional argument with agent ids, described
// by the agent name.
func (s *Source) AgentIDs() Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		values, err := s.fetch(cmd, "agent-ids", func(ctx context.Context, c Agents) ([]string, error) {
			bots, err := c.ListBots(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(bots))
			for _, b := range bots {
				out = append(out, describe(b.ID, b.Name))
			}
			return out, nil
		})
		if err != nil {
			// Completions shouldn't be intrusive
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return filterCompletions(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// FileIDs completes the second positional argument with the file ids of the
// agent named by the first.
func (s *Source) FileIDs() Func {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return s.AgentIDs()(cmd, args, toComplete)
		}
		if len(args) > 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		botID := args[0]
		values, err := s.fetch(cmd, "file-ids-"+botID, func(ctx context.Context, c Agents) ([]string, error) {
			files, err := c.ListFiles(ctx, botID)
			if err != nil {
				return nil, err
			}
			out := make([]string, 0, len(files))
			for _, f := range files {
				out = append(out, describe(f.ID, f.Name))
			}
			return out, nil
		})
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return filterCompletions(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func (s *Source) fetch(cmd *cobra.Command, key string, list func(context.Context, Agents) ([]string, error)) ([]string, error) {
	load := func() ([]string, error) {
		c, err := s.Client(cmd)
		if err != nil {
			return nil, err
		}

		ctx, cancel := s.context(cmd)
		defer cancel()
		return list(ctx, c)
	}

	if s.Cache == nil {
		return load()
	}
	return s.Cache.Fetch(key, load)
}

func (s *Source) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// describe formats an "id\tdescription" completion entry.
func describe(id, desc string) string {
	if desc == "" {
		return id
	}
	return id + "\t" + desc
}

// filterCompletions filters completions based on the toComplete prefix.
func filterCompletions(completions []string, toComplete string) []string {
	if toComplete == "" {
		return completions
	}

	filtered := make([]string, 0)
	for _, c := range completions {
		// Handle tab-separated descriptions (id\tdescription)
		value, _, _ := strings.Cut(c, "\t")
		if strings.HasPrefix(value, toComplete) {
			filtered = append(filtered, c)
		}
	}

	return filtered
}
