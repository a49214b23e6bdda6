// Package workspace makes sure the signed-in user has a workspace before any
// agent command runs.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/saple-ai/saple-cli/internal/api"
	"go.uber.org/zap"
)

// MaxNameLength bounds workspace names.
const MaxNameLength = 100

var (
	// ErrNoWorkspace is returned when none exists and nobody can be asked for a name.
	ErrNoWorkspace = errors.New("no workspace yet, create one with 'saple workspace create <name>'")
	// ErrCancelled is returned by a Prompter when the user backs out.
	ErrCancelled = errors.New("workspace creation cancelled")
)

// API is the part of the backend the bootstrap needs. *api.Client implements it.
type API interface {
	CurrentWorkspace(ctx context.Context) (*api.Workspace, error)
	CreateWorkspace(ctx context.Context, name string) (*api.Workspace, error)
}

// Prompter asks the user for a workspace name. problems holds the messages
// from the previous attempt, empty on the first call.
type Prompter interface {
	WorkspaceName(ctx context.Context, problems []string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, problems []string) (string, error)

func (f PrompterFunc) WorkspaceName(ctx context.Context, problems []string) (string, error) {
	return f(ctx, problems)
}

// Bootstrap resolves the current workspace, creating one on demand.
type Bootstrap struct {
	api    API
	prompt Prompter
	log    *zap.Logger
}

// New returns a Bootstrap. A nil prompt makes it non-interactive.
func New(a API, prompt Prompter, log *zap.Logger) *Bootstrap {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrap{api: a, prompt: prompt, log: log}
}

// Ensure returns the current workspace. When there is none it prompts for a
// name and creates it, asking again while the backend rejects the name.
func (b *Bootstrap) Ensure(ctx context.Context) (*api.Workspace, error) {
	ws, err := b.api.CurrentWorkspace(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check workspace: %w", err)
	}
	if ws != nil {
		return ws, nil
	}
	if b.prompt == nil {
		return nil, ErrNoWorkspace
	}

	var problems []string
	for {
		name, err := b.prompt.WorkspaceName(ctx, problems)
		if err != nil {
			return nil, err
		}

		if err := ValidateName(name); err != nil {
			problems = []string{err.Error()}
			continue
		}

		ws, err := b.api.CreateWorkspace(ctx, strings.TrimSpace(name))
		if err == nil {
			b.log.Debug("workspace created", zap.String("workspace_id", ws.ID))
			return ws, nil
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusBadRequest, http.StatusUnprocessableEntity:
				if apiErr.HasMessage() {
					problems = Problems(apiErr)
					continue
				}
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, fmt.Errorf("failed to create workspace, run 'saple login': %w", err)
			}
		}
		b.log.Warn("workspace creation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
}

// Create creates a workspace by name without prompting.
func (b *Bootstrap) Create(ctx context.Context, name string) (*api.Workspace, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return b.api.CreateWorkspace(ctx, strings.TrimSpace(name))
}

// ValidateName checks a workspace name before it is sent.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return errors.New("workspace name is required")
	case n > MaxNameLength:
		return fmt.Errorf("workspace name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// Problems lists the server's complaints one per line, per field when it
// sent field details.
func Problems(e *api.Error) []string {
	if fields := e.FieldErrors(); len(fields) > 0 {
		return fields
	}
	return []string{e.Message}
}
