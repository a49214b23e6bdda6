package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/preview"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/wizard"
	"github.com/spf13/cobra"
)

// errQuit ends the wizard without an error.
var errQuit = errors.New("wizard quit")

type uploadAction int

const (
	uploadAdd uploadAction = iota
	uploadRemove
	uploadDelete
	uploadContinue
	uploadBack
	uploadQuit
)

type completeAction int

const (
	completeCopy completeAction = iota
	completeAnother
	completeViewAll
	completeDone
)

// wizardUI is the interactive surface the runner drives. Every method
// returns errQuit when the user backs out.
type wizardUI interface {
	Name(current string) (string, error)
	UploadAction(st wizard.UploadState) (uploadAction, error)
	FilePaths() ([]string, error)
	PickFile(title string, entries []wizard.Entry) (wizard.Entry, error)
	ConfirmTrain(st wizard.TrainingState) (bool, error)
	Configure(name string, cfg *api.BotConfig) error
	ConfirmSave(st wizard.ConfigurationState) (bool, error)
	CompleteAction(st wizard.CompleteState, snippet string) (completeAction, error)
	JumpTo(current wizard.Step) (wizard.Step, error)
	Busy(ctx context.Context, title string, fn func(ctx context.Context) error) error
}

// wizardRunner walks a controller through its steps until completion.
type wizardRunner struct {
	ctrl      *wizard.Controller
	ui        wizardUI
	out       io.Writer
	theme     ui.Theme
	serverURL string
	copy      func(string) error
	readFiles func([]string) ([]wizard.StagedFile, error)

	// viewAll is set when the user leaves through "view all agents".
	viewAll bool
	// jumped records that the edit-mode step menu ran for the current step.
	jumped bool
}

func newWizardRunner(ctrl *wizard.Controller, w wizardUI, out io.Writer, theme ui.Theme, serverURL string) *wizardRunner {
	return &wizardRunner{
		ctrl:      ctrl,
		ui:        w,
		out:       out,
		theme:     theme,
		serverURL: serverURL,
		copy:      clipboard.WriteAll,
		readFiles: readStagedFiles,
	}
}

// run blocks until the session completes or the user quits.
func (r *wizardRunner) run(ctx context.Context) error {
	for !r.done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			r.ctrl.Close()
			return nil
		case recoverable(err):
			fmt.Fprintln(r.out, r.theme.Error.Render(stepError(r.ctrl, err).Error()))
		default:
			return err
		}
	}
	return nil
}

func (r *wizardRunner) done() bool {
	return r.viewAll || r.ctrl.Closed()
}

// recoverable reports whether the session can stay on its step after err.
func recoverable(err error) bool {
	var opErr *wizard.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var readErr *fileReadError
	if errors.As(err, &readErr) {
		return true
	}
	for _, target := range []error{
		wizard.ErrBusy,
		wizard.ErrNotAllowed,
		wizard.ErrNameTooShort,
		wizard.ErrNameLocked,
		wizard.ErrNothingStaged,
		wizard.ErrUnknownFile,
		wizard.ErrStepLocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *wizardRunner) header(step wizard.Step) {
	fmt.Fprintf(r.out, "\n%s %s\n", r.theme.Accent.Render(fmt.Sprintf("[%d/%d]", step, len(wizard.Steps))), r.theme.Title.Render(step.String()))
}

func (r *wizardRunner) step(ctx context.Context) error {
	st := r.ctrl.State()

	if r.ctrl.Mode() == wizard.ModeEdit && st.Step() != wizard.StepComplete && !r.jumped {
		target, err := r.ui.JumpTo(st.Step())
		if err != nil {
			return err
		}
		r.jumped = true
		if target != st.Step() {
			return r.ctrl.GoToStep(target)
		}
	}

	switch st := st.(type) {
	case wizard.BasicInfoState:
		return r.basicInfo(ctx, st)
	case wizard.UploadState:
		return r.upload(ctx, st)
	case wizard.TrainingState:
		return r.training(ctx, st)
	case wizard.ConfigurationState:
		return r.configuration(ctx, st)
	case wizard.CompleteState:
		return r.complete(st)
	}
	return nil
}

// advance runs the step's primary action behind a spinner.
func (r *wizardRunner) advance(ctx context.Context, title string) error {
	before := r.ctrl.Step()
	err := r.ui.Busy(ctx, title, r.ctrl.Continue)
	if r.ctrl.Step() != before {
		r.jumped = false
	}
	return err
}

func (r *wizardRunner) back() error {
	r.jumped = false
	return r.ctrl.GoToStep(r.ctrl.Step() - 1)
}

func (r *wizardRunner) basicInfo(ctx context.Context, st wizard.BasicInfoState) error {
	r.header(wizard.StepBasicInfo)

	if st.NameEditable {
		name, err := r.ui.Name(st.Name)
		if err != nil {
			return err
		}
		if err := r.ctrl.SetName(name); err != nil {
			return err
		}
		if !r.ctrl.CanCreate() {
			return wizard.ErrNameTooShort
		}
	} else {
		fmt.Fprintf(r.out, "Name: %s %s\n", st.Name, r.theme.Muted.Render("(cannot be changed)"))
	}

	return r.advance(ctx, "Creating agent...")
}

func (r *wizardRunner) upload(ctx context.Context, st wizard.UploadState) error {
	r.header(wizard.StepUpload)
	fmt.Fprintf(r.out, "Allowed types: %s (up to %s each)\n",
		strings.Join(wizard.AllowedExtensions, ", "), wizard.MaxFileSizeLabel())
	for _, e := range st.Persisted {
		fmt.Fprintf(r.out, "  %s %s (%s)\n", r.theme.Success.Render("●"), e.Name(), ui.FileSize(e.Size()))
	}
	for _, e := range st.Staged {
		fmt.Fprintf(r.out, "  %s %s (%s) %s\n", r.theme.Muted.Render("○"), e.Name(), ui.FileSize(e.Size()), r.theme.Muted.Render("not uploaded"))
	}
	if st.Error != "" {
		fmt.Fprintln(r.out, r.theme.Warning.Render(st.Error))
	}

	action, err := r.ui.UploadAction(st)
	if err != nil {
		return err
	}

	switch action {
	case uploadAdd:
		paths, err := r.ui.FilePaths()
		if err != nil {
			return err
		}
		files, err := r.readFiles(paths)
		if err != nil {
			return err
		}
		_, err = r.ctrl.StageFiles(files...)
		return err

	case uploadRemove:
		e, err := r.ui.PickFile("Remove which file?", st.Staged)
		if err != nil {
			return err
		}
		return r.ctrl.Unstage(e.ID)

	case uploadDelete:
		e, err := r.ui.PickFile("Delete which uploaded file?", st.Persisted)
		if err != nil {
			return err
		}
		return r.ui.Busy(ctx, "Deleting "+e.Name()+"...", func(ctx context.Context) error {
			return r.ctrl.DeleteFile(ctx, e.Remote.ID)
		})

	case uploadContinue:
		title := "Continuing..."
		if len(st.Staged) > 0 {
			title = fmt.Sprintf("Uploading %d file(s)...", len(st.Staged))
		}
		return r.advance(ctx, title)

	case uploadBack:
		return r.back()

	default:
		return errQuit
	}
}

func (r *wizardRunner) training(ctx context.Context, st wizard.TrainingState) error {
	r.header(wizard.StepTraining)
	fmt.Fprintf(r.out, "%d file(s) ready for training.\n", st.Files)
	if st.Trained {
		fmt.Fprintf(r.out, "Training already started (%s).\n", st.Status)
	}

	ok, err := r.ui.ConfirmTrain(st)
	if err != nil {
		return err
	}
	if !ok {
		return r.back()
	}
	return r.advance(ctx, "Starting training...")
}

func (r *wizardRunner) configuration(ctx context.Context, st wizard.ConfigurationState) error {
	r.header(wizard.StepConfiguration)

	cfg := st.Config
	if err := r.ui.Configure(st.Name, &cfg); err != nil {
		return err
	}
	if err := r.ctrl.Configure(cfg); err != nil {
		return err
	}

	next, ok := r.ctrl.State().(wizard.ConfigurationState)
	if !ok {
		return nil
	}
	fmt.Fprintf(r.out, "Welcome preview: %s\n", next.Preview)
	for _, w := range next.Warnings {
		fmt.Fprintln(r.out, r.theme.Warning.Render("Warning: "+w))
	}

	save, err := r.ui.ConfirmSave(next)
	if err != nil {
		return err
	}
	if !save {
		return r.back()
	}
	return r.advance(ctx, "Saving configuration...")
}

func (r *wizardRunner) complete(st wizard.CompleteState) error {
	r.header(wizard.StepComplete)
	fmt.Fprintf(r.out, "%s %s is ready (%d file(s), %s)\n",
		r.theme.Success.Render("✓"), st.Bot.Name, st.Files, r.theme.TrainingStatus(st.Bot.TrainingStatus))

	snippet := preview.EmbedSnippet(r.serverURL, st.Bot.ID)
	fmt.Fprintf(r.out, "\nEmbed snippet:\n  %s\n\n", snippet)

	action, err := r.ui.CompleteAction(st, snippet)
	if err != nil {
		return err
	}

	switch action {
	case completeCopy:
		if err := r.copy(snippet); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(r.out, r.theme.Success.Render("Copied to clipboard"))
		return nil
	case completeAnother:
		r.jumped = false
		return r.ctrl.Reset()
	case completeViewAll:
		r.ctrl.Close()
		r.viewAll = true
		return nil
	default:
		return errQuit
	}
}

func newAgentsWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "wizard",
		Aliases: []string{"new"},
		Short:   "Create an agent step by step",
		Long: `Walk through creating an agent interactively:

1. Basic info: name the agent
2. Training files: pick documents to learn from
3. Training: start training on the uploaded files
4. Configuration: appearance, model, prompt and welcome message
5. Complete: copy the embed snippet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return errors.New("the wizard needs an interactive terminal, use 'saple agents create' in scripts")
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := ensureWorkspace(ctx, s.client, s.log); err != nil {
				return err
			}

			ctrl := wizard.New(s.client, wizard.WithLogger(s.log))
			return runWizard(ctx, cmd, s, ctrl, newHuhUI(useColor(cmd, s.cfg)))
		},
	}
}

func newAgentsEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "edit [agent-id]",
		Short:             "Edit an agent interactively",
		Long:              "Open an existing agent in the wizard. Every step can be visited directly; the name cannot be changed.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return errors.New("editing needs an interactive terminal, use 'saple agents update' in scripts")
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ctrl, err := wizard.Edit(ctx, s.client, s.client, args[0], wizard.WithLogger(s.log))
			if err != nil {
				return fmt.Errorf("failed to load agent: %w", err)
			}
			return runWizard(ctx, cmd, s, ctrl, newHuhUI(useColor(cmd, s.cfg)))
		},
	}
}

func runWizard(ctx context.Context, cmd *cobra.Command, s *session, ctrl *wizard.Controller, w wizardUI) error {
	r := newWizardRunner(ctrl, w, cmd.OutOrStdout(), s.theme, s.cfg.ServerURL)
	if err := r.run(ctx); err != nil {
		return err
	}
	clearCompletionCache("agent-ids")

	if !r.viewAll {
		return nil
	}
	bots, err := s.client.ListBots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	return s.printer.Print(bots, botsTable(bots, nil, s.theme))
}
