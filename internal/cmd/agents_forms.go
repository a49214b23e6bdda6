package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/wizard"
)

// huhUI renders the wizard with huh forms.
type huhUI struct {
	theme *huh.Theme
}

func newHuhUI(color bool) *huhUI {
	theme := huh.ThemeCharm()
	if !color {
		theme = huh.ThemeBase()
	}
	return &huhUI{theme: theme}
}

func (h *huhUI) run(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithTheme(h.theme).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errQuit
	}
	return err
}

func (h *huhUI) Name(current string) (string, error) {
	name := current
	err := h.run(huh.NewGroup(
		huh.NewInput().
			Title("Agent name").
			Description(fmt.Sprintf("At least %d characters. It cannot be changed later.", wizard.MinNameLength)).
			Value(&name).
			Validate(wizard.ValidateName),
	))
	return name, err
}

func (h *huhUI) UploadAction(st wizard.UploadState) (uploadAction, error) {
	options := []huh.Option[uploadAction]{huh.NewOption("Add files", uploadAdd)}
	if len(st.Staged) > 0 {
		options = append(options, huh.NewOption("Remove a selected file", uploadRemove))
	}
	if len(st.Persisted) > 0 {
		options = append(options, huh.NewOption("Delete an uploaded file", uploadDelete))
	}
	next := "Continue"
	if len(st.Staged) > 0 {
		next = "Upload and continue"
	}
	options = append(options,
		huh.NewOption(next, uploadContinue),
		huh.NewOption("Back", uploadBack),
		huh.NewOption("Quit", uploadQuit),
	)

	action := uploadAdd
	if st.CanContinue {
		action = uploadContinue
	}
	err := h.run(huh.NewGroup(
		huh.NewSelect[uploadAction]().
			Title("Training files").
			Options(options...).
			Value(&action),
	))
	return action, err
}

func (h *huhUI) FilePaths() ([]string, error) {
	var raw string
	err := h.run(huh.NewGroup(
		huh.NewInput().
			Title("File paths").
			Description("Separate multiple paths with commas").
			Value(&raw).
			Validate(func(s string) error {
				if len(splitPaths(s)) == 0 {
					return errors.New("enter at least one path")
				}
				return nil
			}),
	))
	return splitPaths(raw), err
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *huhUI) PickFile(title string, entries []wizard.Entry) (wizard.Entry, error) {
	options := make([]huh.Option[int], len(entries))
	for i, e := range entries {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", e.Name(), ui.FileSize(e.Size())), i)
	}

	var picked int
	if err := h.run(huh.NewGroup(
		huh.NewSelect[int]().Title(title).Options(options...).Value(&picked),
	)); err != nil {
		return wizard.Entry{}, err
	}
	return entries[picked], nil
}

func (h *huhUI) ConfirmTrain(st wizard.TrainingState) (bool, error) {
	ok := true
	err := h.run(huh.NewGroup(
		huh.NewConfirm().
			Title("Start training now?").
			Description(fmt.Sprintf("The agent learns from %d file(s).", st.Files)).
			Affirmative("Train").
			Negative("Back").
			Value(&ok),
	))
	return ok, err
}

func (h *huhUI) Configure(name string, cfg *api.BotConfig) error {
	mediaOptions := make([]huh.Option[api.MediaType], len(wizard.MediaTypes))
	for i, m := range wizard.MediaTypes {
		mediaOptions[i] = huh.NewOption(string(m), m)
	}

	return h.run(
		huh.NewGroup(
			huh.NewSelect[api.MediaType]().Title("Media type").Options(mediaOptions...).Value(&cfg.MediaType),
			huh.NewInput().Title("Color").Description("Hex color, e.g. "+wizard.DefaultColor).Value(&cfg.Color),
			huh.NewSelect[string]().Title("Font").Options(huh.NewOptions(wizard.Fonts...)...).Value(&cfg.Font),
			huh.NewSelect[string]().Title("Font style").Options(huh.NewOptions(wizard.FontStyles...)...).Value(&cfg.FontStyle),
			huh.NewSelect[string]().Title("Font size").Options(huh.NewOptions(wizard.FontSizes...)...).Value(&cfg.FontSize),
		).Title("Appearance"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Model").Options(huh.NewOptions(wizard.Models...)...).Value(&cfg.DefaultModel),
			huh.NewText().Title("Prompt").Value(&cfg.Prompt),
			huh.NewInput().
				Title("Welcome message").
				DescriptionFunc(func() string {
					return "Preview: " + wizard.PreviewWelcome(cfg.WelcomeMessage, name)
				}, &cfg.WelcomeMessage).
				Value(&cfg.WelcomeMessage),
		).Title("Behavior"),
		huh.NewGroup(
			huh.NewConfirm().Title("Offer Calendly booking?").Value(&cfg.CalendlyEnabled),
			huh.NewInput().Title("Calendly link").Placeholder("https://calendly.com/you/30min").Value(&cfg.CalendlyLink),
		).Title("Scheduling"),
	)
}

func (h *huhUI) ConfirmSave(st wizard.ConfigurationState) (bool, error) {
	ok := true
	err := h.run(huh.NewGroup(
		huh.NewConfirm().
			Title("Save configuration?").
			Affirmative("Save").
			Negative("Back").
			Value(&ok),
	))
	return ok, err
}

func (h *huhUI) CompleteAction(st wizard.CompleteState, snippet string) (completeAction, error) {
	options := []huh.Option[completeAction]{huh.NewOption("Copy embed snippet", completeCopy)}
	if st.CanCreateAnother {
		options = append(options, huh.NewOption("Create another agent", completeAnother))
	}
	options = append(options,
		huh.NewOption("View all agents", completeViewAll),
		huh.NewOption("Done", completeDone),
	)

	action := completeCopy
	err := h.run(huh.NewGroup(
		huh.NewSelect[completeAction]().Title("What next?").Options(options...).Value(&action),
	))
	return action, err
}

func (h *huhUI) JumpTo(current wizard.Step) (wizard.Step, error) {
	options := make([]huh.Option[wizard.Step], 0, len(wizard.Steps))
	for _, s := range wizard.Steps {
		options = append(options, huh.NewOption(fmt.Sprintf("%d. %s", s, s), s))
	}

	target := current
	err := h.run(huh.NewGroup(
		huh.NewSelect[wizard.Step]().Title("Go to step").Options(options...).Value(&target),
	))
	return target, err
}

func (h *huhUI) Busy(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	var opErr error
	err := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() { opErr = fn(ctx) }).
		Run()
	if err != nil {
		return err
	}
	return opErr
}
