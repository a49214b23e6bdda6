package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/completion"
	"github.com/saple-ai/saple-cli/internal/config"
	"github.com/saple-ai/saple-cli/internal/preview"
	"github.com/saple-ai/saple-cli/internal/ui"
	"github.com/saple-ai/saple-cli/internal/wizard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agents",
		Aliases: []string{"agent", "bots"},
		Short:   "Create and manage AI agents",
		Long: `Create, train and configure AI agents.

An agent goes through five steps: basic info, training files, training,
configuration and completion. 'saple agents wizard' walks through them
interactively; the other subcommands run single steps from scripts.`,
	}
	cmd.AddCommand(
		newAgentsListCmd(),
		newAgentsGetCmd(),
		newAgentsCreateCmd(),
		newAgentsWizardCmd(),
		newAgentsEditCmd(),
		newAgentsFilesCmd(),
		newAgentsUploadCmd(),
		newAgentsDeleteFileCmd(),
		newAgentsTrainCmd(),
		newAgentsUpdateCmd(),
		newAgentsPreviewCmd(),
	)
	return cmd
}

// session bundles what agent commands need.
type session struct {
	cfg     *config.Config
	client  *api.Client
	log     *zap.Logger
	theme   ui.Theme
	printer *ui.Printer
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	printer, err := getPrinter(cmd)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		client:  newAPIClient(cmd, cfg),
		log:     getLogger(cmd, cfg),
		theme:   getTheme(cmd, cfg),
		printer: printer,
	}, nil
}

// editController starts an edit-mode wizard for botID positioned on step.
func (s *session) editController(ctx context.Context, botID string, step wizard.Step) (*wizard.Controller, error) {
	ctrl, err := wizard.Edit(ctx, s.client, s.client, botID, wizard.WithLogger(s.log))
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	if err := ctrl.GoToStep(step); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func botsTable(bots []api.Bot, fileCounts map[string]int, theme ui.Theme) ui.Table {
	header := []string{"ID", "Name", "Media", "Model", "Status"}
	if fileCounts != nil {
		header = append(header, "Files")
	}

	rows := make([][]string, 0, len(bots))
	for _, b := range bots {
		row := []string{b.ID, b.Name, string(b.MediaType), b.DefaultModel, theme.TrainingStatus(b.TrainingStatus)}
		if fileCounts != nil {
			row = append(row, fmt.Sprintf("%d", fileCounts[b.ID]))
		}
		rows = append(rows, row)
	}
	return ui.Table{Header: header, Rows: rows}
}

func filesTable(files []api.File) ui.Table {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.ID, f.Name, ui.FileSize(f.Size), f.UploadedAt})
	}
	return ui.Table{Header: []string{"ID", "Name", "Size", "Uploaded"}, Rows: rows}
}

// agentWithFiles is the json/yaml shape of 'agents list --files'.
type agentWithFiles struct {
	api.Bot `yaml:",inline"`
	Files   []api.File `json:"files" yaml:"files"`
}

func newAgentsListCmd() *cobra.Command {
	var withFiles bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agents in your workspace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := ensureWorkspace(ctx, s.client, s.log); err != nil {
				return err
			}

			bots, err := s.client.ListBots(ctx)
			if err != nil {
				return fmt.Errorf("failed to list agents: %w", err)
			}

			if !withFiles {
				if len(bots) == 0 && s.printer.Format() == ui.FormatTable {
					fmt.Fprintln(cmd.OutOrStdout(), "No agents yet. Create one with: saple agents wizard")
					return nil
				}
				return s.printer.Print(bots, botsTable(bots, nil, s.theme))
			}

			files, err := listFilesConcurrently(ctx, s.client, bots)
			if err != nil {
				return err
			}
			out := make([]agentWithFiles, len(bots))
			counts := make(map[string]int, len(bots))
			for i, b := range bots {
				out[i] = agentWithFiles{Bot: b, Files: files[i]}
				counts[b.ID] = len(files[i])
			}
			return s.printer.Print(out, botsTable(bots, counts, s.theme))
		},
	}

	cmd.Flags().BoolVar(&withFiles, "files", false, "include the training files of each agent")
	return cmd
}

// listFilesConcurrently fetches the file list of every bot, a few at a time.
func listFilesConcurrently(ctx context.Context, c *api.Client, bots []api.Bot) ([][]api.File, error) {
	files := make([][]api.File, len(bots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, b := range bots {
		g.Go(func() error {
			list, err := c.ListFiles(gctx, b.ID)
			if err != nil {
				return fmt.Errorf("failed to list files of %s: %w", b.ID, err)
			}
			files[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func newAgentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get [agent-id]",
		Short:             "Show an agent's configuration",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			bot, err := s.client.GetBot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get agent: %w", err)
			}
			return s.printer.Print(bot, botDetails(*bot, s.cfg.ServerURL, s.theme))
		},
	}
}

func botDetails(b api.Bot, serverURL string, theme ui.Theme) ui.Table {
	calendly := "disabled"
	if b.CalendlyEnabled {
		calendly = b.CalendlyLink
	}
	return ui.Table{
		Header: []string{"Setting", "Value"},
		Rows: [][]string{
			{"ID", b.ID},
			{"Name", b.Name},
			{"Status", theme.TrainingStatus(b.TrainingStatus)},
			{"Media Type", string(b.MediaType)},
			{"Model", b.DefaultModel},
			{"Color", b.Color},
			{"Font", fmt.Sprintf("%s %s %s", b.Font, b.FontSize, b.FontStyle)},
			{"Welcome", wizard.PreviewWelcome(b.WelcomeMessage, b.Name)},
			{"Calendly", calendly},
			{"Embed", preview.EmbedSnippet(serverURL, b.ID)},
		},
	}
}

func newAgentsFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "files [agent-id]",
		Short:             "List an agent's training files",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			files, err := s.client.ListFiles(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list files: %w", err)
			}
			if len(files) == 0 && s.printer.Format() == ui.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No training files.")
				return nil
			}
			return s.printer.Print(files, filesTable(files))
		},
	}
}

// fileReadError is a local training file that could not be read.
type fileReadError struct {
	Path string
	Err  error
}

func (e *fileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *fileReadError) Unwrap() error { return e.Err }

// readStagedFiles reads local files for upload.
func readStagedFiles(paths []string) ([]wizard.StagedFile, error) {
	files := make([]wizard.StagedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &fileReadError{Path: p, Err: err}
		}
		files = append(files, wizard.StagedFile{
			Name: filepath.Base(p),
			Size: int64(len(data)),
			Data: data,
		})
	}
	return files, nil
}

func printUpload(cmd *cobra.Command, theme ui.Theme, res *api.UploadResult) {
	out := cmd.OutOrStdout()
	for _, f := range res.Uploaded {
		fmt.Fprintf(out, "%s %s (%s)\n", theme.Success.Render("✓"), f.Name, ui.FileSize(f.Size))
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(out, "%s %s: %s\n", theme.Warning.Render("✗"), r.Name, r.Reason)
	}
}

func newAgentsCreateCmd() *cobra.Command {
	var (
		paths []string
		train bool
		flags configFlags
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an agent without prompts",
		Long: `Create an agent, optionally upload training files, train it and save its
configuration in one go.

Configuration flags need --train, since configuration is the step after
training. Use 'saple agents update' to configure an existing agent.`,
		Example: `  saple agents create "Support Bot" --file faq.pdf --file policies.docx --train --color "#16A34A"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.changed(cmd) && !train {
				return errors.New("configuration flags need --train (or use 'saple agents update')")
			}
			if train && len(paths) == 0 {
				return errors.New("--train needs at least one --file")
			}

			staged, err := readStagedFiles(paths)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if _, err := ensureWorkspace(ctx, s.client, s.log); err != nil {
				return err
			}

			ctrl := wizard.New(s.client, wizard.WithLogger(s.log))
			defer ctrl.Close()

			if err := ctrl.SetName(args[0]); err != nil {
				return err
			}
			if err := ctrl.Continue(ctx); err != nil {
				return err
			}
			bot := ctrl.Bot()
			clearCompletionCache("agent-ids")
			fmt.Fprintf(out, "Agent %q created (%s)\n", bot.Name, bot.ID)

			if len(staged) == 0 {
				return nil
			}
			if _, err := ctrl.StageFiles(staged...); err != nil {
				return err
			}
			if msg := ctrl.Error(); msg != "" {
				fmt.Fprintln(out, s.theme.Warning.Render(msg))
			}
			res, err := ctrl.Upload(ctx)
			if err != nil {
				return err
			}
			printUpload(cmd, s.theme, res)

			if !train {
				return nil
			}
			if err := ctrl.Continue(ctx); err != nil {
				return stepError(ctrl, err)
			}
			status, err := ctrl.Train(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Training started: %s\n", status)

			if !flags.changed(cmd) {
				return nil
			}
			cfg := ctrl.Config()
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			if err := ctrl.Configure(cfg); err != nil {
				return err
			}
			for _, w := range wizard.ConfigWarnings(cfg) {
				fmt.Fprintln(out, s.theme.Warning.Render("Warning: "+w))
			}
			if err := ctrl.Save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Configuration saved")
			fmt.Fprintf(out, "\nEmbed snippet:\n  %s\n", preview.EmbedSnippet(s.cfg.ServerURL, bot.ID))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&paths, "file", "f", nil, "training file to upload (repeatable)")
	cmd.Flags().BoolVar(&train, "train", false, "start training after uploading")
	flags.register(cmd)
	return cmd
}

func newAgentsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload [agent-id] [file...]",
		Short: "Upload training files to an agent",
		Long: fmt.Sprintf(`Upload training files to an existing agent.

Allowed types: %s. Files up to %s.
Files of other types are skipped; files the server refuses are reported.`,
			strings.Join(wizard.AllowedExtensions, ", "), wizard.MaxFileSizeLabel()),
		Args: cobra.MinimumNArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return agentIDCompletion()(cmd, args, toComplete)
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			staged, err := readStagedFiles(args[1:])
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ctrl, err := s.editController(ctx, args[0], wizard.StepUpload)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if _, err := ctrl.StageFiles(staged...); err != nil {
				return err
			}
			if msg := ctrl.Error(); msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), s.theme.Warning.Render(msg))
			}

			res, err := ctrl.Upload(ctx)
			if err != nil {
				return err
			}
			clearCompletionCache("file-ids-" + args[0])
			printUpload(cmd, s.theme, res)
			if len(res.Uploaded) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'saple agents train %s' to retrain with the new files.\n", args[0])
			}
			return nil
		},
	}
}

func newAgentsDeleteFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete-file [agent-id] [file-id]",
		Short:             "Delete a training file",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: fileIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ctrl, err := s.editController(ctx, args[0], wizard.StepUpload)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.DeleteFile(ctx, args[1]); err != nil {
				if errors.Is(err, wizard.ErrUnknownFile) {
					return fmt.Errorf("agent %s has no file %s", args[0], args[1])
				}
				return err
			}
			clearCompletionCache("file-ids-" + args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "File %s deleted\n", args[1])
			return nil
		},
	}
}

func newAgentsTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "train [agent-id]",
		Short:             "Start training an agent on its files",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ctrl, err := s.editController(ctx, args[0], wizard.StepTraining)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			spinner := ui.NewSpinner("Starting training...", !useColor(cmd, s.cfg))
			spinner.Start()
			status, err := ctrl.Train(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Training started for %s: %s\n", args[0], status)
			return nil
		},
	}
}

func newAgentsUpdateCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:               "update [agent-id]",
		Short:             "Change an agent's configuration",
		Example:           `  saple agents update 3f2a --color "#0EA5E9" --welcome "Hello from {bot_name}!"`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: agentIDCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.changed(cmd) {
				return errors.New("nothing to update, pass at least one configuration flag")
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ctrl, err := s.editController(ctx, args[0], wizard.StepConfiguration)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			cfg := ctrl.Config()
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			if err := ctrl.Configure(cfg); err != nil {
				return err
			}
			for _, w := range wizard.ConfigWarnings(cfg) {
				fmt.Fprintln(out, s.theme.Warning.Render("Warning: "+w))
			}
			if err := ctrl.Save(ctx); err != nil {
				return err
			}

			bot := ctrl.Bot()
			fmt.Fprintf(out, "Agent %q updated\n", bot.Name)
			fmt.Fprintf(out, "Welcome message: %s\n", wizard.PreviewWelcome(bot.WelcomeMessage, bot.Name))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// configFlags are the configuration-step fields exposed as flags.
type configFlags struct {
	mediaType    string
	color        string
	font         string
	fontStyle    string
	fontSize     string
	model        string
	prompt       string
	promptFile   string
	welcome      string
	calendly     bool
	calendlyLink string
}

var configFlagNames = []string{
	"media-type", "color", "font", "font-style", "font-size", "model",
	"prompt", "prompt-file", "welcome", "calendly", "calendly-link",
}

func (f *configFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.mediaType, "media-type", "", "channel the agent answers on (text, audio, both)")
	fl.StringVar(&f.color, "color", "", "widget color as hex, e.g. #2563EB")
	fl.StringVar(&f.font, "font", "", "widget font family")
	fl.StringVar(&f.fontStyle, "font-style", "", "widget font style (normal, italic, bold)")
	fl.StringVar(&f.fontSize, "font-size", "", "widget font size, e.g. 14px")
	fl.StringVar(&f.model, "model", "", "language model the agent uses")
	fl.StringVar(&f.prompt, "prompt", "", "system prompt")
	fl.StringVar(&f.promptFile, "prompt-file", "", "read the system prompt from a file")
	fl.StringVar(&f.welcome, "welcome", "", "welcome message, {bot_name} is replaced by the agent name")
	fl.BoolVar(&f.calendly, "calendly", false, "offer Calendly booking in the widget")
	fl.StringVar(&f.calendlyLink, "calendly-link", "", "Calendly booking link")

	_ = cmd.RegisterFlagCompletionFunc("media-type", completion.MediaTypeCompletionFunc())
	_ = cmd.RegisterFlagCompletionFunc("model", completion.ModelCompletionFunc())
	_ = cmd.RegisterFlagCompletionFunc("font", completion.FontCompletionFunc())
	_ = cmd.RegisterFlagCompletionFunc("font-style", completion.Static(wizard.FontStyles...))
	_ = cmd.RegisterFlagCompletionFunc("font-size", completion.Static(wizard.FontSizes...))
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
}

func (f *configFlags) changed(cmd *cobra.Command) bool {
	for _, name := range configFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply copies the flags the user set onto cfg.
func (f *configFlags) apply(cmd *cobra.Command, cfg *api.BotConfig) error {
	set := cmd.Flags().Changed

	if set("media-type") {
		mt := api.MediaType(f.mediaType)
		if !validMediaType(mt) {
			return fmt.Errorf("invalid media type %q (use text, audio or both)", f.mediaType)
		}
		cfg.MediaType = mt
	}
	if set("color") {
		cfg.Color = f.color
	}
	if set("font") {
		cfg.Font = f.font
	}
	if set("font-style") {
		cfg.FontStyle = f.fontStyle
	}
	if set("font-size") {
		cfg.FontSize = f.fontSize
	}
	if set("model") {
		cfg.DefaultModel = f.model
	}
	if set("prompt") {
		cfg.Prompt = f.prompt
	}
	if set("prompt-file") {
		data, err := os.ReadFile(f.promptFile)
		if err != nil {
			return fmt.Errorf("failed to read prompt file: %w", err)
		}
		cfg.Prompt = strings.TrimSpace(string(data))
	}
	if set("welcome") {
		cfg.WelcomeMessage = f.welcome
	}
	if set("calendly") {
		cfg.CalendlyEnabled = f.calendly
	}
	if set("calendly-link") {
		cfg.CalendlyLink = f.calendlyLink
		if !set("calendly") && f.calendlyLink != "" {
			cfg.CalendlyEnabled = true
		}
	}
	return nil
}

// stepError replaces a gating error with the message the wizard set for it.
func stepError(ctrl *wizard.Controller, err error) error {
	if errors.Is(err, wizard.ErrStepLocked) {
		if msg := ctrl.Error(); msg != "" {
			return errors.New(msg)
		}
	}
	return err
}

func validMediaType(mt api.MediaType) bool {
	for _, m := range wizard.MediaTypes {
		if m == mt {
			return true
		}
	}
	return false
}
