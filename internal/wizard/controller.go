// Package wizard drives the agent lifecycle: create the agent, upload its
// training files, trigger training, configure it and finish.
//
// A Controller is one wizard session in either create or edit mode. In create
// mode steps unlock one at a time as their remote operation succeeds; in edit
// mode the agent already exists and every step is reachable directly.
// Remote failures never move the session: they set Error and leave the
// current step in place.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/saple-ai/saple-cli/internal/api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mode selects how strictly steps are gated.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Step is a wizard step, numbered from 1.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepUpload
	StepTraining
	StepConfiguration
	StepComplete
)

// Steps lists every step in order.
var Steps = []Step{StepBasicInfo, StepUpload, StepTraining, StepConfiguration, StepComplete}

var stepTitles = map[Step]string{
	StepBasicInfo:     "Basic Info",
	StepUpload:        "Upload Files",
	StepTraining:      "Training",
	StepConfiguration: "Configuration",
	StepComplete:      "Complete",
}

func (s Step) String() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return "Unknown"
}

// Valid reports whether s is one of the five steps.
func (s Step) Valid() bool {
	return s >= StepBasicInfo && s <= StepComplete
}

const (
	opCreate = "create"
	opUpload = "upload"
	opDelete = "delete"
	opTrain  = "train"
	opSave   = "save"
)

// Operations are the remote calls the wizard makes. *api.Client implements it.
type Operations interface {
	CreateBot(ctx context.Context, name string) (*api.Bot, error)
	UploadFiles(ctx context.Context, botID string, files []api.UploadFile) (*api.UploadResult, error)
	DeleteFile(ctx context.Context, botID, fileID string) error
	TrainBot(ctx context.Context, botID string) (*api.TrainResult, error)
	UpdateBot(ctx context.Context, botID string, cfg api.BotConfig) error
}

// BotSource loads an existing agent for edit mode. *api.Client implements it.
type BotSource interface {
	GetBot(ctx context.Context, id string) (*api.Bot, error)
	ListFiles(ctx context.Context, botID string) ([]api.File, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger that receives the causes of failed operations.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// Controller is one wizard session. It is safe for concurrent use; at most
// one remote operation runs at a time and others get ErrBusy.
type Controller struct {
	ops Operations
	log *zap.Logger

	mu           sync.Mutex
	mode         Mode
	step         Step
	bot          api.Bot
	files        *Staging
	trained      bool
	filesChanged bool // since the last successful training
	saved        bool
	err          string
	loading      bool
	closed       bool
	createKey    string
}

// New starts a create-mode session with default form data.
func New(ops Operations, opts ...Option) *Controller {
	c := &Controller{ops: ops, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked()
	return c
}

// NewForEdit starts an edit-mode session for an existing agent.
func NewForEdit(ops Operations, bot api.Bot, files []api.File, opts ...Option) *Controller {
	c := &Controller{
		ops:   ops,
		log:   zap.NewNop(),
		mode:  ModeEdit,
		step:  StepBasicInfo,
		bot:   bot,
		files: NewStaging(files),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Edit fetches an agent and its files and starts an edit-mode session.
func Edit(ctx context.Context, src BotSource, ops Operations, botID string, opts ...Option) (*Controller, error) {
	var (
		bot   *api.Bot
		files []api.File
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bot, err = src.GetBot(gctx, botID)
		return err
	})
	g.Go(func() error {
		var err error
		files, err = src.ListFiles(gctx, botID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewForEdit(ops, *bot, files, opts...), nil
}

func (c *Controller) resetLocked() {
	c.mode = ModeCreate
	c.step = StepBasicInfo
	c.bot = DefaultBot()
	c.files = NewStaging(nil)
	c.trained = false
	c.filesChanged = false
	c.saved = false
	c.err = ""
	c.createKey = ""
}

// Mode returns the session mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Bot returns a copy of the agent as edited so far.
func (c *Controller) Bot() api.Bot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bot
}

// Config returns the configuration form data.
func (c *Controller) Config() api.BotConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bot.Config()
}

// Error returns the message of the last failure on this step, or "".
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether a remote operation is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Entries returns every staged and persisted file.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.Entries()
}

// NameEditable reports whether the name can still change. It never can in
// edit mode or once the agent exists.
func (c *Controller) NameEditable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nameEditableLocked()
}

func (c *Controller) nameEditableLocked() bool {
	return c.mode == ModeCreate && c.bot.ID == ""
}

// CanCreate reports whether the create action is invocable.
func (c *Controller) CanCreate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canCreateLocked()
}

func (c *Controller) canCreateLocked() bool {
	return c.mode == ModeCreate && c.bot.ID == "" && !c.loading && ValidateName(c.bot.Name) == nil
}

// SetName edits the agent name and clears the error.
func (c *Controller) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.nameEditableLocked() {
		return ErrNameLocked
	}
	if name != c.bot.Name {
		c.createKey = ""
	}
	c.bot.Name = name
	c.err = ""
	return nil
}

// Configure replaces the configuration form data and clears the error.
func (c *Controller) Configure(cfg api.BotConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.bot.Apply(cfg)
	c.err = ""
	return nil
}

// StageFiles adds files to the upload list. Selection is cumulative. Files
// with an unsupported extension are dropped and reported through Error; the
// returned slice names them.
func (c *Controller) StageFiles(files ...StagedFile) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLocked(StepUpload); err != nil {
		return nil, err
	}

	accepted, rejected := FilterFiles(files)
	for _, f := range accepted {
		c.files.Stage(f)
	}

	c.err = ""
	if len(rejected) > 0 {
		c.err = unsupportedMessage(rejected)
	}
	return rejected, nil
}

// Unstage removes a staged file by entry id.
func (c *Controller) Unstage(entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLocked(StepUpload); err != nil {
		return err
	}
	if !c.files.Unstage(entryID) {
		return ErrUnknownFile
	}
	c.err = ""
	return nil
}

// Create creates the agent from the entered name and moves to the upload
// step. When the agent already exists it only advances.
func (c *Controller) Create(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkLocked(StepBasicInfo); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.mode != ModeCreate {
		c.mu.Unlock()
		return ErrNotAllowed
	}
	if c.bot.ID != "" {
		c.moveLocked(StepUpload)
		c.mu.Unlock()
		return nil
	}
	if err := ValidateName(c.bot.Name); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.createKey == "" {
		c.createKey = uuid.NewString()
	}
	name, key := strings.TrimSpace(c.bot.Name), c.createKey
	c.beginLocked()
	c.mu.Unlock()

	bot, err := c.ops.CreateBot(api.WithIdempotencyKey(ctx, key), name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		return c.failLocked(opCreate, err)
	}
	if bot == nil || bot.ID == "" {
		return c.failLocked(opCreate, fmt.Errorf("%w: create response has no agent id", api.ErrTransport))
	}

	c.bot.ID = bot.ID
	if bot.Name != "" {
		c.bot.Name = bot.Name
	}
	c.bot.TrainingStatus = bot.TrainingStatus
	c.bot.CreatedAt = bot.CreatedAt
	c.createKey = ""
	c.log.Debug("agent created", zap.String("bot_id", bot.ID))

	c.moveLocked(StepUpload)
	return nil
}

// Upload sends every staged file in one request. A response that rejects
// some files still succeeds: accepted files become persisted, the staged
// list empties and the rejections are reported through Error.
func (c *Controller) Upload(ctx context.Context) (*api.UploadResult, error) {
	c.mu.Lock()
	if err := c.checkLocked(StepUpload); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	staged := c.files.Staged()
	if len(staged) == 0 {
		c.mu.Unlock()
		return nil, ErrNothingStaged
	}
	uploads := make([]api.UploadFile, 0, len(staged))
	for _, e := range staged {
		uploads = append(uploads, api.UploadFile{Name: e.Local.Name, Data: e.Local.Data})
	}
	botID := c.bot.ID
	c.beginLocked()
	c.mu.Unlock()

	res, err := c.ops.UploadFiles(ctx, botID, uploads)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		return nil, c.failLocked(opUpload, err)
	}

	c.files.ClearStaged()
	for _, f := range res.Uploaded {
		c.files.AddPersisted(f)
	}
	if len(res.Uploaded) > 0 {
		c.filesChanged = true
	}
	if len(res.Rejected) > 0 {
		c.err = rejectedMessage(res.Rejected)
	}
	c.log.Debug("files uploaded",
		zap.String("bot_id", botID),
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("rejected", len(res.Rejected)),
	)
	return res, nil
}

// DeleteFile deletes a persisted file. The file stays listed, marked
// deleting, until the server confirms; on failure it is restored.
func (c *Controller) DeleteFile(ctx context.Context, fileID string) error {
	c.mu.Lock()
	if err := c.checkLocked(StepUpload); err != nil {
		c.mu.Unlock()
		return err
	}
	entryID, ok := c.files.MarkDeleting(fileID)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownFile
	}
	botID := c.bot.ID
	c.beginLocked()
	c.mu.Unlock()

	err := c.ops.DeleteFile(ctx, botID, fileID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.files.Restore(entryID)
		return c.failLocked(opDelete, err)
	}

	c.files.Remove(entryID)
	c.filesChanged = true
	return nil
}

// Train triggers training and moves to configuration. The returned status
// is whatever the backend reported.
func (c *Controller) Train(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.checkLocked(StepTraining); err != nil {
		c.mu.Unlock()
		return "", err
	}
	botID := c.bot.ID
	c.beginLocked()
	c.mu.Unlock()

	res, err := c.ops.TrainBot(ctx, botID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		return "", c.failLocked(opTrain, err)
	}

	c.bot.TrainingStatus = res.Status
	c.trained = true
	c.filesChanged = false
	c.moveLocked(StepConfiguration)
	return res.Status, nil
}

// Save persists the full configuration and moves to the last step.
// Configuration warnings do not block it.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkLocked(StepConfiguration); err != nil {
		c.mu.Unlock()
		return err
	}
	botID, cfg := c.bot.ID, c.bot.Config()
	c.beginLocked()
	c.mu.Unlock()

	err := c.ops.UpdateBot(ctx, botID, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		return c.failLocked(opSave, err)
	}

	c.saved = true
	c.moveLocked(StepComplete)
	return nil
}

// Continue runs the primary action of the current step and advances on
// success. A step whose operation already succeeded, and whose inputs have
// not changed since, advances without repeating it.
func (c *Controller) Continue(ctx context.Context) error {
	c.mu.Lock()
	step, mode := c.step, c.mode
	c.mu.Unlock()

	switch step {
	case StepBasicInfo:
		if mode == ModeEdit {
			return c.advanceFrom(StepBasicInfo, nil)
		}
		return c.Create(ctx)

	case StepUpload:
		c.mu.Lock()
		pending := len(c.files.Staged()) > 0
		c.mu.Unlock()

		if pending {
			res, err := c.Upload(ctx)
			if err != nil {
				return err
			}
			if len(res.Rejected) > 0 {
				return nil
			}
		}
		return c.advanceFrom(StepUpload, func() error {
			if c.mode == ModeCreate && c.files.PersistedCount() == 0 {
				c.err = "Upload at least one file to continue."
				return ErrStepLocked
			}
			return nil
		})

	case StepTraining:
		c.mu.Lock()
		reuse := c.trained && !c.filesChanged
		c.mu.Unlock()

		if reuse {
			return c.advanceFrom(StepTraining, nil)
		}
		_, err := c.Train(ctx)
		return err

	case StepConfiguration:
		return c.Save(ctx)

	default:
		return ErrNotAllowed
	}
}

func (c *Controller) advanceFrom(step Step, guard func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLocked(step); err != nil {
		return err
	}
	if guard != nil {
		if err := guard(); err != nil {
			return err
		}
	}
	c.moveLocked(step + 1)
	return nil
}

// GoToStep navigates directly. Edit mode reaches any step. Create mode may
// revisit earlier steps, or move one step forward once the current step's
// operation has succeeded; it never skips ahead.
func (c *Controller) GoToStep(n Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.loading {
		return ErrBusy
	}
	if !n.Valid() {
		return ErrNotAllowed
	}

	if c.mode == ModeEdit || n <= c.step || (n == c.step+1 && c.completedLocked(c.step)) {
		c.moveLocked(n)
		return nil
	}
	return ErrStepLocked
}

func (c *Controller) completedLocked(s Step) bool {
	switch s {
	case StepBasicInfo:
		return c.bot.ID != ""
	case StepUpload:
		return c.files.PersistedCount() > 0
	case StepTraining:
		return c.trained
	case StepConfiguration:
		return c.saved
	default:
		return false
	}
}

// Reset starts over with default form data. Only a completed create-mode
// session can be reset.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.mode != ModeCreate || c.step != StepComplete {
		return ErrNotAllowed
	}
	c.resetLocked()
	return nil
}

// Close discards the session. Later calls return ErrClosed; an operation in
// flight finishes but no longer moves the session.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CanContinue reports whether the primary action of the current step is
// invocable.
func (c *Controller) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canContinueLocked()
}

func (c *Controller) canContinueLocked() bool {
	if c.closed || c.loading {
		return false
	}
	switch c.step {
	case StepBasicInfo:
		return c.mode == ModeEdit || c.bot.ID != "" || c.canCreateLocked()
	case StepUpload:
		return c.mode == ModeEdit || c.files.PersistedCount() > 0 || len(c.files.Staged()) > 0
	case StepTraining, StepConfiguration:
		return c.bot.ID != ""
	default:
		return false
	}
}

// State returns a snapshot shaped by the current step.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case StepUpload:
		return UploadState{
			Mode:        c.mode,
			BotID:       c.bot.ID,
			Staged:      c.files.Staged(),
			Persisted:   c.files.Persisted(),
			CanContinue: c.canContinueLocked(),
			Error:       c.err,
			Loading:     c.loading,
		}
	case StepTraining:
		return TrainingState{
			Mode:    c.mode,
			BotID:   c.bot.ID,
			Files:   c.files.PersistedCount(),
			Status:  c.bot.TrainingStatus,
			Trained: c.trained,
			Error:   c.err,
			Loading: c.loading,
		}
	case StepConfiguration:
		cfg := c.bot.Config()
		return ConfigurationState{
			Mode:     c.mode,
			BotID:    c.bot.ID,
			Name:     c.bot.Name,
			Config:   cfg,
			Preview:  PreviewWelcome(cfg.WelcomeMessage, c.bot.Name),
			Warnings: ConfigWarnings(cfg),
			Error:    c.err,
			Loading:  c.loading,
		}
	case StepComplete:
		return CompleteState{
			Mode:             c.mode,
			Bot:              c.bot,
			Files:            c.files.PersistedCount(),
			CanCreateAnother: c.mode == ModeCreate,
		}
	default:
		return BasicInfoState{
			Mode:         c.mode,
			Name:         c.bot.Name,
			NameEditable: c.nameEditableLocked(),
			CanCreate:    c.canCreateLocked(),
			Created:      c.bot.ID != "",
			Error:        c.err,
			Loading:      c.loading,
		}
	}
}

// checkLocked guards step actions: the session must be open, idle and on step.
func (c *Controller) checkLocked(step Step) error {
	if c.closed {
		return ErrClosed
	}
	if c.loading {
		return ErrBusy
	}
	if c.step != step {
		return ErrNotAllowed
	}
	return nil
}

func (c *Controller) beginLocked() {
	c.loading = true
	c.err = ""
}

func (c *Controller) moveLocked(n Step) {
	if c.closed {
		return
	}
	c.log.Debug("wizard step", zap.Stringer("from", c.step), zap.Stringer("to", n), zap.Stringer("mode", c.mode))
	c.step = n
	c.err = ""
}

func (c *Controller) failLocked(op string, err error) error {
	msg := userMessage(op, err)
	c.log.Warn("wizard operation failed",
		zap.String("op", op),
		zap.String("bot_id", c.bot.ID),
		zap.Error(err),
	)
	c.err = msg
	return &OpError{Op: op, Message: msg, Err: err}
}
