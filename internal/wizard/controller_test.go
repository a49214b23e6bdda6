package wizard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// driveTo walks a create-mode session forward to step.
func driveTo(t *testing.T, c *Controller, step Step) {
	t.Helper()
	ctx := context.Background()

	if c.Step() < step && c.Step() == StepBasicInfo {
		if ValidateName(c.Bot().Name) != nil {
			require.NoError(t, c.SetName("Support Bot"))
		}
		require.NoError(t, c.Continue(ctx))
	}
	if c.Step() < step && c.Step() == StepUpload {
		_, err := c.StageFiles(pdf("faq.pdf"))
		require.NoError(t, err)
		require.NoError(t, c.Continue(ctx))
	}
	if c.Step() < step && c.Step() == StepTraining {
		require.NoError(t, c.Continue(ctx))
	}
	if c.Step() < step && c.Step() == StepConfiguration {
		require.NoError(t, c.Continue(ctx))
	}
	require.Equal(t, step, c.Step())
}

func TestCreateMode_HappyPath(t *testing.T) {
	ops := newFakeOps()
	c := New(ops)
	ctx := context.Background()

	assert.Equal(t, ModeCreate, c.Mode())
	assert.Equal(t, StepBasicInfo, c.Step())

	require.NoError(t, c.SetName("  Support Bot  "))
	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepUpload, c.Step())
	assert.Equal(t, "bot_1", c.Bot().ID)
	assert.Equal(t, "Support Bot", c.Bot().Name, "name is sent trimmed")

	_, err := c.StageFiles(pdf("faq.pdf"), pdf("pricing.md"))
	require.NoError(t, err)
	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepTraining, c.Step())

	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepConfiguration, c.Step())
	assert.Equal(t, "training_started", c.Bot().TrainingStatus)

	cfg := c.Config()
	cfg.Color = "#000000"
	require.NoError(t, c.Configure(cfg))
	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepComplete, c.Step())

	state, ok := c.State().(CompleteState)
	require.True(t, ok)
	assert.Equal(t, 2, state.Files)
	assert.Equal(t, "#000000", state.Bot.Color)
	assert.True(t, state.CanCreateAnother)

	assert.Equal(t, 1, ops.count(opCreate))
	assert.Equal(t, 1, ops.count(opUpload))
	assert.Equal(t, 1, ops.count(opTrain))
	assert.Equal(t, 1, ops.count(opSave))
}

func TestCreateMode_StepGating(t *testing.T) {
	ctx := context.Background()

	t.Run("no forward skip before any success", func(t *testing.T) {
		c := New(newFakeOps())
		for _, n := range []Step{StepUpload, StepTraining, StepConfiguration, StepComplete} {
			assert.ErrorIs(t, c.GoToStep(n), ErrStepLocked, "step %d", n)
			assert.Equal(t, StepBasicInfo, c.Step())
		}
	})

	t.Run("each step unlocks only after its operation succeeds", func(t *testing.T) {
		ops := newFakeOps()
		c := New(ops)

		require.NoError(t, c.SetName("Support Bot"))
		require.NoError(t, c.Create(ctx))
		assert.ErrorIs(t, c.GoToStep(StepTraining), ErrStepLocked, "upload has not succeeded")

		require.NoError(t, c.GoToStep(StepBasicInfo), "revisiting is allowed")
		require.NoError(t, c.GoToStep(StepUpload), "create succeeded, step 2 is unlocked")
		assert.ErrorIs(t, c.GoToStep(StepTraining), ErrStepLocked)

		_, err := c.StageFiles(pdf("faq.pdf"))
		require.NoError(t, err)
		assert.ErrorIs(t, c.GoToStep(StepTraining), ErrStepLocked, "staged files are not persisted files")

		_, err = c.Upload(ctx)
		require.NoError(t, err)
		require.NoError(t, c.GoToStep(StepTraining))
		assert.ErrorIs(t, c.GoToStep(StepConfiguration), ErrStepLocked)

		_, err = c.Train(ctx)
		require.NoError(t, err)
		assert.Equal(t, StepConfiguration, c.Step())
		assert.ErrorIs(t, c.GoToStep(StepComplete), ErrStepLocked)

		require.NoError(t, c.GoToStep(StepBasicInfo))
		assert.ErrorIs(t, c.GoToStep(StepTraining), ErrStepLocked, "never skips ahead even over done steps")
	})

	t.Run("failed operation keeps the step locked", func(t *testing.T) {
		ops := newFakeOps()
		ops.trainFn = func() (*api.TrainResult, error) {
			return nil, &api.Error{StatusCode: http.StatusBadRequest, Message: "No files to train on"}
		}
		c := New(ops)
		driveTo(t, c, StepTraining)

		_, err := c.Train(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, c.GoToStep(StepConfiguration), ErrStepLocked)
		assert.Equal(t, StepTraining, c.Step())
	})

	t.Run("upload step needs a persisted file", func(t *testing.T) {
		c := New(newFakeOps())
		driveTo(t, c, StepUpload)

		assert.False(t, c.CanContinue())
		assert.ErrorIs(t, c.Continue(ctx), ErrStepLocked)
		assert.Equal(t, "Upload at least one file to continue.", c.Error())
		assert.Equal(t, StepUpload, c.Step())
	})
}

func TestEditMode_AnyStepReachable(t *testing.T) {
	c := NewForEdit(newFakeOps(), api.Bot{ID: "bot_9", Name: "Existing"}, nil)

	for _, from := range Steps {
		for _, to := range Steps {
			require.NoError(t, c.GoToStep(from))
			require.NoError(t, c.GoToStep(to), "from %d to %d", from, to)
			assert.Equal(t, to, c.Step())
		}
	}
	assert.ErrorIs(t, c.GoToStep(Step(6)), ErrNotAllowed)
	assert.ErrorIs(t, c.GoToStep(Step(0)), ErrNotAllowed)
}

func TestEditMode_ContinueWithoutFiles(t *testing.T) {
	ops := newFakeOps()
	c := NewForEdit(ops, api.Bot{ID: "bot_9", Name: "Existing"}, nil)
	ctx := context.Background()

	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepUpload, c.Step())
	require.NoError(t, c.Continue(ctx), "edit mode does not require files")
	assert.Equal(t, StepTraining, c.Step())
	assert.Equal(t, 0, ops.count(opCreate))
	assert.ErrorIs(t, c.Create(ctx), ErrNotAllowed)
}

func TestNameImmutability(t *testing.T) {
	t.Run("edit mode", func(t *testing.T) {
		for _, name := range []string{"", "ab", "Existing"} {
			c := NewForEdit(newFakeOps(), api.Bot{ID: "bot_9", Name: name}, nil)
			assert.False(t, c.NameEditable())
			assert.ErrorIs(t, c.SetName("Renamed"), ErrNameLocked)
			assert.Equal(t, name, c.Bot().Name)

			state := c.State().(BasicInfoState)
			assert.False(t, state.NameEditable)
		}
	})

	t.Run("after creation", func(t *testing.T) {
		c := New(newFakeOps())
		driveTo(t, c, StepUpload)
		require.NoError(t, c.GoToStep(StepBasicInfo))
		assert.ErrorIs(t, c.SetName("Renamed"), ErrNameLocked)
	})
}

func TestNameValidation(t *testing.T) {
	ops := newFakeOps()
	c := New(ops)

	for _, name := range []string{"", "  ", "ab", " ab "} {
		require.NoError(t, c.SetName(name))
		assert.False(t, c.CanCreate(), "%q", name)
		assert.ErrorIs(t, c.Create(context.Background()), ErrNameTooShort)
	}
	assert.Equal(t, 0, ops.count(opCreate), "invalid names never reach the network")

	require.NoError(t, c.SetName("abc"))
	assert.True(t, c.CanCreate())
	require.NoError(t, c.SetName("Zoë"))
	assert.True(t, c.CanCreate(), "length counts characters")
}

func TestCreateFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ops := newFakeOps()
	ops.createFn = func(string) (*api.Bot, error) {
		return nil, &api.Error{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid bot data",
			Details:    map[string][]string{"name": {"A bot with this name already exists."}},
		}
	}
	c := New(ops, WithLogger(zap.New(core)))
	require.NoError(t, c.SetName("Support Bot"))

	err := c.Create(context.Background())
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, opCreate, opErr.Op)
	assert.Equal(t, "Invalid bot data; name: A bot with this name already exists.", c.Error())
	assert.False(t, c.Loading())
	assert.Equal(t, StepBasicInfo, c.Step())
	assert.Equal(t, 1, logs.FilterMessage("wizard operation failed").Len())

	require.NoError(t, c.SetName("Support Bot 2"))
	assert.Empty(t, c.Error(), "editing a field clears the error")
}

func TestTransportFailureUsesFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ops := newFakeOps()
	ops.updateFn = func(api.BotConfig) error {
		return errors.Join(api.ErrTransport, errors.New("dial tcp: connection refused"))
	}
	c := New(ops, WithLogger(zap.New(core)))
	driveTo(t, c, StepConfiguration)

	err := c.Save(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrTransport)
	assert.Equal(t, "Failed to save configuration. Please try again.", c.Error())
	assert.NotContains(t, c.Error(), "connection refused")

	entry := logs.FilterMessage("wizard operation failed").All()
	require.Len(t, entry, 1)
	assert.Contains(t, entry[0].ContextMap()["error"], "connection refused")
}

func TestCreateWithoutAgentID(t *testing.T) {
	ops := newFakeOps()
	ops.createFn = func(name string) (*api.Bot, error) {
		return &api.Bot{Name: name}, nil
	}
	c := New(ops)
	require.NoError(t, c.SetName("Support Bot"))

	err := c.Create(context.Background())
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, opCreate, opErr.Op)
	assert.ErrorIs(t, err, api.ErrTransport)
	assert.Equal(t, "Failed to create agent. Please try again.", c.Error())
	assert.Equal(t, StepBasicInfo, c.Step())
	assert.Empty(t, c.Bot().ID)
	assert.False(t, c.Loading())

	ops.createFn = nil
	require.NoError(t, c.Create(context.Background()))
	assert.Equal(t, "bot_1", c.Bot().ID)
	assert.Equal(t, StepUpload, c.Step())
	require.Len(t, ops.keys, 2)
	assert.Equal(t, ops.keys[0], ops.keys[1], "the retry reuses the idempotency key")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"operation error", &OpError{Op: opTrain, Message: "Failed to start training. Please try again."}, "Failed to start training. Please try again."},
		{"server message", &api.Error{StatusCode: http.StatusNotFound, Message: "Agent not found"}, "Agent not found"},
		{"transport", errors.Join(api.ErrTransport, errors.New("timeout")), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestIdempotencyKeyReusedAcrossRetries(t *testing.T) {
	ops := newFakeOps()
	fail := true
	ops.createFn = func(name string) (*api.Bot, error) {
		if fail {
			return nil, api.ErrTransport
		}
		return &api.Bot{ID: "bot_1", Name: name}, nil
	}
	c := New(ops)
	require.NoError(t, c.SetName("Support Bot"))

	require.Error(t, c.Create(context.Background()))
	fail = false
	require.NoError(t, c.Create(context.Background()))

	require.Len(t, ops.keys, 2)
	assert.NotEmpty(t, ops.keys[0])
	assert.Equal(t, ops.keys[0], ops.keys[1], "a retry of the same name reuses the key")
}

func TestIdempotencyKeyChangesWithName(t *testing.T) {
	ops := newFakeOps()
	ops.createFn = func(string) (*api.Bot, error) { return nil, api.ErrTransport }
	c := New(ops)

	require.NoError(t, c.SetName("Support Bot"))
	require.Error(t, c.Create(context.Background()))
	require.NoError(t, c.SetName("Sales Bot"))
	require.Error(t, c.Create(context.Background()))

	require.Len(t, ops.keys, 2)
	assert.NotEqual(t, ops.keys[0], ops.keys[1])
}

func TestExtensionFilter(t *testing.T) {
	c := New(newFakeOps())
	driveTo(t, c, StepUpload)

	rejected, err := c.StageFiles(
		pdf("a.PDF"), pdf("b.docx"), pdf("c.exe"), pdf("d.csv"), pdf("e.png"), pdf("noext"),
	)
	require.NoError(t, err)

	state := c.State().(UploadState)
	assert.Len(t, state.Staged, 3)
	assert.Equal(t, []string{"c.exe", "e.png", "noext"}, rejected)
	assert.Contains(t, state.Error, "c.exe")
	assert.Contains(t, state.Error, ".pdf, .docx, .txt, .md, .xlsx, .xls, .csv")

	_, err = c.StageFiles(pdf("f.xlsx"))
	require.NoError(t, err)
	assert.Empty(t, c.Error(), "no error when every file is accepted")
	assert.Len(t, c.State().(UploadState).Staged, 4, "selection is cumulative")
}

func TestUnstage(t *testing.T) {
	c := New(newFakeOps())
	driveTo(t, c, StepUpload)

	_, err := c.StageFiles(pdf("a.pdf"), pdf("b.pdf"))
	require.NoError(t, err)
	staged := c.State().(UploadState).Staged
	require.Len(t, staged, 2)

	require.NoError(t, c.Unstage(staged[0].ID))
	left := c.State().(UploadState).Staged
	require.Len(t, left, 1)
	assert.Equal(t, "b.pdf", left[0].Name())
	assert.ErrorIs(t, c.Unstage(staged[0].ID), ErrUnknownFile)
}

func TestPartialUpload(t *testing.T) {
	ops := newFakeOps()
	ops.uploadFn = func(files []api.UploadFile) (*api.UploadResult, error) {
		return &api.UploadResult{
			Uploaded: []api.File{{ID: "fa", Name: "A.pdf"}, {ID: "fb", Name: "B.pdf"}},
			Rejected: []api.RejectedFile{{Name: "C.pdf", Reason: "too large"}},
		}, nil
	}
	c := New(ops)
	driveTo(t, c, StepUpload)

	_, err := c.StageFiles(pdf("A.pdf"), pdf("B.pdf"), pdf("C.pdf"))
	require.NoError(t, err)

	require.NoError(t, c.Continue(context.Background()))
	assert.Equal(t, StepUpload, c.Step(), "rejections keep the user on the step")

	state := c.State().(UploadState)
	assert.Empty(t, state.Staged)
	names := make([]string, 0, len(state.Persisted))
	for _, e := range state.Persisted {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"A.pdf", "B.pdf"}, names)
	assert.Contains(t, state.Error, "C.pdf")
	assert.Contains(t, state.Error, "too large")

	require.NoError(t, c.Continue(context.Background()))
	assert.Equal(t, StepTraining, c.Step())
	assert.Equal(t, 1, ops.count(opUpload))
}

func TestUploadFailureKeepsStagedFiles(t *testing.T) {
	ops := newFakeOps()
	ops.uploadFn = func([]api.UploadFile) (*api.UploadResult, error) {
		return nil, &api.Error{StatusCode: http.StatusRequestEntityTooLarge}
	}
	c := New(ops)
	driveTo(t, c, StepUpload)

	_, err := c.StageFiles(pdf("a.pdf"))
	require.NoError(t, err)
	_, err = c.Upload(context.Background())
	require.Error(t, err)

	state := c.State().(UploadState)
	assert.Len(t, state.Staged, 1)
	assert.Empty(t, state.Persisted)
	assert.Equal(t, "Failed to upload files. Please try again.", state.Error)
	assert.False(t, state.Loading)

	_, err = c.Upload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, ops.count(opUpload), "user can retry")
}

func TestUploadNothingStaged(t *testing.T) {
	c := New(newFakeOps())
	driveTo(t, c, StepUpload)

	_, err := c.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestDeleteFile(t *testing.T) {
	files := []api.File{{ID: "f1", Name: "faq.pdf"}, {ID: "f2", Name: "prices.csv"}}

	t.Run("success removes exactly one", func(t *testing.T) {
		c := NewForEdit(newFakeOps(), api.Bot{ID: "bot_9", Name: "Existing"}, files)
		require.NoError(t, c.GoToStep(StepUpload))

		require.NoError(t, c.DeleteFile(context.Background(), "f1"))
		persisted := c.State().(UploadState).Persisted
		require.Len(t, persisted, 1)
		assert.Equal(t, "f2", persisted[0].Remote.ID)
		assert.ErrorIs(t, c.DeleteFile(context.Background(), "f1"), ErrUnknownFile)
	})

	t.Run("failure rolls back", func(t *testing.T) {
		ops := newFakeOps()
		ops.deleteFn = func(string) error {
			return &api.Error{StatusCode: http.StatusForbidden, Message: "File is in use by training"}
		}
		c := NewForEdit(ops, api.Bot{ID: "bot_9", Name: "Existing"}, files)
		require.NoError(t, c.GoToStep(StepUpload))

		require.Error(t, c.DeleteFile(context.Background(), "f1"))

		state := c.State().(UploadState)
		require.Len(t, state.Persisted, 2)
		assert.Equal(t, "f1", state.Persisted[0].Remote.ID)
		assert.Equal(t, StatusPersisted, state.Persisted[0].Status)
		assert.Equal(t, "File is in use by training", state.Error)
	})
}

func TestDeleteFileMarksDeletingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ops := newFakeOps()
	ops.deleteFn = func(string) error {
		close(entered)
		<-release
		return nil
	}
	c := NewForEdit(ops, api.Bot{ID: "bot_9", Name: "Existing"}, []api.File{{ID: "f1", Name: "faq.pdf"}})
	require.NoError(t, c.GoToStep(StepUpload))

	done := make(chan error, 1)
	go func() { done <- c.DeleteFile(context.Background(), "f1") }()
	<-entered

	state := c.State().(UploadState)
	require.Len(t, state.Persisted, 1)
	assert.Equal(t, StatusDeleting, state.Persisted[0].Status)
	assert.True(t, state.Loading)
	assert.False(t, state.CanContinue)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, c.State().(UploadState).Persisted)
}

func TestBusyRejectsSecondSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ops := newFakeOps()
	ops.createFn = func(name string) (*api.Bot, error) {
		close(entered)
		<-release
		return &api.Bot{ID: "bot_1", Name: name}, nil
	}
	c := New(ops)
	require.NoError(t, c.SetName("Support Bot"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Create(context.Background()))
	}()
	<-entered

	assert.True(t, c.Loading())
	assert.False(t, c.CanCreate())
	assert.ErrorIs(t, c.Create(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.Continue(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.GoToStep(StepBasicInfo), ErrBusy)

	close(release)
	wg.Wait()
	assert.False(t, c.Loading())
	assert.Equal(t, 1, ops.count(opCreate))
	assert.Equal(t, StepUpload, c.Step())
}

func TestContextCancellationReleasesLoading(t *testing.T) {
	ops := newFakeOps()
	ctx, cancel := context.WithCancel(context.Background())
	ops.trainFn = func() (*api.TrainResult, error) {
		cancel()
		return nil, ctx.Err()
	}
	c := New(ops)
	driveTo(t, c, StepTraining)

	_, err := c.Train(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Loading())
	assert.Equal(t, "Failed to start training. Please try again.", c.Error())
}

func TestTrainingReuse(t *testing.T) {
	ops := newFakeOps()
	c := New(ops)
	driveTo(t, c, StepConfiguration)
	ctx := context.Background()

	require.NoError(t, c.GoToStep(StepTraining))
	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, StepConfiguration, c.Step())
	assert.Equal(t, 1, ops.count(opTrain), "unchanged files are not retrained")

	require.NoError(t, c.GoToStep(StepUpload))
	_, err := c.StageFiles(pdf("more.pdf"))
	require.NoError(t, err)
	require.NoError(t, c.Continue(ctx))
	require.NoError(t, c.Continue(ctx))
	assert.Equal(t, 2, ops.count(opTrain), "new files trigger training again")
}

func TestTransitionsClearError(t *testing.T) {
	ops := newFakeOps()
	ops.trainFn = func() (*api.TrainResult, error) { return nil, api.ErrTransport }
	c := New(ops)
	driveTo(t, c, StepTraining)

	_, err := c.Train(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, c.Error())

	require.NoError(t, c.GoToStep(StepUpload))
	assert.Empty(t, c.Error())
}

func TestSaveIgnoresWarnings(t *testing.T) {
	var sent api.BotConfig
	ops := newFakeOps()
	ops.updateFn = func(cfg api.BotConfig) error {
		sent = cfg
		return nil
	}
	c := New(ops)
	driveTo(t, c, StepConfiguration)

	cfg := c.Config()
	cfg.CalendlyEnabled = true
	cfg.CalendlyLink = ""
	require.NoError(t, c.Configure(cfg))

	state := c.State().(ConfigurationState)
	assert.Equal(t, []string{"Calendly is enabled but no booking link is set"}, state.Warnings)

	require.NoError(t, c.Continue(context.Background()))
	assert.Equal(t, StepComplete, c.Step())
	assert.True(t, sent.CalendlyEnabled)
	assert.Equal(t, DefaultPrompt, sent.Prompt)
}

func TestReset(t *testing.T) {
	c := New(newFakeOps())
	ctx := context.Background()

	assert.ErrorIs(t, c.Reset(), ErrNotAllowed, "only from the last step")

	require.NoError(t, c.SetName("Support Bot"))
	require.NoError(t, c.Create(ctx))
	_, err := c.StageFiles(pdf("a.pdf"))
	require.NoError(t, err)
	require.NoError(t, c.Continue(ctx))
	require.NoError(t, c.Continue(ctx))
	cfg := c.Config()
	cfg.Prompt = "custom"
	cfg.WelcomeMessage = "custom"
	require.NoError(t, c.Configure(cfg))
	require.NoError(t, c.Continue(ctx))
	require.Equal(t, StepComplete, c.Step())

	require.NoError(t, c.Reset())

	assert.Equal(t, StepBasicInfo, c.Step())
	assert.Equal(t, DefaultBot(), c.Bot())
	assert.Empty(t, c.Entries())
	assert.Empty(t, c.Error())
	assert.Equal(t, DefaultPrompt, c.Config().Prompt)
	assert.Equal(t, DefaultWelcomeMessage, c.Config().WelcomeMessage)
	assert.ErrorIs(t, c.GoToStep(StepUpload), ErrStepLocked, "progress is forgotten")
	assert.True(t, c.NameEditable())
}

func TestResetNotAllowedInEditMode(t *testing.T) {
	c := NewForEdit(newFakeOps(), api.Bot{ID: "bot_9", Name: "Existing"}, nil)
	require.NoError(t, c.GoToStep(StepComplete))
	assert.ErrorIs(t, c.Reset(), ErrNotAllowed)
	assert.False(t, c.State().(CompleteState).CanCreateAnother)
}

func TestClose(t *testing.T) {
	c := New(newFakeOps())
	c.Close()

	assert.ErrorIs(t, c.SetName("abc"), ErrClosed)
	assert.ErrorIs(t, c.Create(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.GoToStep(StepBasicInfo), ErrClosed)
	assert.False(t, c.CanContinue())
}

func TestActionsRequireTheirStep(t *testing.T) {
	c := New(newFakeOps())
	ctx := context.Background()

	_, err := c.StageFiles(pdf("a.pdf"))
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = c.Train(ctx)
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, c.Save(ctx), ErrNotAllowed)
	assert.ErrorIs(t, c.DeleteFile(ctx, "f1"), ErrNotAllowed)
}

func TestStateVariants(t *testing.T) {
	c := New(newFakeOps())
	require.NoError(t, c.SetName("Max"))

	want := BasicInfoState{Mode: ModeCreate, Name: "Max", NameEditable: true, CanCreate: true}
	if diff := cmp.Diff(want, c.State()); diff != "" {
		t.Errorf("basic info state mismatch (-want +got):\n%s", diff)
	}

	driveTo(t, c, StepConfiguration)
	got, ok := c.State().(ConfigurationState)
	require.True(t, ok)
	wantCfg := ConfigurationState{
		Mode:    ModeCreate,
		BotID:   "bot_1",
		Name:    "Max",
		Config:  DefaultBot().Config(),
		Preview: "Hi! I'm Max. How can I help you today?",
	}
	if diff := cmp.Diff(wantCfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("configuration state mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, StepConfiguration, got.Step())
}

func TestEdit_LoadsBotAndFiles(t *testing.T) {
	ops := newFakeOps()
	c, err := Edit(context.Background(), ops, ops, "bot_9")
	require.NoError(t, err)

	assert.Equal(t, ModeEdit, c.Mode())
	assert.Equal(t, StepBasicInfo, c.Step())
	assert.Equal(t, "Existing Bot", c.Bot().Name)
	require.Len(t, c.Entries(), 1)
	assert.Equal(t, StatusPersisted, c.Entries()[0].Status)
}

func TestEdit_PropagatesFetchError(t *testing.T) {
	ops := newFakeOps()
	ops.getFn = func(string) (*api.Bot, error) {
		return nil, &api.Error{StatusCode: http.StatusNotFound}
	}
	_, err := Edit(context.Background(), ops, ops, "missing")
	assert.True(t, api.IsNotFound(err))
}
