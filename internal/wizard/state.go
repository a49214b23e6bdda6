package wizard

import "github.com/saple-ai/saple-cli/internal/api"

// State is a snapshot of the session shaped by the current step. Each
// variant only carries the fields meaningful on that step.
type State interface {
	Step() Step
	isState()
}

type BasicInfoState struct {
	Mode         Mode
	Name         string
	NameEditable bool
	CanCreate    bool
	Created      bool
	Error        string
	Loading      bool
}

type UploadState struct {
	Mode        Mode
	BotID       string
	Staged      []Entry
	Persisted   []Entry
	CanContinue bool
	Error       string
	Loading     bool
}

type TrainingState struct {
	Mode    Mode
	BotID   string
	Files   int
	Status  string
	Trained bool
	Error   string
	Loading bool
}

type ConfigurationState struct {
	Mode     Mode
	BotID    string
	Name     string
	Config   api.BotConfig
	Preview  string
	Warnings []string
	Error    string
	Loading  bool
}

// CompleteState has no error or loading flag: nothing runs on the last step.
type CompleteState struct {
	Mode             Mode
	Bot              api.Bot
	Files            int
	CanCreateAnother bool
}

func (BasicInfoState) Step() Step     { return StepBasicInfo }
func (UploadState) Step() Step        { return StepUpload }
func (TrainingState) Step() Step      { return StepTraining }
func (ConfigurationState) Step() Step { return StepConfiguration }
func (CompleteState) Step() Step      { return StepComplete }

func (BasicInfoState) isState()     {}
func (UploadState) isState()        {}
func (TrainingState) isState()      {}
func (ConfigurationState) isState() {}
func (CompleteState) isState()      {}
