package wizard

import (
	"context"
	"sync"

	"github.com/saple-ai/saple-cli/internal/api"
)

// fakeOps is a scriptable backend. Unset funcs succeed with canned data.
type fakeOps struct {
	mu    sync.Mutex
	calls map[string]int
	keys  []string

	createFn func(name string) (*api.Bot, error)
	uploadFn func(files []api.UploadFile) (*api.UploadResult, error)
	deleteFn func(fileID string) error
	trainFn  func() (*api.TrainResult, error)
	updateFn func(cfg api.BotConfig) error

	getFn   func(id string) (*api.Bot, error)
	filesFn func(id string) ([]api.File, error)
}

func newFakeOps() *fakeOps {
	return &fakeOps{calls: make(map[string]int)}
}

func (f *fakeOps) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeOps) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeOps) CreateBot(ctx context.Context, name string) (*api.Bot, error) {
	f.record(opCreate)
	f.mu.Lock()
	f.keys = append(f.keys, api.IdempotencyKey(ctx))
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(name)
	}
	return &api.Bot{ID: "bot_1", Name: name, TrainingStatus: "untrained"}, nil
}

func (f *fakeOps) UploadFiles(_ context.Context, _ string, files []api.UploadFile) (*api.UploadResult, error) {
	f.record(opUpload)
	if f.uploadFn != nil {
		return f.uploadFn(files)
	}
	res := &api.UploadResult{}
	for i, file := range files {
		res.Uploaded = append(res.Uploaded, api.File{ID: "file_" + string(rune('a'+i)), Name: file.Name, Size: int64(len(file.Data))})
	}
	return res, nil
}

func (f *fakeOps) DeleteFile(_ context.Context, _ string, fileID string) error {
	f.record(opDelete)
	if f.deleteFn != nil {
		return f.deleteFn(fileID)
	}
	return nil
}

func (f *fakeOps) TrainBot(context.Context, string) (*api.TrainResult, error) {
	f.record(opTrain)
	if f.trainFn != nil {
		return f.trainFn()
	}
	return &api.TrainResult{Status: "training_started"}, nil
}

func (f *fakeOps) UpdateBot(_ context.Context, _ string, cfg api.BotConfig) error {
	f.record(opSave)
	if f.updateFn != nil {
		return f.updateFn(cfg)
	}
	return nil
}

func (f *fakeOps) GetBot(_ context.Context, id string) (*api.Bot, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return &api.Bot{ID: id, Name: "Existing Bot", WelcomeMessage: DefaultWelcomeMessage}, nil
}

func (f *fakeOps) ListFiles(_ context.Context, id string) ([]api.File, error) {
	if f.filesFn != nil {
		return f.filesFn(id)
	}
	return []api.File{{ID: "f1", Name: "faq.pdf"}}, nil
}

func pdf(name string) StagedFile {
	return StagedFile{Name: name, Size: 3, Data: []byte("pdf")}
}
