package wizard

import (
	"errors"

	"github.com/saple-ai/saple-cli/internal/api"
)

var (
	ErrBusy          = errors.New("another operation is in progress")
	ErrClosed        = errors.New("wizard session is closed")
	ErrNotAllowed    = errors.New("action not available on this step")
	ErrNameTooShort  = errors.New("name must be at least 3 characters")
	ErrNameLocked    = errors.New("name cannot be changed after the agent is created")
	ErrNothingStaged = errors.New("no files selected for upload")
	ErrUnknownFile   = errors.New("file not found")
	ErrStepLocked    = errors.New("step is not reachable yet")
)

// OpError is a failed remote operation. Message is what the user sees; Err
// is the underlying cause.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }

var fallbackMessages = map[string]string{
	opCreate: "Failed to create agent. Please try again.",
	opUpload: "Failed to upload files. Please try again.",
	opDelete: "Failed to delete file. Please try again.",
	opTrain:  "Failed to start training. Please try again.",
	opSave:   "Failed to save configuration. Please try again.",
}

// userMessage returns the server's message when it sent one, otherwise the
// generic fallback for op.
func userMessage(op string, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.HasMessage() {
		return apiErr.Combined()
	}
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

// UserMessage returns the text to show for err. Failed operations carry
// their own message; anything else falls back to the server's message or a
// generic retry hint.
func UserMessage(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return userMessage("", err)
}
