package tui

import (
	"fmt"

	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/ui"
)

type agentItem struct {
	id   string
	name string
	bot  api.Bot
}

func newAgentItem(b api.Bot) agentItem {
	return agentItem{id: b.ID, name: b.Name, bot: b}
}

func (a agentItem) FilterValue() string { return a.name }
func (a agentItem) Title() string       { return a.name }
func (a agentItem) Description() string {
	status := a.bot.TrainingStatus
	if status == "" {
		status = "untrained"
	}
	return fmt.Sprintf("%s | %s | %s", a.bot.MediaType, a.bot.DefaultModel, status)
}

type fileItem struct {
	id   string
	file api.File
}

func newFileItem(f api.File) fileItem {
	return fileItem{id: f.ID, file: f}
}

func (f fileItem) FilterValue() string { return f.file.Name }
func (f fileItem) Title() string       { return f.file.Name }
func (f fileItem) Description() string {
	desc := ui.FileSize(f.file.Size)
	if f.file.UploadedAt != "" {
		desc += " | uploaded " + f.file.UploadedAt
	}
	return desc
}
