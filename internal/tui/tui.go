// Package tui provides the terminal UI for browsing agents and their
// training files.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/wizard"
	"go.uber.org/zap"
)

// ViewMode represents the current view mode
type ViewMode int

const (
	AgentsView ViewMode = iota
	FilesView
)

// Client is the part of the API the browser uses. *api.Client implements it.
// Training goes through an edit-mode wizard session, hence the wizard
// interfaces.
type Client interface {
	wizard.BotSource
	wizard.Operations
	ListBots(ctx context.Context) ([]api.Bot, error)
}

// Model represents the state of the TUI application.
type Model struct {
	client  Client
	timeout time.Duration
	log     *zap.Logger

	width  int
	height int
	ready  bool
	err    error

	currentView ViewMode
	agentsList  list.Model
	filesList   list.Model

	selected agentItem
	training string

	help      help.Model
	keyMap    KeyMap
	showHelp  bool
	statusMsg string
}

// KeyMap defines the keybindings for the TUI.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Train   key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show files"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Train: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "train agent"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Train, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Train, k.Refresh},
		{k.Help, k.Quit},
	}
}

// New creates the browser model. timeout bounds each API call.
func New(client Client, timeout time.Duration, log *zap.Logger) Model {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	delegate := list.NewDefaultDelegate()
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 2)

	agentsList := list.New([]list.Item{}, delegate, 0, 0)
	agentsList.Title = "Agents"
	agentsList.SetShowHelp(false)
	agentsList.SetShowStatusBar(false)
	agentsList.SetFilteringEnabled(false)
	agentsList.Styles.NoItems = emptyStyle

	filesList := list.New([]list.Item{}, delegate, 0, 0)
	filesList.Title = "Training files"
	filesList.SetShowHelp(false)
	filesList.SetShowStatusBar(false)
	filesList.SetFilteringEnabled(false)
	filesList.Styles.NoItems = emptyStyle

	return Model{
		client:      client,
		timeout:     timeout,
		log:         log,
		currentView: AgentsView,
		agentsList:  agentsList,
		filesList:   filesList,
		help:        help.New(),
		keyMap:      DefaultKeyMap(),
		statusMsg:   "Loading agents...",
	}
}

// Init loads the agent list.
func (m Model) Init() tea.Cmd {
	return loadAgents(m.client, m.timeout)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.agentsList.SetSize(m.width-4, m.height-8)
		m.filesList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keyMap.Back):
			if m.currentView == FilesView {
				m.currentView = AgentsView
				m.selected = agentItem{}
				m.filesList.SetItems(nil)
			}
			return m, nil

		case key.Matches(msg, m.keyMap.Refresh):
			if m.currentView == FilesView {
				m.statusMsg = "Loading files..."
				return m, loadFiles(m.client, m.timeout, m.selected.id)
			}
			m.statusMsg = "Loading agents..."
			return m, loadAgents(m.client, m.timeout)

		case key.Matches(msg, m.keyMap.Train):
			return m.handleTrain()

		case key.Matches(msg, m.keyMap.Enter):
			return m.handleEnter()
		}

	case agentsLoadedMsg:
		items := make([]list.Item, len(msg.bots))
		for i, b := range msg.bots {
			items[i] = newAgentItem(b)
		}
		m.agentsList.SetItems(items)
		m.statusMsg = fmt.Sprintf("Loaded %d agents", len(msg.bots))
		return m, nil

	case filesLoadedMsg:
		if msg.botID != m.selected.id {
			return m, nil
		}
		items := make([]list.Item, len(msg.files))
		for i, f := range msg.files {
			items[i] = newFileItem(f)
		}
		m.filesList.SetItems(items)
		m.statusMsg = fmt.Sprintf("Loaded %d files for %s", len(msg.files), m.selected.name)
		return m, nil

	case trainedMsg:
		m.training = ""
		if msg.err != nil {
			m.statusMsg = "Training failed: " + wizard.UserMessage(msg.err)
			return m, nil
		}
		m.setTrainingStatus(msg.botID, msg.status)
		m.statusMsg = fmt.Sprintf("Training %s: %s", msg.botID, msg.status)
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	switch m.currentView {
	case AgentsView:
		m.agentsList, cmd = m.agentsList.Update(msg)
	case FilesView:
		m.filesList, cmd = m.filesList.Update(msg)
	}
	return m, cmd
}

// handleEnter opens the file list of the selected agent.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.currentView != AgentsView {
		return m, nil
	}
	item, ok := m.agentsList.SelectedItem().(agentItem)
	if !ok {
		return m, nil
	}
	m.selected = item
	m.currentView = FilesView
	m.filesList.Title = "Training files · " + item.name
	m.filesList.SetItems(nil)
	m.statusMsg = "Loading files..."
	return m, loadFiles(m.client, m.timeout, item.id)
}

// handleTrain starts training for the agent under the cursor, or the open one.
func (m Model) handleTrain() (tea.Model, tea.Cmd) {
	if m.training != "" {
		m.statusMsg = "Training already in progress"
		return m, nil
	}

	target := m.selected
	if m.currentView == AgentsView {
		item, ok := m.agentsList.SelectedItem().(agentItem)
		if !ok {
			return m, nil
		}
		target = item
	}
	if target.id == "" {
		return m, nil
	}

	m.training = target.id
	m.statusMsg = "Starting training for " + target.name + "..."
	return m, trainAgent(m.client, m.timeout, m.log, target.id)
}

func (m *Model) setTrainingStatus(botID, status string) {
	items := m.agentsList.Items()
	for i, it := range items {
		a, ok := it.(agentItem)
		if !ok || a.id != botID {
			continue
		}
		a.bot.TrainingStatus = status
		m.agentsList.SetItem(i, newAgentItem(a.bot))
	}
	if m.selected.id == botID {
		m.selected.bot.TrainingStatus = status
	}
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return errorView(m.err)
	}

	var content strings.Builder

	switch m.currentView {
	case AgentsView:
		content.WriteString(m.agentsList.View())
	case FilesView:
		content.WriteString(m.filesList.View())
	}
	content.WriteString("\n")

	content.WriteString(m.renderStatusBar())
	content.WriteString("\n")

	if m.showHelp {
		content.WriteString("\n")
		content.WriteString(m.help.View(m.keyMap))
	}

	return content.String()
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1)

	agentStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	status := m.statusMsg
	if m.selected.id != "" {
		status += " | Agent: " + agentStyle.Render(m.selected.name)
	}

	return style.Render(status)
}

// errorView renders an error message
func errorView(err error) string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(1, 2)

	return style.Render(fmt.Sprintf("Error: %s\n\nPress q to quit", err.Error()))
}

// Messages

type agentsLoadedMsg struct {
	bots []api.Bot
}

type filesLoadedMsg struct {
	botID string
	files []api.File
}

type trainedMsg struct {
	botID  string
	status string
	err    error
}

type errMsg struct {
	err error
}

// Commands

func loadAgents(client Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		bots, err := client.ListBots(ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load agents: %w", err)}
		}
		return agentsLoadedMsg{bots: bots}
	}
}

func loadFiles(client Client, timeout time.Duration, botID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		files, err := client.ListFiles(ctx, botID)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load files: %w", err)}
		}
		return filesLoadedMsg{botID: botID, files: files}
	}
}

// trainAgent trains through an edit-mode session positioned on the training
// step, the same path as 'saple agents train'.
func trainAgent(client Client, timeout time.Duration, log *zap.Logger, botID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ctrl, err := wizard.Edit(ctx, client, client, botID, wizard.WithLogger(log))
		if err != nil {
			log.Warn("failed to load agent for training", zap.String("bot_id", botID), zap.Error(err))
			return trainedMsg{botID: botID, err: err}
		}
		defer ctrl.Close()

		if err := ctrl.GoToStep(wizard.StepTraining); err != nil {
			return trainedMsg{botID: botID, err: err}
		}
		status, err := ctrl.Train(ctx)
		if err != nil {
			return trainedMsg{botID: botID, err: err}
		}
		return trainedMsg{botID: botID, status: status}
	}
}

// Run starts the browser in the alternate screen and blocks until it exits.
func Run(client Client, timeout time.Duration, log *zap.Logger) error {
	p := tea.NewProgram(New(client, timeout, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
