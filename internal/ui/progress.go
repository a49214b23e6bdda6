package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Spinner provides a progress spinner for long operations.
type Spinner struct {
	message  string
	frames   []string
	interval time.Duration
	writer   io.Writer
	noColor  bool
	enabled  bool

	mu     sync.Mutex
	active bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSpinner creates a spinner writing to stderr. It stays silent when stderr
// is not a terminal.
func NewSpinner(message string, noColor bool) *Spinner {
	return NewSpinnerTo(os.Stderr, message, noColor, IsTerminal(os.Stderr))
}

// NewSpinnerTo creates a spinner writing to w. enabled=false turns Start and
// Stop into no-ops.
func NewSpinnerTo(w io.Writer, message string, noColor, enabled bool) *Spinner {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	if noColor {
		frames = []string{"|", "/", "-", "\\"}
	}

	return &Spinner{
		message:  message,
		frames:   frames,
		interval: 100 * time.Millisecond,
		writer:   w,
		noColor:  noColor,
		enabled:  enabled,
	}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.active {
		return
	}
	s.active = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	frameIndex := 0
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame := s.frames[frameIndex%len(s.frames)]
			frameIndex++

			if !s.noColor {
				frame = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render(frame)
			}
			fmt.Fprintf(s.writer, "\r%s %s", frame, s.message)
		}
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsPiped reports whether stdout is being piped.
func IsPiped() bool {
	return !IsTerminal(os.Stdout)
}
