package wizard

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/saple-ai/saple-cli/internal/api"
)

// MinNameLength is the shortest accepted agent name, after trimming.
const MinNameLength = 3

// MaxFileSize is the advertised per-file upload limit. The backend enforces it.
const MaxFileSize = 50 * 1000 * 1000

// AllowedExtensions lists the training file types the backend accepts.
var AllowedExtensions = []string{".pdf", ".docx", ".txt", ".md", ".xlsx", ".xls", ".csv"}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// MaxFileSizeLabel is MaxFileSize formatted for display.
func MaxFileSizeLabel() string {
	return humanize.Bytes(MaxFileSize)
}

// ValidateName checks the basic-info step.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinNameLength {
		return ErrNameTooShort
	}
	return nil
}

// AllowedFile reports whether name has an accepted extension, ignoring case.
func AllowedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FilterFiles splits files into accepted ones and the names of rejected ones.
func FilterFiles(files []StagedFile) (accepted []StagedFile, rejected []string) {
	for _, f := range files {
		if AllowedFile(f.Name) {
			accepted = append(accepted, f)
		} else {
			rejected = append(rejected, f.Name)
		}
	}
	return accepted, rejected
}

func unsupportedMessage(rejected []string) string {
	noun := "type"
	if len(rejected) > 1 {
		noun = "types"
	}
	return fmt.Sprintf("Unsupported file %s: %s. Allowed types: %s",
		noun, strings.Join(rejected, ", "), strings.Join(AllowedExtensions, ", "))
}

func rejectedMessage(rejected []api.RejectedFile) string {
	parts := make([]string, 0, len(rejected))
	for _, r := range rejected {
		if r.Reason == "" {
			parts = append(parts, r.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.Reason))
	}
	return "Some files were rejected: " + strings.Join(parts, ", ")
}

// ConfigWarnings returns soft problems with a configuration. They never block
// saving; the backend has the final say.
func ConfigWarnings(cfg api.BotConfig) []string {
	var warnings []string

	if cfg.CalendlyEnabled {
		link := strings.TrimSpace(cfg.CalendlyLink)
		switch {
		case link == "":
			warnings = append(warnings, "Calendly is enabled but no booking link is set")
		case !isHTTPURL(link):
			warnings = append(warnings, fmt.Sprintf("Calendly link %q is not a valid URL", link))
		}
	}
	if cfg.Color != "" && !hexColor.MatchString(cfg.Color) {
		warnings = append(warnings, fmt.Sprintf("Color %q is not a hex color", cfg.Color))
	}
	return warnings
}

func isHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
