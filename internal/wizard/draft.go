package wizard

import (
	"strings"

	"github.com/saple-ai/saple-cli/internal/api"
)

const (
	// DefaultPrompt is the system prompt a new agent starts with.
	DefaultPrompt = "You are a friendly and helpful assistant for our company. " +
		"Answer questions using the uploaded documents. " +
		"If you don't know the answer, say so and offer to connect the visitor with a human."

	// DefaultWelcomeMessage is the greeting a new agent starts with.
	DefaultWelcomeMessage = "Hi! I'm {bot_name}. How can I help you today?"

	// NamePlaceholder is replaced by the agent name in welcome message previews.
	NamePlaceholder = "{bot_name}"

	// FallbackName is shown in previews while the agent has no name.
	FallbackName = "Your Agent"

	DefaultColor     = "#2563EB"
	DefaultFont      = "Inter"
	DefaultFontStyle = "normal"
	DefaultFontSize  = "14px"
	DefaultModel     = "gpt-4o-mini"
)

// Option sets offered by the configuration step.
var (
	MediaTypes = []api.MediaType{api.MediaText, api.MediaAudio, api.MediaBoth}
	Fonts      = []string{"Inter", "Roboto", "Open Sans", "Lato", "Poppins", "Montserrat"}
	FontStyles = []string{"normal", "italic", "bold"}
	FontSizes  = []string{"12px", "14px", "16px", "18px", "20px"}
	Models     = []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini", "gpt-4.1"}
)

// DefaultBot returns the form data a fresh create session starts from.
func DefaultBot() api.Bot {
	return api.Bot{
		MediaType:      api.MediaText,
		Color:          DefaultColor,
		Font:           DefaultFont,
		FontStyle:      DefaultFontStyle,
		FontSize:       DefaultFontSize,
		DefaultModel:   DefaultModel,
		Prompt:         DefaultPrompt,
		WelcomeMessage: DefaultWelcomeMessage,
	}
}

// PreviewWelcome substitutes the agent name into a welcome message.
func PreviewWelcome(message, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = FallbackName
	}
	return strings.ReplaceAll(message, NamePlaceholder, name)
}
