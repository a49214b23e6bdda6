package api

// MediaType is the channel an agent answers on.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaAudio MediaType = "audio"
	MediaBoth  MediaType = "both"
)

// Bot is an agent as stored by the backend.
type Bot struct {
	ID              string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string    `json:"name" yaml:"name"`
	MediaType       MediaType `json:"media_type,omitempty" yaml:"media_type,omitempty"`
	Color           string    `json:"color,omitempty" yaml:"color,omitempty"`
	Font            string    `json:"font,omitempty" yaml:"font,omitempty"`
	FontStyle       string    `json:"font_style,omitempty" yaml:"font_style,omitempty"`
	FontSize        string    `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	DefaultModel    string    `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	Prompt          string    `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	WelcomeMessage  string    `json:"welcome_message,omitempty" yaml:"welcome_message,omitempty"`
	CalendlyEnabled bool      `json:"calendly_enabled" yaml:"calendly_enabled"`
	CalendlyLink    string    `json:"calendly_link,omitempty" yaml:"calendly_link,omitempty"`
	TrainingStatus  string    `json:"training_status,omitempty" yaml:"training_status,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// BotConfig is the full configuration body sent by UpdateBot.
type BotConfig struct {
	MediaType       MediaType `json:"media_type"`
	Color           string    `json:"color"`
	Font            string    `json:"font"`
	FontStyle       string    `json:"font_style"`
	FontSize        string    `json:"font_size"`
	DefaultModel    string    `json:"default_model"`
	Prompt          string    `json:"prompt"`
	WelcomeMessage  string    `json:"welcome_message"`
	CalendlyEnabled bool      `json:"calendly_enabled"`
	CalendlyLink    string    `json:"calendly_link"`
}

// Config extracts the updatable configuration of a bot.
func (b Bot) Config() BotConfig {
	return BotConfig{
		MediaType:       b.MediaType,
		Color:           b.Color,
		Font:            b.Font,
		FontStyle:       b.FontStyle,
		FontSize:        b.FontSize,
		DefaultModel:    b.DefaultModel,
		Prompt:          b.Prompt,
		WelcomeMessage:  b.WelcomeMessage,
		CalendlyEnabled: b.CalendlyEnabled,
		CalendlyLink:    b.CalendlyLink,
	}
}

// Apply copies cfg onto the bot.
func (b *Bot) Apply(cfg BotConfig) {
	b.MediaType = cfg.MediaType
	b.Color = cfg.Color
	b.Font = cfg.Font
	b.FontStyle = cfg.FontStyle
	b.FontSize = cfg.FontSize
	b.DefaultModel = cfg.DefaultModel
	b.Prompt = cfg.Prompt
	b.WelcomeMessage = cfg.WelcomeMessage
	b.CalendlyEnabled = cfg.CalendlyEnabled
	b.CalendlyLink = cfg.CalendlyLink
}

// File is a training file persisted by the backend.
type File struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	S3Key      string `json:"s3_key,omitempty" yaml:"s3_key,omitempty"`
	Size       int64  `json:"size" yaml:"size"`
	UploadedAt string `json:"uploaded_at,omitempty" yaml:"uploaded_at,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
}

// UploadFile is one file in an upload request.
type UploadFile struct {
	Name string
	Data []byte
}

// RejectedFile is a file the backend refused, with its reason.
type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult reports a partially successful upload.
type UploadResult struct {
	Uploaded []File         `json:"uploaded"`
	Rejected []RejectedFile `json:"rejected_files,omitempty"`
}

// TrainResult carries the opaque training status reported by the backend.
type TrainResult struct {
	Status string `json:"status"`
}

// Workspace is the tenant container that gates dashboard access.
type Workspace struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	OwnerID   string `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

type createBotResponse struct {
	Bot Bot `json:"bot"`
}

type listBotsResponse struct {
	Bots []Bot `json:"bots"`
}

type createWorkspaceResponse struct {
	Workspace Workspace `json:"workspace"`
}
