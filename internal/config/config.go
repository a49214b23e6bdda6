package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL  string           `mapstructure:"server_url" yaml:"server_url"`
	AuthURL    string           `mapstructure:"auth_url" yaml:"auth_url"`
	ClientID   string           `mapstructure:"client_id" yaml:"client_id"`
	Debug      bool             `mapstructure:"debug" yaml:"debug"`
	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	UI         UIConfig         `mapstructure:"ui" yaml:"ui"`
	Preview    PreviewConfig    `mapstructure:"preview" yaml:"preview"`
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
}

type HTTPConfig struct {
	Timeout   string  `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second, 0 disables
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

type CacheConfig struct {
	TTL     string `mapstructure:"ttl" yaml:"ttl"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

type UIConfig struct {
	Compact bool   `mapstructure:"compact" yaml:"compact"`
	Color   string `mapstructure:"color" yaml:"color"` // auto, always, never
}

type PreviewConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type CompletionConfig struct {
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

func Load(path string) (*Config, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return defaults(), nil
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaults() *Config {
	return &Config{
		ServerURL: "http://localhost:8000/api",
		AuthURL:   "",
		ClientID:  "saple-cli",
		Debug:     false,
		HTTP: HTTPConfig{
			Timeout:   "60s",
			RateLimit: 10,
			Burst:     5,
		},
		Cache: CacheConfig{
			TTL:     "5m",
			Enabled: true,
		},
		UI: UIConfig{
			Compact: false,
			Color:   "auto",
		},
		Preview: PreviewConfig{
			Addr: "127.0.0.1:4173",
		},
		Completion: CompletionConfig{
			Timeout: "2s",
		},
	}
}

// Dir returns the per-user state directory (~/.saple).
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".saple"
	}
	return filepath.Join(homeDir, ".saple")
}

// CredentialsPath returns where the session tokens are stored.
func CredentialsPath() string {
	if p := os.Getenv("SAPLE_CREDENTIALS"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "credentials.json")
}

func DiscoverPath(flagPath string) string {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err == nil {
			return flagPath
		}
	}

	if envPath := os.Getenv("SAPLE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	return filepath.Join(Dir(), "config.yaml")
}

// envKeys are the settings that SAPLE_* variables can override, e.g.
// SAPLE_HTTP_RATE_LIMIT for http.rate_limit.
var envKeys = []string{
	"server_url", "auth_url", "client_id", "debug",
	"http.timeout", "http.rate_limit", "http.burst",
	"cache.ttl", "cache.enabled",
	"ui.compact", "ui.color",
	"preview.addr",
	"completion.timeout",
}

// LoadWithEnv reads the config file (if any) and overlays SAPLE_* environment
// variables. A .env.local file in the working directory is loaded into the
// environment first; variables already set win.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()

	v.SetEnvPrefix("SAPLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	_, err := os.Stat(path)
	if err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := defaults()
	if cfg.ServerURL == "" {
		cfg.ServerURL = d.ServerURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = d.ClientID
	}
	if cfg.HTTP == (HTTPConfig{}) {
		cfg.HTTP = d.HTTP
	}
	if cfg.HTTP.Timeout == "" {
		cfg.HTTP.Timeout = d.HTTP.Timeout
	}
	if cfg.HTTP.Burst == 0 {
		cfg.HTTP.Burst = d.HTTP.Burst
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache = d.Cache
	}
	if cfg.UI.Color == "" {
		cfg.UI.Color = d.UI.Color
	}
	if cfg.Preview.Addr == "" {
		cfg.Preview = d.Preview
	}
	if cfg.Completion.Timeout == "" {
		cfg.Completion = d.Completion
	}
}

// IssuerURL returns the identity provider base URL, falling back to the API server.
func (c *Config) IssuerURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return c.ServerURL
}

// RequestTimeout returns the HTTP timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, 60*time.Second)
}

// CacheTTL returns the completion cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 5*time.Minute)
}

// CompletionTimeout returns the completion timeout as a duration.
func (c *Config) CompletionTimeout() time.Duration {
	return parseDuration(c.Completion.Timeout, 2*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// ShouldUseColor determines if color output should be used.
func (c *Config) ShouldUseColor(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch c.UI.Color {
	case "never":
		return false
	default:
		return true
	}
}
