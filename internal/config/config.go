package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CHATDESK_"

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" envPrefix:"BASIC_"`
	Provider    ProviderConfig            `json:"provider" envPrefix:"PROVIDER_"`
	Assistant   AssistantConfig           `json:"assistant" envPrefix:"ASSISTANT_"`
	Logging     LoggingConfig             `json:"logging" envPrefix:"LOG_"`
	Journal     JournalConfig             `json:"journal" envPrefix:"JOURNAL_"`
	Databases   map[string]DatabaseConfig `json:"databases"`
}

type BasicConfig struct {
	ServerAddress      string `json:"server_address" env:"SERVER_ADDRESS"`
	MaxUploadMB        int    `json:"max_upload_mb" env:"MAX_UPLOAD_MB"`
	SessionIdleMinutes int    `json:"session_idle_minutes" env:"SESSION_IDLE_MINUTES"`
}

// ProviderConfig selects the chat-completions backend. Kind is one of
// openrouter, openai, claude or gemini.
type ProviderConfig struct {
	Kind     string `json:"kind" env:"KIND"`
	BaseURL  string `json:"base_url" env:"BASE_URL"`
	Model    string `json:"model" env:"MODEL"`
	APIKey   string `json:"api_key" env:"API_KEY"`
	SiteURL  string `json:"site_url" env:"SITE_URL"`
	SiteName string `json:"site_name" env:"SITE_NAME"`
}

type AssistantConfig struct {
	Title        string `json:"title" env:"TITLE"`
	SystemPrompt string `json:"system_prompt" env:"SYSTEM_PROMPT"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
	File   string `json:"file" env:"FILE"`
}

// JournalConfig names the database used for the turn journal. An empty
// driver disables the journal. Events older than RetentionDays are pruned;
// zero keeps everything.
type JournalConfig struct {
	Driver        string `json:"driver" env:"DRIVER"`
	RetentionDays int    `json:"retention_days" env:"RETENTION_DAYS"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress:      ":8090",
			MaxUploadMB:        10,
			SessionIdleMinutes: 60,
		},
		Provider: ProviderConfig{
			Kind:     "openrouter",
			BaseURL:  DefaultBaseURL,
			Model:    DefaultModel,
			SiteURL:  DefaultSiteURL,
			SiteName: DefaultSiteName,
		},
		Assistant: AssistantConfig{
			Title:        DefaultSiteName,
			SystemPrompt: DefaultSystemPrompt,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Databases: map[string]DatabaseConfig{},
	}
}

// Load reads configuration from the provided path (defaults to config.json)
// and applies CHATDESK_* environment overrides. A missing default file is
// not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := Default()
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for name, db := range cfg.Databases {
		if isSQLite(name) && db.DSN != "" && db.DSN != ":memory:" && !strings.HasPrefix(db.DSN, "file:") && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Provider.Kind = strings.ToLower(strings.TrimSpace(c.Provider.Kind))
	if c.Provider.Kind == "" {
		c.Provider.Kind = "openrouter"
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return errors.New("provider.api_key must be configured")
	}
	if strings.TrimSpace(c.Provider.Model) == "" {
		return errors.New("provider.model must be configured")
	}
	if strings.TrimSpace(c.Assistant.SystemPrompt) == "" {
		c.Assistant.SystemPrompt = DefaultSystemPrompt
	}
	if c.BasicConfig.MaxUploadMB <= 0 {
		c.BasicConfig.MaxUploadMB = 10
	}
	if c.Journal.Driver != "" {
		if _, ok := c.Databases[c.Journal.Driver]; !ok {
			return fmt.Errorf("database config for journal driver %s not found", c.Journal.Driver)
		}
	}
	return nil
}

func isSQLite(name string) bool {
	name = strings.ToLower(name)
	return name == "sqlite" || name == "sqlite3"
}
