package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI          AIConfig          `yaml:"ai"`
	Video       VideoConfig       `yaml:"video"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Capture     CaptureConfig     `yaml:"capture"`
	Library     LibraryConfig     `yaml:"library"`
	Tasks       TasksConfig       `yaml:"tasks"`
	Email       EmailConfig       `yaml:"email"`
	Backfill    BackfillConfig    `yaml:"backfill"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type VideoConfig struct {
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	AspectRatio         string `yaml:"aspect_ratio"`
	DurationSeconds     int    `yaml:"duration_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	MaxPollAttempts     int    `yaml:"max_poll_attempts"`
}

type PersistenceConfig struct {
	BaseURL        string `yaml:"base_url" env:"PERSISTENCE_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LocalStoreFile string `yaml:"local_store_file"`
}

type CaptureConfig struct {
	SampleRate int    `yaml:"sample_rate"`
	IngestDir  string `yaml:"ingest_dir"`
}

type LibraryConfig struct {
	URL string `yaml:"url"`
}

type TasksConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type BackfillConfig struct {
	Schedule string `yaml:"schedule"`
	Limit    int    `yaml:"limit"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
	WSPort     int `yaml:"ws_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Persistence.BaseURL == "" {
		c.Persistence.BaseURL = os.Getenv("PERSISTENCE_BASE_URL")
	}
	if c.Tasks.ClientID == "" {
		c.Tasks.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.Tasks.ClientSecret == "" {
		c.Tasks.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

// ApplyDefaults fills in every unset field that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Video.BaseURL == "" {
		c.Video.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Video.Model == "" {
		c.Video.Model = "veo-3.1-generate-preview"
	}
	if c.Video.AspectRatio == "" {
		c.Video.AspectRatio = "16:9"
	}
	if c.Video.DurationSeconds == 0 {
		c.Video.DurationSeconds = 30
	}
	if c.Video.PollIntervalSeconds == 0 {
		c.Video.PollIntervalSeconds = 5
	}
	if c.Video.MaxPollAttempts == 0 {
		c.Video.MaxPollAttempts = 60
	}
	if c.Persistence.TimeoutSeconds == 0 {
		c.Persistence.TimeoutSeconds = 15
	}
	if c.Persistence.LocalStoreFile == "" {
		c.Persistence.LocalStoreFile = "data/local_store.json"
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 16000
	}
	if c.Tasks.TokenFile == "" {
		c.Tasks.TokenFile = "tasks_token.json"
	}
	if c.Backfill.Schedule == "" {
		c.Backfill.Schedule = "0 0 3 * * *" // Daily at 3 AM
	}
	if c.Backfill.Limit == 0 {
		c.Backfill.Limit = 100
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Monitoring.WSPort == 0 {
		c.Monitoring.WSPort = 8765
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Tasks.Enabled {
		if c.Tasks.ClientID == "" {
			return fmt.Errorf("Google client ID is required when tasks export is enabled (set GOOGLE_CLIENT_ID or tasks.client_id)")
		}
		if c.Tasks.ClientSecret == "" {
			return fmt.Errorf("Google client secret is required when tasks export is enabled (set GOOGLE_CLIENT_SECRET or tasks.client_secret)")
		}
	}
	if c.Email.Enabled {
		if c.Email.Username == "" {
			return fmt.Errorf("Email username is required when email is enabled (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("Email password is required when email is enabled (set EMAIL_PASSWORD or email.password)")
		}
	}
	return nil
}
