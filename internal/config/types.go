// Package config manages application configuration loaded from a YAML file,
// DIGEST_* environment variables, and built-in defaults.
package config

import "time"

// Config holds the full application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig holds the bot token and the chat that receives digests.
type TelegramConfig struct {
	Token        string `mapstructure:"token"          validate:"required"`
	DigestChatID int64  `mapstructure:"digest_chat_id" validate:"required"`
}

// GeminiConfig holds settings for the Gemini summarization client.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"     validate:"required"`
	ModelName   string        `mapstructure:"model_name"  validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// SummaryConfig bounds the prompt assembled from the message backlog.
type SummaryConfig struct {
	MaxPromptLength  int `mapstructure:"max_prompt_length"  validate:"min=1000"`
	MaxMessageLength int `mapstructure:"max_message_length" validate:"min=50"`
}

// TaskConfig describes a single scheduled task.
type TaskConfig struct {
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// DashboardConfig controls the read-only HTTP dashboard.
type DashboardConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ListenAddr      string `mapstructure:"listen_addr"      validate:"required"`
	DisplayTimezone string `mapstructure:"display_timezone" validate:"required"`
}
