package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = float32(1.0)
	DefaultGeminiTimeout     = 2 * time.Minute

	DefaultMaxPromptLength  = 10000
	DefaultMaxMessageLength = 300

	DefaultSummarySchedule = "0 * * * *" // hourly

	DefaultDashboardListenAddr = ":8080"
	DefaultDisplayTimezone     = "Europe/Moscow"
)

// LoadConfig reads configuration from the given YAML file, applies defaults
// and DIGEST_* environment overrides, and validates the result. A missing
// config file is not an error; defaults and environment variables are used.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", true)

	// Required settings default to empty so viper knows the keys; validation
	// rejects them when neither file nor environment provides a value.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.digest_chat_id", 0)
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("database.path", "teledigest.db")

	v.SetDefault("gemini.model_name", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.timeout", DefaultGeminiTimeout)

	v.SetDefault("summary.max_prompt_length", DefaultMaxPromptLength)
	v.SetDefault("summary.max_message_length", DefaultMaxMessageLength)

	v.SetDefault("scheduler.tasks.summary.schedule", DefaultSummarySchedule)
	v.SetDefault("scheduler.tasks.summary.enabled", true)

	v.SetDefault("dashboard.enabled", true)
	v.SetDefault("dashboard.listen_addr", DefaultDashboardListenAddr)
	v.SetDefault("dashboard.display_timezone", DefaultDisplayTimezone)
}
