package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values applied before reading any external source.
const (
	DefaultPort           = 8080
	DefaultLogLevel       = "info"
	DefaultModelName      = "gemini-2.5-flash"
	DefaultMaxConcurrent  = 3
	DefaultMaxAttempts    = 3
	DefaultBaseDelayMs    = 1000
	DefaultMaxBufferBytes = 64 * 1024
)

// Load reads configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables take precedence
// over values from config files and use the COURSEGEN_ prefix with underscores
// for nesting (e.g. COURSEGEN_SERVER_PORT, COURSEGEN_LLM_GEMINI_API_KEY).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", DefaultLogLevel)
	// Empty default so AutomaticEnv can populate the key via Unmarshal.
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", DefaultModelName)
	v.SetDefault("llm.prompt_template_path", "")
	v.SetDefault("scheduler.max_concurrent", DefaultMaxConcurrent)
	v.SetDefault("scheduler.max_attempts", DefaultMaxAttempts)
	v.SetDefault("scheduler.base_delay_ms", DefaultBaseDelayMs)
	v.SetDefault("stream.max_buffer_bytes", DefaultMaxBufferBytes)

	// Optional config file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with COURSEGEN_ prefix override file values.
	v.SetEnvPrefix("COURSEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
