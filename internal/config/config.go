package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Stream    StreamConfig    `mapstructure:"stream"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// PromptTemplatePath optionally overrides the embedded day-plan prompt
	// template. Empty means use the built-in template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// SchedulerConfig contains the batch generation scheduler settings.
type SchedulerConfig struct {
	// MaxConcurrent bounds the number of outstanding generation calls.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"required,gt=0"`

	// MaxAttempts is the total number of tries per day, first attempt included.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// BaseDelayMs is the first retry delay; successive delays double.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"required,gt=0"`
}

// StreamConfig contains the streaming event processor settings.
type StreamConfig struct {
	// MaxBufferBytes caps the line-reassembly buffer. On overflow the buffer
	// is truncated to its most recent half and an error is reported.
	MaxBufferBytes int `mapstructure:"max_buffer_bytes" validate:"required,gt=0"`
}
