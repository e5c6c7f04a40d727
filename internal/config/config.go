package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Extraction ExtractionConfig `mapstructure:"extraction" validate:"required"`
	Chunking   ChunkingConfig   `mapstructure:"chunking" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Export     ExportConfig     `mapstructure:"export"`
}

// ServerConfig contains settings for the review web server.
type ServerConfig struct {
	Port       int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel   string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"required,gt=0"`
}

// ExtractionConfig bounds how much input the document readers accept.
type ExtractionConfig struct {
	MaxFileMB       int `mapstructure:"max_file_mb" validate:"required,gt=0"`
	MaxArchiveMB    int `mapstructure:"max_archive_mb" validate:"required,gt=0"`
	MaxArchiveFiles int `mapstructure:"max_archive_files" validate:"required,gt=0"`
}

// ChunkingConfig controls how extracted text is split for model calls.
type ChunkingConfig struct {
	MaxTokens     int `mapstructure:"max_tokens" validate:"required,gt=0"`
	OverlapTokens int `mapstructure:"overlap_tokens" validate:"gte=0,ltfield=MaxTokens"`
}

// GenerationConfig contains all flashcard generation related settings.
type GenerationConfig struct {
	Model           string        `mapstructure:"model" validate:"required"`
	Language        string        `mapstructure:"language" validate:"required,oneof=english german spanish french"`
	ContentType     string        `mapstructure:"content_type" validate:"required,oneof=general academic technical"`
	Temperature     float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens" validate:"required,gt=0"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay" validate:"required,gt=0"`
	Concurrency     int           `mapstructure:"concurrency" validate:"required,gt=0"`
	ChunkTimeout    time.Duration `mapstructure:"chunk_timeout" validate:"required,gt=0"`
}

// ProvidersConfig holds API credentials for the model providers.
// Keys are optional here; a missing key only becomes an error when a
// model from that provider is actually selected.
type ProvidersConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// ExportConfig contains CSV export settings.
type ExportConfig struct {
	AllowEmpty bool `mapstructure:"allow_empty"`
}
