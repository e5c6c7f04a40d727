package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// An optional cardforge.yaml in the working directory may override
	// defaults; its absence is not an error.
	v.SetConfigName("cardforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CARDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials also honor the conventional unprefixed names.
	_ = v.BindEnv("providers.gemini_api_key", "CARDFORGE_PROVIDERS_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("providers.openai_api_key", "CARDFORGE_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.session_ttl", "30m")

	v.SetDefault("extraction.max_file_mb", 20)
	v.SetDefault("extraction.max_archive_mb", 100)
	v.SetDefault("extraction.max_archive_files", 256)

	v.SetDefault("chunking.max_tokens", 2000)
	v.SetDefault("chunking.overlap_tokens", 50)

	v.SetDefault("generation.model", "gemini-2.0-flash")
	v.SetDefault("generation.language", "english")
	v.SetDefault("generation.content_type", "general")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_output_tokens", 8192)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_base_delay", "2s")
	v.SetDefault("generation.concurrency", 2)
	v.SetDefault("generation.chunk_timeout", "120s")

	v.SetDefault("export.allow_empty", false)
}
