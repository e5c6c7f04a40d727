package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that the Load function sets the expected default
// values when no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	// Explicitly unset the variables we want to test defaults for
	cleanup := setupEnv(t, map[string]string{
		"CARDFORGE_SERVER_PORT":             "",
		"CARDFORGE_SERVER_LOG_LEVEL":        "",
		"CARDFORGE_GENERATION_MODEL":        "",
		"CARDFORGE_GENERATION_LANGUAGE":     "",
		"CARDFORGE_CHUNKING_MAX_TOKENS":     "",
		"CARDFORGE_CHUNKING_OVERLAP_TOKENS": "",
	})
	defer cleanup()

	// Load configuration
	cfg, err := Load()

	// Verify
	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL, "Default session TTL should be 30m")
	assert.Equal(t, "gemini-2.0-flash", cfg.Generation.Model, "Default model should be gemini-2.0-flash")
	assert.Equal(t, "english", cfg.Generation.Language, "Default language should be english")
	assert.Equal(t, "general", cfg.Generation.ContentType, "Default content type should be general")
	assert.Equal(t, 3, cfg.Generation.MaxRetries, "Default retry count should be 3")
	assert.Equal(t, 2*time.Second, cfg.Generation.RetryBaseDelay, "Default retry base delay should be 2s")
	assert.Equal(t, 2000, cfg.Chunking.MaxTokens, "Default chunk budget should be 2000 tokens")
	assert.Equal(t, 50, cfg.Chunking.OverlapTokens, "Default chunk overlap should be 50 tokens")
	assert.Equal(t, 20, cfg.Extraction.MaxFileMB, "Default per-file ceiling should be 20 MB")
	assert.False(t, cfg.Export.AllowEmpty, "Empty exports should be rejected by default")
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	// Setup environment
	cleanup := setupEnv(t, map[string]string{
		"CARDFORGE_SERVER_PORT":              "9090",
		"CARDFORGE_SERVER_LOG_LEVEL":         "debug",
		"CARDFORGE_GENERATION_MODEL":         "gpt-4o-mini",
		"CARDFORGE_GENERATION_LANGUAGE":      "german",
		"CARDFORGE_GENERATION_CHUNK_TIMEOUT": "90s",
		"CARDFORGE_CHUNKING_MAX_TOKENS":      "1000",
		"CARDFORGE_CHUNKING_OVERLAP_TOKENS":  "25",
		"CARDFORGE_EXTRACTION_MAX_FILE_MB":   "5",
		"CARDFORGE_EXPORT_ALLOW_EMPTY":       "true",
	})
	defer cleanup()

	// Load configuration
	cfg, err := Load()

	// Verify
	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 9090, cfg.Server.Port, "Server port should be loaded from environment variables")
	assert.Equal(t, "debug", cfg.Server.LogLevel, "Log level should be loaded from environment variables")
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.Model, "Model should be loaded from environment variables")
	assert.Equal(t, "german", cfg.Generation.Language, "Language should be loaded from environment variables")
	assert.Equal(t, 90*time.Second, cfg.Generation.ChunkTimeout, "Chunk timeout should parse as a duration")
	assert.Equal(t, 1000, cfg.Chunking.MaxTokens, "Chunk budget should be loaded from environment variables")
	assert.Equal(t, 25, cfg.Chunking.OverlapTokens, "Chunk overlap should be loaded from environment variables")
	assert.Equal(t, 5, cfg.Extraction.MaxFileMB, "File ceiling should be loaded from environment variables")
	assert.True(t, cfg.Export.AllowEmpty, "Export policy should be loaded from environment variables")
}

// TestLoadProviderCredentials verifies that provider API keys are read from
// both the prefixed and the conventional unprefixed variable names.
func TestLoadProviderCredentials(t *testing.T) {
	t.Run("unprefixed names", func(t *testing.T) {
		cleanup := setupEnv(t, map[string]string{
			"CARDFORGE_PROVIDERS_GEMINI_API_KEY": "",
			"CARDFORGE_PROVIDERS_OPENAI_API_KEY": "",
			"GEMINI_API_KEY":                     "gemini-test-key",
			"OPENAI_API_KEY":                     "openai-test-key",
		})
		defer cleanup()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "gemini-test-key", cfg.Providers.GeminiAPIKey)
		assert.Equal(t, "openai-test-key", cfg.Providers.OpenAIAPIKey)
	})

	t.Run("prefixed names take precedence", func(t *testing.T) {
		cleanup := setupEnv(t, map[string]string{
			"CARDFORGE_PROVIDERS_GEMINI_API_KEY": "prefixed-key",
			"GEMINI_API_KEY":                     "plain-key",
		})
		defer cleanup()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "prefixed-key", cfg.Providers.GeminiAPIKey)
	})

	t.Run("missing keys are not an error", func(t *testing.T) {
		cleanup := setupEnv(t, map[string]string{
			"CARDFORGE_PROVIDERS_GEMINI_API_KEY": "",
			"CARDFORGE_PROVIDERS_OPENAI_API_KEY": "",
			"GEMINI_API_KEY":                     "",
			"OPENAI_API_KEY":                     "",
		})
		defer cleanup()

		cfg, err := Load()
		require.NoError(t, err, "Provider keys are resolved lazily and may be absent")
		assert.Empty(t, cfg.Providers.GeminiAPIKey)
		assert.Empty(t, cfg.Providers.OpenAIAPIKey)
	})
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	// Test cases with invalid values
	testCases := []struct {
		name           string
		envVars        map[string]string
		expectError    bool
		errorSubstring string
	}{
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"CARDFORGE_SERVER_PORT": "999999", // Port out of range
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"CARDFORGE_SERVER_LOG_LEVEL": "verbose", // Invalid log level
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Unsupported language",
			envVars: map[string]string{
				"CARDFORGE_GENERATION_LANGUAGE": "latin",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Unsupported content type",
			envVars: map[string]string{
				"CARDFORGE_GENERATION_CONTENT_TYPE": "poetry",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Overlap not smaller than chunk budget",
			envVars: map[string]string{
				"CARDFORGE_CHUNKING_MAX_TOKENS":     "100",
				"CARDFORGE_CHUNKING_OVERLAP_TOKENS": "100",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Zero concurrency",
			envVars: map[string]string{
				"CARDFORGE_GENERATION_CONCURRENCY": "0",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Setup environment
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			// Load configuration
			cfg, err := Load()

			// Verify
			if tc.expectError {
				assert.Error(t, err, "Load() should return an error with invalid configuration")
				if err != nil {
					assert.Contains(t, err.Error(), tc.errorSubstring, "Error message should contain expected substring")
				}
				assert.Nil(t, cfg, "Config should be nil when an error occurs")
			} else {
				assert.NoError(t, err, "Load() should not return an error with valid configuration")
				assert.NotNil(t, cfg, "Load() should return a non-nil config")
			}
		})
	}
}
