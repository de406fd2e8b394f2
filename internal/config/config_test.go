package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray .env is picked up,
// and clears every variable LoadConfig binds.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, envs := range envKeys {
		for _, env := range envs {
			t.Setenv(env, "")
			require.NoError(t, os.Unsetenv(env))
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		isolate(t)

		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "8787", cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)
		assert.Equal(t, "openai", cfg.OpenAI.Provider)
		assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.APIEndpoint)
		assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
		assert.Equal(t, int64(500), cfg.OpenAI.MaxTokens)
		assert.Zero(t, cfg.OpenAI.RequestTimeout)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.JSON)
		assert.False(t, cfg.OpenAI.Enabled())
	})

	t.Run("Should read overrides from the environment", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "sk-live")
		t.Setenv("OPENAI_MODEL", "gpt-4o")
		t.Setenv("OPENAI_MAX_TOKENS", "900")
		t.Setenv("OPENAI_REQUEST_TIMEOUT", "45s")
		t.Setenv("PORT", "9000")
		t.Setenv("LOG_JSON", "true")

		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.True(t, cfg.OpenAI.Enabled())
		assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
		assert.Equal(t, int64(900), cfg.OpenAI.MaxTokens)
		assert.Equal(t, 45*time.Second, cfg.OpenAI.RequestTimeout)
		assert.Equal(t, "9000", cfg.Server.Port)
		assert.True(t, cfg.Log.JSON)
	})

	t.Run("Should prefer SERVER_PORT over PORT", func(t *testing.T) {
		isolate(t)
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("PORT", "9000")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Server.Port)
	})

	t.Run("Should load a .env file", func(t *testing.T) {
		isolate(t)
		require.NoError(t, os.WriteFile(".env", []byte("OPENAI_API_KEY=sk-from-dotenv\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("OPENAI_API_KEY") })

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "sk-from-dotenv", cfg.OpenAI.APIKey)
	})

	t.Run("Should read a config file with env taking precedence", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("openai:\n  model: from-file\n  max_tokens: 700\nlog:\n  level: debug\n"), 0o600))
		t.Setenv("OPENAI_MODEL", "from-env")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.OpenAI.Model)
		assert.Equal(t, int64(700), cfg.OpenAI.MaxTokens)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("Should fail on a missing config file", func(t *testing.T) {
		isolate(t)
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_PROVIDER", "anthropic")

		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown openai provider")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Port: "8787", MaxUploadBytes: 1},
			OpenAI: OpenAIConfig{Provider: "azure", MaxTokens: 1},
			Log:    LogConfig{Level: "WARN"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"zero max tokens", func(c *Config) { c.OpenAI.MaxTokens = 0 }, "max_tokens"},
		{"negative timeout", func(c *Config) { c.OpenAI.RequestTimeout = -time.Second }, "request_timeout"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "unknown log level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEnabled(t *testing.T) {
	assert.False(t, OpenAIConfig{}.Enabled())
	assert.False(t, OpenAIConfig{APIKey: "   "}.Enabled())
	assert.True(t, OpenAIConfig{APIKey: "sk"}.Enabled())
}
