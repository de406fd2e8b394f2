package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type OpenAIConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	APIEndpoint    string        `mapstructure:"endpoint"`
	Model          string        `mapstructure:"model"`
	APIVersion     string        `mapstructure:"api_version"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Enabled reports whether a credential is configured. Without one the
// service runs in stub-only mode.
func (c OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             "8787",
	"server.read_timeout":     "30s",
	"server.write_timeout":    "120s",
	"server.max_upload_bytes": int64(20 << 20),
	"openai.provider":         "openai",
	"openai.api_key":          "",
	"openai.endpoint":         "https://api.openai.com/v1",
	"openai.model":            "gpt-4o-mini",
	"openai.api_version":      "2024-08-01-preview",
	"openai.max_tokens":       int64(500),
	"openai.request_timeout":  "0s",
	"log.level":               "info",
	"log.json":                false,
}

var envKeys = map[string][]string{
	"server.host":             {"SERVER_HOST"},
	"server.port":             {"SERVER_PORT", "PORT"},
	"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"server.max_upload_bytes": {"SERVER_MAX_UPLOAD_BYTES"},
	"openai.provider":         {"OPENAI_PROVIDER"},
	"openai.api_key":          {"OPENAI_API_KEY"},
	"openai.endpoint":         {"OPENAI_ENDPOINT"},
	"openai.model":            {"OPENAI_MODEL"},
	"openai.api_version":      {"OPENAI_API_VERSION"},
	"openai.max_tokens":       {"OPENAI_MAX_TOKENS"},
	"openai.request_timeout":  {"OPENAI_REQUEST_TIMEOUT"},
	"log.level":               {"LOG_LEVEL"},
	"log.json":                {"LOG_JSON"},
}

// LoadConfig reads configuration from the environment (after loading a .env
// file if one exists) and, when configFile is non-empty, from that file.
// Environment variables win over the file.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for key, envs := range envKeys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	slog.Info("configuration loaded successfully", "stub_only", !cfg.OpenAI.Enabled())
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.OpenAI.Provider {
	case "openai", "azure":
	default:
		return fmt.Errorf("unknown openai provider %q", c.OpenAI.Provider)
	}
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server max_upload_bytes must be positive")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return errors.New("openai max_tokens must be positive")
	}
	if c.OpenAI.RequestTimeout < 0 {
		return errors.New("openai request_timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
