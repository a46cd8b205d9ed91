// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"tutorchat/internal/providers"
)

// DefaultBodySizeLimit caps request bodies at 1MB; chat histories are text
// and never legitimately approach this.
const DefaultBodySizeLimit int64 = 1 << 20

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig
	Chat    ChatConfig
	Metrics MetricsConfig
	Keys    providers.Credentials
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          string
	MasterKey     string
	BodySizeLimit int64
}

// ChatConfig holds chat-session defaults and prompt customization.
type ChatConfig struct {
	DefaultModel     string
	DefaultTutorMode string
	PromptsFile      string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads configuration from a .env file (when present) and the
// environment. Provider keys are optional; a missing key only fails when a
// request actually routes to that provider.
func Load() (*Config, error) {
	// Optional; environment-only deployments run without one.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:          envOr("PORT", "8080"),
			MasterKey:     os.Getenv("TUTORCHAT_MASTER_KEY"),
			BodySizeLimit: envInt64("BODY_SIZE_LIMIT", DefaultBodySizeLimit),
		},
		Chat: ChatConfig{
			DefaultModel:     envOr("DEFAULT_MODEL", "gemini-2.5-flash"),
			DefaultTutorMode: envOr("DEFAULT_TUTOR_MODE", "standard"),
			PromptsFile:      os.Getenv("PROMPTS_FILE"),
		},
		Metrics: MetricsConfig{
			Enabled:  envBool("METRICS_ENABLED", true),
			Endpoint: envOr("METRICS_ENDPOINT", "/metrics"),
		},
		Keys: providers.Credentials{
			providers.Google:   os.Getenv("GOOGLE_API_KEY"),
			providers.Mistral:  os.Getenv("MISTRAL_API_KEY"),
			providers.Groq:     os.Getenv("GROQ_API_KEY"),
			providers.Cerebras: os.Getenv("CEREBRAS_API_KEY"),
			providers.Zhipu:    os.Getenv("ZHIPU_API_KEY"),
		},
	}

	return cfg, nil
}

// ConfiguredProviders returns the providers that have a non-empty API key.
func (c *Config) ConfiguredProviders() []providers.Provider {
	var out []providers.Provider
	for _, p := range []providers.Provider{
		providers.Google,
		providers.Mistral,
		providers.Groq,
		providers.Cerebras,
		providers.Zhipu,
	} {
		if c.Keys.Key(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
