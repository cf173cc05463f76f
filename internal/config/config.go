// Package config provides environment configuration for the chat server.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	LLMProvider      string
	LLMModel         string
	LLMTemperature   float64
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string

	// NATS settings; an empty URL disables event publishing
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// AuthSecret gates /api/v1 behind HS256 bearer tokens when set.
	AuthSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables win.
func Load() *Config {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v. Keys are the environment variable
// names, so a command-line flag bound with v.BindPFlag("PORT", ...) wins over
// the PORT variable, which wins over the default.
func LoadFrom(v *viper.Viper) *Config {
	_ = godotenv.Load()

	v.AutomaticEnv()
	_ = v.BindEnv("OPENAI_API_KEY", "OPENAI_API_KEY", "VITE_OPENAI_API_KEY")

	env := source{v}
	return &Config{
		// Server
		ServerPort:         env.get("PORT", "8080"),
		ServerReadTimeout:  env.getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: env.getDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// LLM
		LLMProvider:      env.get("LLM_PROVIDER", "openai"),
		LLMModel:         env.get("LLM_MODEL", ""),
		LLMTemperature:   env.getFloat("LLM_TEMPERATURE", 0.7),
		OpenAIAPIKey:     env.get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    env.get("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:  env.get("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: env.get("ANTHROPIC_BASE_URL", ""),

		// NATS
		NATSURL:      env.get("NATS_URL", ""),
		NATSCAFile:   env.get("NATS_CA_FILE", ""),
		NATSCertFile: env.get("NATS_CERT_FILE", ""),
		NATSKeyFile:  env.get("NATS_KEY_FILE", ""),
		NATSToken:    env.get("NATS_TOKEN", ""),

		AuthSecret: env.get("AUTH_SECRET", ""),

		// Rate limiting
		RateLimitRequests: env.getInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   env.getDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: env.get("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: env.get("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  env.getBool("TRACING_ENABLED", false),
	}
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// BaseURL returns the endpoint override for the configured provider.
func (c *Config) BaseURL() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicBaseURL
	}
	return c.OpenAIBaseURL
}

// source reads typed values from viper. Unset, empty and unparsable values
// fall back to the default.
type source struct {
	v *viper.Viper
}

func (s source) get(key, defaultValue string) string {
	if value := strings.TrimSpace(s.v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if value := s.get(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) getFloat(key string, defaultValue float64) float64 {
	if value := s.get(key, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	if value := s.get(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := s.get(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
