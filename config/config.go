package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

const (
	BackendHTTP   = "http"
	BackendGemini = "gemini"
)

// DefaultSessionSecret is only acceptable for local development.
const DefaultSessionSecret = "change-me-session-secret"

type Config struct {
	// Server
	Port  string
	Debug bool

	// Remote answering service
	AnswerBackend string
	AnswerURL     string
	AnswerTimeout time.Duration
	MaxTokens     int
	GeminiModel   string

	// Sessions
	SessionSecret      string
	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration

	// Voice
	VoiceEnabled  bool
	VoiceLanguage string
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	gotenv.Load()

	return &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Debug:              getEnvAsBoolOrDefault("DEBUG", false),
		AnswerBackend:      getEnvOrDefault("ANSWER_BACKEND", BackendHTTP),
		AnswerURL:          getEnvOrDefault("ANSWER_URL", "http://localhost:8000/generate"),
		AnswerTimeout:      getEnvAsDurationOrDefault("ANSWER_TIMEOUT", 0),
		MaxTokens:          getEnvAsIntOrDefault("MAX_TOKENS", 250),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash-001"),
		SessionSecret:      getEnvOrDefault("SESSION_SECRET", DefaultSessionSecret),
		SessionTTL:         getEnvAsDurationOrDefault("SESSION_TTL", 24*time.Hour),
		SessionIdleTimeout: getEnvAsDurationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		VoiceEnabled:       getEnvAsBoolOrDefault("VOICE_ENABLED", false),
		VoiceLanguage:      getEnvOrDefault("VOICE_LANGUAGE", "en-AU"),
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.AnswerBackend {
	case BackendHTTP:
		if c.AnswerURL == "" {
			errs = append(errs, errors.New("ANSWER_URL is required for the http backend"))
		}
	case BackendGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown ANSWER_BACKEND %q", c.AnswerBackend))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}
	return errors.Join(errs...)
}

// CheckSessionSecret refuses the default secret unless DEBUG is set.
func (c *Config) CheckSessionSecret() error {
	if c.SessionSecret == DefaultSessionSecret && !c.Debug {
		return errors.New("SESSION_SECRET must be set outside of DEBUG mode")
	}
	return nil
}

func (c *Config) UsesDefaultSessionSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
