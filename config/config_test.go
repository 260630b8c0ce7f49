package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "CHAT_TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "CHAT_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "42", 10, 42},
		{"uses default for empty", "", 10, 10},
		{"uses default for non-numeric", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CHAT_TEST_INT", tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault("CHAT_TEST_INT", tc.defaultVal))
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	t.Setenv("CHAT_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDurationOrDefault("CHAT_TEST_DURATION", time.Minute))

	t.Setenv("CHAT_TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDurationOrDefault("CHAT_TEST_DURATION", time.Minute))
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	t.Setenv("CHAT_TEST_BOOL", "true")
	assert.True(t, getEnvAsBoolOrDefault("CHAT_TEST_BOOL", false))

	t.Setenv("CHAT_TEST_BOOL", "maybe")
	assert.False(t, getEnvAsBoolOrDefault("CHAT_TEST_BOOL", false))
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ANSWER_BACKEND", "ANSWER_URL", "ANSWER_TIMEOUT", "MAX_TOKENS", "VOICE_ENABLED", "SESSION_SECRET", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendHTTP, cfg.AnswerBackend)
	assert.Equal(t, 250, cfg.MaxTokens)
	assert.Zero(t, cfg.AnswerTimeout)
	assert.False(t, cfg.VoiceEnabled)
	assert.True(t, cfg.UsesDefaultSessionSecret())
	require.NoError(t, cfg.Validate())
}

func TestCheckSessionSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		debug   bool
		wantErr bool
	}{
		{"default secret refused", DefaultSessionSecret, false, true},
		{"default secret allowed in debug", DefaultSessionSecret, true, false},
		{"custom secret", "s3cr3t-from-vault", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{SessionSecret: tc.secret, Debug: tc.debug}
			err := cfg.CheckSessionSecret()
			if tc.wantErr {
				assert.ErrorContains(t, err, "SESSION_SECRET")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{AnswerBackend: BackendHTTP, MaxTokens: 0, SessionSecret: "s"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANSWER_URL")
	assert.Contains(t, err.Error(), "MAX_TOKENS")

	cfg = &Config{AnswerBackend: "carrier-pigeon", MaxTokens: 250, SessionSecret: "s"}
	assert.ErrorContains(t, cfg.Validate(), "unknown ANSWER_BACKEND")

	cfg = &Config{AnswerBackend: BackendGemini, MaxTokens: 250, SessionSecret: "s"}
	assert.NoError(t, cfg.Validate())
}
