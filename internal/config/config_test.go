package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "LLM_TIMEOUT_SECONDS",
		"PORT", "MAX_CONNECTIONS", "CORS_ALLOWED_ORIGINS", "RULES_FILE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultModel, cfg.OpenAIModel)
	assert.Equal(t, DefaultBaseURL, cfg.OpenAIBaseURL)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLMTimeout)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 0, cfg.MaxConnections)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.OpenAIKey)
	assert.False(t, cfg.AnalyticsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("LLM_TIMEOUT_SECONDS", "15")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CONNECTIONS", "32")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	cfg := Load()

	assert.Equal(t, "sk-test", cfg.OpenAIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 32, cfg.MaxConnections)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.AnalyticsEnabled())
}

func TestConnString(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBUser: "u", DBPassword: "p", DBName: "equitask"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=equitask sslmode=disable", cfg.ConnString())
}
