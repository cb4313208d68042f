package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel      = "gpt-4o-2024-08-06"
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultPort       = 8080
	DefaultLLMTimeout = 60 * time.Second
)

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	Port           int
	MaxConnections int
	AllowedOrigins []string

	RulesFile string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	baseURL := strings.TrimRight(os.Getenv("OPENAI_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := DefaultLLMTimeout
	if secs := intEnv("LLM_TIMEOUT_SECONDS", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     intEnv("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   model,
		OpenAIBaseURL: baseURL,
		LLMTimeout:    timeout,

		Port:           intEnv("PORT", DefaultPort),
		MaxConnections: intEnv("MAX_CONNECTIONS", 0),
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),

		RulesFile: os.Getenv("RULES_FILE"),
		LogLevel:  strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		LogFormat: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// AnalyticsEnabled reports whether an analytics database is configured.
func (c *Config) AnalyticsEnabled() bool {
	return strings.TrimSpace(c.DBHost) != ""
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
