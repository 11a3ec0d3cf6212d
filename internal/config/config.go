package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Remote assistant endpoint consumed by the chat demo
	AssistantEndpoint  string
	AssistantTimeout   time.Duration
	AssistantSessionID string

	// Demo widget
	DemoSessionIdleTTL time.Duration
	DemoRateLimitRPS   float64
	DemoRateLimitBurst int
	CORSAllowedOrigins []string
	DemoGreeting       string
	TUILogFile         string
	TUIGlamourStyle    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AssistantEndpoint:  getEnv("ASSISTANT_ENDPOINT", "http://localhost:8000/chat"),
		AssistantTimeout:   getEnvAsDuration("ASSISTANT_TIMEOUT", 30*time.Second),
		AssistantSessionID: strings.TrimSpace(getEnv("ASSISTANT_SESSION_ID", "")),

		DemoSessionIdleTTL: getEnvAsDuration("DEMO_SESSION_IDLE_TTL", 30*time.Minute),
		DemoRateLimitRPS:   getEnvAsFloat("DEMO_RATE_LIMIT_RPS", 1),
		DemoRateLimitBurst: getEnvAsInt("DEMO_RATE_LIMIT_BURST", 5),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		DemoGreeting:       getEnv("DEMO_GREETING", ""),
		TUILogFile:         getEnv("TUI_LOG_FILE", "demo-chat.log"),
		TUIGlamourStyle:    getEnv("TUI_GLAMOUR_STYLE", "dark"),
	}
}

// IsProduction reports whether the server runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
