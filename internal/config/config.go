package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration, loaded once from the
// environment at startup.
type Config struct {
	// Environment
	Environment string
	Port        string
	BaseURL     string // public base URL of this API (OAuth callbacks)
	FrontendURL string // web app URL used in email links
	// CookieDomain scopes auth cookies; leading dot covers subdomains.
	CookieDomain string

	// Persistence
	DatabaseURL string

	// Auth
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Synthesis worker
	WorkerPath     string        // synthworker binary
	ScratchDir     string        // scratch WAVs live here
	ComposeTimeout time.Duration // wall-clock ceiling per composition job

	// Lyric generation (external text-completion providers)
	OpenAIAPIKey string
	GeminiAPIKey string

	// Email
	AWSRegion string
	EmailFrom string

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool

	// Auth mode
	// - "jwt": validate JWTs issued by this API (default)
	// - "gateway": trust X-User-* headers from the billing gateway
	// - "none": no auth (self-hosted, local dev)
	AuthMode string
}

const defaultComposeTimeoutSeconds = 120

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		CookieDomain:       getEnv("COOKIE_DOMAIN", ""),
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/lyricforge?sslmode=disable"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		WorkerPath:         getEnv("SYNTH_WORKER_PATH", "./synthworker"),
		ScratchDir:         getEnv("SYNTH_SCRATCH_DIR", os.TempDir()),
		ComposeTimeout:     time.Duration(getEnvInt("COMPOSE_TIMEOUT_SECONDS", defaultComposeTimeoutSeconds)) * time.Second,
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		EmailFrom:          getEnv("EMAIL_FROM", "no-reply@lyricforge.app"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
		AuthMode:           getEnv("AUTH_MODE", "jwt"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind the billing gateway.
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}
