package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// GeminiConfig holds the generative-model credentials and the priority-ordered
// default model list used by the reliable caller. The first entry is the
// confirmed-stable model; the rest are failover candidates.
type GeminiConfig struct {
	APIKey string
	Models []string
}

type PlacesConfig struct {
	APIKey string
}

type StripeConfig struct {
	SecretKey string
}

type AuthConfig struct {
	JWTSecret string
}

type QuotaConfig struct {
	FreeDailyGenerations int
}

type Config struct {
	Repositories RepositoriesConfig
	ServerPort   string
	Gemini       GeminiConfig
	Places       PlacesConfig
	Stripe       StripeConfig
	Auth         AuthConfig
	Quota        QuotaConfig
}

var defaultModels = []string{
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-2.0-flash-lite",
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "decision_jar"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Models: modelList(os.Getenv("GEMINI_MODELS")),
		},
		Places: PlacesConfig{
			APIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		},
		Stripe: StripeConfig{
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret"),
		},
		Quota: QuotaConfig{
			FreeDailyGenerations: getEnvIntOrDefault("FREE_DAILY_GENERATIONS", 3),
		},
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	return cfg, nil
}

func modelList(raw string) []string {
	if raw == "" {
		return append([]string(nil), defaultModels...)
	}
	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return append([]string(nil), defaultModels...)
	}
	return models
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
