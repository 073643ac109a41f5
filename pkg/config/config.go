// Package config parses the environment variables the core reads at
// startup into a typed Config, following the same envOr/parseCSV
// pattern every teacher service used inline in its main.go.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the process-wide configuration.
type Config struct {
	HTTPAddr              string
	Debug                 bool
	DatabaseURL           string
	AzureADEnabled        bool
	GitHubEnabled         bool
	SlackEnabled          bool
	JiraEnabled           bool
	BirthrightDepartments []string
	CORSAllowedOrigins    []string
	RateLimitRPS          float64
	RateLimitBurst        int
	OTLPEndpoint          string
}

// FromEnv builds a Config from the process environment, applying the
// same defaults a local developer run needs with no .env file present.
func FromEnv() Config {
	return Config{
		HTTPAddr:              envOr("HTTP_ADDR", ":8080"),
		Debug:                 envBool("DEBUG", false),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		AzureADEnabled:        envBool("AZURE_AD_ENABLED", true),
		GitHubEnabled:         envBool("GITHUB_ENABLED", true),
		SlackEnabled:          envBool("SLACK_ENABLED", true),
		JiraEnabled:           envBool("JIRA_ENABLED", false),
		BirthrightDepartments: parseCSV(envOr("BIRTHRIGHT_DEPARTMENTS", "Engineering,Sales,Marketing,HR")),
		CORSAllowedOrigins:    parseCSV(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		RateLimitRPS:          envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:        envInt("RATE_LIMIT_BURST", 40),
		OTLPEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// AllowsAllOrigins reports whether the CORS origin list contains a
// wildcard entry.
func (c Config) AllowsAllOrigins() bool {
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
