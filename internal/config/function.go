package config

import (
	"os"
	"strings"
)

// FunctionConfig is what the reservation Lambda reads from its environment.
type FunctionConfig struct {
	LogLevel       string
	TracingEnabled bool
}

func LoadFunctionConfig() FunctionConfig {
	return FunctionConfig{
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		TracingEnabled: envBool("TRACING_ENABLED"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
