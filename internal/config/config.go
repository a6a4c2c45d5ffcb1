package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Pipeline settings
	DefaultMode     string
	PipelineTimeout time.Duration
	ExecutionPolicy string
	RandomSeed      int64

	// WebSocket settings
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Execution policy selectors
const (
	PolicyDeterministic = "deterministic"
	PolicyRandomized    = "randomized"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultMode:     getEnv("AUTONOMY_MODE", "FULL_AUTO"),
		ExecutionPolicy: getEnv("EXECUTION_POLICY", PolicyDeterministic),
	}

	if config.ExecutionPolicy != PolicyDeterministic && config.ExecutionPolicy != PolicyRandomized {
		return nil, fmt.Errorf("invalid EXECUTION_POLICY: %s", config.ExecutionPolicy)
	}

	seed, err := strconv.ParseInt(getEnv("RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
	}
	config.RandomSeed = seed

	pipelineTimeout, err := strconv.Atoi(getEnv("PIPELINE_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_TIMEOUT: %w", err)
	}
	config.PipelineTimeout = time.Duration(pipelineTimeout) * time.Second

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
