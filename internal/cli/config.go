package cli

import (
	"os"

	"github.com/bidascore/bidascore-go/internal/clientstore/file"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	UserID    string
	StatePath string
	RedisURL  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("BIDASCORE_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("BIDASCORE_TOKEN"),
		UserID:    os.Getenv("BIDASCORE_USER"),
		StatePath: getEnvOrDefault("BIDASCORE_STATE", file.DefaultPath()),
		RedisURL:  os.Getenv("BIDASCORE_REDIS_URL"),
		Output:    "text",
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
