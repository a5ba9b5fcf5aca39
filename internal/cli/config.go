package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr string // TCP game server
	APIURL     string // HTTP status API
	Output     string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnvOrDefault("DUEL_SERVER", "localhost:65432"),
		APIURL:     getEnvOrDefault("DUEL_API", "http://localhost:8080"),
		Output:     "text",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
