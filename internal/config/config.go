// Package config resolves runtime settings from the environment, with an
// optional .env file loaded first.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultRegistryPort is the registry's well-known TCP port.
const DefaultRegistryPort = 7734

type Settings struct {
	RegistryHost string
	RegistryPort int
	PeerDir      string
	Hostname     string
	LogFile      string
}

// Load reads settings from the environment. A missing .env file is fine;
// flags layered on top by the commands take precedence over all of this.
func Load() Settings {
	godotenv.Load()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	return Settings{
		RegistryHost: getEnv("DOCDEX_REGISTRY_HOST", "127.0.0.1"),
		RegistryPort: getEnvInt("DOCDEX_REGISTRY_PORT", DefaultRegistryPort),
		PeerDir:      getEnv("DOCDEX_PEER_DIR", "documents"),
		Hostname:     getEnv("DOCDEX_HOSTNAME", hostname),
		LogFile:      os.Getenv("DOCDEX_LOG_FILE"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
