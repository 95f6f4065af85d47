package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	LogLevel  string
	LogFormat string

	DefaultClub      string
	DefaultClubShort string

	LicenseRegistryURL       string
	LicenseRegistryCookie    string
	LicenseRegistryTimeoutMs int
	LicenseRegistryRateRPS   int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "runs.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DefaultClub:      getEnv("DEFAULT_CLUB", "Hippo"),
		DefaultClubShort: getEnv("DEFAULT_CLUB_SHORT", "Ei seuraa"),

		LicenseRegistryURL:       getEnv("LICENSE_REGISTRY_URL", ""),
		LicenseRegistryCookie:    getEnv("LICENSE_REGISTRY_COOKIE", ""),
		LicenseRegistryTimeoutMs: getEnvInt("LICENSE_REGISTRY_TIMEOUT_MS", 30000),
		LicenseRegistryRateRPS:   getEnvInt("LICENSE_REGISTRY_RATE_LIMIT_RPS", 5),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
