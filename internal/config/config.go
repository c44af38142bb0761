package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is read when CONFIG_FILE is not set
const DefaultConfigFile = "./flashquiz.toml"

// Config holds application configuration
type Config struct {
	DatabaseType        string
	DatabasePath        string
	DatabaseURL         string
	MigrationsPath      string
	APIBaseURL          string
	HTTPTimeout         time.Duration
	TokenSecret         string
	ScopeProgressByUser bool
	Debug               bool
}

// FileConfig is the optional TOML config file. Unset fields keep the defaults.
type FileConfig struct {
	DatabaseType        string `toml:"database_type"`
	DatabasePath        string `toml:"database_path"`
	DatabaseURL         string `toml:"database_url"`
	MigrationsPath      string `toml:"migrations_path"`
	APIBaseURL          string `toml:"api_base_url"`
	HTTPTimeout         string `toml:"http_timeout"`
	TokenSecret         string `toml:"token_secret"`
	ScopeProgressByUser *bool  `toml:"scope_progress_by_user"`
	Debug               *bool  `toml:"debug"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present, then the
// TOML file named by CONFIG_FILE. Environment variables win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	var file FileConfig
	path := getEnv("CONFIG_FILE", DefaultConfigFile)
	if err := LoadFile(path, &file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: ignoring config file %s: %v", path, err)
	}

	return &Config{
		DatabaseType:        getEnv("DB_TYPE", orDefault(file.DatabaseType, "sqlite")),
		DatabasePath:        getEnv("DB_PATH", orDefault(file.DatabasePath, "./flashquiz.db")),
		DatabaseURL:         getEnv("DATABASE_URL", file.DatabaseURL),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", orDefault(file.MigrationsPath, "./migrations")),
		APIBaseURL:          getEnv("API_BASE_URL", orDefault(file.APIBaseURL, "https://flashcard-klqk.onrender.com/api/user")),
		HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", parseDuration("http_timeout", file.HTTPTimeout, 30*time.Second)),
		TokenSecret:         getEnv("TOKEN_SECRET", file.TokenSecret),
		ScopeProgressByUser: getEnvBool("SCOPE_PROGRESS_BY_USER", boolOr(file.ScopeProgressByUser, false)),
		Debug:               getEnvBool("DEBUG", boolOr(file.Debug, false)),
	}
}

// LoadFile decodes the TOML config file at path into fc
func LoadFile(path string, fc *FileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func boolOr(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}

func parseDuration(name, value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid duration for %s=%q, using %s", name, value, defaultValue)
		return defaultValue
	}
	return d
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
