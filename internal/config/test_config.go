package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from the .env file or environment variables.
// If TEST_DB_DRIVER is not set, the returned Config has an empty driver and callers are expected to skip.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{Env: "test"}
	cfg.Database.Driver = os.Getenv("TEST_DB_DRIVER")
	if cfg.Database.Driver == "" {
		return cfg, nil
	}

	cfg.Database.MongoURI = os.Getenv("TEST_MONGO_URI")
	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")

	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "uninest_test"
	}

	if portStr := os.Getenv("TEST_DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}

	cfg.JWT.Secret = os.Getenv("TEST_JWT_SECRET")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "test-secret-key-for-integration-tests"
	}

	return cfg, nil
}
