// Package config provides configuration for the application
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"golang.org/x/crypto/bcrypt"
)

// Supported credential store drivers
const (
	DriverMongo = "mongo"
	DriverMySQL = "mysql"
)

// EnvDevelopment enables verbose error responses
const EnvDevelopment = "development"

// Config holds all configuration for the application
type Config struct {
	Env       string
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Security  SecurityConfig
	APIKey    string
	RateLimit int
}

// DatabaseConfig holds credential store connection settings
type DatabaseConfig struct {
	Driver   string
	MongoURI string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// SecurityConfig holds password hashing settings
type SecurityConfig struct {
	BcryptCost int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	cfg.Env = os.Getenv("APP_ENV")
	if cfg.Env == "" {
		cfg.Env = "production"
	}

	// Database configuration
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = DriverMongo
	}
	if driver != DriverMongo && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	cfg.Database.Driver = driver
	cfg.Database.MongoURI = os.Getenv("MONGO_URI")

	// A ready Mongo URI makes the discrete connection settings unnecessary
	if driver == DriverMySQL || cfg.Database.MongoURI == "" {
		if err := loadDatabaseParts(&cfg.Database); err != nil {
			return nil, err
		}
	} else {
		cfg.Database.DBName = os.Getenv("DB_NAME")
		if cfg.Database.DBName == "" {
			// Fall back to the database named in the URI path
			cs, err := connstring.ParseAndValidate(cfg.Database.MongoURI)
			if err != nil {
				return nil, fmt.Errorf("invalid MONGO_URI: %w", err)
			}
			cfg.Database.DBName = cs.Database
		}
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "uninest"
	}

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "5000" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	expiryStr := os.Getenv("JWT_TOKEN_EXPIRY")
	if expiryStr == "" {
		expiryStr = "24h"
	}
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TOKEN_EXPIRY: %w", err)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("JWT_TOKEN_EXPIRY must be positive")
	}
	cfg.JWT.TokenExpiry = expiry

	// Password hashing cost
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		costStr = "12"
	}
	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.Security.BcryptCost = cost

	// API Key configuration (optional, enables administration routes)
	cfg.APIKey = os.Getenv("API_KEY")

	rateStr := os.Getenv("RATE_LIMIT_PER_MINUTE")
	if rateStr == "" {
		rateStr = "100"
	}
	rate, err := strconv.Atoi(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	cfg.RateLimit = rate

	return cfg, nil
}

func loadDatabaseParts(db *DatabaseConfig) error {
	db.Host = os.Getenv("DB_HOST")
	if db.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	db.Port = dbPort

	db.User = os.Getenv("DB_USER")
	if db.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	db.Password = os.Getenv("DB_PASSWORD")
	if db.Password == "" {
		// DB_PASS is the older name for the same setting
		db.Password = os.Getenv("DB_PASS")
	}
	if db.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	db.DBName = os.Getenv("DB_NAME")
	if db.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	return nil
}

// parseOrigins splits a comma-separated origin list, defaulting to the local frontend
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// IsDevelopment reports whether detailed errors may be returned to clients
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// DSN returns the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// MongoURI returns the configured URI or one assembled from the discrete settings
func (c *Config) MongoURI() string {
	if c.Database.MongoURI != "" {
		return c.Database.MongoURI
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=admin",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
