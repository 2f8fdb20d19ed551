package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment string   `json:"environment"`
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`

	// Database configuration
	DBDriver    string `json:"db_driver"`
	DBPath      string `json:"db_path"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBName      string `json:"db_name"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBSSLMode   string `json:"db_sslmode"`
	DatabaseURL string `json:"database_url"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret       string        `json:"jwt_secret"`
	AccessTokenTTL  time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl"`

	// Rate limiting, disabled when RedisURL is empty
	RedisURL           string `json:"redis_url"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`

	// Photo storage
	StorageBackend     string `json:"storage_backend"`
	MediaRoot          string `json:"media_root"`
	MediaURL           string `json:"media_url"`
	S3Bucket           string `json:"s3_bucket"`
	S3Region           string `json:"s3_region"`
	S3Endpoint         string `json:"s3_endpoint"`
	RecipeImageQuality string `json:"recipe_image_quality"`
	DeleteOrphanFiles  bool   `json:"delete_orphan_files"`

	// Features
	MenuPlanGlobal bool `json:"menu_plan_global"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, DBDriver: %s, DBPath: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DatabaseURL: %s, LogLevel: %s, JWTSecret: [REDACTED], RedisURL: %s, StorageBackend: %s, MediaRoot: %s, S3Bucket: %s}",
		c.Environment, c.Port, c.Host, c.DBDriver, c.DBPath, c.DBHost, c.DBName, c.DBUser,
		maskDatabaseURL(c.DatabaseURL), c.LogLevel, maskDatabaseURL(c.RedisURL), c.StorageBackend, c.MediaRoot, c.S3Bucket)
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if a value is present but malformed
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	dbURL := GetEnvWithDefault("DATABASE_URL", "")
	if dbURL != "" {
		if _, err := url.ParseRequestURI(dbURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL format: %w", err)
		}
	}

	storage := strings.ToLower(GetEnvWithDefault("STORAGE_BACKEND", "local"))
	if storage != "local" && storage != "s3" {
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q (supported: local, s3)", storage)
	}

	config := &Config{
		Environment:        GetEnvWithDefault("APP_ENV", "development"),
		Port:               port,
		Host:               GetEnvWithDefault("APP_HOST", "localhost"),
		CORSOrigins:        splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		DBDriver:           GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:             GetEnvWithDefault("DB_PATH", "recipes.sqlite"),
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBName:             GetEnvWithDefault("DB_NAME", "recipes"),
		DBUser:             GetEnvWithDefault("DB_USER", "user"),
		DBPassword:         GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		DatabaseURL:        dbURL,
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", "secret"),
		AccessTokenTTL:     time.Duration(GetEnvAsType("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL:    time.Duration(GetEnvAsType("REFRESH_TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		RedisURL:           GetEnvWithDefault("REDIS_URL", ""),
		RateLimitPerMinute: GetEnvAsType("RATE_LIMIT_PER_MINUTE", 60),
		StorageBackend:     storage,
		MediaRoot:          GetEnvWithDefault("MEDIA_ROOT", "media"),
		MediaURL:           GetEnvWithDefault("MEDIA_URL", "/media/"),
		S3Bucket:           GetEnvWithDefault("S3_BUCKET", ""),
		S3Region:           GetEnvWithDefault("S3_REGION", "us-east-1"),
		S3Endpoint:         GetEnvWithDefault("S3_ENDPOINT", ""),
		RecipeImageQuality: strings.ToUpper(GetEnvWithDefault("RECIPE_IMAGE_QUALITY", "MEDIUM")),
		DeleteOrphanFiles:  GetEnvAsType("DELETE_ORPHAN_FILES", true),
		MenuPlanGlobal:     GetEnvAsType("MENU_PLAN_GLOBAL", false),
	}

	if config.StorageBackend == "s3" && config.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
