package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/franciscosanchezn/gin-recipe-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/router"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// @title Recipe API
// @version 1.0
// @description Recipes with ingredient groups, sub-recipes, ratings, menu plans and grocery lists
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx := context.Background()

	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()
	if configuration.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	db := setupDatabase(ctx, configuration)
	seedAdmin(ctx, db)
	purgeExpiredTokens(ctx, db, configuration)

	store, err := storage.New(ctx, configuration)
	checkPanicErr(err)

	engine := router.New(router.Dependencies{
		Config: configuration,
		DB:     db,
		Store:  store,
		Redis:  setupRedis(ctx, configuration),
	})

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(engine.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase connects to the configured database and migrates the schema
func setupDatabase(ctx context.Context, conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(ctx, database.FromAppConfig(conf))
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))
	return db
}

// seedAdmin creates the superuser named by ADMIN_USERNAME and ADMIN_PASSWORD
// when both are set and the user does not exist yet
func seedAdmin(ctx context.Context, db *gorm.DB) {
	username, password := os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	_, err := services.NewUserService(db).EnsureUser(ctx, username, os.Getenv("ADMIN_EMAIL"), password, models.RoleAdmin)
	checkPanicErr(err)
}

// purgeExpiredTokens drops stored client tokens and revocation entries that expired
func purgeExpiredTokens(ctx context.Context, db *gorm.DB, conf *config.Config) {
	tokens, err := auth.NewGormTokenStore(db).PurgeExpired(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to purge expired client tokens")
	}
	revoked, err := auth.NewTokenIssuer(db, conf.JWTSecret, conf.AccessTokenTTL, conf.RefreshTokenTTL).PurgeRevoked(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to purge revoked tokens")
	}
	log.WithField("client_tokens", tokens).WithField("revoked_tokens", revoked).Debug("Purged expired tokens")
}

// setupRedis connects to Redis for rate limiting. Without REDIS_URL, or when
// Redis is unreachable, the API runs without rate limits.
func setupRedis(ctx context.Context, conf *config.Config) *redis.Client {
	if conf.RedisURL == "" {
		log.Info("REDIS_URL not set, rate limiting disabled")
		return nil
	}
	client, err := database.NewRedisClient(ctx, conf.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, rate limiting disabled")
		return nil
	}
	return client
}
