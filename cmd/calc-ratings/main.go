// Command calc-ratings recomputes the denormalized rating and rating count
// of every recipe from its ratings.
package main

import (
	"context"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	conf, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx := context.Background()
	db, err := database.InitDatabase(ctx, database.FromAppConfig(conf))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate schema")
	}

	visited, err := services.NewRatingService(db).RecomputeAll(ctx)
	if err != nil {
		log.WithError(err).WithField("recipes", visited).Fatal("Rating recompute failed")
	}
	log.WithField("recipes", visited).Info("Ratings recomputed")
}
