package database

import (
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// Models lists every persisted model, parents before children
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Course{},
		&models.Cuisine{},
		&models.Season{},
		&models.Tag{},
		&models.Recipe{},
		&models.IngredientGroup{},
		&models.Ingredient{},
		&models.SubRecipe{},
		&models.Rating{},
		&models.MenuItem{},
		&models.GroceryList{},
		&models.GroceryItem{},
		&models.GroceryShared{},
		&models.OAuthClient{},
		&models.OAuthToken{},
		&models.RevokedToken{},
	}
}

// Migrate creates or updates the schema for every model
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migration")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.WithField("models", len(Models())).Info("Schema migration complete")
	return nil
}
