package services

import (
	"context"
	"errors"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	store   *storage.LocalStore
	photos  PhotoService
	recipes RecipeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	photos := NewPhotoService(db, store, "LOW", true)
	return &fixture{db: db, store: store, photos: photos, recipes: NewRecipeService(db, photos)}
}

func actorFor(user *models.User) *Actor {
	return &Actor{UserID: user.ID, Role: user.Role}
}

func ingredient(title string, numerator, denominator float64, measurement string) map[string]interface{} {
	return map[string]interface{}{
		"title":       title,
		"numerator":   numerator,
		"denominator": denominator,
		"measurement": measurement,
	}
}

func group(title string, ingredients ...map[string]interface{}) map[string]interface{} {
	list := make([]interface{}, len(ingredients))
	for i := range ingredients {
		list[i] = ingredients[i]
	}
	return map[string]interface{}{"title": title, "ingredients": list}
}

// recipePayload is the smallest payload a full save accepts
func recipePayload(title string) Payload {
	return Payload{
		"title":    title,
		"servings": float64(4),
		"public":   true,
		"ingredient_groups": []interface{}{
			group("", ingredient("Flour", 2, 1, "cups")),
		},
	}
}

func createRecipe(t *testing.T, f *fixture, actor *Actor, payload Payload) *models.Recipe {
	t.Helper()

	recipe, err := f.recipes.Create(context.Background(), payload, actor)
	require.NoError(t, err)
	return recipe
}

func requireValidation(t *testing.T, err error) *models.ValidationError {
	t.Helper()

	var verr *models.ValidationError
	require.Truef(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}
