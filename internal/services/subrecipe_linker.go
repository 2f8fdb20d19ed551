package services

import (
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
)

// replaceSubRecipes deletes the recipe's sub-recipe edges and recreates one
// edge per submitted entry that carries a title. The child is the first
// recipe with exactly that title; duplicates across authors are not
// disambiguated. Positions in error keys count titled entries only.
func replaceSubRecipes(tx *gorm.DB, recipeID uint, entries []interface{}) error {
	if err := tx.Where("parent_recipe_id = ?", recipeID).Delete(&models.SubRecipe{}).Error; err != nil {
		return fmt.Errorf("failed to delete sub-recipes: %w", err)
	}

	index := 0
	for _, raw := range entries {
		data, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		title := stringValue(data["title"])
		if title == "" {
			continue
		}
		prefix := fmt.Sprintf("subrecipes[%d].", index)
		index++

		edge := models.SubRecipe{
			ParentRecipeID: recipeID,
			Measurement:    stringValue(data["measurement"]),
		}

		var child models.Recipe
		err := tx.Select("id").Where("title = ?", title).Order("id").First(&child).Error
		switch {
		case err == nil:
			edge.ChildRecipeID = &child.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		verr := models.NewValidationError()
		var okNum, okDen bool
		if edge.Numerator, okNum = floatValue(data["numerator"], 0); !okNum {
			verr.Add(prefix+"numerator", msgInvalidNumber)
		}
		if edge.Denominator, okDen = floatValue(data["denominator"], 1); !okDen {
			verr.Add(prefix+"denominator", msgInvalidNumber)
		}
		if structErr := validation.ValidateStruct(&edge, prefix); structErr != nil {
			for field, messages := range structErr.Fields {
				if !verr.Has(field) {
					verr.Add(field, messages...)
				}
			}
		}
		if !verr.Empty() {
			return withHint(verr, "Subrecipe", title)
		}

		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
	}
	return nil
}
