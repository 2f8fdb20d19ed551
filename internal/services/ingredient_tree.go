package services

import (
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
)

// replaceIngredientGroups deletes every ingredient group of the recipe and
// recreates them from the submitted list, in order. The first invalid row
// aborts with an error keyed by its position, e.g.
// ingredient_groups[1].ingredients[0].title.
func replaceIngredientGroups(tx *gorm.DB, recipeID uint, groups []interface{}) error {
	groupIDs := tx.Model(&models.IngredientGroup{}).Select("id").Where("recipe_id = ?", recipeID)
	if err := tx.Where("ingredient_group_id IN (?)", groupIDs).Delete(&models.Ingredient{}).Error; err != nil {
		return fmt.Errorf("failed to delete ingredients: %w", err)
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientGroup{}).Error; err != nil {
		return fmt.Errorf("failed to delete ingredient groups: %w", err)
	}

	for i, rawGroup := range groups {
		prefix := fmt.Sprintf("ingredient_groups[%d].", i)
		data, ok := rawGroup.(map[string]interface{})
		if !ok {
			return fieldError(prefix+"non_field_errors", msgExpectedObject)
		}

		group := models.IngredientGroup{
			RecipeID: recipeID,
			Title:    stringValue(data["title"]),
		}
		if verr := validation.ValidateStruct(&group, prefix); verr != nil {
			return withHint(verr, "Ingredient_Group", group.Title)
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		for j, rawIngredient := range listValue(data["ingredients"]) {
			if err := createIngredient(tx, group.ID, fmt.Sprintf("%singredients[%d].", prefix, j), rawIngredient); err != nil {
				return err
			}
		}
	}
	return nil
}

func createIngredient(tx *gorm.DB, groupID uint, prefix string, raw interface{}) error {
	data, ok := raw.(map[string]interface{})
	if !ok {
		return fieldError(prefix+"non_field_errors", msgExpectedObject)
	}

	ingredient := models.Ingredient{
		IngredientGroupID: groupID,
		Title:             stringValue(data["title"]),
		Measurement:       stringValue(data["measurement"]),
	}

	verr := models.NewValidationError()
	var okNum, okDen bool
	if ingredient.Numerator, okNum = floatValue(data["numerator"], 0); !okNum {
		verr.Add(prefix+"numerator", msgInvalidNumber)
	}
	if ingredient.Denominator, okDen = floatValue(data["denominator"], 1); !okDen {
		verr.Add(prefix+"denominator", msgInvalidNumber)
	}
	if structErr := validation.ValidateStruct(&ingredient, prefix); structErr != nil {
		for field, messages := range structErr.Fields {
			if !verr.Has(field) {
				verr.Add(field, messages...)
			}
		}
	}
	if !verr.Empty() {
		return withHint(verr, "Ingredient", ingredient.Title)
	}

	return tx.Create(&ingredient).Error
}
