package services

import (
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
)

// recipeFields lists the payload keys a recipe save accepts. Everything
// else, including server-managed fields like slug and rating, is dropped.
var recipeFields = map[string]bool{
	"title":             true,
	"info":              true,
	"directions":        true,
	"source":            true,
	"prep_time":         true,
	"cook_time":         true,
	"servings":          true,
	"public":            true,
	"course":            true,
	"cuisine":           true,
	"seasons":           true,
	"tags":              true,
	"subrecipes":        true,
	"ingredient_groups": true,
}

func normalizeRecipePayload(p Payload) Payload {
	data := make(Payload, len(p))
	for k, v := range p {
		if recipeFields[k] {
			data[k] = v
		}
	}
	return data
}

type payloadRule func(v interface{}) string

func requiredRule(partial bool) payloadRule {
	return func(v interface{}) string {
		if !partial && validation.IsBlank(v) {
			return validation.MsgRequired
		}
		return ""
	}
}

func digitRule(v interface{}) string {
	if !validation.IsDigit(v) {
		return validation.MsgNumber
	}
	return ""
}

// validateRecipePayload checks the raw fields before anything is written.
// Every field is checked; each reports only its first failing rule.
func validateRecipePayload(data Payload, partial bool) *models.ValidationError {
	required := requiredRule(partial)
	rules := []struct {
		field string
		rules []payloadRule
	}{
		{"title", []payloadRule{required}},
		{"servings", []payloadRule{required, digitRule}},
		{"prep_time", []payloadRule{digitRule}},
		{"cook_time", []payloadRule{digitRule}},
		{"ingredient_groups", []payloadRule{required}},
	}

	verr := models.NewValidationError()
	for _, r := range rules {
		for _, rule := range r.rules {
			if msg := rule(data[r.field]); msg != "" {
				verr.Add(r.field, msg)
				break
			}
		}
	}

	for _, key := range []string{"ingredient_groups", "subrecipes", "seasons", "tags"} {
		if v, ok := data[key]; ok && v != nil && !verr.Has(key) {
			if _, isList := v.([]interface{}); !isList {
				verr.Add(key, "Expected a list of items.")
			}
		}
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// applyRecipeFields copies the scalar fields present in data onto recipe
func applyRecipeFields(recipe *models.Recipe, data Payload) *models.ValidationError {
	verr := models.NewValidationError()

	for _, field := range []struct {
		key string
		dst *string
	}{
		{"title", &recipe.Title},
		{"info", &recipe.Info},
		{"directions", &recipe.Directions},
		{"source", &recipe.Source},
	} {
		if data.Has(field.key) {
			*field.dst = stringValue(data[field.key])
		}
	}

	if data.Has("servings") {
		if n, ok := validation.ToInt(data["servings"]); ok {
			recipe.Servings = n
		} else {
			verr.Add("servings", "This field cannot be null.")
		}
	}
	for _, field := range []struct {
		key string
		dst **int
	}{
		{"prep_time", &recipe.PrepTime},
		{"cook_time", &recipe.CookTime},
	} {
		if !data.Has(field.key) {
			continue
		}
		if n, ok := validation.ToInt(data[field.key]); ok {
			*field.dst = &n
		} else {
			*field.dst = nil
		}
	}

	if data.Has("public") {
		switch v := data["public"].(type) {
		case bool:
			recipe.Public = v
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				verr.Add("public", "Must be a valid boolean.")
			}
			recipe.Public = b
		case nil:
			verr.Add("public", "This field cannot be null.")
		default:
			verr.Add("public", "Must be a valid boolean.")
		}
	}

	if verr.Empty() {
		return nil
	}
	return verr
}
