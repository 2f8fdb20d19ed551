package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/franciscosanchezn/gin-recipe-api/internal/metrics"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultMiniBrowseLimit is the sample size when none is requested
const DefaultMiniBrowseLimit = 4

type RecipeService interface {
	// Create validates payload and saves a new recipe with its ingredient
	// groups, sub-recipes, seasons and tags. A failure after the recipe row
	// was inserted deletes the row again.
	Create(ctx context.Context, payload Payload, actor *Actor) (*models.Recipe, error)
	// Update applies payload to the recipe identified by slug. With partial
	// set, required fields may be omitted.
	Update(ctx context.Context, payload Payload, actor *Actor, slug string, partial bool) (*models.Recipe, error)
	Get(ctx context.Context, slug string, viewer *Actor) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter, ordering string, limit, offset int) (int64, []models.Recipe, error)
	// MiniBrowse returns a random sample of recipes matching filter
	MiniBrowse(ctx context.Context, filter RecipeFilter, limit int) ([]models.Recipe, error)
	Delete(ctx context.Context, slug string, actor *Actor) error
}

type recipeService struct {
	db     *gorm.DB
	photos PhotoService
}

func NewRecipeService(db *gorm.DB, photos PhotoService) RecipeService {
	return &recipeService{db: db, photos: photos}
}

// preloadRecipe loads every association a recipe response carries, with
// children in insertion order.
func preloadRecipe(db *gorm.DB) *gorm.DB {
	byID := func(table string) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB { return db.Order(table + ".id") }
	}
	return db.
		Preload("IngredientGroups", byID("ingredient_groups")).
		Preload("IngredientGroups.Ingredients", byID("ingredients")).
		Preload("SubRecipes", byID("sub_recipes")).
		Preload("SubRecipes.ChildRecipe").
		Preload("Course").
		Preload("Cuisine").
		Preload("Tags").
		Preload("Seasons").
		Preload("Author")
}

func (s *recipeService) load(db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(db).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("recipe %d", id))
	}
	s.photos.FillURLs(&recipe)
	return &recipe, nil
}

// resolveTaxonomy sets course and cuisine when their keys carry a value
func resolveTaxonomy(db *gorm.DB, data Payload, recipe *models.Recipe, actor *Actor) error {
	if v := data["course"]; v != nil {
		id, err := resolveRef(db, courseKind, "course", v, actor.idPtr())
		if err != nil {
			return err
		}
		recipe.CourseID = id
	}
	if v := data["cuisine"]; v != nil {
		id, err := resolveRef(db, cuisineKind, "cuisine", v, actor.idPtr())
		if err != nil {
			return err
		}
		recipe.CuisineID = id
	}
	return nil
}

// replaceChildren rebuilds every child collection present in data
func replaceChildren(db *gorm.DB, recipeID uint, data Payload) error {
	if v := data["ingredient_groups"]; v != nil {
		if err := replaceIngredientGroups(db, recipeID, listValue(v)); err != nil {
			return err
		}
	}
	if v := data["subrecipes"]; v != nil {
		if err := replaceSubRecipes(db, recipeID, listValue(v)); err != nil {
			return err
		}
	}
	if v := data["seasons"]; v != nil {
		if err := replaceTaxonomyLinks(db, seasonKind, "seasons", recipeID, listValue(v)); err != nil {
			return err
		}
	}
	if v := data["tags"]; v != nil {
		if err := replaceTaxonomyLinks(db, tagKind, "tags", recipeID, listValue(v)); err != nil {
			return err
		}
	}
	return nil
}

func saveResult(err error) string {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr), errors.Is(err, ErrNotFound):
		return "invalid"
	default:
		return "error"
	}
}

func (s *recipeService) Create(ctx context.Context, payload Payload, actor *Actor) (recipe *models.Recipe, err error) {
	defer func() { metrics.RecordRecipeSave("create", saveResult(err)) }()

	if !actor.Authenticated() {
		return nil, ErrForbidden
	}
	data := normalizeRecipePayload(payload)
	if verr := validateRecipePayload(data, false); verr != nil {
		return nil, verr
	}

	db := s.db.WithContext(ctx)
	created := &models.Recipe{AuthorID: actor.idPtr(), Public: true}
	if err := resolveTaxonomy(db, data, created, actor); err != nil {
		return nil, err
	}
	if verr := applyRecipeFields(created, data); verr != nil {
		return nil, verr
	}
	if verr := validation.ValidateStruct(created, ""); verr != nil {
		return nil, verr
	}
	if err := db.Omit(clause.Associations).Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	if err := replaceChildren(db, created.ID, data); err != nil {
		log.WithError(err).WithField("recipe_id", created.ID).Info("Recipe save failed, removing partially created recipe")
		if derr := deleteRecipeRows(db, created.ID); derr != nil {
			log.WithError(derr).WithField("recipe_id", created.ID).Error("Failed to remove partially created recipe")
		}
		return nil, err
	}

	if err := pruneOrphanTaxonomies(db); err != nil {
		return nil, err
	}

	log.WithField("recipe_id", created.ID).WithField("slug", created.Slug).Info("Recipe created")
	return s.load(db, created.ID)
}

func (s *recipeService) Update(ctx context.Context, payload Payload, actor *Actor, slug string, partial bool) (recipe *models.Recipe, err error) {
	op := "update"
	if partial {
		op = "partial_update"
	}
	defer func() { metrics.RecordRecipeSave(op, saveResult(err)) }()

	db := s.db.WithContext(ctx)
	var existing models.Recipe
	if err := db.Where("slug = ?", slug).First(&existing).Error; err != nil {
		return nil, notFound(err, "recipe "+slug)
	}
	if !actor.CanEdit(existing.AuthorID) {
		return nil, ErrForbidden
	}

	data := normalizeRecipePayload(payload)
	if verr := validateRecipePayload(data, partial); verr != nil {
		return nil, verr
	}
	if err := resolveTaxonomy(db, data, &existing, actor); err != nil {
		return nil, err
	}
	if verr := applyRecipeFields(&existing, data); verr != nil {
		return nil, verr
	}
	existing.UpdateAuthorID = actor.idPtr()
	if verr := validation.ValidateStruct(&existing, ""); verr != nil {
		return nil, verr
	}

	if err := replaceChildren(db, existing.ID, data); err != nil {
		return nil, err
	}
	if err := db.Omit(clause.Associations).Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}

	if err := pruneOrphanTaxonomies(db); err != nil {
		return nil, err
	}

	log.WithField("recipe_id", existing.ID).WithField("partial", partial).Info("Recipe updated")
	return s.load(db, existing.ID)
}

func (s *recipeService) Get(ctx context.Context, slug string, viewer *Actor) (*models.Recipe, error) {
	query := preloadRecipe(s.db.WithContext(ctx)).Where("recipes.slug = ?", slug)
	if !viewer.Authenticated() {
		query = query.Where("recipes.public = ?", true)
	}

	var recipe models.Recipe
	if err := query.First(&recipe).Error; err != nil {
		return nil, notFound(err, "recipe "+slug)
	}
	s.photos.FillURLs(&recipe)
	return &recipe, nil
}

func (s *recipeService) List(ctx context.Context, filter RecipeFilter, ordering string, limit, offset int) (int64, []models.Recipe, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := filter.Apply(db.Model(&models.Recipe{})).Count(&count).Error; err != nil {
		return 0, nil, err
	}

	query := preloadRecipe(filter.Apply(db.Model(&models.Recipe{}))).Order(RecipeOrder(ordering))
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return 0, nil, err
	}
	for i := range recipes {
		s.photos.FillURLs(&recipes[i])
	}
	return count, recipes, nil
}

func (s *recipeService) MiniBrowse(ctx context.Context, filter RecipeFilter, limit int) ([]models.Recipe, error) {
	if limit <= 0 {
		limit = DefaultMiniBrowseLimit
	}
	db := s.db.WithContext(ctx)

	var ids []uint
	if err := filter.Apply(db.Model(&models.Recipe{})).Pluck("recipes.id", &ids).Error; err != nil {
		return nil, err
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if limit < len(ids) {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []models.Recipe{}, nil
	}

	var loaded []models.Recipe
	if err := preloadRecipe(db).Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, err
	}

	// rows come back in table order, put them in the shuffled order
	byID := make(map[uint]models.Recipe, len(loaded))
	for _, r := range loaded {
		byID[r.ID] = r
	}
	recipes := make([]models.Recipe, 0, len(loaded))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			s.photos.FillURLs(&r)
			recipes = append(recipes, r)
		}
	}
	return recipes, nil
}

func (s *recipeService) Delete(ctx context.Context, slug string, actor *Actor) error {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Where("slug = ?", slug).First(&recipe).Error; err != nil {
		return notFound(err, "recipe "+slug)
	}
	if !actor.CanEdit(recipe.AuthorID) {
		return ErrForbidden
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return deleteRecipeRows(tx, recipe.ID)
	})
	if err != nil {
		return err
	}
	log.WithField("recipe_id", recipe.ID).WithField("slug", slug).Info("Recipe deleted")

	s.photos.Release(ctx, recipe.Photo, recipe.PhotoThumbnail)
	return nil
}

// deleteRecipeRows removes a recipe and every row that belongs to it,
// children first.
func deleteRecipeRows(db *gorm.DB, recipeID uint) error {
	groupIDs := db.Model(&models.IngredientGroup{}).Select("id").Where("recipe_id = ?", recipeID)
	steps := []struct {
		what string
		run  func() error
	}{
		{"ingredients", func() error {
			return db.Where("ingredient_group_id IN (?)", groupIDs).Delete(&models.Ingredient{}).Error
		}},
		{"ingredient groups", func() error {
			return db.Where("recipe_id = ?", recipeID).Delete(&models.IngredientGroup{}).Error
		}},
		{"sub-recipes", func() error {
			return db.Where("parent_recipe_id = ? OR child_recipe_id = ?", recipeID, recipeID).Delete(&models.SubRecipe{}).Error
		}},
		{"tags", func() error { return db.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error }},
		{"seasons", func() error { return db.Exec("DELETE FROM recipe_seasons WHERE recipe_id = ?", recipeID).Error }},
		{"ratings", func() error { return db.Where("recipe_id = ?", recipeID).Delete(&models.Rating{}).Error }},
		{"menu items", func() error { return db.Where("recipe_id = ?", recipeID).Delete(&models.MenuItem{}).Error }},
		{"recipe", func() error { return db.Delete(&models.Recipe{}, recipeID).Error }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("failed to delete %s of recipe %d: %w", step.what, recipeID, err)
		}
	}
	return nil
}
