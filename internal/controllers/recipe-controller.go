package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// maxPhotoSize bounds photo uploads
const maxPhotoSize = 10 << 20

// RecipeController handles HTTP requests related to recipes
type RecipeController interface {
	// ListRecipes retrieves a filtered page of recipes
	ListRecipes(c *gin.Context)
	// MiniBrowse retrieves a random sample of recipes
	MiniBrowse(c *gin.Context)
	// GetRecipe retrieves a recipe by its slug
	GetRecipe(c *gin.Context)
	// CreateRecipe creates a recipe with its ingredients and sub-recipes
	CreateRecipe(c *gin.Context)
	// UpdateRecipe replaces a recipe
	UpdateRecipe(c *gin.Context)
	// PatchRecipe updates the fields sent
	PatchRecipe(c *gin.Context)
	// DeleteRecipe deletes a recipe by its slug
	DeleteRecipe(c *gin.Context)
	// UploadPhoto sets the recipe photo
	UploadPhoto(c *gin.Context)
}

type recipeController struct {
	service services.RecipeService
	photos  services.PhotoService
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(service services.RecipeService, photos services.PhotoService) RecipeController {
	return &recipeController{service: service, photos: photos}
}

// ListRecipes godoc
// @Summary List recipes
// @Description Get a page of recipes. Anonymous callers only see public recipes.
// @Tags recipes
// @Produce json
// @Param course query string false "Course slugs, comma separated"
// @Param cuisine query string false "Cuisine slugs, comma separated"
// @Param season query string false "Season slugs, comma separated"
// @Param tag query string false "Tag slugs, comma separated"
// @Param rating query string false "Rating buckets, comma separated"
// @Param search query string false "Search terms"
// @Param author query string false "Author username"
// @Param ordering query string false "pub_date, title or rating, prefixed with - for descending"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Page[models.Recipe]
// @Router /api/v1/recipes [get]
func (c *recipeController) ListRecipes(ctx *gin.Context) {
	filter, err := services.ParseRecipeFilter(ctx.Request.URL.Query(), middleware.CurrentActor(ctx))
	if errors.Is(err, services.ErrInvalidFilter) {
		ctx.JSON(http.StatusOK, Page[models.Recipe]{Results: []models.Recipe{}})
		return
	}

	limit, offset := pagination(ctx)
	count, recipes, err := c.service.List(ctx.Request.Context(), filter, ctx.Query("ordering"), limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	ctx.JSON(http.StatusOK, Page[models.Recipe]{Count: count, Results: recipes})
}

// MiniBrowse godoc
// @Summary Random recipes
// @Description Get a random sample of recipes matching the filters
// @Tags recipes
// @Produce json
// @Param limit query int false "Sample size"
// @Success 200 {array} models.Recipe
// @Router /api/v1/recipes/mini-browse [get]
func (c *recipeController) MiniBrowse(ctx *gin.Context) {
	filter, err := services.ParseRecipeFilter(ctx.Request.URL.Query(), middleware.CurrentActor(ctx))
	if errors.Is(err, services.ErrInvalidFilter) {
		ctx.JSON(http.StatusOK, []models.Recipe{})
		return
	}

	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultMiniBrowseLimit
	}

	recipes, err := c.service.MiniBrowse(ctx.Request.Context(), filter, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	ctx.JSON(http.StatusOK, recipes)
}

// GetRecipe godoc
// @Summary Get recipe by slug
// @Description Get a single recipe with its ingredient groups and sub-recipes
// @Tags recipes
// @Produce json
// @Param slug path string true "Recipe slug"
// @Success 200 {object} models.Recipe
// @Failure 404 {object} models.APIError
// @Router /api/v1/recipes/{slug} [get]
func (c *recipeController) GetRecipe(ctx *gin.Context) {
	recipe, err := c.service.Get(ctx.Request.Context(), ctx.Param("slug"), middleware.CurrentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Create a new recipe
// @Description Create a recipe together with its ingredient groups, sub-recipes, seasons and tags
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body object true "Recipe payload"
// @Success 201 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes [post]
func (c *recipeController) CreateRecipe(ctx *gin.Context) {
	payload, ok := decodePayload(ctx)
	if !ok {
		return
	}

	recipe, err := c.service.Create(ctx.Request.Context(), payload, middleware.CurrentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Replace a recipe. Child collections sent are recreated.
// @Tags recipes
// @Accept json
// @Produce json
// @Param slug path string true "Recipe slug"
// @Param recipe body object true "Recipe payload"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{slug} [put]
func (c *recipeController) UpdateRecipe(ctx *gin.Context) {
	c.update(ctx, false)
}

// PatchRecipe godoc
// @Summary Partially update a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param slug path string true "Recipe slug"
// @Param recipe body object true "Fields to change"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{slug} [patch]
func (c *recipeController) PatchRecipe(ctx *gin.Context) {
	c.update(ctx, true)
}

func (c *recipeController) update(ctx *gin.Context, partial bool) {
	payload, ok := decodePayload(ctx)
	if !ok {
		return
	}

	recipe, err := c.service.Update(ctx.Request.Context(), payload, middleware.CurrentActor(ctx), ctx.Param("slug"), partial)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param slug path string true "Recipe slug"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{slug} [delete]
func (c *recipeController) DeleteRecipe(ctx *gin.Context) {
	if err := c.service.Delete(ctx.Request.Context(), ctx.Param("slug"), middleware.CurrentActor(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UploadPhoto godoc
// @Summary Upload a recipe photo
// @Description Store a new photo and thumbnail for the recipe
// @Tags recipes
// @Accept multipart/form-data
// @Produce json
// @Param slug path string true "Recipe slug"
// @Param photo formData file true "Image file"
// @Success 200 {object} models.Recipe
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/recipes/{slug}/photo [put]
func (c *recipeController) UploadPhoto(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxPhotoSize)
	header, err := ctx.FormFile("photo")
	if err != nil {
		verr := models.NewValidationError()
		verr.Add("photo", "No file was submitted.")
		respondError(ctx, verr)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(ctx, "Could not read uploaded file.")
		return
	}
	defer file.Close()

	recipe, err := c.photos.SetPhoto(ctx.Request.Context(), ctx.Param("slug"), middleware.CurrentActor(ctx), file)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recipe)
}
