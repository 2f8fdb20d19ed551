package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RatingController handles HTTP requests related to recipe ratings
type RatingController interface {
	ListRatings(c *gin.Context)
	GetRating(c *gin.Context)
	CreateRating(c *gin.Context)
	UpdateRating(c *gin.Context)
	PatchRating(c *gin.Context)
	DeleteRating(c *gin.Context)
	// RatingCounts buckets the filtered recipes by rating
	RatingCounts(c *gin.Context)
}

type ratingController struct {
	service services.RatingService
}

func NewRatingController(service services.RatingService) RatingController {
	return &ratingController{service: service}
}

// ListRatings godoc
// @Summary List ratings
// @Tags ratings
// @Produce json
// @Param recipe query string false "Recipe slug"
// @Param author query string false "Author username"
// @Success 200 {array} models.Rating
// @Router /api/v1/ratings [get]
func (c *ratingController) ListRatings(ctx *gin.Context) {
	ratings, err := c.service.List(ctx.Request.Context(), services.RatingQuery{
		Recipe: firstQuery(ctx, "recipe__slug", "recipe"),
		Author: firstQuery(ctx, "author__username", "author"),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	ctx.JSON(http.StatusOK, ratings)
}

// GetRating godoc
// @Summary Get rating by ID
// @Tags ratings
// @Produce json
// @Param id path int true "Rating ID"
// @Success 200 {object} models.Rating
// @Failure 404 {object} models.APIError
// @Router /api/v1/ratings/{id} [get]
func (c *ratingController) GetRating(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rating, err := c.service.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rating)
}

// CreateRating godoc
// @Summary Rate a recipe
// @Description Scores are clamped to 0..5. The recipe's rating is recomputed immediately.
// @Tags ratings
// @Accept json
// @Produce json
// @Param rating body services.RatingInput true "Rating"
// @Success 201 {object} models.Rating
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/ratings [post]
func (c *ratingController) CreateRating(ctx *gin.Context) {
	var in services.RatingInput
	if !decodeJSON(ctx, &in) {
		return
	}
	rating, err := c.service.Create(ctx.Request.Context(), middleware.CurrentActor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, rating)
}

// UpdateRating godoc
// @Summary Update a rating
// @Tags ratings
// @Accept json
// @Produce json
// @Param id path int true "Rating ID"
// @Param rating body services.RatingInput true "Rating"
// @Success 200 {object} models.Rating
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/ratings/{id} [put]
func (c *ratingController) UpdateRating(ctx *gin.Context) {
	c.update(ctx, false)
}

// PatchRating godoc
// @Summary Partially update a rating
// @Tags ratings
// @Accept json
// @Produce json
// @Param id path int true "Rating ID"
// @Param rating body services.RatingInput true "Fields to change"
// @Success 200 {object} models.Rating
// @Security BearerAuth
// @Router /api/v1/ratings/{id} [patch]
func (c *ratingController) PatchRating(ctx *gin.Context) {
	c.update(ctx, true)
}

func (c *ratingController) update(ctx *gin.Context, partial bool) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in services.RatingInput
	if !decodeJSON(ctx, &in) {
		return
	}
	rating, err := c.service.Update(ctx.Request.Context(), middleware.CurrentActor(ctx), id, in, partial)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rating)
}

// DeleteRating godoc
// @Summary Delete a rating
// @Tags ratings
// @Param id path int true "Rating ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/ratings/{id} [delete]
func (c *ratingController) DeleteRating(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.service.Delete(ctx.Request.Context(), middleware.CurrentActor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RatingCounts godoc
// @Summary Count recipes per rating
// @Description Number of recipes matching the recipe filters for each rating from 5 down to 0
// @Tags ratings
// @Produce json
// @Success 200 {object} Results[models.RatingBucket]
// @Router /api/v1/rating-count [get]
func (c *ratingController) RatingCounts(ctx *gin.Context) {
	filter, err := services.ParseRecipeFilter(ctx.Request.URL.Query(), middleware.CurrentActor(ctx))
	if errors.Is(err, services.ErrInvalidFilter) {
		ctx.JSON(http.StatusOK, Results[models.RatingBucket]{Results: []models.RatingBucket{}})
		return
	}

	buckets, err := c.service.Counts(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, Results[models.RatingBucket]{Results: buckets})
}

func firstQuery(ctx *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := ctx.Query(key); v != "" {
			return v
		}
	}
	return ""
}
