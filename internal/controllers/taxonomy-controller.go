package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TaxonomyInput is the writable part of a course, cuisine, season or tag
type TaxonomyInput struct {
	Title string `json:"title"`
}

// TaxonomyController serves one taxonomy kind. The path parameter is the
// row's lookup key: the slug, or the title for tags.
type TaxonomyController[T services.Taxon] struct {
	service services.TaxonomyService[T]
	param   string
}

func NewTaxonomyController[T services.Taxon](service services.TaxonomyService[T], param string) *TaxonomyController[T] {
	return &TaxonomyController[T]{service: service, param: param}
}

// List godoc
// @Summary List taxonomy rows
// @Tags taxonomy
// @Produce json
// @Success 200 {array} models.Course
// @Router /api/v1/courses [get]
func (c *TaxonomyController[T]) List(ctx *gin.Context) {
	rows, err := c.service.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	ctx.JSON(http.StatusOK, rows)
}

// Get godoc
// @Summary Get a taxonomy row
// @Tags taxonomy
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} models.Course
// @Failure 404 {object} models.APIError
// @Router /api/v1/courses/{slug} [get]
func (c *TaxonomyController[T]) Get(ctx *gin.Context) {
	row, err := c.service.Get(ctx.Request.Context(), ctx.Param(c.param))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, row)
}

// Create godoc
// @Summary Create a taxonomy row
// @Description Courses and cuisines may be created by any user, seasons and tags by staff
// @Tags taxonomy
// @Accept json
// @Produce json
// @Param row body TaxonomyInput true "Title"
// @Success 201 {object} models.Course
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/courses [post]
func (c *TaxonomyController[T]) Create(ctx *gin.Context) {
	var in TaxonomyInput
	if !decodeJSON(ctx, &in) {
		return
	}
	row, err := c.service.Create(ctx.Request.Context(), middleware.CurrentActor(ctx), in.Title)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, row)
}

// Update godoc
// @Summary Rename a taxonomy row
// @Tags taxonomy
// @Accept json
// @Produce json
// @Param slug path string true "Slug"
// @Param row body TaxonomyInput true "Title"
// @Success 200 {object} models.Course
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/courses/{slug} [put]
func (c *TaxonomyController[T]) Update(ctx *gin.Context) {
	var in TaxonomyInput
	if !decodeJSON(ctx, &in) {
		return
	}
	row, err := c.service.Update(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param(c.param), in.Title)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, row)
}

// Delete godoc
// @Summary Delete a taxonomy row
// @Tags taxonomy
// @Param slug path string true "Slug"
// @Success 204
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/courses/{slug} [delete]
func (c *TaxonomyController[T]) Delete(ctx *gin.Context) {
	if err := c.service.Delete(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param(c.param)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Counts godoc
// @Summary Count recipes per taxonomy row
// @Description Rows with the number of recipes matching the other filters
// @Tags taxonomy
// @Produce json
// @Success 200 {object} Results[models.TaxonomyCount]
// @Router /api/v1/course-count [get]
func (c *TaxonomyController[T]) Counts(ctx *gin.Context) {
	filter, err := services.ParseRecipeFilter(ctx.Request.URL.Query(), middleware.CurrentActor(ctx))
	if errors.Is(err, services.ErrInvalidFilter) {
		ctx.JSON(http.StatusOK, Results[models.TaxonomyCount]{Results: []models.TaxonomyCount{}})
		return
	}

	counts, err := c.service.Counts(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if counts == nil {
		counts = []models.TaxonomyCount{}
	}
	ctx.JSON(http.StatusOK, Results[models.TaxonomyCount]{Results: counts})
}
