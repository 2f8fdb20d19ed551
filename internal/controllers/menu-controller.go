package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// MenuController handles HTTP requests related to the menu plan
type MenuController interface {
	ListItems(c *gin.Context)
	GetItem(c *gin.Context)
	CreateItem(c *gin.Context)
	UpdateItem(c *gin.Context)
	DeleteItem(c *gin.Context)
	// Stats reports how often each recipe was cooked
	Stats(c *gin.Context)
}

type menuController struct {
	service services.MenuService
}

func NewMenuController(service services.MenuService) MenuController {
	return &menuController{service: service}
}

// ListItems godoc
// @Summary List menu items
// @Description Menu items of the caller ordered by start date. Anonymous callers get an empty list.
// @Tags menu
// @Produce json
// @Param complete query bool false "Filter by completion"
// @Param recipe query int false "Filter by recipe ID"
// @Success 200 {array} models.MenuItem
// @Router /api/v1/menu/items [get]
func (c *menuController) ListItems(ctx *gin.Context) {
	complete, ok := boolQuery(ctx, "complete")
	if !ok {
		return
	}
	recipe, ok := uintQuery(ctx, "recipe")
	if !ok {
		return
	}

	items, err := c.service.List(ctx.Request.Context(), middleware.CurrentActor(ctx),
		services.MenuQuery{Complete: complete, Recipe: recipe})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	ctx.JSON(http.StatusOK, items)
}

// GetItem godoc
// @Summary Get menu item by ID
// @Tags menu
// @Produce json
// @Param id path int true "Menu item ID"
// @Success 200 {object} models.MenuItem
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/menu/items/{id} [get]
func (c *menuController) GetItem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.service.Get(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// CreateItem godoc
// @Summary Add a menu item
// @Tags menu
// @Accept json
// @Produce json
// @Param item body services.MenuItemInput true "Menu item"
// @Success 201 {object} models.MenuItem
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/menu/items [post]
func (c *menuController) CreateItem(ctx *gin.Context) {
	var in services.MenuItemInput
	if !decodeJSON(ctx, &in) {
		return
	}
	item, err := c.service.Create(ctx.Request.Context(), middleware.CurrentActor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update a menu item
// @Description Fields left out keep their value. Completing an item without a date stamps the current time.
// @Tags menu
// @Accept json
// @Produce json
// @Param id path int true "Menu item ID"
// @Param item body services.MenuItemInput true "Menu item"
// @Success 200 {object} models.MenuItem
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/menu/items/{id} [put]
func (c *menuController) UpdateItem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !decodeJSON(ctx, &in) {
		return
	}
	item, err := c.service.Update(ctx.Request.Context(), middleware.CurrentActor(ctx), id, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete a menu item
// @Tags menu
// @Param id path int true "Menu item ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/menu/items/{id} [delete]
func (c *menuController) DeleteItem(ctx *gin.Context) {
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

// Stats godoc
// @Summary Menu statistics
// @Description Completed menu items per recipe, most recently made first
// @Tags menu
// @Produce json
// @Success 200 {array} models.MenuStat
// @Security BearerAuth
// @Router /api/v1/menu/stats [get]
func (c *menuController) Stats(ctx *gin.Context) {
	stats, err := c.service.Stats(ctx.Request.Context(), middleware.CurrentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
