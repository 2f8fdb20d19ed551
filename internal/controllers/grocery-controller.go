package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// GroceryListInput is the writable part of a grocery list
type GroceryListInput struct {
	Title string `json:"title"`
}

// ShareInput names the user a list is shared with
type ShareInput struct {
	Username string `json:"username"`
}

// GroceryController handles HTTP requests related to grocery lists and items
type GroceryController interface {
	ListLists(c *gin.Context)
	GetList(c *gin.Context)
	CreateList(c *gin.Context)
	UpdateList(c *gin.Context)
	DeleteList(c *gin.Context)
	ShareList(c *gin.Context)
	UnshareList(c *gin.Context)

	ListItems(c *gin.Context)
	GetItem(c *gin.Context)
	CreateItem(c *gin.Context)
	UpdateItem(c *gin.Context)
	BulkUpdateItems(c *gin.Context)
	DeleteItem(c *gin.Context)
}

type groceryController struct {
	service services.GroceryService
}

func NewGroceryController(service services.GroceryService) GroceryController {
	return &groceryController{service: service}
}

// ListLists godoc
// @Summary List grocery lists
// @Description Lists owned by or shared with the caller
// @Tags grocery
// @Produce json
// @Success 200 {array} models.GroceryList
// @Security BearerAuth
// @Router /api/v1/grocery/lists [get]
func (c *groceryController) ListLists(ctx *gin.Context) {
	lists, err := c.service.Lists(ctx.Request.Context(), middleware.CurrentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if lists == nil {
		lists = []models.GroceryList{}
	}
	ctx.JSON(http.StatusOK, lists)
}

// GetList godoc
// @Summary Get a grocery list
// @Tags grocery
// @Produce json
// @Param slug path string true "List slug"
// @Success 200 {object} models.GroceryList
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/grocery/lists/{slug} [get]
func (c *groceryController) GetList(ctx *gin.Context) {
	list, err := c.service.GetList(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param("slug"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// CreateList godoc
// @Summary Create a grocery list
// @Tags grocery
// @Accept json
// @Produce json
// @Param list body GroceryListInput true "List"
// @Success 201 {object} models.GroceryList
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/grocery/lists [post]
func (c *groceryController) CreateList(ctx *gin.Context) {
	var in GroceryListInput
	if !decodeJSON(ctx, &in) {
		return
	}
	list, err := c.service.CreateList(ctx.Request.Context(), middleware.CurrentActor(ctx), in.Title)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, list)
}

// UpdateList godoc
// @Summary Rename a grocery list
// @Tags grocery
// @Accept json
// @Produce json
// @Param slug path string true "List slug"
// @Param list body GroceryListInput true "List"
// @Success 200 {object} models.GroceryList
// @Security BearerAuth
// @Router /api/v1/grocery/lists/{slug} [put]
func (c *groceryController) UpdateList(ctx *gin.Context) {
	var in GroceryListInput
	if !decodeJSON(ctx, &in) {
		return
	}
	list, err := c.service.UpdateList(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param("slug"), in.Title)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// DeleteList godoc
// @Summary Delete a grocery list
// @Tags grocery
// @Param slug path string true "List slug"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/grocery/lists/{slug} [delete]
func (c *groceryController) DeleteList(ctx *gin.Context) {
	if err := c.service.DeleteList(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param("slug")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ShareList godoc
// @Summary Share a grocery list
// @Tags grocery
// @Accept json
// @Produce json
// @Param slug path string true "List slug"
// @Param share body ShareInput true "User to share with"
// @Success 201 {object} models.GroceryShared
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/grocery/lists/{slug}/share [post]
func (c *groceryController) ShareList(ctx *gin.Context) {
	var in ShareInput
	if !decodeJSON(ctx, &in) {
		return
	}
	shared, err := c.service.Share(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param("slug"), in.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, shared)
}

// UnshareList godoc
// @Summary Stop sharing a grocery list
// @Tags grocery
// @Accept json
// @Param slug path string true "List slug"
// @Param share body ShareInput true "User to remove"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/grocery/lists/{slug}/share [delete]
func (c *groceryController) UnshareList(ctx *gin.Context) {
	var in ShareInput
	if !decodeJSON(ctx, &in) {
		return
	}
	if err := c.service.Unshare(ctx.Request.Context(), middleware.CurrentActor(ctx), ctx.Param("slug"), in.Username); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListItems godoc
// @Summary List grocery items
// @Tags grocery
// @Produce json
// @Param list query int false "List ID"
// @Success 200 {array} models.GroceryItem
// @Security BearerAuth
// @Router /api/v1/grocery/items [get]
func (c *groceryController) ListItems(ctx *gin.Context) {
	listID, ok := uintQuery(ctx, "list")
	if !ok {
		return
	}
	items, err := c.service.Items(ctx.Request.Context(), middleware.CurrentActor(ctx), listID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if items == nil {
		items = []models.GroceryItem{}
	}
	ctx.JSON(http.StatusOK, items)
}

// GetItem godoc
// @Summary Get a grocery item
// @Tags grocery
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.GroceryItem
// @Security BearerAuth
// @Router /api/v1/grocery/items/{id} [get]
func (c *groceryController) GetItem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	item, err := c.service.GetItem(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// CreateItem godoc
// @Summary Add a grocery item
// @Tags grocery
// @Accept json
// @Produce json
// @Param item body services.GroceryItemInput true "Item"
// @Success 201 {object} models.GroceryItem
// @Security BearerAuth
// @Router /api/v1/grocery/items [post]
func (c *groceryController) CreateItem(ctx *gin.Context) {
	var in services.GroceryItemInput
	if !decodeJSON(ctx, &in) {
		return
	}
	item, err := c.service.CreateItem(ctx.Request.Context(), middleware.CurrentActor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update a grocery item
// @Tags grocery
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param item body services.GroceryItemInput true "Item"
// @Success 200 {object} models.GroceryItem
// @Security BearerAuth
// @Router /api/v1/grocery/items/{id} [put]
func (c *groceryController) UpdateItem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var in services.GroceryItemInput
	if !decodeJSON(ctx, &in) {
		return
	}
	item, err := c.service.UpdateItem(ctx.Request.Context(), middleware.CurrentActor(ctx), id, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// BulkUpdateItems godoc
// @Summary Update several grocery items
// @Description Every item must be accessible to the caller or nothing is written
// @Tags grocery
// @Accept json
// @Produce json
// @Param items body []services.GroceryItemInput true "Items with their IDs"
// @Success 200 {array} models.GroceryItem
// @Security BearerAuth
// @Router /api/v1/grocery/items/bulk [put]
func (c *groceryController) BulkUpdateItems(ctx *gin.Context) {
	var in []services.GroceryItemInput
	if !decodeJSON(ctx, &in) {
		return
	}
	items, err := c.service.BulkUpdate(ctx.Request.Context(), middleware.CurrentActor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// DeleteItem godoc
// @Summary Delete a grocery item
// @Tags grocery
// @Param id path int true "Item ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/grocery/items/{id} [delete]
func (c *groceryController) DeleteItem(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.service.DeleteItem(ctx.Request.Context(), middleware.CurrentActor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
