package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// Page is the paginated list response
type Page[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

// Results wraps aggregate responses that are not paginated
type Results[T any] struct {
	Results []T `json:"results"`
}

// respondError maps service errors onto HTTP responses
func respondError(ctx *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Invalid input.", verr.Details()))
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Not found."))
	case errors.Is(err, services.ErrForbidden):
		if middleware.CurrentActor(ctx) == nil {
			ctx.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Authentication credentials were not provided."))
			return
		}
		ctx.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "You do not have permission to perform this action."))
	case errors.Is(err, services.ErrConflict):
		ctx.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, err.Error()))
	default:
		log.WithError(err).WithField("path", ctx.FullPath()).Error("Request failed")
		ctx.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Internal server error."))
	}
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}

// decodeJSON reads the request body into v
func decodeJSON(ctx *gin.Context, v interface{}) bool {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		badRequest(ctx, "Could not read request body.")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		badRequest(ctx, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// decodePayload reads a JSON object body as a loosely typed payload
func decodePayload(ctx *gin.Context) (services.Payload, bool) {
	var payload services.Payload
	if !decodeJSON(ctx, &payload) {
		return nil, false
	}
	if payload == nil {
		badRequest(ctx, "Invalid data. Expected a dictionary.")
		return nil, false
	}
	return payload, true
}

// idParam parses a numeric path parameter
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(ctx, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}

// uintQuery parses an optional numeric query parameter
func uintQuery(ctx *gin.Context, name string) (*uint, bool) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(ctx, "Invalid "+name+" format")
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// boolQuery parses an optional boolean query parameter
func boolQuery(ctx *gin.Context, name string) (*bool, bool) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(ctx, "Invalid "+name+" value")
		return nil, false
	}
	return &v, true
}

// pagination reads limit and offset, clamped to sane bounds
func pagination(ctx *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err = strconv.Atoi(ctx.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
