// Package router wires services and controllers into the gin engine.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/controllers"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Dependencies are the shared resources the routes are built on. Redis is
// optional; without it requests are not rate limited.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Store  storage.Store
	Redis  *redis.Client
}

// New builds the engine with every API route registered
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	setupRoutes(router, deps)
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func setupRoutes(router *gin.Engine, deps Dependencies) {
	cfg, db := deps.Config, deps.DB
	secret := []byte(cfg.JWTSecret)

	photoService := services.NewPhotoService(db, deps.Store, cfg.RecipeImageQuality, cfg.DeleteOrphanFiles)
	recipeController := controllers.NewRecipeController(services.NewRecipeService(db, photoService), photoService)
	ratingController := controllers.NewRatingController(services.NewRatingService(db))
	courseController := controllers.NewTaxonomyController(services.NewCourseService(db), "slug")
	cuisineController := controllers.NewTaxonomyController(services.NewCuisineService(db), "slug")
	seasonController := controllers.NewTaxonomyController(services.NewSeasonService(db), "slug")
	tagController := controllers.NewTaxonomyController(services.NewTagService(db), "title")
	menuController := controllers.NewMenuController(services.NewMenuService(db, cfg.MenuPlanGlobal))
	groceryController := controllers.NewGroceryController(services.NewGroceryService(db))
	authController := controllers.NewAuthController(services.NewUserService(db),
		auth.NewTokenIssuer(db, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
	clientController := controllers.NewClientController(services.NewClientService(db))
	oauthService := auth.NewOAuthService(db, cfg.JWTSecret, cfg.AccessTokenTTL)

	var limiter *middleware.RateLimiter
	if deps.Redis != nil {
		limiter = middleware.NewWriteRateLimiter(deps.Redis, cfg.RateLimitPerMinute)
	}

	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.POST("/oauth/token", limiter.Middleware(), oauthService.HandleToken)

	if local, ok := deps.Store.(*storage.LocalStore); ok {
		router.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Root())
	}

	v1 := router.Group("/api/v1")
	{
		accounts := v1.Group("/accounts", limiter.Middleware())
		{
			accounts.POST("/register", authController.Register)
			accounts.POST("/token", authController.Token)
			accounts.POST("/token/refresh", authController.Refresh)
			accounts.POST("/token/revoke", authController.Revoke)
			accounts.GET("/user", middleware.OAuth2Auth(secret), authController.CurrentUser)
		}

		// Reads identify the caller when a token is sent
		public := v1.Group("", middleware.OptionalAuth(secret))
		{
			public.GET("/recipes", recipeController.ListRecipes)
			public.GET("/recipes/mini-browse", recipeController.MiniBrowse)
			public.GET("/recipes/:slug", recipeController.GetRecipe)

			public.GET("/ratings", ratingController.ListRatings)
			public.GET("/ratings/:id", ratingController.GetRating)
			public.GET("/rating-count", ratingController.RatingCounts)

			public.GET("/courses", courseController.List)
			public.GET("/courses/:slug", courseController.Get)
			public.GET("/course-count", courseController.Counts)
			public.GET("/cuisines", cuisineController.List)
			public.GET("/cuisines/:slug", cuisineController.Get)
			public.GET("/cuisine-count", cuisineController.Counts)
			public.GET("/seasons", seasonController.List)
			public.GET("/seasons/:slug", seasonController.Get)
			public.GET("/season-count", seasonController.Counts)
			public.GET("/tags", tagController.List)
			public.GET("/tags/:title", tagController.Get)
			public.GET("/tag-count", tagController.Counts)

			public.GET("/menu/items", menuController.ListItems)
		}

		protected := v1.Group("", middleware.OAuth2Auth(secret), limiter.Middleware())
		{
			protected.POST("/recipes", recipeController.CreateRecipe)
			protected.PUT("/recipes/:slug", recipeController.UpdateRecipe)
			protected.PATCH("/recipes/:slug", recipeController.PatchRecipe)
			protected.DELETE("/recipes/:slug", recipeController.DeleteRecipe)
			protected.PUT("/recipes/:slug/photo", recipeController.UploadPhoto)

			protected.POST("/ratings", ratingController.CreateRating)
			protected.PUT("/ratings/:id", ratingController.UpdateRating)
			protected.PATCH("/ratings/:id", ratingController.PatchRating)
			protected.DELETE("/ratings/:id", ratingController.DeleteRating)

			protected.POST("/courses", courseController.Create)
			protected.PUT("/courses/:slug", courseController.Update)
			protected.DELETE("/courses/:slug", courseController.Delete)
			protected.POST("/cuisines", cuisineController.Create)
			protected.PUT("/cuisines/:slug", cuisineController.Update)
			protected.DELETE("/cuisines/:slug", cuisineController.Delete)

			staff := protected.Group("", middleware.RequireStaff())
			{
				staff.POST("/seasons", seasonController.Create)
				staff.PUT("/seasons/:slug", seasonController.Update)
				staff.DELETE("/seasons/:slug", seasonController.Delete)
				staff.POST("/tags", tagController.Create)
				staff.PUT("/tags/:title", tagController.Update)
				staff.DELETE("/tags/:title", tagController.Delete)
			}

			protected.GET("/menu/items/:id", menuController.GetItem)
			protected.POST("/menu/items", menuController.CreateItem)
			protected.PUT("/menu/items/:id", menuController.UpdateItem)
			protected.PATCH("/menu/items/:id", menuController.UpdateItem)
			protected.DELETE("/menu/items/:id", menuController.DeleteItem)
			protected.GET("/menu/stats", menuController.Stats)

			protected.GET("/grocery/lists", groceryController.ListLists)
			protected.POST("/grocery/lists", groceryController.CreateList)
			protected.GET("/grocery/lists/:slug", groceryController.GetList)
			protected.PUT("/grocery/lists/:slug", groceryController.UpdateList)
			protected.DELETE("/grocery/lists/:slug", groceryController.DeleteList)
			protected.POST("/grocery/lists/:slug/share", groceryController.ShareList)
			protected.DELETE("/grocery/lists/:slug/share", groceryController.UnshareList)
			protected.GET("/grocery/items", groceryController.ListItems)
			protected.POST("/grocery/items", groceryController.CreateItem)
			protected.PUT("/grocery/items/bulk", groceryController.BulkUpdateItems)
			protected.GET("/grocery/items/:id", groceryController.GetItem)
			protected.PUT("/grocery/items/:id", groceryController.UpdateItem)
			protected.DELETE("/grocery/items/:id", groceryController.DeleteItem)

			protected.GET("/clients", clientController.ListClients)
			protected.POST("/clients", clientController.CreateClient)
			protected.DELETE("/clients/:id", clientController.DeleteClient)
		}
	}
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-recipe-api",
	})
}
