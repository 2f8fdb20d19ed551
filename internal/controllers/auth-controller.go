package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the username and password token request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type AuthController struct {
	userService services.UserService
	tokens      *auth.TokenIssuer
}

func NewAuthController(userService services.UserService, tokens *auth.TokenIssuer) *AuthController {
	return &AuthController{
		userService: userService,
		tokens:      tokens,
	}
}

// Register godoc
// @Summary Register a user
// @Tags accounts
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} models.APIError
// @Router /api/v1/accounts/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var in services.RegisterInput
	if !decodeJSON(c, &in) {
		return
	}

	user, err := ac.userService.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Token godoc
// @Summary Obtain a token pair
// @Description Exchange a username and password for an access and a refresh token
// @Tags accounts
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} auth.TokenPair
// @Failure 401 {object} models.OAuth2Error
// @Router /api/v1/accounts/token [post]
func (ac *AuthController) Token(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	user, err := ac.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidGrant,
			"No active account found with the given credentials"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := ac.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh godoc
// @Summary Refresh an access token
// @Tags accounts
// @Accept json
// @Produce json
// @Param token body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.OAuth2Error
// @Router /api/v1/accounts/token/refresh [post]
func (ac *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	access, err := ac.tokens.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		ac.tokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Revoke godoc
// @Summary Revoke a refresh token
// @Tags accounts
// @Accept json
// @Param token body RefreshRequest true "Refresh token"
// @Success 205
// @Failure 401 {object} models.OAuth2Error
// @Router /api/v1/accounts/token/revoke [post]
func (ac *AuthController) Revoke(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	if err := ac.tokens.Revoke(c.Request.Context(), req.Refresh); err != nil {
		ac.tokenError(c, err)
		return
	}
	c.Status(http.StatusResetContent)
}

func (ac *AuthController) tokenError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrInvalidToken) {
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error("invalid_token", err.Error()))
		return
	}
	respondError(c, err)
}

// CurrentUser godoc
// @Summary Current user
// @Tags accounts
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/v1/accounts/user [get]
func (ac *AuthController) CurrentUser(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		respondError(c, services.ErrForbidden)
		return
	}
	user, err := ac.userService.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
