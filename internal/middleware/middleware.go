package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Context keys set from a verified access token
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextUsername = "username"
	ContextClientID = "clientID"
	ContextScopes   = "scopes"
)

var errNoToken = errors.New("no bearer token")

// allowedRoles are the roles an access token may carry
var allowedRoles = map[string]bool{
	models.RoleUser:  true,
	models.RoleStaff: true,
	models.RoleAdmin: true,
}

// OAuth2Auth requires a valid bearer access token. Tokens are the HS256 JWTs
// issued either by the account endpoints or by the client credentials grant.
func OAuth2Auth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, jwtSecret)
		if errors.Is(err, errNoToken) {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
				"Missing Authorization header. A valid Bearer token is required.")
			return
		}
		if err != nil {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a bearer token is present and lets
// anonymous requests through. A present but invalid token is still rejected.
func OptionalAuth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, jwtSecret)
		if errors.Is(err, errNoToken) {
			c.Next()
			return
		}
		if err != nil {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// authenticate extracts the bearer token (RFC 6750) and validates it as an
// access token
func authenticate(c *gin.Context, jwtSecret []byte) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errNoToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, errors.New("Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return nil, errors.New("Bearer token is empty")
	}

	claims, err := auth.ParseToken(tokenString, jwtSecret)
	if err != nil {
		log.WithError(err).Debug("Rejected bearer token")
		return nil, err
	}
	if claims.Type == auth.TokenTypeRefresh {
		return nil, errors.New("refresh tokens cannot be used for API access")
	}
	if !allowedRoles[claims.Role] {
		return nil, fmt.Errorf("invalid role '%s'. Allowed roles: user, staff, admin", claims.Role)
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
	if claims.Username != "" {
		c.Set(ContextUsername, claims.Username)
	}
	if len(claims.Audience) > 0 {
		c.Set(ContextClientID, claims.Audience[0])
	}
	if claims.Scope != "" {
		c.Set(ContextScopes, claims.Scope)
	}
}

// CurrentActor returns the caller identified by the auth middleware, or nil
// for anonymous requests
func CurrentActor(c *gin.Context) *services.Actor {
	userID := c.GetUint(ContextUserID)
	if userID == 0 {
		return nil
	}
	return &services.Actor{UserID: userID, Role: c.GetString(ContextUserRole)}
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.AbortWithStatusJSON(status, models.NewOAuth2Error(errorCode, description))
}
