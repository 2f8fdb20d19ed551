package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the authenticated user holds one
// of the given roles. It must run after OAuth2Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "Authentication credentials were not provided."))
			return
		}

		role := c.GetString(ContextUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden,
			"You do not have permission to perform this action.",
			map[string]interface{}{"required_roles": roles, "user_role": role}))
	}
}

// RequireStaff allows staff and admin users
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.StaffRoles...)
}
