package middleware

import (
	"net/http"

	"repair-shop/internal/logger"
	"repair-shop/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		userID := sess.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		sess := sessions.Default(c)
		roleStr, ok := sess.Get("role").(string)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		role := models.UserRole(roleStr)

		if _, ok := roleSet[role]; !ok {
			logger.Warn(c.Request.Context(), "access denied",
				logger.String("role", roleStr),
				logger.String("path", c.Request.URL.Path),
			)
			c.String(http.StatusForbidden, "Недостаточно прав")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireEditor: изменять данные могут админ и мастер
func RequireEditor() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleMaster)
}
