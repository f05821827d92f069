package middleware

import (
	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// InjectUser кладёт в контекст gin пользователя из сессии, если он ещё существует
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 && database.DB != nil {
			var user models.User
			if err := database.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil {
				c.Set("CurrentUser", user)
			}
		}

		c.Next()
	}
}
