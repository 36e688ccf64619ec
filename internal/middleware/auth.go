package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelnest/internal/sessions"
)

// RequireAuth закрывает эндпоинты, требующие живой сессии.
// Отсутствие сессии — штатный 401, не ошибка сервера.
func RequireAuth(sess *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sess.UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "User isn't authenticated",
			})
			return
		}
		c.Next()
	}
}
