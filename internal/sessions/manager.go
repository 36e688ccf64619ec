// Package sessions оборачивает alexedwards/scs: серверные сессии с
// opaque-токеном в HTTP-only cookie. Хендлеры получают менеджер явно,
// а не через глобальное состояние запроса.
package sessions

import (
	"log"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// Имя cookie зафиксировано контрактом с клиентом.
const CookieName = "connect.sid"

const userIDKey = "userID"

type Manager struct {
	scs *scs.SessionManager
}

func NewManager(lifetime time.Duration, secureCookie bool) *Manager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secureCookie
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return &Manager{scs: sm}
}

// LoadAndSave — gin-адаптер: поднимает данные сессии по cookie до хендлеров.
// Коммитом занимаются Login/Logout, поэтому анонимные запросы cookie не получают.
func (m *Manager) LoadAndSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(m.scs.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := m.scs.Load(c.Request.Context(), token)
		if err != nil {
			log.Printf("[session][load] %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Session error",
			})
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Add("Vary", "Cookie")
		c.Next()
	}
}

// Login привязывает аккаунт к новой сессии и сразу пишет cookie.
// Токен обновляется, чтобы не переиспользовать пред-логиновый (fixation).
func (m *Manager) Login(c *gin.Context, userID int) error {
	ctx := c.Request.Context()
	if err := m.scs.RenewToken(ctx); err != nil {
		return err
	}
	m.scs.Put(ctx, userIDKey, userID)

	token, expiry, err := m.scs.Commit(ctx)
	if err != nil {
		return err
	}
	m.scs.WriteSessionCookie(ctx, c.Writer, token, expiry)
	return nil
}

// Logout уничтожает серверную запись и гасит cookie. Ошибка уничтожения
// отдаётся наверх — наполовину разлогиненного состояния не оставляем.
func (m *Manager) Logout(c *gin.Context) error {
	ctx := c.Request.Context()
	if err := m.scs.Destroy(ctx); err != nil {
		return err
	}
	m.scs.WriteSessionCookie(ctx, c.Writer, "", time.Time{})
	return nil
}

// UserID — идентификатор аккаунта из текущей сессии, если она есть.
func (m *Manager) UserID(c *gin.Context) (int, bool) {
	id := m.scs.GetInt(c.Request.Context(), userIDKey)
	return id, id != 0
}
