package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"travelnest/internal/oauthx"
	"travelnest/internal/services"
	"travelnest/internal/sessions"
	"travelnest/internal/utils"
)

const oauthStateCookie = "oauthstate"

type OAuthHandler struct {
	google       *oauthx.GoogleClient
	strategy     services.AuthStrategy
	sessions     *sessions.Manager
	clientOrigin string // куда возвращаем браузер после handshake
}

func NewOAuthHandler(google *oauthx.GoogleClient, strategy services.AuthStrategy, sess *sessions.Manager, clientOrigin string) *OAuthHandler {
	return &OAuthHandler{
		google:       google,
		strategy:     strategy,
		sessions:     sess,
		clientOrigin: clientOrigin,
	}
}

// @Summary      Start the Google OAuth handshake
// @Tags         Auth
// @Success      302
// @Router       /auth/google [get]
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	state, err := utils.NewStateToken(16)
	if err != nil {
		log.Printf("[oauth][google] state token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to start authentication"})
		return
	}

	// state живёт только на время handshake
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// @Summary      Google OAuth callback
// @Tags         Auth
// @Success      302
// @Router       /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		log.Printf("[oauth][google] state mismatch")
		h.failAnonymous(c)
		return
	}
	// state одноразовый
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		// пользователь отказал на consent-экране
		h.failAnonymous(c)
		return
	}

	token, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("[oauth][google] exchange failed: %v", err)
		h.failAnonymous(c)
		return
	}

	profile, err := h.google.FetchProfile(c.Request.Context(), token)
	if err != nil {
		log.Printf("[oauth][google] userinfo failed: %v", err)
		h.failAnonymous(c)
		return
	}

	user, err := h.strategy.Authenticate(services.Credentials{
		Provider: "google",
		Subject:  profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
	})
	if err != nil {
		log.Printf("[oauth][google] account mapping failed: %v", err)
		h.failAnonymous(c)
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		log.Printf("[oauth][google] session create failed for userID=%d: %v", user.ID, err)
		h.failAnonymous(c)
		return
	}

	log.Printf("[oauth][google] success userID=%d", user.ID)
	c.Redirect(http.StatusFound, h.clientOrigin)
}

// failAnonymous — при любой неудаче сессии нет, браузер уводим в анонимное состояние.
func (h *OAuthHandler) failAnonymous(c *gin.Context) {
	c.Redirect(http.StatusFound, h.clientOrigin+"/login?auth=failed")
}
