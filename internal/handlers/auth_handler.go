package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"travelnest/internal/models"
	"travelnest/internal/services"
	"travelnest/internal/sessions"
)

type AuthHandler struct {
	local       services.AuthStrategy
	userService services.UserService
	sessions    *sessions.Manager
}

func NewAuthHandler(local services.AuthStrategy, userService services.UserService, sess *sessions.Manager) *AuthHandler {
	return &AuthHandler{local: local, userService: userService, sessions: sess}
}

// @Summary      Login with username and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing credentials"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing credentials"})
		return
	}
	log.Printf("[auth][login] attempt username=%q", username)

	user, err := h.local.Authenticate(services.Credentials{
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// один и тот же ответ для "нет юзера" и "не тот пароль"
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
			return
		}
		log.Printf("[auth][login] strategy error for username=%q: err=%v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during login"})
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		log.Printf("[auth][login] session create failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to establish session"})
		return
	}

	log.Printf("[auth][login] success userID=%d took=%s", user.ID, time.Since(start).Truncate(time.Millisecond))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// @Summary      Destroy the current session
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		log.Printf("[auth][logout] session destroy failed: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to log out",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "You are logged out!",
	})
}

// @Summary      Current authentication state
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /auth [get]
func (h *AuthHandler) Auth(c *gin.Context) {
	userID, ok := h.sessions.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	// поля берём из хранилища: сессия хранит только id, и если аккаунта
	// уже нет — сессия недействительна
	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		log.Printf("[auth][whoami] lookup failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"isAuthenticated": false,
			"error":           "Internal server error",
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"id":              user.ID,
		"email":           user.Email,
		"username":        user.Username,
	})
}

// @Summary      Profile of the logged-in user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /get-profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := h.sessions.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User isn't authenticated"})
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		log.Printf("[auth][profile] lookup failed for userID=%d: err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching profile, server Error !"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"email":    user.Email,
	})
}
