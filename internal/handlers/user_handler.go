package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"travelnest/internal/models"
	"travelnest/internal/services"
	"travelnest/internal/sessions"
)

// тот же паттерн, что проверяет клиент
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 8

type UserHandler struct {
	userService services.UserService
	sessions    *sessions.Manager
}

func NewUserHandler(userService services.UserService, sess *sessions.Manager) *UserHandler {
	return &UserHandler{userService: userService, sessions: sess}
}

// @Summary      Create an account
// @Description  Registers a new user. Depending on configuration the account is
// @Description  either active immediately or pending email verification.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignUpRequest  true  "New account"
// @Success      201     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]interface{}
// @Failure      409     {object}  map[string]interface{}
// @Failure      429     {object}  map[string]interface{}
// @Failure      500     {object}  map[string]interface{}
// @Router       /sign-up [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "All fields are required",
		})
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	password := req.Password

	if username == "" || email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "All fields are required",
		})
		return
	}
	if !emailRegex.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid email format",
		})
		return
	}
	// остальные требования к паролю (регистр/цифры/спецсимволы) проверяет клиент
	if len(password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Password must be at least 8 characters long",
		})
		return
	}

	user, err := h.userService.SignUp(username, email, password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Username already taken",
			})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Email already registered",
			})
		default:
			log.Printf("[user][signup] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "An error occurred during sign-up. Please try again later.",
			})
		}
		return
	}

	if h.userService.VerificationRequired() {
		// сессии пока нет: сперва подтверждение почты
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Verification code sent to your email",
			"email":   user.Email,
		})
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		log.Printf("[user][signup] login after signup failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to log in after signup",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Signup successful",
		"user":    user.Public(),
	})
}
