package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"travelnest/internal/models"
	"travelnest/internal/services"
	"travelnest/internal/sessions"
)

type VerifyHandler struct {
	userService services.UserService
	sessions    *sessions.Manager
}

func NewVerifyHandler(userService services.UserService, sess *sessions.Manager) *VerifyHandler {
	return &VerifyHandler{userService: userService, sessions: sess}
}

// @Summary      Confirm an email with a one-time code
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyEmailRequest  true  "Email and code"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /verify-email [post]
func (h *VerifyHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.VerificationCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Email and verification code are required",
		})
		return
	}

	user, err := h.userService.VerifyEmail(req.Email, req.VerificationCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User not found"})
		case errors.Is(err, services.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already verified"})
		case errors.Is(err, services.ErrCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid verification code"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Verification code has expired"})
		default:
			log.Printf("[verify][email] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "An error occurred during verification",
			})
		}
		return
	}

	// подтверждение засчитано — сразу логиним
	if err := h.sessions.Login(c, user.ID); err != nil {
		log.Printf("[verify][email] auto-login failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "auto-login failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified and Logged in successful",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// @Summary      Resend the verification code
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResendCodeRequest  true  "Email"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /resend-code [post]
func (h *VerifyHandler) ResendCode(c *gin.Context) {
	var req models.ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Email is required",
		})
		return
	}

	if err := h.userService.ResendCode(req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		case errors.Is(err, services.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already verified"})
		default:
			log.Printf("[verify][resend] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "An error occurred while resending the code",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "New verification code sent successfully",
	})
}
