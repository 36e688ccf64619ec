package routes

import (
	"github.com/gin-gonic/gin"

	"travelnest/internal/handlers"
	"travelnest/internal/middleware"
	"travelnest/internal/sessions"
)

func SetupRoutes(
	r *gin.Engine,
	sess *sessions.Manager,
	signupLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	verifyHandler *handlers.VerifyHandler,
	oauthHandler *handlers.OAuthHandler, // nil, если Google OAuth не сконфигурирован
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	// ---- public
	r.GET("/get-hello", healthHandler.GetHello)
	r.POST("/sign-up", signupLimiter.Middleware(), userHandler.SignUp)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/auth", authHandler.Auth)
	r.POST("/verify-email", verifyHandler.VerifyEmail)
	r.POST("/resend-code", verifyHandler.ResendCode)

	if oauthHandler != nil {
		r.GET("/auth/google", oauthHandler.GoogleLogin)
		r.GET("/auth/google/callback", oauthHandler.GoogleCallback)
	}

	// ---- protected
	authed := r.Group("/", middleware.RequireAuth(sess))
	{
		authed.GET("/get-profile", authHandler.GetProfile)
	}

	return r
}
