package app

import (
	"database/sql"
	"fmt"
	"log"

	"travelnest/internal/config"
	"travelnest/internal/handlers"
	"travelnest/internal/middleware"
	"travelnest/internal/oauthx"
	"travelnest/internal/repositories"
	"travelnest/internal/routes"
	"travelnest/internal/services"
	"travelnest/internal/sessions"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "travelnest/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	otp := services.NewOTPGenerator(0) // TTL по умолчанию — 1 час
	userService := services.NewUserService(userRepo, emailService, authService, otp, cfg.VerificationRequired())

	localStrategy := services.NewLocalStrategy(userRepo, authService)
	googleStrategy := services.NewGoogleStrategy(userRepo)

	// === Sessions ===
	sess := sessions.NewManager(cfg.SessionLifetime(), cfg.Session.CookieSecure)

	// === Rate limiting: только /sign-up ===
	signupLimiter := middleware.NewRateLimiter(
		cfg.Signup.RateLimit.Max,
		cfg.SignupWindow(),
		"Too many signup attempts. Please try again later.",
	)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(localStrategy, userService, sess)
	userHandler := handlers.NewUserHandler(userService, sess)
	verifyHandler := handlers.NewVerifyHandler(userService, sess)
	healthHandler := handlers.NewHealthHandler()

	var oauthHandler *handlers.OAuthHandler
	if cfg.OAuth.Google.ClientID != "" {
		googleClient := oauthx.NewGoogleClient(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.CallbackURL,
		)
		oauthHandler = handlers.NewOAuthHandler(googleClient, googleStrategy, sess, cfg.Server.ClientOrigin)
	} else {
		log.Printf("[app] Google OAuth не сконфигурирован, /auth/google отключён")
	}

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.ClientOrigin))
	router.Use(sess.LoadAndSave())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		sess,
		signupLimiter,
		authHandler,
		userHandler,
		verifyHandler,
		oauthHandler,
		healthHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

// Сессионная cookie ходит кросс-доменно, поэтому origin конкретный
// и credentials разрешены (с "*" браузер cookie не отправит).
func corsMiddleware(clientOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", clientOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
