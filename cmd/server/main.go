package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httpAdapter "github.com/mlazarev/accounts-api/adapters/http"
	"github.com/mlazarev/accounts-api/adapters/persistence"
	usersUC "github.com/mlazarev/accounts-api/internal/application/usecase/users"
	"github.com/mlazarev/accounts-api/internal/config"
	"github.com/mlazarev/accounts-api/pkg/auth"
	"github.com/mlazarev/accounts-api/pkg/logger"
)

func main() {
	fmt.Println("Start Accounts API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool)

	// Services
	jwtSvc := auth.NewJWTService(
		cfg.Auth.SecretKey,
		time.Duration(cfg.Auth.AccessExpiresMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshExpiresDays)*24*time.Hour,
		appLogger,
	)
	usersService := usersUC.NewService(userRepo, appLogger, cfg.API.BatchSize)

	// HTTP Handlers
	authHandler := httpAdapter.NewAuthHandler(usersService, jwtSvc, appLogger)
	userHandler := httpAdapter.NewUserHandler(usersService, cfg.API.BatchSize, appLogger)

	// Middleware
	authMiddleware := httpAdapter.AuthMiddleware(jwtSvc)

	// Setup Gin router
	router := gin.Default()

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			authRoutes := v1.Group("/auth")
			{
				authRoutes.POST("/tokens", authHandler.Tokens)
				authRoutes.POST("/tokens/refresh", authHandler.TokensRefresh)
				authRoutes.POST("/tokens/access", authHandler.TokensAccess)
			}

			userRoutes := v1.Group("/users")
			userRoutes.Use(authMiddleware)
			{
				userRoutes.GET("/me", userHandler.Me)
				userRoutes.GET("", userHandler.List)
				userRoutes.POST("", userHandler.UpdateOrCreate)
			}
		}

		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
	}

	appLogger.Info("Server running on port " + cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Cannot run server: %v", err)
	}
}
