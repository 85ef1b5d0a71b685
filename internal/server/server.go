package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/strideapp/stride-server/internal/config"
	"github.com/strideapp/stride-server/internal/handler"
	"github.com/strideapp/stride-server/internal/middleware"
	"github.com/strideapp/stride-server/internal/repository"
	"github.com/strideapp/stride-server/internal/service"
	"github.com/strideapp/stride-server/internal/timeutil"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	clock := timeutil.SystemClock()
	locker := service.NewUserLocker(redisClient)

	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	milestoneSvc := service.NewMilestoneService(milestoneRepo, notificationSvc, clock)
	milestoneHandler := handler.NewMilestoneHandler(milestoneSvc)

	streakSvc := service.NewStreakService(streakRepo, activityRepo, userRepo, milestoneSvc, locker, redisClient, clock, cfg.DefaultTimezone)
	streakHandler := handler.NewStreakHandler(streakSvc)
	activityHandler := handler.NewActivityHandler(streakSvc)

	authSvc := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/activities", activityHandler.LogActivity)

		protected.GET("/streak", streakHandler.GetStatus)
		protected.POST("/streak/reprocess", streakHandler.Reprocess)
		protected.PUT("/streak/timezone", streakHandler.UpdateTimezone)

		protected.GET("/milestones", milestoneHandler.GetProgress)
		protected.POST("/milestones/:id/claim", milestoneHandler.ClaimReward)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
