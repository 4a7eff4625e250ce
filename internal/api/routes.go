package api

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Plans    service.PlanService
	Defaults service.DefaultsService
}

// NewRouter builds a gin engine with the standard middleware chain and all
// routes mounted.
func NewRouter(jwtSecret string, corsOrigins []string, services Services, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestLogger(logger.Named("http")))
	router.Use(cors.New(corsConfig(corsOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	SetupRoutes(router, jwtSecret, services, logger)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || lo.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	return cfg
}

func SetupRoutes(router *gin.Engine, jwtSecret string, services Services, logger *zap.Logger) {
	authHandler := NewAuthHandler(services.Auth, logger)
	planHandler := NewPlanHandler(services.Plans, logger)
	defaultsHandler := NewDefaultsHandler(services.Defaults, logger)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public; writes are checked against the admin password instead of a token.
		defaultsGroup := apiV1.Group("/defaults")
		{
			defaultsGroup.GET("/:kind", defaultsHandler.LoadDefaults)
			defaultsGroup.POST("/:kind", defaultsHandler.SaveDefaults)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		planGroup := protected.Group("/plans")
		planGroup.Use(RoleMiddleware(domain.RoleAthlete, domain.RoleCoach))
		{
			// GET/DELETE /api/v1/plans?type=CURRENT_WEEKS
			planGroup.GET("", planHandler.GetPlan)
			planGroup.DELETE("", planHandler.DeletePlan)

			planGroup.POST("/weeks", planHandler.AddWeek)
			planGroup.POST("/weeks/:weekId/days", planHandler.AddDay)
			planGroup.POST("/days/:dayId/workouts", planHandler.AddWorkout)

			planGroup.POST("/workouts/:workoutId/video-upload-url", planHandler.GetVideoUploadURL)
			planGroup.GET("/workouts/:workoutId/video-url", planHandler.GetVideoURL)
		}
	}
}
