package app

import (
	"corplearn_backend/internal/config"
	"corplearn_backend/internal/middleware"
	"corplearn_backend/internal/model"
	"corplearn_backend/pkg/monitoring"
	"corplearn_backend/pkg/security"
	"corplearn_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/courses/:courseId/enroll", c.enrollment.Enroll)

		enrollments := authGroup.Group("/enrollments/:id")
		{
			enrollments.GET("", c.enrollment.Get)
			enrollments.GET("/session", c.learning.GetSession)
			enrollments.POST("/advance", c.learning.Advance)
			enrollments.POST("/retreat", c.learning.Retreat)
			enrollments.POST("/items/:itemId/events", c.learning.ItemEvent)
			enrollments.POST("/items/:itemId/signature", c.survey.Signature)
			enrollments.POST("/items/:itemId/survey", c.survey.Submit)

			quiz := enrollments.Group("/quiz/:itemId")
			{
				quiz.GET("", c.quiz.Get)
				quiz.POST("/answer", c.quiz.Answer)
				quiz.POST("/next", c.quiz.Next)
				quiz.POST("/previous", c.quiz.Previous)
				quiz.POST("/finish", c.quiz.Finish)
				quiz.POST("/repeat", c.quiz.Repeat)
			}

			scorm := enrollments.Group("/scorm/:itemId")
			{
				scorm.GET("/value/:key", c.scorm.GetValue)
				scorm.PUT("/value/:key", c.scorm.SetValue)
				scorm.POST("/commit", c.scorm.Commit)
			}
		}

		admin := authGroup.Group("")
		admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
		{
			admin.POST("/enrollments/:id/reset", c.enrollment.Reset)
		}
	}
}
