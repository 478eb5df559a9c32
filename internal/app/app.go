package app

import (
	"context"
	"corplearn_backend/internal/config"
	"corplearn_backend/internal/controller"
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/repository"
	"corplearn_backend/internal/service"
	"corplearn_backend/pkg/database"
	"corplearn_backend/pkg/logger"
	"corplearn_backend/pkg/monitoring"
	"corplearn_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	course     *repository.CourseRepository
	enrollment *repository.EnrollmentRepository
	survey     *repository.SurveyRepository
	scorm      *repository.ScormRepository
	drafts     repository.DraftStore
}

type services struct {
	progression *service.ProgressionService
}

type controllers struct {
	enrollment *controller.EnrollmentController
	learning   *controller.LearningController
	quiz       *controller.QuizController
	scorm      *controller.ScormController
	survey     *controller.SurveyController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		course:     repository.NewCourseRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		survey:     repository.NewSurveyRepository(db),
		scorm:      repository.NewScormRepository(db),
		drafts:     repository.NewRedisDraftStore(rdb, time.Duration(cfg.Engine.DraftTTLHours)*time.Hour),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	progression := service.NewProgressionService(
		repos.course,
		repos.enrollment,
		repos.drafts,
		repos.scorm,
		repos.survey,
		cfg.Engine,
		logger.Log,
	)

	// The host hook: certificate issuance and any downstream notification hang
	// off this single callback.
	progression.SetCompletionCallback(func(e *model.Enrollment) {
		logger.Log.Info("course completed",
			zap.Uint("enrollment", e.ID),
			zap.Uint("user", e.UserID),
			zap.Uint("course", e.CourseID),
		)
	})

	return &services{progression: progression}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		enrollment: controller.NewEnrollmentController(s.progression),
		learning:   controller.NewLearningController(s.progression),
		quiz:       controller.NewQuizController(s.progression),
		scorm:      controller.NewScormController(s.progression),
		survey:     controller.NewSurveyController(s.progression),
		health:     controller.NewHealthController(db),
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	}
	return gin.DebugMode
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
