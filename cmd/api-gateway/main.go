package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eduforma/turmas-api/api/swagger"
	"github.com/eduforma/turmas-api/internal/handler"
	"github.com/eduforma/turmas-api/internal/middleware"
	"github.com/eduforma/turmas-api/internal/models"
	"github.com/eduforma/turmas-api/internal/repository"
	"github.com/eduforma/turmas-api/internal/service"
	"github.com/eduforma/turmas-api/pkg/cache"
	"github.com/eduforma/turmas-api/pkg/config"
	"github.com/eduforma/turmas-api/pkg/database"
	"github.com/eduforma/turmas-api/pkg/jobs"
	"github.com/eduforma/turmas-api/pkg/logger"
	corsmiddleware "github.com/eduforma/turmas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eduforma/turmas-api/pkg/middleware/requestid"
	"github.com/eduforma/turmas-api/pkg/storage"
)

// @title Turmas API
// @version 1.0.0
// @description Class enrollment and attendance management API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	campusRepo := repository.NewCampusRepository(db)
	speakerRepo := repository.NewSpeakerRepository(db)
	turmaRepo := repository.NewTurmaRepository(db)
	inscricaoRepo := repository.NewInscricaoRepository(db)
	presencaRepo := repository.NewPresencaRepository(db)
	avaliacaoRepo := repository.NewAvaliacaoRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "turmas-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	campusSvc := service.NewCampusService(campusRepo, logr)
	speakerSvc := service.NewSpeakerService(speakerRepo, validate, logr)
	turmaSvc := service.NewTurmaService(
		turmaRepo, speakerRepo, inscricaoRepo, presencaRepo, avaliacaoRepo,
		cacheRepo, userRepo, metricsSvc, validate, logr,
		service.TurmaConfig{
			AvailableCacheTTL: cfg.Turmas.AvailableCacheTTL,
			DefaultCapacity:   cfg.Turmas.DefaultCapacity,
		})
	enrollmentSvc := service.NewEnrollmentService(inscricaoRepo, turmaSvc, userRepo, metricsSvc, logr)
	attendanceSvc := service.NewAttendanceService(presencaRepo, turmaRepo, inscricaoRepo, userRepo, validate, logr)
	evaluationSvc := service.NewEvaluationService(avaliacaoRepo, presencaRepo, turmaRepo, validate, logr)
	reportSvc := service.NewReportService(
		turmaRepo, inscricaoRepo, presencaRepo, avaliacaoRepo,
		reportStore, signer, metricsSvc, logr, cfg.APIPrefix)
	dashboardSvc := service.NewDashboardService(
		turmaRepo, inscricaoRepo, presencaRepo, avaliacaoRepo,
		cacheRepo, metricsSvc, logr, cfg.Dashboard.CacheTTL)
	uploadSvc := service.NewUploadService(uploadStore, logr, service.UploadConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})

	reportQueue := jobs.NewQueue("reports", reportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)
	reportQueue.Start(context.Background())
	defer reportQueue.Stop()

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	campusHandler := handler.NewCampusHandler(campusSvc)
	speakerHandler := handler.NewSpeakerHandler(speakerSvc)
	turmaHandler := handler.NewTurmaHandler(turmaSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	gestor := string(models.RoleGestor)
	professor := string(models.RoleProfessor)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
			auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		}

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			users := protected.Group("/users")
			{
				users.GET("", middleware.RBAC(gestor), userHandler.List)
				users.GET("/:id", middleware.RBAC(gestor, "SELF"), userHandler.Get)
				users.POST("", middleware.RBAC(gestor), middleware.Audit(userRepo, models.AuditActionUserCreate, "users"), userHandler.Create)
				users.PUT("/:id", middleware.RBAC(gestor), middleware.Audit(userRepo, models.AuditActionUserUpdate, "users"), userHandler.Update)
			}

			campuses := protected.Group("/campuses")
			{
				campuses.GET("", campusHandler.List)
				campuses.GET("/:id", campusHandler.Get)
				campuses.POST("", middleware.RBAC(gestor), campusHandler.Create)
				campuses.PUT("/:id", middleware.RBAC(gestor), campusHandler.Update)
				campuses.DELETE("/:id", middleware.RBAC(gestor), campusHandler.Delete)
			}

			speakers := protected.Group("/speakers")
			{
				speakers.GET("", speakerHandler.List)
				speakers.GET("/:id", speakerHandler.Get)
				speakers.POST("", middleware.RBAC(gestor), speakerHandler.Create)
				speakers.PUT("/:id", middleware.RBAC(gestor), speakerHandler.Update)
				speakers.DELETE("/:id", middleware.RBAC(gestor), speakerHandler.Delete)
			}

			turmas := protected.Group("/turmas")
			{
				turmas.GET("", turmaHandler.List)
				turmas.GET("/disponiveis", turmaHandler.ListAvailable)
				turmas.GET("/:id", turmaHandler.Get)
				turmas.POST("", middleware.RBAC(gestor), turmaHandler.Create)
				turmas.PUT("/:id", middleware.RBAC(gestor), turmaHandler.Update)
				turmas.PATCH("/:id/status", middleware.RBAC(gestor), turmaHandler.UpdateStatus)
				turmas.DELETE("/:id", middleware.RBAC(gestor), turmaHandler.Delete)

				turmas.POST("/:id/speakers/:speakerId", middleware.RBAC(gestor), speakerHandler.Attach)
				turmas.DELETE("/:id/speakers/:speakerId", middleware.RBAC(gestor), speakerHandler.Detach)

				turmas.POST("/:id/inscricoes", middleware.RBAC(gestor, professor), enrollmentHandler.Enroll)
				turmas.GET("/:id/inscricoes", middleware.RBAC(gestor), enrollmentHandler.ListByTurma)

				turmas.POST("/:id/presencas", middleware.RBAC(gestor), attendanceHandler.Mark)
				turmas.GET("/:id/presencas", middleware.RBAC(gestor), attendanceHandler.ListByTurma)

				turmas.POST("/:id/avaliacoes", evaluationHandler.Submit)
				turmas.GET("/:id/avaliacoes", middleware.RBAC(gestor), evaluationHandler.ListByTurma)
				turmas.GET("/:id/avaliacoes/eligibility", evaluationHandler.Eligibility)

				turmas.POST("/:id/reports", middleware.RBAC(gestor), reportHandler.Request)
			}

			protected.DELETE("/inscricoes/:id", enrollmentHandler.Cancel)
			protected.GET("/me/inscricoes", enrollmentHandler.ListMine)
			protected.GET("/me/presencas", attendanceHandler.ListMine)

			protected.GET("/reports/:id", middleware.RequireGestor(), reportHandler.Status)
			protected.GET("/dashboard", middleware.RequireGestor(), dashboardHandler.Summary)
			protected.POST("/uploads", middleware.RequireGestor(), uploadHandler.Upload)
		}

		// Download validates its own signed token; no JWT so links work
		// when opened straight from email or the browser.
		api.GET("/reports/download", reportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
