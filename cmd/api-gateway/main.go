package main

import (
	"context"
	"errors"
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

	_ "github.com/Larrykj/School-App-sub001/api/swagger"
	"github.com/Larrykj/School-App-sub001/internal/handler"
	"github.com/Larrykj/School-App-sub001/internal/middleware"
	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/repository"
	"github.com/Larrykj/School-App-sub001/internal/service"
	"github.com/Larrykj/School-App-sub001/pkg/cache"
	"github.com/Larrykj/School-App-sub001/pkg/config"
	"github.com/Larrykj/School-App-sub001/pkg/database"
	"github.com/Larrykj/School-App-sub001/pkg/logger"
	corsmiddleware "github.com/Larrykj/School-App-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/Larrykj/School-App-sub001/pkg/middleware/requestid"
	"github.com/Larrykj/School-App-sub001/pkg/storage"
)

// @title Academic Records API
// @version 1.0.0
// @description Course registration, grading and transcript service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, transcript cache disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Transcripts.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	termRepo := repository.NewTermRepository(db)
	programRepo := repository.NewProgramRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	exportRepo := repository.NewExportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academic-records-api",
	})
	courseSvc := service.NewCourseService(courseRepo, termRepo, programRepo, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, courseRepo, gradeRepo, studentRepo, termRepo, metricsSvc, cfg.Registration.MaxRetries, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, courseRepo, registrationRepo, cacheSvc, validate, logr)
	transcriptSvc := service.NewTranscriptService(gradeRepo, studentRepo, cacheSvc, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, transcriptSvc, studentRepo, fileStore, signer, service.ExportConfig{
			APIPrefix:         cfg.APIPrefix,
			ResultTTL:         cfg.Exports.SignedURLTTL,
			WorkerConcurrency: cfg.Exports.WorkerConcurrency,
			WorkerRetries:     cfg.Exports.WorkerRetries,
		}, validate, logr)
		exportSvc.Start(rootCtx)
		defer exportSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	if exportSvc != nil {
		// Download auth is the signed token itself.
		api.GET("/transcripts/downloads/:token", middleware.OptionalJWT(authSvc), transcriptHandler.DownloadExport)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/courses", courseHandler.List)
	protected.GET("/courses/:id", courseHandler.Get)
	protected.GET("/terms", courseHandler.ListTerms)
	protected.GET("/terms/:id/offerings", courseHandler.ListOfferings)
	protected.GET("/offerings/:id", courseHandler.GetOffering)
	protected.GET("/programs/:id/requirements", courseHandler.ProgramRequirement)
	protected.GET("/offerings/:id/eligibility", registrationHandler.CheckEligibility)

	protected.POST("/registrations", registrationHandler.Register)
	protected.GET("/registrations", registrationHandler.List)
	protected.POST("/registrations/:id/approve",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin), registrationHandler.Approve)
	protected.POST("/registrations/:id/reject",
		middleware.RequireRoles(models.RoleRegistrar, models.RoleAdmin), registrationHandler.Reject)
	protected.POST("/registrations/:id/drop", registrationHandler.Drop)

	protected.POST("/grades",
		middleware.RequireRoles(models.RoleLecturer, models.RoleRegistrar, models.RoleAdmin), gradeHandler.SubmitMarks)
	protected.POST("/grades/absent",
		middleware.RequireRoles(models.RoleLecturer, models.RoleRegistrar, models.RoleAdmin), gradeHandler.MarkAbsent)
	studentScoped := middleware.RBAC(middleware.SelfRole,
		string(models.RoleLecturer), string(models.RoleRegistrar), string(models.RoleAdmin))
	protected.GET("/students/:studentId/grades", studentScoped, gradeHandler.History)
	protected.GET("/students/:studentId/grades/:offeringId", studentScoped, gradeHandler.Find)

	protected.GET("/students/:studentId/transcript", studentScoped, transcriptHandler.AcademicSummary)
	protected.GET("/students/:studentId/transcript/terms/:termId", studentScoped, transcriptHandler.SemesterSummary)
	if exportSvc != nil {
		protected.POST("/transcripts/exports", transcriptHandler.RequestExport)
		protected.GET("/transcripts/exports/:id", transcriptHandler.ExportStatus)
	}

	protected.GET("/system/metrics",
		middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
