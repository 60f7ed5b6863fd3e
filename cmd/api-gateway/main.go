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
	"go.uber.org/zap"

	_ "github.com/hamidrezasoltanian/recruitment-dashboard/api/swagger"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/handler"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/middleware"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/repository"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/service"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/cache"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/config"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/database"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/jobs"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/logger"
	corsmiddleware "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/middleware/cors"
	reqidmiddleware "github.com/hamidrezasoltanian/recruitment-dashboard/pkg/middleware/requestid"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/storage"
)

// @title Recruitment Dashboard API
// @version 1.0.0
// @description Applicant tracking API: Kanban pipeline, stage-change workflow, notifications and exports
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories
	candidateRepo := repository.NewCandidateRepository(db)
	stageRepo := repository.NewStageRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	// File storage for resumes and test files
	fileStore, err := storage.NewLocalStorage(cfg.Files.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init file storage", "error", err)
	}

	// Services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "recruitment-dashboard",
		Audience:           []string{"recruitment-dashboard"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	stageSvc := service.NewStageService(stageRepo, candidateRepo, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, stageRepo, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, stageRepo, templateRepo, validate, logr)
	candidateSvc := service.NewCandidateService(candidateRepo, fileStore, validate, logr)
	stageChangeSvc := service.NewStageChangeService(candidateRepo, stageRepo, templateRepo, settingsRepo, metricsSvc, validate, logr)
	portalSvc := service.NewPortalService(candidateRepo, stageRepo, settingsRepo, validate, logr)

	var dashboardSvc *service.DashboardService
	if cfg.Dashboard.Enabled {
		dashboardSvc = service.NewDashboardService(candidateRepo, stageRepo, cacheSvc, metricsSvc, logr, service.DashboardServiceConfig{
			CacheTTL: cfg.Dashboard.CacheTTL,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(candidateRepo, stageRepo, exportStore, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			jobs.QueueConfig{
				Workers:    cfg.Exports.WorkerConcurrency,
				MaxRetries: cfg.Exports.WorkerRetries,
				Logger:     logr,
			}, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL, logr)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	stageHandler := handler.NewStageHandler(stageSvc, dashboardSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc, dashboardSvc)
	candidateHandler := handler.NewCandidateHandler(candidateSvc, stageChangeSvc, dashboardSvc, fileStore)
	portalHandler := handler.NewPortalHandler(portalSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleRecruiter, models.RoleViewer)
	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleRecruiter)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	if dashboardSvc != nil {
		authed.GET("/dashboard", anyRole, dashboardHandler.Summary)
	}
	authed.GET("/metrics/summary", adminOnly, metricsHandler.Snapshot)

	candidates := authed.Group("/candidates")
	candidates.GET("", anyRole, candidateHandler.List)
	candidates.GET("/:id", anyRole, candidateHandler.Get)
	candidates.POST("", writers, candidateHandler.Create)
	candidates.PUT("/:id", writers, candidateHandler.Update)
	candidates.DELETE("/:id", writers, candidateHandler.Delete)
	candidates.GET("/:id/stage-change/plan", writers, candidateHandler.PlanStageChange)
	candidates.POST("/:id/stage-change", writers, candidateHandler.ConfirmStageChange)
	candidates.POST("/:id/comments", writers, candidateHandler.AddComment)
	candidates.POST("/:id/tests", writers, candidateHandler.AssignTest)
	candidates.PUT("/:id/tests/:resultId", writers, candidateHandler.UpdateTestResult)
	candidates.POST("/:id/resume", writers, candidateHandler.UploadResume)
	candidates.GET("/:id/portal-token", writers, candidateHandler.PortalToken)

	stages := authed.Group("/stages")
	stages.GET("", anyRole, stageHandler.List)
	stages.POST("", adminOnly, middleware.Audit(userRepo, "STAGE_CREATE", "stages"), stageHandler.Create)
	stages.PUT("/reorder", adminOnly, middleware.Audit(userRepo, "STAGE_REORDER", "stages"), stageHandler.Reorder)
	stages.PUT("/:id", adminOnly, middleware.Audit(userRepo, "STAGE_UPDATE", "stages"), stageHandler.Update)
	stages.DELETE("/:id", adminOnly, middleware.Audit(userRepo, "STAGE_DELETE", "stages"), stageHandler.Delete)

	templates := authed.Group("/templates")
	templates.GET("", anyRole, templateHandler.List)
	templates.GET("/:id", anyRole, templateHandler.Get)
	templates.POST("", adminOnly, middleware.Audit(userRepo, "TEMPLATE_CREATE", "templates"), templateHandler.Create)
	templates.PUT("/:id", adminOnly, middleware.Audit(userRepo, "TEMPLATE_UPDATE", "templates"), templateHandler.Update)
	templates.DELETE("/:id", adminOnly, middleware.Audit(userRepo, "TEMPLATE_DELETE", "templates"), templateHandler.Delete)

	settings := authed.Group("/settings")
	settings.GET("", anyRole, settingsHandler.Get)
	settings.PUT("", adminOnly, middleware.Audit(userRepo, "SETTINGS_UPDATE", "settings"), settingsHandler.Update)
	settings.GET("/backup", adminOnly, settingsHandler.Backup)
	settings.POST("/restore", adminOnly, middleware.Audit(userRepo, "SETTINGS_RESTORE", "settings"), settingsHandler.Restore)

	users := authed.Group("/users")
	users.GET("", adminOnly, userHandler.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
	users.POST("", adminOnly, userHandler.Create)
	users.PUT("/:id", adminOnly, userHandler.Update)
	users.DELETE("/:id", adminOnly, userHandler.Delete)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		exports := authed.Group("/exports")
		exports.POST("", writers, exportHandler.Enqueue)
		exports.GET("/:id", writers, exportHandler.Status)
		// Download authenticates with the signed token, not a JWT.
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	if cfg.Portal.Enabled {
		portal := api.Group("/portal")
		portal.GET("/:id", portalHandler.View)
		portal.POST("/:id/tests/:resultId", portalHandler.SubmitTestResult)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

// runExportCleanup periodically removes expired export files.
func runExportCleanup(ctx context.Context, exports *service.ExportService, interval, ttl time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := exports.Cleanup(ttl)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(deleted)))
			}
		}
	}
}
