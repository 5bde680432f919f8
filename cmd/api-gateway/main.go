package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fleet-backoffice-api/api/swagger"
	"github.com/noah-isme/fleet-backoffice-api/internal/handler"
	"github.com/noah-isme/fleet-backoffice-api/internal/middleware"
	"github.com/noah-isme/fleet-backoffice-api/internal/repository"
	"github.com/noah-isme/fleet-backoffice-api/internal/service"
	"github.com/noah-isme/fleet-backoffice-api/pkg/backend"
	"github.com/noah-isme/fleet-backoffice-api/pkg/cache"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	"github.com/noah-isme/fleet-backoffice-api/pkg/config"
	"github.com/noah-isme/fleet-backoffice-api/pkg/database"
	"github.com/noah-isme/fleet-backoffice-api/pkg/jobs"
	"github.com/noah-isme/fleet-backoffice-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fleet-backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fleet-backoffice-api/pkg/middleware/requestid"
	"github.com/noah-isme/fleet-backoffice-api/pkg/storage"
	"github.com/noah-isme/fleet-backoffice-api/pkg/uploader"
)

// @title Fleet Back-Office API
// @version 1.0.0
// @description Entity readiness checklists, status workflow, document uploads and readiness reports for the fleet back office.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, settings cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	catalog, err := checklist.DefaultCatalog()
	if err != nil {
		logr.Fatal("failed to load checklist catalog", zap.Error(err))
	}

	validate := validator.New()
	registry, err := uploader.NewRegistry(validate, logr)
	if err != nil {
		logr.Fatal("failed to build uploader registry", zap.Error(err))
	}
	if err := uploader.RegisterDefaults(registry); err != nil {
		logr.Fatal("invalid uploader configuration", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	backendClient := backend.NewClient(cfg.Backend, logr, backend.WithObserver(metricsSvc))

	settingsRepo := repository.NewSettingsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "fleet", logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Settings.CacheTTL, logr, cfg.Settings.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	settingsSvc := service.NewSettingsService(settingsRepo, cacheSvc, validate, logr, cfg.Settings.CacheTTL)
	checklistSvc := service.NewChecklistService(catalog, backendClient, metricsSvc, logr)
	statusSvc := service.NewStatusService(backendClient, settingsSvc, checklistSvc, metricsSvc, logr)
	uploadSvc := service.NewUploadService(registry, backendClient, metricsSvc, logr, cfg.Uploads.MaxFileSizeBytes)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(backendClient, checklistSvc, fileStore, signer, metricsSvc, logr, service.ExportConfig{
		APIPrefix:   cfg.APIPrefix,
		ResultTTL:   cfg.Reports.SignedURLTTL,
		MaxEntities: cfg.Reports.MaxEntities,
	})

	worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("readiness-reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	reportSvc := service.NewReportService(reportRepo, queue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	entityHandler := handler.NewEntityHandler(checklistSvc, statusSvc)
	uploaderHandler := handler.NewUploaderHandler(uploadSvc)
	reportHandler := handler.NewReportHandler(reportSvc, cfg.Roles.Admin)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.PingContext),
		"redis":    cacheRepo,
	})

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	roles := cfg.Roles
	api := r.Group(strings.TrimRight(cfg.APIPrefix, "/"))
	api.GET("/reports/download/:token", reportHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc), middleware.WithResponseMeta())
	{
		secured.GET("/settings/:entityType", settingsHandler.Get)
		secured.PUT("/settings/:entityType", middleware.RBAC(roles.Admin), settingsHandler.Update)

		entities := secured.Group("/entities/:entityType/:id")
		entities.GET("/checklist", entityHandler.Checklist)
		entities.GET("/status-options", entityHandler.StatusOptions)
		entities.PUT("/status", middleware.RBAC(roles.Admin, roles.Safety, roles.HR), entityHandler.UpdateStatus)
		entities.POST("/documents/:documentKey", middleware.RBAC(roles.Admin, roles.Safety, roles.HR, roles.Dispatch), uploaderHandler.Upload)

		secured.GET("/uploaders", uploaderHandler.List)
		secured.GET("/uploaders/documents/:documentKey", uploaderHandler.DocumentConfig)
		secured.GET("/uploaders/:id", uploaderHandler.Config)
		secured.GET("/field-types", uploaderHandler.FieldTypes)
		secured.GET("/field-types/:id", uploaderHandler.FieldType)

		secured.GET("/reports/readiness", reportHandler.Readiness)
		secured.POST("/reports/readiness/jobs", reportHandler.CreateJob)
		secured.GET("/reports/readiness/jobs/:id", reportHandler.JobStatus)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
