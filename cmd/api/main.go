package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cab-basket/socios-api/api/swagger"
	"github.com/cab-basket/socios-api/internal/handler"
	internalmiddleware "github.com/cab-basket/socios-api/internal/middleware"
	"github.com/cab-basket/socios-api/internal/models"
	"github.com/cab-basket/socios-api/internal/repository"
	"github.com/cab-basket/socios-api/internal/rules"
	"github.com/cab-basket/socios-api/internal/service"
	"github.com/cab-basket/socios-api/pkg/cache"
	"github.com/cab-basket/socios-api/pkg/config"
	"github.com/cab-basket/socios-api/pkg/database"
	"github.com/cab-basket/socios-api/pkg/jobs"
	"github.com/cab-basket/socios-api/pkg/logger"
	corsmiddleware "github.com/cab-basket/socios-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cab-basket/socios-api/pkg/middleware/requestid"
	"github.com/cab-basket/socios-api/pkg/storage"
)

// @title CAB Sócios API
// @version 0.1.0
// @description Membership, athlete and treasury backend for the club
// @BasePath /api/v1
// @schemes http

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

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Treasury.CacheEnabled
	if cacheEnabled {
		redisClient, redisErr := cache.NewRedis(cfg.Redis)
		if redisErr != nil {
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", redisErr)
			cacheEnabled = false
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	uploadSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := rules.NewValidator()

	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Treasury.CacheTTL, logr, cacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	memberSvc := service.NewMemberService(memberRepo, userRepo, validate, logr)
	athleteSvc := service.NewAthleteService(athleteRepo, memberRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, uploadStore, uploadSigner, userRepo, logr, service.DocumentServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	paymentSvc := service.NewPaymentService(paymentRepo, athleteRepo, memberRepo, documentSvc, cacheSvc, userRepo, validate, logr)

	exportWorker := service.NewTreasuryExportWorker(exportRepo, paymentRepo, exportStore, cfg.Exports.WorkerRetries, logr, nil, nil)
	exportQueue := jobs.NewQueue("treasury_export", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	treasurySvc := service.NewTreasuryService(paymentRepo, exportRepo, exportQueue, exportStore, exportSigner, cacheSvc, userRepo, logr, service.TreasuryServiceConfig{
		CacheTTL:        cfg.Treasury.CacheTTL,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		APIPrefix:       cfg.APIPrefix,
	})
	treasurySvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	memberHandler := handler.NewMemberHandler(memberSvc)
	athleteHandler := handler.NewAthleteHandler(athleteSvc, memberSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, memberSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, memberSvc)
	treasuryHandler := handler.NewTreasuryHandler(treasurySvc)
	pricingHandler := handler.NewPricingHandler(validate)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/members/register", memberHandler.Register)
	api.GET("/pricing/classify", pricingHandler.Classify)
	api.GET("/pricing/estimate", pricingHandler.Estimate)
	api.GET("/pricing/tiers", pricingHandler.Tiers)
	api.GET("/pricing/categories", pricingHandler.Categories)

	// Export downloads authenticate through the signed token instead of a
	// session, so treasurers can hand the link to club officers.
	api.GET("/treasury/exports/:id/download", treasuryHandler.DownloadExport)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/members/me", memberHandler.Me)
	secured.PUT("/members/me", memberHandler.UpdateMe)
	secured.GET("/members/me/athletes", athleteHandler.ListMine)
	secured.POST("/members/me/athletes", athleteHandler.CreateMine)

	secured.GET("/athletes/:id", athleteHandler.Get)
	secured.PUT("/athletes/:id", athleteHandler.Update)
	secured.DELETE("/athletes/:id", athleteHandler.Delete)

	secured.GET("/payments", paymentHandler.List)
	secured.GET("/payments/:id", paymentHandler.Get)
	secured.POST("/payments/:id/proof", paymentHandler.UploadProof)
	secured.DELETE("/payments/:id/proof", paymentHandler.RemoveProof)

	secured.POST("/documents", documentHandler.Upload)
	secured.GET("/documents", documentHandler.List)
	secured.GET("/documents/:id", documentHandler.Get)
	secured.GET("/documents/:id/download", documentHandler.Download)
	secured.DELETE("/documents/:id", documentHandler.Delete)

	staff := secured.Group("")
	staff.Use(internalmiddleware.RequireStaff())

	staff.GET("/members", memberHandler.List)
	staff.GET("/members/:id", memberHandler.Get)
	staff.PUT("/members/:id/tier", memberHandler.ChangeTier)
	staff.GET("/members/:id/athletes", athleteHandler.Household)
	staff.GET("/athletes", athleteHandler.List)
	staff.POST("/payments", paymentHandler.Create)
	staff.POST("/payments/:id/validate", paymentHandler.Validate)
	staff.GET("/treasury/summary", internalmiddleware.Audit(userRepo, "treasury.summary_view", "treasury"), treasuryHandler.Summary)
	staff.POST("/treasury/exports", treasuryHandler.RequestExport)
	staff.GET("/treasury/exports/:id", treasuryHandler.GetExport)
	staff.GET("/metrics/summary", metricsHandler.Snapshot)

	admin := secured.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin))

	admin.DELETE("/members/:id", memberHandler.Deactivate)
	admin.DELETE("/payments/:id", paymentHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
