package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/signetflow/signet-api/api/swagger"
	"github.com/signetflow/signet-api/internal/handler"
	"github.com/signetflow/signet-api/internal/middleware"
	"github.com/signetflow/signet-api/internal/repository"
	"github.com/signetflow/signet-api/internal/service"
	"github.com/signetflow/signet-api/pkg/cache"
	"github.com/signetflow/signet-api/pkg/config"
	"github.com/signetflow/signet-api/pkg/database"
	"github.com/signetflow/signet-api/pkg/logger"
	"github.com/signetflow/signet-api/pkg/mailer"
	corsmiddleware "github.com/signetflow/signet-api/pkg/middleware/cors"
	reqidmiddleware "github.com/signetflow/signet-api/pkg/middleware/requestid"
	"github.com/signetflow/signet-api/pkg/pdfkit"
	"github.com/signetflow/signet-api/pkg/storage"
)

// @title SignetFlow API
// @version 1.0.0
// @description PDF e-signature placement and finalization service
// @BasePath /api
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, geometry caching disabled", "error", err)
			redisClient = nil
		}
	}

	uploads, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "error", err)
	}
	signed, err := storage.NewLocalStorage(cfg.Storage.SignedDir)
	if err != nil {
		logr.Sugar().Fatalw("signed storage init failed", "error", err)
	}

	fonts, err := pdfkit.NewLibrary(cfg.Storage.FontsDir, cfg.Signing.DefaultFont, logr)
	if err != nil {
		logr.Sugar().Fatalw("font library init failed", "error", err)
	}

	docRepo := repository.NewDocumentRepository(db)
	sigRepo := repository.NewSignatureRepository(db)
	geomCache := repository.NewGeometryCache(redisClient, 0)

	metrics := service.NewMetricsService()
	geometry := service.NewGeometryService(uploads, geomCache, logr)
	placement := service.NewPlacementService(docRepo, sigRepo, geometry, metrics, logr)
	finalize := service.NewFinalizeService(docRepo, sigRepo, uploads, signed, fonts, metrics, cfg.Signing.FontSize, logr)
	lifecycle := service.NewLifecycleService(sigRepo, docRepo, logr)
	documents := service.NewDocumentService(docRepo, uploads, cfg.Signing.MaxPDFBytes, logr)
	mail := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	share := service.NewShareService(documents, mail, cfg.BaseURL, logr)
	auth := service.NewAuthService(cfg.JWT.Secret)

	sigHandler := handler.NewSignatureHandler(placement, finalize, lifecycle)
	docHandler := handler.NewDocumentHandler(documents)
	shareHandler := handler.NewShareHandler(share)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	r.Static("/signed", signed.Dir())
	r.Static("/uploads", uploads.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(auth))
	{
		api.POST("/docs", docHandler.Upload)
		api.GET("/docs", docHandler.List)
		api.GET("/docs/:id", docHandler.Get)
		api.POST("/share", shareHandler.Share)

		sig := api.Group("/signature")
		{
			sig.POST("/place", sigHandler.Place)
			sig.GET("/file/:fileId", sigHandler.ListForFile)
			sig.POST("/finalize", sigHandler.Finalize)
			sig.POST("/accept/:id", sigHandler.Accept)
			sig.POST("/reject/:id", sigHandler.Reject)
			sig.DELETE("/remove/:signatureId", sigHandler.Remove)
			sig.DELETE("/clear-signatures", sigHandler.Clear)
			sig.GET("/audit/:fileId", sigHandler.Audit)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
