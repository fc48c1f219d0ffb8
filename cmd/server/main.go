// Command server runs the backoffice sales import API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/backoffice/internal/application/salesimport"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/spreadsheet"
	"github.com/erp/backoffice/internal/infrastructure/storage"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Service:     cfg.App.Name,
		Environment: cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Traces, metrics and logs share one collector; all are no-ops when
	// telemetry is disabled
	otelProviders, err := telemetry.Start(ctx, telemetry.SettingsFrom(cfg.Telemetry), baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log := telemetry.NewBridgedLogger(baseLog, telemetry.NewZapOTELCore(otelProviders, logger.ParseLevel(cfg.Log.Level)))
	defer func() { _ = log.Sync() }()

	log.Info("Starting backoffice",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Money is written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	mappingRepo := persistence.NewGormListingMappingRepository(db.DB)
	recordRepo := persistence.NewGormSalesRecordRepository(db.DB)
	batchRepo := persistence.NewGormImportBatchRepository(db.DB)

	idempotency := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	defer func() { _ = idempotency.Close() }()

	var archive salesimport.Archiver = storage.NoopArchive{}
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize upload archive", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare upload archive bucket", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Upload archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	metrics, err := telemetry.NewImportMetrics(otelProviders.Meter(telemetry.ImportMeterName))
	if err != nil {
		log.Fatal("Failed to create import metrics", zap.Error(err))
	}

	// Application services
	reader := spreadsheet.NewReader(
		marketplace.NewNormalizer(marketplace.WithLocation(cfg.Import.Location())),
		spreadsheet.WithMaxRows(cfg.Import.MaxRows),
	)
	importService := salesimport.NewService(
		reader,
		salesimport.NewMatcher(mappingRepo, listingRepo),
		listingRepo,
		recordRepo,
		batchRepo,
		salesimport.NewCurrencyResolver(cfg.Import.DefaultCurrency, cfg.Import.CountryCurrency),
		salesimport.WithArchiver(archive),
		salesimport.WithIdempotency(idempotency, cfg.Import.IdempotencyTTL),
		salesimport.WithMetrics(metrics),
		salesimport.WithLogger(log),
	)
	mappingService := salesimport.NewMappingService(mappingRepo, listingRepo, log)

	// HTTP handlers
	tempDir := cfg.Import.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	importHandler := handler.NewSalesImportHandler(importService, tempDir, cfg.Import.MaxUploadBytes)
	mappingHandler := handler.NewListingMappingHandler(mappingService)
	healthHandler := handler.NewHealthHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Uploads are checked against their own limit, so the body limit must
	// leave room for them
	bodyLimit := cfg.HTTP.MaxBodySize
	if cfg.Import.MaxUploadBytes > bodyLimit {
		bodyLimit = cfg.Import.MaxUploadBytes + 1<<20
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(bodyLimit))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, otelProviders.Enabled()))
	engine.Use(middleware.SpanEnricher())

	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)

	jwtAuth := middleware.JWTAuth(middleware.JWTConfig{
		Validator: auth.NewTokenValidator(cfg.JWT),
		Logger:    log,
	})

	importRoutes := router.NewDomainGroup("sales-import", "/sales-import").
		POST("/preview", importHandler.Preview).
		POST("/confirm", importHandler.Confirm).
		GET("/batches", importHandler.ListBatches).
		DELETE("/batch/:id", importHandler.Rollback).
		GET("/listings", importHandler.ListingOptions)

	mappingRoutes := router.NewDomainGroup("listing-mappings", "/listing-mappings").
		POST("", mappingHandler.Create).
		GET("", mappingHandler.List).
		DELETE("/:id", mappingHandler.Delete)

	router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithMiddleware(jwtAuth)).
		Register(importRoutes, mappingRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
