package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpmetrics "myEventReco/app/echo-server/metrics"
	"myEventReco/app/echo-server/router"
	"myEventReco/business/experiment"
	"myEventReco/business/recommend"
	"myEventReco/business/significance"
	"myEventReco/business/telemetry"
	"myEventReco/internal/middleware"
	psqlRepo "myEventReco/internal/repository/postgres"
	redisRepo "myEventReco/internal/repository/redis"
	"myEventReco/internal/rest"
	"myEventReco/pkg/config"
	"myEventReco/pkg/database"
	redisDB "myEventReco/pkg/database/redis"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting event recommendation service", "version", cfg.App.Version)

	metrics.Init()
	httpmetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	redisClient, err := redisDB.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		if err := redisDB.Close(redisClient); err != nil {
			logger.Error("Redis close error", "error", err)
		}
	}()

	// Init repo
	eventRepo := psqlRepo.NewEventRepository(db)
	assignmentRepo := psqlRepo.NewAssignmentRepository(db)
	telemetryRepo := psqlRepo.NewTelemetryRepository(db)
	experimentConfigRepo := psqlRepo.NewExperimentConfigRepository(db)

	// Init service
	recorderOpts := []telemetry.Option{telemetry.WithDedupWindow(cfg.Experiment.DedupWindow)}
	if redisClient != nil {
		recorderOpts = append(recorderOpts, telemetry.WithClickWindow(redisRepo.NewClickWindowRepository(redisClient)))
		logger.Info("Redis click window enabled")
	}
	recorder := telemetry.NewRecorder(telemetryRepo, recorderOpts...)

	tokens := experiment.NewTokenCodec(cfg.Experiment.TokenKey)
	assigner := experiment.NewAssigner(assignmentRepo, experimentConfigRepo, recorder, tokens)
	configService := experiment.NewConfigService(experimentConfigRepo)
	reporter := significance.NewReporter(telemetryRepo, experimentConfigRepo)

	recoService := recommend.NewService(eventRepo, eventRepo, assigner, experimentConfigRepo, recommend.Options{
		DefaultLimit:   cfg.Reco.DefaultLimit,
		MaxLimit:       cfg.Reco.MaxLimit,
		CandidateLimit: cfg.Reco.CandidateLimit,
		Locale:         cfg.Reco.Locale,
	})

	// Init handler
	cookies := rest.StickyCookies{Prefix: cfg.Experiment.CookieName, Tokens: tokens}
	recoHandler := rest.NewRecommendationHandler(recoService, cookies)
	experimentHandler := rest.NewExperimentHandler(assigner, cookies)
	significanceHandler := rest.NewSignificanceHandler()
	telemetryHandler := rest.NewTelemetryHandler(recorder)
	adminHandler := rest.NewExperimentAdminHandler(configService, reporter)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestTrace())
	e.Use(httpmetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1", middleware.Identity(cfg.Experiment.SessionCookie, cfg.JWT.SecretKey))
	router.SetRecommendationRoutes(api, recoHandler)
	router.SetExperimentRoutes(api, experimentHandler, significanceHandler)
	router.SetTelemetryRoutes(api, telemetryHandler)
	router.SetExperimentAdminRoutes(api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
