package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"decision-service/internal/config"
	"decision-service/internal/handler"
	"decision-service/internal/llm"
	"decision-service/internal/pipeline"
	"decision-service/internal/repository"
	"decision-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	logger.Info("Starting Decision Service...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config",
			zap.String("path", *configPath),
			zap.Error(err))
	}
	if cfg.Logging.Production {
		logger.Sync()
		if logger, err = zap.NewProduction(); err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	// The model must be loaded before the first request is served
	decider, err := pipeline.LoadDecider(cfg.Model.ArtifactPath)
	if err != nil {
		logger.Fatal("Failed to load decision model",
			zap.String("path", cfg.Model.ArtifactPath),
			zap.Error(err))
	}
	logger.Info("Decision model loaded",
		zap.String("path", cfg.Model.ArtifactPath),
		zap.Any("model", decider.Artifact().Info()))

	// Text generation is optional: without providers /generate degrades
	var generator *service.Generator
	if len(cfg.Providers) > 0 {
		llmClient, err := llm.NewMultiProviderClient(llm.MultiProviderConfig{
			Providers:   cfg.Providers,
			MaxFailures: cfg.MaxFailuresBeforeSwitch,
		}, logger)
		if err != nil {
			logger.Warn("No text generation provider available, /generate will degrade", zap.Error(err))
		} else {
			defer llmClient.Close()
			generator = service.NewGenerator(llmClient, cfg.Generation.Timeout, logger)
			logger.Info("Text generation enabled",
				zap.Int("provider_count", len(cfg.Providers)),
				zap.Any("current", llmClient.GetModelInfo()))
		}
	} else {
		logger.Warn("No providers configured, /generate will degrade")
	}

	var feedback service.FeedbackStore
	if cfg.FeedbackEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
		repo, err := repository.NewFeedbackRepository(cfg.Database.Path, logger)
		if err != nil {
			logger.Fatal("Failed to initialize feedback repository", zap.Error(err))
		}
		defer repo.Close()
		feedback = repo
	}

	advisor, err := service.NewAdvisor(generator, decider, feedback, logger)
	if err != nil {
		logger.Fatal("Failed to initialize advisor", zap.Error(err))
	}

	apiHandler := handler.NewHandler(advisor, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.Use(handler.CORS(cfg.Server.AllowedOrigins))
	apiHandler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Decision Service is running",
		zap.String("address", serverAddr),
		zap.Bool("generation_enabled", generator != nil),
		zap.Bool("feedback_enabled", feedback != nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loadConfig falls back to defaults when the file does not exist
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}
