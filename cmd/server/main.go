package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribo/internal/config"
	"scribo/internal/handler"
	"scribo/internal/llm"
	"scribo/internal/service"
	"scribo/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithFile(cfg.Log.Level, cfg.Log.Format, fileConfig(cfg)); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	groq, err := llm.NewGroqClient(cfg.Groq)
	if err != nil {
		logger.Fatalf("Failed to create Groq client: %v", err)
	}

	docService, err := service.NewDocumentService(cfg, groq)
	if err != nil {
		logger.Fatalf("Failed to init document service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	docService.StartCleanupLoop(ctx)

	docHandler := handler.NewDocumentHandler(docService)

	router := setupRouter(cfg, docHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
	if err := docService.Store().Close(); err != nil {
		logger.Errorf("Store close failed: %v", err)
	}
	logger.Info("Server stopped")
}

func fileConfig(cfg *config.Config) *logger.FileConfig {
	if cfg.Log.File == "" {
		return nil
	}
	return &logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
}

func setupRouter(cfg *config.Config, docHandler *handler.DocumentHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", docHandler.Health)

	api := router.Group("/api")
	{
		api.POST("/generate", docHandler.Generate)
		api.GET("/preview/:document_id", docHandler.Preview)
		api.POST("/chat", docHandler.Chat)
		api.POST("/finalize/:document_id", docHandler.Finalize)
		api.GET("/download/:filename", docHandler.Download)
		api.POST("/cleanup/:document_id", docHandler.Cleanup)
	}

	return router
}
