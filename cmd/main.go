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

	"health-assistant/internal/config"
	"health-assistant/internal/handler"
	"health-assistant/internal/model"
	"health-assistant/internal/ratelimit"
	"health-assistant/internal/service"
	"health-assistant/internal/storage"
	"health-assistant/pkg/logger"

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

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	if cfg.LLM.APIKey == "" {
		logger.Warnf("No API key configured for provider %s; chat requests will fail with 401", cfg.LLM.Provider)
	}

	chatModel, err := model.NewChatModel(context.Background(), cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to create chat model: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	limiter, err := ratelimit.New(cfg.RateLimit, cfg.Redis)
	if err != nil {
		logger.Errorf("Rate limiter unavailable, continuing without it: %v", err)
		limiter = nil
	}
	if limiter != nil {
		defer limiter.Close()
	}

	assistant := service.NewAssistantService(chatModel, store, newAssembler(cfg.Agent), service.Options{
		SystemPrompt:   cfg.Agent.SystemPrompt,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        cfg.LLM.Timeout,
		MaxRetries:     cfg.LLM.MaxRetries,
		RetryDelay:     cfg.LLM.RetryDelay,
		PersistTimeout: cfg.Storage.WriteTimeout,
	}, logger.L())

	assistantHandler := handler.NewAssistantHandler(assistant, cfg.LLM.Provider)

	router := setupRouter(cfg, assistantHandler, limiter)

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

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

// newStore opens the configured store. A store that cannot start is an
// error: records would otherwise be lost on restart without notice.
func newStore(cfg *config.Config) (storage.ChatRecordStore, error) {
	store, err := storage.New(cfg.Storage, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Type, err)
	}
	if err := store.Init(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init %s storage: %w", cfg.Storage.Type, err)
	}
	return store, nil
}

func newAssembler(cfg config.AgentConfig) *service.Assembler {
	var counter service.TokenCounter
	if cfg.MaxHistoryTokens > 0 {
		tokenizer, err := service.NewTokenizer(cfg.TokenizerEncoding)
		if err != nil {
			logger.Warnf("Tokenizer unavailable, history token budget disabled: %v", err)
		} else {
			counter = tokenizer
		}
	}
	return service.NewAssembler(cfg.MaxHistoryMessages, cfg.MaxHistoryTokens, counter)
}

func setupRouter(cfg *config.Config, assistantHandler *handler.AssistantHandler, limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(handler.RequestLogger(logger.L()))
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

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		assistant := api.Group("/health-assistant")
		{
			assistant.POST("/chat", handler.RateLimit(limiter), assistantHandler.Chat)
			assistant.GET("/quick-symptoms", assistantHandler.QuickSymptoms)
			assistant.GET("/urgency-levels", assistantHandler.UrgencyLevels)
			// Unauthenticated; only exposed behind an authenticating proxy.
			if cfg.Server.ExposeHistory {
				assistant.GET("/history/:user_id", assistantHandler.History)
			} else {
				logger.Info("History endpoint disabled (server.expose_history=false)")
			}
		}
	}

	return router
}
