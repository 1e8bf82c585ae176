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

	"github.com/gin-gonic/gin"
	"github.com/yatrasecure/safetyscore/server/cache"
	"github.com/yatrasecure/safetyscore/server/config"
	"github.com/yatrasecure/safetyscore/server/handlers"
	"github.com/yatrasecure/safetyscore/server/middleware"
	"github.com/yatrasecure/safetyscore/server/predictor"
	"go.uber.org/zap"
)

type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	service     *predictor.Service
	cache       cache.Cache
	rateLimiter *middleware.RateLimiter
	config      *config.Config
}

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logger
	var logger *zap.Logger
	var err error

	if cfg.Logging.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Validate configuration
	if err := cfg.ValidateConfig(logger); err != nil {
		logger.Fatal("Configuration validation failed", zap.Error(err))
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := NewServer(cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("artifact_dir", cfg.Artifacts.Dir))

		var err error
		if cfg.Security.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.Security.CertFile, cfg.Security.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown rate limiter
	if server.rateLimiter != nil {
		server.rateLimiter.Shutdown()
	}

	// Shutdown cache
	if server.cache != nil {
		if err := server.cache.Close(); err != nil {
			logger.Error("Failed to close cache", zap.Error(err))
		}
	}

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	// Initialize cache: Redis when configured, memory otherwise
	var cacheInstance cache.Cache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewRedisCache(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			cfg.Cache.TTL,
			logger,
		)
		if err != nil {
			logger.Warn("Failed to connect to Redis, using memory cache", zap.Error(err))
			cacheInstance = cache.NewMemoryCache(cfg.Cache.MaxSize, cfg.Cache.TTL, logger)
		} else {
			cacheInstance = redisCache
		}
	} else {
		cacheInstance = cache.NewMemoryCache(cfg.Cache.MaxSize, cfg.Cache.TTL, logger)
	}

	// Initialize the prediction service. A missing model is not fatal: the
	// service degrades to the rule-based estimator.
	service := predictor.NewService(cfg.Artifacts.Dir, logger)
	if service.Degraded() {
		logger.Warn("Predictor started in degraded mode",
			zap.String("artifact_dir", cfg.Artifacts.Dir))
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(
		cfg.Security.RateLimitRPS,
		cfg.Security.RateLimitBurst,
		logger,
	)

	// Setup router
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.Security.MaxRequestSize))
	router.Use(middleware.InputValidation())
	router.Use(middleware.TimeoutHandler(cfg.Security.RequestTimeout))

	// Initialize handlers
	safetyHandler := handlers.NewSafetyHandler(service, cacheInstance, logger)
	wsHandler := handlers.NewWebSocketHandler(service, logger)

	setupRoutes(router, safetyHandler, wsHandler, rateLimiter)

	return &Server{
		router:      router,
		logger:      logger,
		service:     service,
		cache:       cacheInstance,
		rateLimiter: rateLimiter,
		config:      cfg,
	}
}

func setupRoutes(router *gin.Engine, safetyHandler *handlers.SafetyHandler, wsHandler *handlers.WebSocketHandler, rateLimiter *middleware.RateLimiter) {
	// Health check (no rate limit)
	router.GET("/health", middleware.HealthCheck())

	// WebSocket endpoint (rate limited)
	router.GET("/ws", rateLimiter.RateLimit(), wsHandler.HandleWebSocket)

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", middleware.HealthCheck())

		protected := api.Group("/")
		protected.Use(rateLimiter.RateLimit())
		{
			protected.POST("/safety/predict", safetyHandler.Predict)
			protected.GET("/safety/status", safetyHandler.Status)
			protected.GET("/stats", safetyHandler.GetStats)
		}
	}
}
