package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"enterprise-docs-qa/internal/ai"
	"enterprise-docs-qa/internal/config"
	"enterprise-docs-qa/internal/logger"
	"enterprise-docs-qa/internal/storage"
	"enterprise-docs-qa/internal/telemetry"
	"enterprise-docs-qa/middleware"
	"enterprise-docs-qa/routes"
	"enterprise-docs-qa/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("enterprise-docs-qa", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracing:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	// Redis is optional: without it the embedding cache and rate limiter are
	// simply disabled.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			rdb = nil
		}
	}

	source, cleanup, err := newObjectStore(cfg)
	if err != nil {
		log.Fatal("Failed to open document source:", err)
	}
	defer cleanup()

	embedder, err := ai.NewEmbeddingClient(cfg, rdb, metrics)
	if err != nil {
		log.Fatal("Failed to init embedding client:", err)
	}
	defer embedder.Close()

	generator, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier, cfg.GenerationModel)
	if err != nil {
		log.Fatal("Failed to init Gemini client:", err)
	}
	defer generator.Close()

	chunker, err := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}
	loader := services.NewLoader(source, metrics)
	index := services.NewIndexManager(source, loader, chunker, embedder, cfg.IndexDir, metrics)
	retriever := services.NewRetriever(index, embedder, cfg.TopK)
	synthesizer := services.NewSynthesizer(generator, metrics)
	assistant := services.NewAssistant(source, index, retriever, synthesizer, cfg.TopK, metrics)

	// Warm the index in the background so the first query doesn't pay the
	// full build cost. Queries arriving earlier simply await the same build.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := index.EnsureReady(ctx); err != nil {
			logger.Error("initial index build failed", "error", err)
		}
	}()

	scheduler := services.NewScheduler()
	if cfg.ReindexInterval > 0 {
		if err := scheduler.ScheduleReindex(cfg.ReindexInterval, assistant); err != nil {
			log.Fatal("Failed to schedule reindex:", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAssistantRoutes(router, assistant)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// newObjectStore opens the configured document source backend.
func newObjectStore(cfg *config.Config) (storage.ObjectStore, func(), error) {
	switch cfg.StorageBackend {
	case "gridfs":
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewGridFSStore(client, cfg.DBName, cfg.GridFSBucket)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			client.Disconnect(ctx)
		}
		return store, cleanup, nil
	default:
		store, err := storage.NewFilesystemStore(cfg.DocumentsDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
