package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Document source
	StorageBackend string // "filesystem" (default) or "gridfs"
	DocumentsDir   string
	MongoURI       string
	DBName         string
	GridFSBucket   string

	// Index lifecycle
	IndexDir        string
	MaxChunkSize    int
	ChunkOverlap    int
	TopK            int
	ReindexInterval time.Duration // 0 disables scheduled reindexing

	// Gemini oracles
	GeminiAPIKey    string
	GeminiTier      string
	GenerationModel string
	EmbeddingsModel string

	// Redis (embedding cache + rate limiting); optional
	RedisURL      string
	RedisPassword string
	RedisDB       int
	EmbedCacheTTL time.Duration

	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		StorageBackend: getEnv("STORAGE_BACKEND", "filesystem"),
		DocumentsDir:   getEnv("DOCUMENTS_DIR", "./documents"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017/docs_qa"),
		DBName:         getEnv("DB_NAME", "docs_qa"),
		GridFSBucket:   getEnv("GRIDFS_BUCKET", "documents"),

		IndexDir:        getEnv("INDEX_DIR", "./storage/index"),
		MaxChunkSize:    getEnvInt("MAX_CHUNK_SIZE", 500),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 200),
		TopK:            getEnvInt("RETRIEVAL_TOP_K", 4),
		ReindexInterval: time.Duration(getEnvInt("REINDEX_INTERVAL_MINUTES", 0)) * time.Minute,

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		GenerationModel: getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		EmbedCacheTTL: time.Duration(getEnvInt("EMBED_CACHE_TTL_HOURS", 72)) * time.Hour,

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("MAX_CHUNK_SIZE must be positive, got %d", c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be in [0, MAX_CHUNK_SIZE) with MAX_CHUNK_SIZE=%d",
			c.ChunkOverlap, c.MaxChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.TopK)
	}
	switch c.StorageBackend {
	case "filesystem", "gridfs":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
