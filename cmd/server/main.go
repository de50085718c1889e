package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/podiumlabs/orator_service/internal/client"
	"github.com/podiumlabs/orator_service/internal/config"
	"github.com/podiumlabs/orator_service/internal/handler/http"
	"github.com/podiumlabs/orator_service/internal/logger"
	"github.com/podiumlabs/orator_service/internal/repository"
	"github.com/podiumlabs/orator_service/internal/server"
	"github.com/podiumlabs/orator_service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting orator_service")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Postgres client (required)
	postgresClient, err := client.NewPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Postgres client")
	}
	log.Info().Msg("Postgres client initialized")

	// Initialize blob store
	var blobs service.BlobStore
	var gcsClient *client.StorageClient
	switch cfg.StorageBackend {
	case "gcs":
		gcsClient, err = client.NewStorageClient(ctx, cfg.StorageBucket, cfg.GCSCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize GCS client")
		}
		blobs = gcsClient
		log.Info().Str("bucket", cfg.StorageBucket).Msg("GCS storage initialized")
	default:
		s3Client, err := client.NewS3Client(ctx, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3Endpoint, cfg.StorageBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 client")
		}
		blobs = s3Client
		log.Info().Str("bucket", cfg.StorageBucket).Msg("S3 storage initialized")
	}

	// Initialize transcription client
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, transcription will fail")
	}
	transcriber := client.NewOpenAIClient(cfg.OpenAIAPIKey).
		WithTranscriptionModel(cfg.WhisperModel)

	// Initialize feedback model provider
	var geminiClient *client.GeminiClient
	var model service.FeedbackModel
	switch cfg.FeedbackProvider {
	case "gemini":
		if cfg.GeminiSAPath != "" {
			geminiClient, err = client.NewGeminiClientWithServiceAccount(ctx, cfg.GeminiProjectID, cfg.GCPLocation, cfg.GeminiSAPath)
		} else {
			geminiClient, err = client.NewGeminiClient(ctx, cfg.GeminiProjectID, cfg.GCPLocation)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		model = geminiClient
		log.Info().Str("location", cfg.GCPLocation).Msg("Gemini feedback provider initialized")
	default:
		model = client.NewOpenAIClientWithBaseURL(cfg.AIGatewayAPIKey, cfg.AIGatewayBaseURL).
			WithModel(cfg.FeedbackModel)
		log.Info().Str("model", cfg.FeedbackModel).Msg("Gateway feedback provider initialized")
	}

	// Initialize Redis client (optional feedback cache)
	var cache service.FeedbackCache
	var redisClient *client.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client")
		} else {
			cache = redisClient
			log.Info().Msg("Redis client initialized")
		}
	}

	// Initialize Pub/Sub client (optional analysis events)
	var events service.EventPublisher
	var pubsubClient *client.PubSubClient
	if cfg.PubSubProjectID != "" {
		pubsubClient, err = client.NewPubSubClient(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Pub/Sub client")
		} else {
			events = pubsubClient
			log.Info().Str("topic", cfg.PubSubTopic).Msg("Pub/Sub client initialized")
		}
	}

	// Initialize repositories
	speechRepo := repository.NewPostgresSpeechRepository(postgresClient)
	feedbackRepo := repository.NewPostgresFeedbackRepository(postgresClient)
	profileRepo := repository.NewPostgresProfileRepository(postgresClient)

	// Initialize services
	analysisService := service.NewAnalysisService(
		service.AnalysisConfig{
			Bucket:   cfg.StorageBucket,
			Language: cfg.SpeechLanguage,
		},
		blobs,
		transcriber,
		model,
		speechRepo,
		feedbackRepo,
		events,
		cache,
		log,
	)
	speechService := service.NewSpeechService(speechRepo, feedbackRepo, profileRepo, cache, log)

	// Initialize handlers
	healthHandler := http.NewHealthHandler().WithCheck("postgres", postgresClient)
	if redisClient != nil {
		healthHandler.WithCheck("redis", redisClient)
	}
	analysisHandler := http.NewAnalysisHandler(log, analysisService)
	speechHandler := http.NewSpeechHandler(log, speechService)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, healthHandler, analysisHandler, speechHandler)

	// Start server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Msg("Server started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Close clients
	if geminiClient != nil {
		geminiClient.Close()
	}
	if gcsClient != nil {
		gcsClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if pubsubClient != nil {
		pubsubClient.Close()
	}
	postgresClient.Close()

	log.Info().Msg("Server stopped")
}
