package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"8080"`

	Environment string `envconfig:"SERVER_ENV" default:"development"`

	// Timeouts
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Speech audio storage. Backend is "gcs" or "s3"; the bucket name is also the
	// path marker used to locate object keys inside public audio URLs.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"s3"`
	StorageBucket  string `envconfig:"STORAGE_BUCKET" default:"speeches"`

	// S3-compatible storage (Supabase storage, Cloudflare R2, ...)
	S3AccessKeyID string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey   string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint    string `envconfig:"S3_ENDPOINT"`

	// Google Cloud Storage (alternative storage backend)
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`

	// OpenAI (Whisper transcription)
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	WhisperModel   string `envconfig:"WHISPER_MODEL" default:"whisper-1"`
	SpeechLanguage string `envconfig:"SPEECH_LANGUAGE" default:"en"`

	// Feedback model. Provider is "gateway" (OpenAI-compatible chat completions
	// endpoint) or "gemini" (Vertex AI).
	FeedbackProvider string `envconfig:"FEEDBACK_PROVIDER" default:"gateway"`
	AIGatewayAPIKey  string `envconfig:"AI_GATEWAY_API_KEY"`
	AIGatewayBaseURL string `envconfig:"AI_GATEWAY_BASE_URL" default:"https://ai.gateway.lovable.dev/v1"`
	FeedbackModel    string `envconfig:"FEEDBACK_MODEL" default:"google/gemini-2.5-flash"`

	// Vertex AI Gemini (alternative feedback provider)
	GeminiProjectID string `envconfig:"GEMINI_PROJECT_ID"`
	GeminiSAPath    string `envconfig:"GEMINI_SA_PATH"`
	GCPLocation     string `envconfig:"GCP_LOCATION" default:"asia-southeast1"`

	// Redis (optional feedback cache)
	RedisURL string `envconfig:"REDIS_URL"`

	// Pub/Sub (optional analysis.completed events)
	PubSubProjectID string `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubTopic     string `envconfig:"PUBSUB_TOPIC" default:"analysis-completed"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Authorization,Content-Type,X-Request-ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
