// Package config defines the process configuration. All tunables live in one
// struct built at startup and passed by reference into each component; no
// component reads the environment on its own.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// Port configures the HTTP listen port, e.g. "8080".
	Port string `koanf:"port"`

	// AWSRegion selects the region for the DynamoDB and S3 clients.
	AWSRegion string `koanf:"aws_region"`

	// S3Bucket holds profile photos.
	S3Bucket string `koanf:"s3_bucket"`

	// GeminiAPIKey authenticates against the Gemini API. When empty,
	// embeddings cannot be generated and explanations fall back.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GeminiModel is the generation model used for match explanations.
	GeminiModel string `koanf:"gemini_model"`

	// EmbeddingModel is the model used for profile embeddings.
	EmbeddingModel string `koanf:"embedding_model"`

	// ExplainTimeout bounds a single explanation call. On timeout the
	// discovery result carries the fallback text instead.
	ExplainTimeout time.Duration `koanf:"explain_timeout"`

	// DiscoverCacheTTL is how long a discovery result stays cached.
	DiscoverCacheTTL time.Duration `koanf:"discover_cache_ttl"`

	// DiscoverCacheSize bounds the number of cached discovery results.
	DiscoverCacheSize int `koanf:"discover_cache_size"`

	// DiscoverDefaultLimit is used when the request carries no limit.
	DiscoverDefaultLimit int `koanf:"discover_default_limit"`

	// DiscoverMaxLimit caps GET /api/match/discover?limit.
	DiscoverMaxLimit int `koanf:"discover_max_limit"`

	// AllowedOrigins configures CORS.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:                 "8080",
		AWSRegion:            "us-east-1",
		GeminiModel:          "gemini-2.0-flash",
		EmbeddingModel:       "text-embedding-004",
		ExplainTimeout:       5 * time.Second,
		DiscoverCacheTTL:     5 * time.Minute,
		DiscoverCacheSize:    1024,
		DiscoverDefaultLimit: 2,
		DiscoverMaxLimit:     50,
		AllowedOrigins:       []string{"*"},
	}
}
