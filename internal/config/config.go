package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Crawl politeness and retry tuning
	CrawlDelay   time.Duration `envconfig:"CRAWL_DELAY" default:"1s"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchRetries int           `envconfig:"FETCH_RETRIES" default:"3"`

	// Pause between sources in a multi-source run
	SourcePause time.Duration `envconfig:"SOURCE_PAUSE" default:"30s"`

	// Entries unchecked for longer than this count as stale
	StaleAfter time.Duration `envconfig:"STALE_AFTER" default:"2160h"`

	// Scheduled ingestion: zero disables the background worker
	IngestInterval time.Duration `envconfig:"INGEST_INTERVAL" default:"0"`

	// Optional raw-page snapshot archive
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"lightpoint-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-west-2"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LIGHTPOINT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
