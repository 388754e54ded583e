package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oracleconsulting/lightpoint-ingest/internal/chunker"
	"github.com/oracleconsulting/lightpoint-ingest/internal/config"
	"github.com/oracleconsulting/lightpoint-ingest/internal/crawler"
	"github.com/oracleconsulting/lightpoint-ingest/internal/database"
	"github.com/oracleconsulting/lightpoint-ingest/internal/openai"
	"github.com/oracleconsulting/lightpoint-ingest/internal/repository"
	"github.com/oracleconsulting/lightpoint-ingest/internal/service"
	"github.com/oracleconsulting/lightpoint-ingest/internal/storage"
)

// deps bundles the wired services shared by the serve and ingest commands.
type deps struct {
	ingestSvc *service.IngestionService
	legalSvc  *service.LegalService
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, err
	}
	log.Println("connected to database")
	return pool, nil
}

func buildDeps(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*deps, error) {
	fetcher := crawler.NewFetcher(cfg.FetchTimeout, cfg.FetchRetries)

	var sections *crawler.Crawler
	if cfg.HasS3() {
		snapshots, err := storage.NewSnapshotStore(ctx, storage.SnapshotStoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot store: %w", err)
		}
		if err := snapshots.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure snapshot bucket: %w", err)
		}
		log.Printf("snapshot bucket '%s' ready", cfg.S3Bucket)
		sections = crawler.NewWithArchive(fetcher, cfg.CrawlDelay, snapshots)
	} else {
		sections = crawler.New(fetcher, cfg.CrawlDelay)
	}

	var embedder service.EmbeddingClient
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		embedder = &noOpEmbeddingClient{}
	}

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	runRepo := repository.NewIngestionRunRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	ingestSvc := service.NewIngestionServiceWithConfig(sections, embedder, knowledgeRepo, runRepo, service.IngestionConfig{
		ChunkConfig: chunker.DefaultConfig(),
		SourcePause: cfg.SourcePause,
	})
	legalSvc := service.NewLegalService(sections, embedder, knowledgeRepo, runRepo, txRunner)

	return &deps{ingestSvc: ingestSvc, legalSvc: legalSvc}, nil
}

// noOpEmbeddingClient stands in when OPENAI_API_KEY is unset. Runs still
// start and their pre-flight checks work, but the embedding stage fails
// with a configuration error instead of a confusing API error.
type noOpEmbeddingClient struct{}

func (c *noOpEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding provider not configured: OPENAI_API_KEY required")
}
