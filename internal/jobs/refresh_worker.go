package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// ManualIngestor re-crawls every registered manual source.
type ManualIngestor interface {
	IngestAll(ctx context.Context, onProgress domain.ProgressFunc) ([]*domain.IngestionSummary, error)
}

// LegalIngestor re-fetches statutory provisions and refreshes the
// built-in precedents.
type LegalIngestor interface {
	IngestAllLegislation(ctx context.Context, onProgress domain.ProgressFunc) ([]*domain.IngestionSummary, error)
	IngestSeedPrecedents(ctx context.Context, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error)
}

// RefreshWorker re-ingests every knowledge source on each tick. Unchanged
// sections stay cheap: the dedup branching in the services skips
// re-embedding, so a quiet run only touches timestamps.
type RefreshWorker struct {
	manuals ManualIngestor
	legal   LegalIngestor
}

// NewRefreshWorker creates a new RefreshWorker instance
func NewRefreshWorker(manuals ManualIngestor, legal LegalIngestor) *RefreshWorker {
	return &RefreshWorker{
		manuals: manuals,
		legal:   legal,
	}
}

// Run implements the Runner interface
func (w *RefreshWorker) Run(ctx context.Context) error {
	log.Println("Scheduled refresh starting")

	summaries, err := w.manuals.IngestAll(ctx, nil)
	logSummaries(summaries)
	if err != nil {
		return fmt.Errorf("manual refresh failed: %w", err)
	}

	legSummaries, err := w.legal.IngestAllLegislation(ctx, nil)
	logSummaries(legSummaries)
	if err != nil {
		return fmt.Errorf("legislation refresh failed: %w", err)
	}

	caseSummary, err := w.legal.IngestSeedPrecedents(ctx, nil)
	if caseSummary != nil {
		logSummaries([]*domain.IngestionSummary{caseSummary})
	}
	if err != nil {
		return fmt.Errorf("case law refresh failed: %w", err)
	}

	log.Println("Scheduled refresh complete")
	return nil
}

func logSummaries(summaries []*domain.IngestionSummary) {
	for _, s := range summaries {
		if s.Fatal() {
			log.Printf("Refresh %s aborted: %s", s.SourceCode, s.Errors[0].Error)
			continue
		}
		log.Printf("Refresh %s: %d added, %d updated, %d unchanged, %d errors",
			s.SourceCode, s.Added, s.Updated, s.Unchanged, len(s.Errors))
	}
}
