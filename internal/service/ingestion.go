package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oracleconsulting/lightpoint-ingest/internal/chunker"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
	"github.com/oracleconsulting/lightpoint-ingest/internal/telemetry"
)

// KnowledgeStore defines the repository interface for knowledge persistence
type KnowledgeStore interface {
	UpsertChunk(ctx context.Context, e *domain.KnowledgeEntry) error
	GetSectionChunks(ctx context.Context, sectionRef, manualCode string) ([]*domain.KnowledgeEntry, error)
	TouchSection(ctx context.Context, sectionRef, manualCode string) error
	SupersedeFrom(ctx context.Context, sectionRef, manualCode string, fromIndex int) error
	CountStale(ctx context.Context, manualCode string, threshold time.Time) (*domain.StalenessCount, error)
}

// RunStore defines the repository interface for ingestion audit records
type RunStore interface {
	Create(ctx context.Context, run *domain.IngestionRun) error
	ListRecent(ctx context.Context, sourceCode string, limit int) ([]*domain.IngestionRun, error)
}

// SectionCrawler defines the crawler interface consumed by the orchestrator
type SectionCrawler interface {
	CheckAccessible(ctx context.Context, source domain.SourceConfig) error
	Crawl(ctx context.Context, source domain.SourceConfig, onProgress func(current, total int)) ([]domain.ManualSection, []domain.IngestionError, error)
}

// EmbeddingClient generates embedding vectors for batches of texts
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestionConfig tunes a multi-source ingestion run.
type IngestionConfig struct {
	ChunkConfig chunker.Config
	// SourcePause is the fixed wait between sources in IngestAll.
	SourcePause time.Duration
}

// IngestionService coordinates one source's pipeline: crawl, chunk, embed,
// store. Stages run strictly in sequence; a failing section or chunk never
// aborts the run, but an embedding batch failure does.
type IngestionService struct {
	crawler  SectionCrawler
	embedder EmbeddingClient
	store    KnowledgeStore
	runs     RunStore
	chunker  *chunker.Chunker
	pause    time.Duration
	uuidGen  UUIDGenerator
}

// NewIngestionService creates an IngestionService with default chunking
// and pacing configuration.
func NewIngestionService(crawler SectionCrawler, embedder EmbeddingClient, store KnowledgeStore, runs RunStore) *IngestionService {
	return NewIngestionServiceWithConfig(crawler, embedder, store, runs, IngestionConfig{
		ChunkConfig: chunker.DefaultConfig(),
		SourcePause: 30 * time.Second,
	})
}

// NewIngestionServiceWithConfig creates an IngestionService with explicit
// configuration.
func NewIngestionServiceWithConfig(crawler SectionCrawler, embedder EmbeddingClient, store KnowledgeStore, runs RunStore, cfg IngestionConfig) *IngestionService {
	return &IngestionService{
		crawler:  crawler,
		embedder: embedder,
		store:    store,
		runs:     runs,
		chunker:  chunker.New(cfg.ChunkConfig),
		pause:    cfg.SourcePause,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// sectionWork carries one section through the pipeline stages.
type sectionWork struct {
	section    domain.ManualSection
	chunks     []domain.ManualChunk
	existing   []*domain.KnowledgeEntry
	embeddings [][]float32
	status     domain.IngestionStatus
}

// Ingest runs the full pipeline for one source. The returned summary is
// never nil; a fatal pre-flight failure yields a summary with exactly one
// fatal error entry and a nil error. Only an embedding batch failure (or a
// cancelled context) propagates as an error, and the audit record is
// persisted in every case.
func (s *IngestionService) Ingest(ctx context.Context, source domain.SourceConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		SourceCode: source.Code,
		Operation:  "ingest",
	})
	defer span.End()

	summary := &domain.IngestionSummary{
		SourceCode: source.Code,
		StartedAt:  time.Now().UTC(),
	}

	if err := s.crawler.CheckAccessible(ctx, source); err != nil {
		return s.fatal(ctx, summary, err), nil
	}

	sections, crawlErrs, err := s.crawler.Crawl(ctx, source, func(current, total int) {
		report(onProgress, domain.StageCrawling, current, total)
	})
	if err != nil {
		return s.fatal(ctx, summary, err), nil
	}
	summary.Errors = append(summary.Errors, crawlErrs...)

	if len(sections) == 0 {
		summary.Errors = nil
		return s.fatal(ctx, summary, domain.ErrNoSectionsFound), nil
	}
	summary.Sections = len(sections)

	work := s.chunkSections(source, sections, summary, onProgress)
	s.classify(ctx, source, work, summary)

	pending := pendingWork(work)
	if err := s.embed(ctx, pending, summary, onProgress); err != nil {
		s.finish(ctx, summary)
		return summary, err
	}

	s.storeAll(ctx, source, pending, summary, onProgress)

	s.finish(ctx, summary)
	log.Printf("ingest %s: %d sections, %d chunks (%d added, %d updated, %d unchanged, %d errors)",
		source.Code, summary.Sections, summary.Chunks,
		summary.Added, summary.Updated, summary.Unchanged, len(summary.Errors))
	return summary, nil
}

// chunkSections runs the chunking stage, dropping sections that chunk to
// nothing.
func (s *IngestionService) chunkSections(source domain.SourceConfig, sections []domain.ManualSection, summary *domain.IngestionSummary, onProgress domain.ProgressFunc) []*sectionWork {
	var work []*sectionWork
	for i, sec := range sections {
		chunks := s.chunker.ChunkSection(sec, source)
		if len(chunks) > 0 {
			work = append(work, &sectionWork{section: sec, chunks: chunks})
			summary.Chunks += len(chunks)
		}
		report(onProgress, domain.StageChunking, i+1, len(sections))
	}
	return work
}

// classify decides each section's fate against the store: missing rows
// mean added, differing content means updated, identical content means
// unchanged (timestamp touch only, no re-embedding).
func (s *IngestionService) classify(ctx context.Context, source domain.SourceConfig, work []*sectionWork, summary *domain.IngestionSummary) {
	for _, w := range work {
		ref := w.section.SectionReference
		existing, err := s.store.GetSectionChunks(ctx, ref, source.Code)
		if err != nil {
			w.status = domain.StatusError
			summary.Errors = append(summary.Errors, domain.IngestionError{Section: ref, Error: err.Error()})
			continue
		}
		w.existing = existing

		switch {
		case len(existing) == 0:
			w.status = domain.StatusAdded
		case sameContent(existing, w.chunks):
			w.status = domain.StatusUnchanged
			if err := s.store.TouchSection(ctx, ref, source.Code); err != nil {
				log.Printf("ingest %s: touch %s failed: %v", source.Code, ref, err)
			}
			for range w.chunks {
				summary.Record(domain.IngestionResult{SectionReference: ref, Status: domain.StatusUnchanged})
			}
		default:
			w.status = domain.StatusUpdated
		}
	}
}

// pendingWork filters to the sections that still need embedding + storing.
func pendingWork(work []*sectionWork) []*sectionWork {
	var pending []*sectionWork
	for _, w := range work {
		if w.status == domain.StatusAdded || w.status == domain.StatusUpdated {
			pending = append(pending, w)
		}
	}
	return pending
}

// embed generates embeddings for every pending chunk in one batch call.
// A failure here is batch-wide and aborts the run.
func (s *IngestionService) embed(ctx context.Context, pending []*sectionWork, summary *domain.IngestionSummary, onProgress domain.ProgressFunc) error {
	var texts []string
	var all []domain.ManualChunk
	for _, w := range pending {
		for _, c := range w.chunks {
			texts = append(texts, c.EmbeddingText)
			all = append(all, c)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	est := chunker.EstimateEmbeddingCost(all)
	log.Printf("embedding %d chunks (~%d tokens, ~$%.4f)", est.Chunks, est.EstimatedTokens, est.EstimatedUSD)

	report(onProgress, domain.StageEmbedding, 0, len(texts))
	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		summary.Errors = append(summary.Errors, domain.IngestionError{Section: "embedding batch", Error: err.Error()})
		return err
	}
	report(onProgress, domain.StageEmbedding, len(texts), len(texts))

	// Hand each section its vectors, in the order the texts were gathered.
	idx := 0
	for _, w := range pending {
		w.embeddings = embeddings[idx : idx+len(w.chunks)]
		idx += len(w.chunks)
	}
	return nil
}

// storeAll upserts every pending chunk in chunk-index order. A failing
// chunk is recorded and skipped; stale rows beyond the new chunk count
// are superseded.
func (s *IngestionService) storeAll(ctx context.Context, source domain.SourceConfig, pending []*sectionWork, summary *domain.IngestionSummary, onProgress domain.ProgressFunc) {
	for i, w := range pending {
		ref := w.section.SectionReference
		for j, c := range w.chunks {
			entry := entryFromChunk(source, c, w.embeddings[j])
			result := domain.IngestionResult{SectionReference: ref, ChunkIndex: c.ChunkIndex, Status: w.status}
			if err := s.store.UpsertChunk(ctx, entry); err != nil {
				log.Printf("ingest %s: store %s chunk %d failed: %v", source.Code, ref, c.ChunkIndex, err)
				result.Status = domain.StatusError
				result.Err = err
			}
			summary.Record(result)
		}

		if len(w.existing) > len(w.chunks) {
			if err := s.store.SupersedeFrom(ctx, ref, source.Code, len(w.chunks)); err != nil {
				log.Printf("ingest %s: supersede %s failed: %v", source.Code, ref, err)
			}
		}
		report(onProgress, domain.StageStoring, i+1, len(pending))
	}
}

// IngestAll runs every registered source in priority order with a fixed
// pause between sources. A fatal summary for one source does not stop the
// others; a propagated error (embedding failure, cancellation) does.
func (s *IngestionService) IngestAll(ctx context.Context, onProgress domain.ProgressFunc) ([]*domain.IngestionSummary, error) {
	var summaries []*domain.IngestionSummary
	for i, source := range domain.Sources() {
		if i > 0 && s.pause > 0 {
			t := time.NewTimer(s.pause)
			select {
			case <-ctx.Done():
				t.Stop()
				return summaries, ctx.Err()
			case <-t.C:
			}
		}

		summary, err := s.Ingest(ctx, source, onProgress)
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// StalenessReport counts, per source, how many live entries have not been
// checked within the staleness window. Reporting only; it never triggers
// a re-crawl.
func (s *IngestionService) StalenessReport(ctx context.Context, staleAfter time.Duration) ([]*domain.StalenessCount, error) {
	threshold := time.Now().UTC().Add(-staleAfter)
	var counts []*domain.StalenessCount
	for _, source := range domain.Sources() {
		sc, err := s.store.CountStale(ctx, source.Code, threshold)
		if err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, nil
}

// RecentRuns lists persisted audit records, newest first.
func (s *IngestionService) RecentRuns(ctx context.Context, sourceCode string, limit int) ([]*domain.IngestionRun, error) {
	return s.runs.ListRecent(ctx, sourceCode, limit)
}

func (s *IngestionService) fatal(ctx context.Context, summary *domain.IngestionSummary, err error) *domain.IngestionSummary {
	log.Printf("ingest %s: fatal: %v", summary.SourceCode, err)
	telemetry.CaptureError(ctx, err)
	summary.Errors = append(summary.Errors, domain.IngestionError{
		Section: summary.SourceCode,
		Error:   err.Error(),
		Fatal:   true,
	})
	s.finish(ctx, summary)
	return summary
}

func (s *IngestionService) finish(ctx context.Context, summary *domain.IngestionSummary) {
	persistRun(ctx, s.runs, s.uuidGen, summary)
}

// persistRun stamps the summary and persists the audit record. Runs are
// recorded regardless of outcome; a failed audit write is logged, never
// propagated.
func persistRun(ctx context.Context, runs RunStore, gen UUIDGenerator, summary *domain.IngestionSummary) {
	summary.FinishedAt = time.Now().UTC()

	run := &domain.IngestionRun{
		ID:         gen.NewString(),
		SourceCode: summary.SourceCode,
		Added:      summary.Added,
		Updated:    summary.Updated,
		Unchanged:  summary.Unchanged,
		Errors:     summary.Errors,
		Sections:   summary.Sections,
		Chunks:     summary.Chunks,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}
	if err := runs.Create(ctx, run); err != nil {
		log.Printf("ingest %s: audit record failed: %v", summary.SourceCode, err)
		telemetry.CaptureError(ctx, err)
	}
}

func report(onProgress domain.ProgressFunc, stage domain.IngestionStage, current, total int) {
	if onProgress != nil {
		onProgress(stage, current, total)
	}
}

// sameContent reports whether the stored rows already hold exactly the
// newly chunked content, chunk for chunk.
func sameContent(existing []*domain.KnowledgeEntry, chunks []domain.ManualChunk) bool {
	if len(existing) != len(chunks) {
		return false
	}
	for i, e := range existing {
		if e.ChunkIndex != chunks[i].ChunkIndex || e.Content != chunks[i].Content {
			return false
		}
	}
	return true
}

func entryFromChunk(source domain.SourceConfig, c domain.ManualChunk, embedding []float32) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{
		Category:         source.Category,
		Title:            c.Title,
		Content:          c.Content,
		Source:           source.Name,
		SourceURL:        c.SourceURL,
		Verification:     domain.VerificationAuto,
		SectionReference: c.SectionReference,
		ManualCode:       c.ManualCode,
		ParentSection:    c.ParentSection,
		Breadcrumb:       c.Breadcrumb,
		CitationFormat:   c.CitationFormat,
		DocumentType:     source.Document,
		Embedding:        embedding,
		ChunkIndex:       c.ChunkIndex,
		TotalChunks:      c.TotalChunks,
	}
}
