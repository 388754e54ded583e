package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
	"github.com/oracleconsulting/lightpoint-ingest/internal/telemetry"
)

// LegislationFetcher fetches one numbered provision of an Act.
type LegislationFetcher interface {
	ParseLegislationSection(ctx context.Context, act domain.ActConfig, sectionNumber string) (*domain.LegislationSection, error)
}

// LegalService ingests statutory provisions and case precedents into the
// unified knowledge store, alongside the manual records. A provision is
// keyed by (section number, act identifier); a precedent by its citation
// under the CASELAW code.
type LegalService struct {
	fetcher  LegislationFetcher
	embedder EmbeddingClient
	store    KnowledgeStore
	runs     RunStore
	tx       TxRunner
	uuidGen  UUIDGenerator
}

// NewLegalService creates a LegalService.
func NewLegalService(fetcher LegislationFetcher, embedder EmbeddingClient, store KnowledgeStore, runs RunStore, tx TxRunner) *LegalService {
	return &LegalService{
		fetcher:  fetcher,
		embedder: embedder,
		store:    store,
		runs:     runs,
		tx:       tx,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// legislationWork carries one fetched provision through the pipeline.
type legislationWork struct {
	section   *domain.LegislationSection
	status    domain.IngestionStatus
	embedding []float32
}

// IngestLegislation fetches and upserts the configured provisions of one
// Act. Each provision stores as a single chunk. A failing provision is
// recorded and skipped; only an embedding batch failure aborts the run.
// The audit record is persisted in every case.
func (s *LegalService) IngestLegislation(ctx context.Context, act domain.ActConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "LegalService.IngestLegislation", telemetry.SpanAttributes{
		SourceCode: act.Identifier,
		Operation:  "ingest_legislation",
	})
	defer span.End()

	summary := &domain.IngestionSummary{
		SourceCode: act.Identifier,
		StartedAt:  time.Now().UTC(),
	}

	var fetched []*domain.LegislationSection
	for i, num := range act.Sections {
		sec, err := s.fetcher.ParseLegislationSection(ctx, act, num)
		if err != nil {
			log.Printf("legislation %s: s %s failed: %v", act.Identifier, num, err)
			summary.Errors = append(summary.Errors, domain.IngestionError{Section: num, Error: err.Error()})
		} else if sec != nil {
			fetched = append(fetched, sec)
		}
		report(onProgress, domain.StageCrawling, i+1, len(act.Sections))
	}
	summary.Sections = len(fetched)

	var pending []*legislationWork
	for _, sec := range fetched {
		existing, err := s.store.GetSectionChunks(ctx, sec.SectionNumber, act.Identifier)
		if err != nil {
			summary.Errors = append(summary.Errors, domain.IngestionError{Section: sec.SectionNumber, Error: err.Error()})
			continue
		}
		if len(existing) == 1 && existing[0].Content == sec.Content {
			if err := s.store.TouchSection(ctx, sec.SectionNumber, act.Identifier); err != nil {
				log.Printf("legislation %s: touch s %s failed: %v", act.Identifier, sec.SectionNumber, err)
			}
			summary.Record(domain.IngestionResult{SectionReference: sec.SectionNumber, Status: domain.StatusUnchanged})
			continue
		}
		status := domain.StatusAdded
		if len(existing) > 0 {
			status = domain.StatusUpdated
		}
		pending = append(pending, &legislationWork{section: sec, status: status})
		summary.Chunks++
	}

	if err := s.embedLegislation(ctx, pending, summary, onProgress); err != nil {
		persistRun(ctx, s.runs, s.uuidGen, summary)
		return summary, err
	}

	for i, w := range pending {
		entry := entryFromLegislation(act, w.section, w.embedding)
		result := domain.IngestionResult{SectionReference: w.section.SectionNumber, Status: w.status}
		if err := s.store.UpsertChunk(ctx, entry); err != nil {
			log.Printf("legislation %s: store s %s failed: %v", act.Identifier, w.section.SectionNumber, err)
			result.Status = domain.StatusError
			result.Err = err
		}
		summary.Record(result)
		report(onProgress, domain.StageStoring, i+1, len(pending))
	}

	persistRun(ctx, s.runs, s.uuidGen, summary)
	log.Printf("legislation %s: %d provisions (%d added, %d updated, %d unchanged, %d errors)",
		act.Identifier, summary.Sections,
		summary.Added, summary.Updated, summary.Unchanged, len(summary.Errors))
	return summary, nil
}

// IngestAllLegislation runs every registered Act in turn. A failed run
// for one Act does not stop the others.
func (s *LegalService) IngestAllLegislation(ctx context.Context, onProgress domain.ProgressFunc) ([]*domain.IngestionSummary, error) {
	var summaries []*domain.IngestionSummary
	for _, act := range domain.Acts() {
		summary, err := s.IngestLegislation(ctx, act, onProgress)
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

func (s *LegalService) embedLegislation(ctx context.Context, pending []*legislationWork, summary *domain.IngestionSummary, onProgress domain.ProgressFunc) error {
	if len(pending) == 0 {
		return nil
	}
	texts := make([]string, len(pending))
	for i, w := range pending {
		texts[i] = legislationEmbeddingText(w.section)
	}

	report(onProgress, domain.StageEmbedding, 0, len(texts))
	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		summary.Errors = append(summary.Errors, domain.IngestionError{Section: "embedding batch", Error: err.Error()})
		return err
	}
	report(onProgress, domain.StageEmbedding, len(texts), len(texts))

	for i, w := range pending {
		w.embedding = embeddings[i]
	}
	return nil
}

// caseWork carries one precedent through the pipeline. Each precedent
// fans out to two records: the full case text at chunk 0 and a compact
// summary card at chunk 1, each with its own embedding, so that both a
// detailed match and a quick-reference match can surface in retrieval.
type caseWork struct {
	precedent domain.CasePrecedent
	status    domain.IngestionStatus
	full      string
	card      string
	fullVec   []float32
	cardVec   []float32
}

// IngestCasePrecedents upserts the given precedents under the CASELAW
// code. Both records of a case are written in one transaction so a case
// is never half-stored. Only an embedding batch failure aborts the run.
func (s *LegalService) IngestCasePrecedents(ctx context.Context, cases []domain.CasePrecedent, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "LegalService.IngestCasePrecedents", telemetry.SpanAttributes{
		SourceCode: domain.CaseLawCode,
		Operation:  "ingest_case_law",
	})
	defer span.End()

	summary := &domain.IngestionSummary{
		SourceCode: domain.CaseLawCode,
		StartedAt:  time.Now().UTC(),
	}
	summary.Sections = len(cases)

	var pending []*caseWork
	for i, c := range cases {
		full := caseFullText(c)
		card := caseCardText(c)

		existing, err := s.store.GetSectionChunks(ctx, c.CaseReference, domain.CaseLawCode)
		if err != nil {
			summary.Errors = append(summary.Errors, domain.IngestionError{Section: c.CaseReference, Error: err.Error()})
			report(onProgress, domain.StageChunking, i+1, len(cases))
			continue
		}
		if len(existing) == 2 && existing[0].Content == full && existing[1].Content == card {
			if err := s.store.TouchSection(ctx, c.CaseReference, domain.CaseLawCode); err != nil {
				log.Printf("case law: touch %s failed: %v", c.CaseReference, err)
			}
			summary.Record(domain.IngestionResult{SectionReference: c.CaseReference, Status: domain.StatusUnchanged})
			summary.Record(domain.IngestionResult{SectionReference: c.CaseReference, ChunkIndex: 1, Status: domain.StatusUnchanged})
			report(onProgress, domain.StageChunking, i+1, len(cases))
			continue
		}
		status := domain.StatusAdded
		if len(existing) > 0 {
			status = domain.StatusUpdated
		}
		pending = append(pending, &caseWork{precedent: c, status: status, full: full, card: card})
		summary.Chunks += 2
		report(onProgress, domain.StageChunking, i+1, len(cases))
	}

	if err := s.embedCases(ctx, pending, summary, onProgress); err != nil {
		persistRun(ctx, s.runs, s.uuidGen, summary)
		return summary, err
	}

	for i, w := range pending {
		ref := w.precedent.CaseReference
		err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Knowledge().UpsertChunk(ctx, entryFromCase(w, 0)); err != nil {
				return err
			}
			return repos.Knowledge().UpsertChunk(ctx, entryFromCase(w, 1))
		})
		for chunk := 0; chunk < 2; chunk++ {
			result := domain.IngestionResult{SectionReference: ref, ChunkIndex: chunk, Status: w.status}
			if err != nil {
				result.Status = domain.StatusError
				result.Err = err
			}
			summary.Record(result)
		}
		if err != nil {
			log.Printf("case law: store %s failed: %v", ref, err)
		}
		report(onProgress, domain.StageStoring, i+1, len(pending))
	}

	persistRun(ctx, s.runs, s.uuidGen, summary)
	log.Printf("case law: %d cases (%d added, %d updated, %d unchanged, %d errors)",
		summary.Sections, summary.Added, summary.Updated, summary.Unchanged, len(summary.Errors))
	return summary, nil
}

// IngestSeedPrecedents ingests the built-in precedent registry.
func (s *LegalService) IngestSeedPrecedents(ctx context.Context, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	return s.IngestCasePrecedents(ctx, domain.SeedPrecedents(), onProgress)
}

func (s *LegalService) embedCases(ctx context.Context, pending []*caseWork, summary *domain.IngestionSummary, onProgress domain.ProgressFunc) error {
	if len(pending) == 0 {
		return nil
	}
	texts := make([]string, 0, len(pending)*2)
	for _, w := range pending {
		texts = append(texts, w.full, w.card)
	}

	report(onProgress, domain.StageEmbedding, 0, len(texts))
	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		summary.Errors = append(summary.Errors, domain.IngestionError{Section: "embedding batch", Error: err.Error()})
		return err
	}
	report(onProgress, domain.StageEmbedding, len(texts), len(texts))

	for i, w := range pending {
		w.fullVec = embeddings[i*2]
		w.cardVec = embeddings[i*2+1]
	}
	return nil
}

func legislationCitation(act domain.ActConfig, sectionNumber string) string {
	return fmt.Sprintf("%s, s %s", act.Name, sectionNumber)
}

func legislationEmbeddingText(sec *domain.LegislationSection) string {
	return fmt.Sprintf("%s, s %s: %s\n\n%s", sec.ActName, sec.SectionNumber, sec.Title, sec.Content)
}

func entryFromLegislation(act domain.ActConfig, sec *domain.LegislationSection, embedding []float32) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{
		Category:         domain.CategoryLegislation,
		Title:            fmt.Sprintf("s %s %s: %s", sec.SectionNumber, act.Identifier, sec.Title),
		Content:          sec.Content,
		Source:           act.Name,
		SourceURL:        sec.SourceURL,
		Verification:     domain.VerificationAuto,
		SectionReference: sec.SectionNumber,
		ManualCode:       act.Identifier,
		Breadcrumb:       []string{"Legislation", act.Name},
		CitationFormat:   legislationCitation(act, sec.SectionNumber),
		DocumentType:     domain.DocumentTypeLegislation,
		Embedding:        embedding,
		ChunkIndex:       0,
		TotalChunks:      1,
	}
}

func caseCitation(c domain.CasePrecedent) string {
	return fmt.Sprintf("%s %s", c.CaseName, c.CaseReference)
}

// caseFullText is the chunk-0 content: the complete narrative record of
// the case.
func caseFullText(c domain.CasePrecedent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n%s, %d\n\n", c.CaseName, c.CaseReference, c.Court, c.Year)
	fmt.Fprintf(&b, "%s\n\nOutcome: %s", c.Summary, c.Outcome)
	if len(c.KeyPrinciples) > 0 {
		b.WriteString("\n\nKey principles:")
		for _, p := range c.KeyPrinciples {
			fmt.Fprintf(&b, "\n- %s", p)
		}
	}
	return b.String()
}

// caseCardText is the chunk-1 content: a one-glance card of outcome and
// principles.
func caseCardText(c domain.CasePrecedent) string {
	principles := strings.Join(c.KeyPrinciples, "; ")
	return fmt.Sprintf("%s (%s, %d). Outcome: %s. Principles: %s.",
		caseCitation(c), c.Court, c.Year, c.Outcome, principles)
}

func entryFromCase(w *caseWork, chunkIndex int) *domain.KnowledgeEntry {
	c := w.precedent
	content, embedding := w.full, w.fullVec
	title := c.CaseName
	if chunkIndex == 1 {
		content, embedding = w.card, w.cardVec
		title = c.CaseName + " (summary card)"
	}
	return &domain.KnowledgeEntry{
		Category:         domain.CategoryCaseLaw,
		Title:            title,
		Content:          content,
		Source:           c.Court,
		SourceURL:        c.SourceURL,
		Verification:     domain.VerificationAuto,
		SectionReference: c.CaseReference,
		ManualCode:       domain.CaseLawCode,
		Breadcrumb:       []string{"Case law", c.Court},
		CitationFormat:   caseCitation(c),
		DocumentType:     domain.DocumentTypeCaseLaw,
		Embedding:        embedding,
		ChunkIndex:       chunkIndex,
		TotalChunks:      2,
	}
}
