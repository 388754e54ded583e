package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
	"github.com/pgvector/pgvector-go"
)

type KnowledgeRepository struct {
	db dbtx
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: pool}
}

func NewKnowledgeRepositoryWithTx(tx pgx.Tx) *KnowledgeRepository {
	return &KnowledgeRepository{db: tx}
}

// UpsertChunk inserts a chunk entry or overwrites the live row with the
// same (section_reference, manual_code, chunk_index). The conflict target
// is the partial unique index on non-superseded rows, so a concurrent run
// cannot double-insert. The entry's ID is populated on return.
func (r *KnowledgeRepository) UpsertChunk(ctx context.Context, e *domain.KnowledgeEntry) error {
	now := time.Now().UTC()
	return r.db.QueryRow(ctx,
		`INSERT INTO knowledge_entries
			(category, title, content, source, source_url, verification_status,
			 section_reference, manual_code, parent_section, breadcrumb,
			 citation_format, document_type, embedding, chunk_index, total_chunks,
			 last_checked_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16, $16)
		 ON CONFLICT (section_reference, manual_code, chunk_index) WHERE NOT superseded
		 DO UPDATE SET
			category = EXCLUDED.category,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			parent_section = EXCLUDED.parent_section,
			breadcrumb = EXCLUDED.breadcrumb,
			citation_format = EXCLUDED.citation_format,
			document_type = EXCLUDED.document_type,
			embedding = EXCLUDED.embedding,
			total_chunks = EXCLUDED.total_chunks,
			last_checked_at = EXCLUDED.last_checked_at,
			updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		e.Category, e.Title, e.Content, e.Source, e.SourceURL, e.Verification,
		e.SectionReference, e.ManualCode, e.ParentSection, e.Breadcrumb,
		e.CitationFormat, e.DocumentType, pgvector.NewVector(e.Embedding),
		e.ChunkIndex, e.TotalChunks, now,
	).Scan(&e.ID)
}

// GetSectionChunks returns the live chunk rows for one section in chunk
// order. Embeddings are not read back; callers compare content only.
func (r *KnowledgeRepository) GetSectionChunks(ctx context.Context, sectionRef, manualCode string) ([]*domain.KnowledgeEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, category, title, content, source, source_url, verification_status,
			section_reference, manual_code, parent_section, breadcrumb,
			citation_format, document_type, chunk_index, total_chunks, superseded,
			COALESCE(last_checked_at, created_at), created_at, updated_at
		 FROM knowledge_entries
		 WHERE section_reference = $1 AND manual_code = $2 AND NOT superseded
		 ORDER BY chunk_index`,
		sectionRef, manualCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntryRows(rows)
}

// TouchSection bumps last_checked_at on every live row of a section
// without rewriting content or embeddings.
func (r *KnowledgeRepository) TouchSection(ctx context.Context, sectionRef, manualCode string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_entries SET last_checked_at = $1
		 WHERE section_reference = $2 AND manual_code = $3 AND NOT superseded`,
		time.Now().UTC(), sectionRef, manualCode,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// SupersedeFrom marks live rows with chunk_index >= fromIndex as
// superseded. Used when a re-chunk produces fewer chunks than before.
func (r *KnowledgeRepository) SupersedeFrom(ctx context.Context, sectionRef, manualCode string, fromIndex int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE knowledge_entries SET superseded = TRUE, updated_at = $1
		 WHERE section_reference = $2 AND manual_code = $3 AND chunk_index >= $4 AND NOT superseded`,
		time.Now().UTC(), sectionRef, manualCode, fromIndex,
	)
	return err
}

// CountStale reports how many live rows for a source have not been checked
// since the threshold. Rows never touched count from their creation time.
func (r *KnowledgeRepository) CountStale(ctx context.Context, manualCode string, threshold time.Time) (*domain.StalenessCount, error) {
	var sc domain.StalenessCount
	sc.ManualCode = manualCode
	sc.Threshold = threshold
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE COALESCE(last_checked_at, created_at) < $1),
			COUNT(*)
		 FROM knowledge_entries
		 WHERE manual_code = $2 AND NOT superseded`,
		threshold, manualCode,
	).Scan(&sc.Stale, &sc.Total)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func scanEntryRows(rows pgx.Rows) ([]*domain.KnowledgeEntry, error) {
	var results []*domain.KnowledgeEntry
	for rows.Next() {
		var e domain.KnowledgeEntry
		if err := rows.Scan(
			&e.ID, &e.Category, &e.Title, &e.Content, &e.Source, &e.SourceURL,
			&e.Verification, &e.SectionReference, &e.ManualCode, &e.ParentSection,
			&e.Breadcrumb, &e.CitationFormat, &e.DocumentType, &e.ChunkIndex,
			&e.TotalChunks, &e.Superseded, &e.LastCheckedAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, &e)
	}
	return results, rows.Err()
}
