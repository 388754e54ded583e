package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// IngestionRunRepository persists the per-run audit records.
type IngestionRunRepository struct {
	db dbtx
}

func NewIngestionRunRepository(pool *pgxpool.Pool) *IngestionRunRepository {
	return &IngestionRunRepository{db: pool}
}

func NewIngestionRunRepositoryWithTx(tx pgx.Tx) *IngestionRunRepository {
	return &IngestionRunRepository{db: tx}
}

func (r *IngestionRunRepository) Create(ctx context.Context, run *domain.IngestionRun) error {
	errsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode run errors: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO ingestion_runs
			(id, source_code, added, updated, unchanged, errors, sections, chunks, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.SourceCode, run.Added, run.Updated, run.Unchanged,
		errsJSON, run.Sections, run.Chunks, run.StartedAt, run.FinishedAt,
	)
	return err
}

func (r *IngestionRunRepository) GetByID(ctx context.Context, id string) (*domain.IngestionRun, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, source_code, added, updated, unchanged, errors, sections, chunks, started_at, finished_at
		 FROM ingestion_runs WHERE id = $1`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRecent returns the newest runs first, optionally filtered to one
// source code.
func (r *IngestionRunRepository) ListRecent(ctx context.Context, sourceCode string, limit int) ([]*domain.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if sourceCode != "" {
		rows, err = r.db.Query(ctx,
			`SELECT id, source_code, added, updated, unchanged, errors, sections, chunks, started_at, finished_at
			 FROM ingestion_runs WHERE source_code = $1
			 ORDER BY started_at DESC LIMIT $2`,
			sourceCode, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, source_code, added, updated, unchanged, errors, sections, chunks, started_at, finished_at
			 FROM ingestion_runs
			 ORDER BY started_at DESC LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.IngestionRun, error) {
	var run domain.IngestionRun
	var errsJSON []byte
	if err := row.Scan(
		&run.ID, &run.SourceCode, &run.Added, &run.Updated, &run.Unchanged,
		&errsJSON, &run.Sections, &run.Chunks, &run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(errsJSON, &run.Errors); err != nil {
		return nil, fmt.Errorf("failed to decode run errors: %w", err)
	}
	return &run, nil
}
