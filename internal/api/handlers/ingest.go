package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oracleconsulting/lightpoint-ingest/internal/api"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// ManualIngestService triggers and reports on manual-source ingestion.
type ManualIngestService interface {
	Ingest(ctx context.Context, source domain.SourceConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error)
	StalenessReport(ctx context.Context, staleAfter time.Duration) ([]*domain.StalenessCount, error)
	RecentRuns(ctx context.Context, sourceCode string, limit int) ([]*domain.IngestionRun, error)
}

// LegalIngestService triggers legislation and case-law ingestion.
type LegalIngestService interface {
	IngestLegislation(ctx context.Context, act domain.ActConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error)
	IngestSeedPrecedents(ctx context.Context, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error)
}

type IngestHandler struct {
	manuals ManualIngestService
	legal   LegalIngestService
}

func NewIngestHandler(manuals ManualIngestService, legal LegalIngestService) *IngestHandler {
	return &IngestHandler{manuals: manuals, legal: legal}
}

// Trigger runs one source synchronously. The path parameter accepts a
// manual code (CH), an Act identifier (TMA1970), or CASELAW.
func (h *IngestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "source")

	summary, err := h.ingestByCode(r.Context(), code)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if summary.Fatal() {
		status = http.StatusBadGateway
	}
	api.Success(w, status, summary)
}

func (h *IngestHandler) ingestByCode(ctx context.Context, code string) (*domain.IngestionSummary, error) {
	if code == domain.CaseLawCode {
		return h.legal.IngestSeedPrecedents(ctx, nil)
	}
	if source, err := domain.SourceByCode(code); err == nil {
		return h.manuals.Ingest(ctx, source, nil)
	}
	act, err := domain.ActByIdentifier(code)
	if err != nil {
		return nil, err
	}
	return h.legal.IngestLegislation(ctx, act, nil)
}

// Runs lists recent audit records, optionally filtered by ?source= and
// capped by ?limit=.
func (h *IngestHandler) Runs(w http.ResponseWriter, r *http.Request) {
	sourceCode := r.URL.Query().Get("source")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	runs, err := h.manuals.RecentRuns(r.Context(), sourceCode, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, runs)
}

// Stale reports per-source counts of entries not checked within the
// window given by ?days= (default 90).
func (h *IngestHandler) Stale(w http.ResponseWriter, r *http.Request) {
	days := 90
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.Error(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	counts, err := h.manuals.StalenessReport(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, counts)
}
