package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

type MockManualIngestService struct {
	mock.Mock
}

func (m *MockManualIngestService) Ingest(ctx context.Context, source domain.SourceConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	args := m.Called(ctx, source, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionSummary), args.Error(1)
}

func (m *MockManualIngestService) StalenessReport(ctx context.Context, staleAfter time.Duration) ([]*domain.StalenessCount, error) {
	args := m.Called(ctx, staleAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StalenessCount), args.Error(1)
}

func (m *MockManualIngestService) RecentRuns(ctx context.Context, sourceCode string, limit int) ([]*domain.IngestionRun, error) {
	args := m.Called(ctx, sourceCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestionRun), args.Error(1)
}

type MockLegalIngestService struct {
	mock.Mock
}

func (m *MockLegalIngestService) IngestLegislation(ctx context.Context, act domain.ActConfig, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	args := m.Called(ctx, act, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionSummary), args.Error(1)
}

func (m *MockLegalIngestService) IngestSeedPrecedents(ctx context.Context, onProgress domain.ProgressFunc) (*domain.IngestionSummary, error) {
	args := m.Called(ctx, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionSummary), args.Error(1)
}

func triggerRequest(source string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/"+source, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("source", source)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestIngestHandler_Trigger_ManualSource(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	mockManuals.On("Ingest", mock.Anything, mock.MatchedBy(func(s domain.SourceConfig) bool {
		return s.Code == "CH"
	}), mock.Anything).Return(&domain.IngestionSummary{SourceCode: "CH", Added: 5}, nil)

	w := httptest.NewRecorder()
	handler.Trigger(w, triggerRequest("CH"))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "CH", data["source_code"])
	assert.Equal(t, float64(5), data["added"])
	mockManuals.AssertExpectations(t)
}

func TestIngestHandler_Trigger_ActIdentifier(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	mockLegal.On("IngestLegislation", mock.Anything, mock.MatchedBy(func(a domain.ActConfig) bool {
		return a.Identifier == "TMA1970"
	}), mock.Anything).Return(&domain.IngestionSummary{SourceCode: "TMA1970"}, nil)

	w := httptest.NewRecorder()
	handler.Trigger(w, triggerRequest("TMA1970"))

	assert.Equal(t, http.StatusOK, w.Code)
	mockLegal.AssertExpectations(t)
	mockManuals.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestHandler_Trigger_CaseLaw(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	mockLegal.On("IngestSeedPrecedents", mock.Anything, mock.Anything).Return(&domain.IngestionSummary{SourceCode: domain.CaseLawCode}, nil)

	w := httptest.NewRecorder()
	handler.Trigger(w, triggerRequest("CASELAW"))

	assert.Equal(t, http.StatusOK, w.Code)
	mockLegal.AssertExpectations(t)
}

func TestIngestHandler_Trigger_UnknownSource(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	w := httptest.NewRecorder()
	handler.Trigger(w, triggerRequest("NOPE"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockManuals.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestHandler_Trigger_FatalSummary(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	summary := &domain.IngestionSummary{
		SourceCode: "CH",
		Errors:     []domain.IngestionError{{Section: "CH", Error: "status 503", Fatal: true}},
	}
	mockManuals.On("Ingest", mock.Anything, mock.Anything, mock.Anything).Return(summary, nil)

	w := httptest.NewRecorder()
	handler.Trigger(w, triggerRequest("CH"))

	// The run ran and is audited, but the source was unreachable.
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIngestHandler_Runs(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	runs := []*domain.IngestionRun{{ID: "run-1", SourceCode: "CH"}}
	mockManuals.On("RecentRuns", mock.Anything, "CH", 5).Return(runs, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/runs?source=CH&limit=5", nil)
	w := httptest.NewRecorder()
	handler.Runs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockManuals.AssertExpectations(t)
}

func TestIngestHandler_Runs_DefaultLimit(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	mockManuals.On("RecentRuns", mock.Anything, "", 20).Return([]*domain.IngestionRun{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/runs", nil)
	w := httptest.NewRecorder()
	handler.Runs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockManuals.AssertExpectations(t)
}

func TestIngestHandler_Runs_InvalidLimit(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/runs?limit=9999", nil)
	w := httptest.NewRecorder()
	handler.Runs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockManuals.AssertNotCalled(t, "RecentRuns", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestHandler_Stale(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	counts := []*domain.StalenessCount{{ManualCode: "CH", Stale: 2, Total: 10}}
	mockManuals.On("StalenessReport", mock.Anything, 30*24*time.Hour).Return(counts, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/stale?days=30", nil)
	w := httptest.NewRecorder()
	handler.Stale(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockManuals.AssertExpectations(t)
}

func TestIngestHandler_Stale_InvalidDays(t *testing.T) {
	mockManuals := new(MockManualIngestService)
	mockLegal := new(MockLegalIngestService)
	handler := NewIngestHandler(mockManuals, mockLegal)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/stale?days=-1", nil)
	w := httptest.NewRecorder()
	handler.Stale(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
