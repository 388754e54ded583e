//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oracleconsulting/lightpoint-ingest/internal/api/handlers"
	"github.com/oracleconsulting/lightpoint-ingest/internal/chunker"
	"github.com/oracleconsulting/lightpoint-ingest/internal/crawler"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
	"github.com/oracleconsulting/lightpoint-ingest/internal/repository"
	"github.com/oracleconsulting/lightpoint-ingest/internal/server"
	"github.com/oracleconsulting/lightpoint-ingest/internal/service"
	"github.com/oracleconsulting/lightpoint-ingest/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests: a Postgres
// container, a fixture site standing in for gov.uk, the wired services,
// and the HTTP API in front of them.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Fixture    *httptest.Server
	API        *httptest.Server
	IngestSvc  *service.IngestionService
	LegalSvc   *service.LegalService
	Source     domain.SourceConfig
	HTTPClient *http.Client
}

// fixtureSections is the content served by the fixture manual site. Each
// body comfortably clears the minimum-content validation threshold.
var fixtureSections = map[string]struct {
	title string
	body  string
}{
	"th10000": {
		title: "Overview of compliance checks",
		body:  "HMRC carries out compliance checks to make sure the right amount of tax has been paid at the right time and that returns are accurate and complete.",
	},
	"th10100": {
		title: "Opening a compliance check",
		body:  "A compliance check normally opens with a written notice to the taxpayer explaining what is being checked, the period covered, and the information required.",
	},
}

// newFixtureSite serves a minimal manual in the markup shape the crawler
// expects: an index of section links plus one govspeak page per section.
func newFixtureSite() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/hmrc-internal-manuals/test-handbook", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><main>
			<h1>Test Handbook</h1>
			<ul>
				<li><a href="/hmrc-internal-manuals/test-handbook/th10000">TH10000</a></li>
				<li><a href="/hmrc-internal-manuals/test-handbook/th10100">TH10100</a></li>
				<li><a href="/other-manual/xx1">Unrelated</a></li>
			</ul>
		</main></body></html>`)
	})

	mux.HandleFunc("/hmrc-internal-manuals/test-handbook/", func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Path[len("/hmrc-internal-manuals/test-handbook/"):]
		sec, ok := fixtureSections[ref]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body><main>
			<h1>%s - %s</h1>
			<div class="govspeak"><p>%s</p></div>
		</main></body></html>`, ref, sec.title, sec.body)
	})

	return httptest.NewServer(mux)
}

// stubEmbedder produces deterministic vectors of the stored dimension so
// the pipeline can run without an OpenAI key.
type stubEmbedder struct{}

func (s *stubEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, 1536)
		vec[0] = float32(len(texts[i]))
		out[i] = vec
	}
	return out, nil
}

// SetupE2EEnv creates a full E2E test environment: container, fixture
// site, services, and HTTP server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	fixture := newFixtureSite()

	source := domain.SourceConfig{
		Code:      "TH",
		Name:      "Test Handbook",
		BaseURL:   fixture.URL,
		IndexPath: "/hmrc-internal-manuals/test-handbook",
		Category:  domain.CategoryHMRCPowers,
		Document:  domain.DocumentTypeManual,
	}

	fetcher := crawler.NewFetcher(5*time.Second, 1)
	sections := crawler.New(fetcher, 0)

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	runRepo := repository.NewIngestionRunRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	embedder := &stubEmbedder{}
	ingestSvc := service.NewIngestionServiceWithConfig(sections, embedder, knowledgeRepo, runRepo, service.IngestionConfig{
		ChunkConfig: chunker.DefaultConfig(),
		SourcePause: 0,
	})
	legalSvc := service.NewLegalService(sections, embedder, knowledgeRepo, runRepo, txRunner)

	router := server.NewRouter(server.RouterConfig{
		IngestHandler:   handlers.NewIngestHandler(ingestSvc, legalSvc),
		SanitizeHandler: handlers.NewSanitizeHandler(),
	})
	api := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Fixture:    fixture,
		API:        api,
		IngestSvc:  ingestSvc,
		LegalSvc:   legalSvc,
		Source:     source,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.API != nil {
		e.API.Close()
	}
	if e.Fixture != nil {
		e.Fixture.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse is the standard success envelope
type APIResponse struct {
	Data json.RawMessage `json:"data"`
}

// Get performs a GET against the API and decodes the success envelope
func (e *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	resp, err := e.HTTPClient.Get(e.API.URL + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var out APIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response %q: %w", body, err)
	}
	return &out, resp.StatusCode, nil
}

// Post performs a JSON POST against the API and returns the raw body
func (e *E2ETestEnv) Post(path string, payload interface{}) ([]byte, int, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := e.HTTPClient.Post(e.API.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

// CountEntries returns the number of live knowledge entries for a manual
func (e *E2ETestEnv) CountEntries(manualCode string) int {
	var count int
	err := e.Pool.QueryRow(e.Ctx,
		"SELECT COUNT(*) FROM knowledge_entries WHERE manual_code = $1 AND NOT superseded",
		manualCode,
	).Scan(&count)
	if err != nil {
		e.T.Fatalf("failed to count entries: %v", err)
	}
	return count
}
